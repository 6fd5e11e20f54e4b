package httpx

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/scalesurvey/scale-survey/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send a JSON error payload with the given status
func JSONError(w http.ResponseWriter, r *http.Request, status int, code string, msg string) {
	log.Debugf("%s: %s", code, msg)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": msg})
}

// Like JSONError, but with a structured payload of per-field failures
func JSONErrors(w http.ResponseWriter, r *http.Request, status int, code string, errs map[string]string) {
	log.Debugf("%s: %v", code, errs)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"errors": errs})
}

// Will log a debug message, and send a JSON "not found" payload with status 404
func JSONNotFound(w http.ResponseWriter, r *http.Request, code string, what string) {
	JSONError(w, r, http.StatusNotFound, code, what+" not found")
}
