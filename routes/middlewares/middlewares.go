package middlewares

import (
	"context"
	"net/http"

	"github.com/scalesurvey/scale-survey/httpx"
)

type contextKey int

const adminCodeKey contextKey = iota

// HeaderAdminCode is the request header carrying the survey's secret
// credential on admin routes.
const HeaderAdminCode = "X-Admin-Code"

// AdminCode extracts the admin code header into the request context. A
// missing code fails the same way as a wrong one: the error surface never
// distinguishes "no such survey" from "wrong code".
func AdminCode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.Header.Get(HeaderAdminCode)
		if code == "" {
			httpx.JSONError(w, r, http.StatusUnauthorized, "admin.missing_code", "invalid admin code")
			return
		}

		ctx := context.WithValue(r.Context(), adminCodeKey, code)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAdminCode returns the admin code placed in the context by AdminCode.
func GetAdminCode(r *http.Request) string {
	code, _ := r.Context().Value(adminCodeKey).(string)
	return code
}
