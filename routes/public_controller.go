package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/scalesurvey/scale-survey/app"
	"github.com/scalesurvey/scale-survey/database"
	"github.com/scalesurvey/scale-survey/httpx"
	"github.com/scalesurvey/scale-survey/log"
	"github.com/scalesurvey/scale-survey/model"
	"github.com/scalesurvey/scale-survey/questions"
)

// publicSurvey resolves a key to its survey. The admin code is blanked
// before the survey ever reaches a public response body.
func publicSurvey(app app.App, r *http.Request, w http.ResponseWriter, code string) (model.Survey, bool) {
	survey, err := getSurveyByKey(r.Context(), app, chi.URLParam(r, "key"))
	if errors.Is(err, sql.ErrNoRows) {
		httpx.JSONNotFound(w, r, code, "survey")
		return model.Survey{}, false
	}
	if err != nil {
		httpx.LogInternalError(w, code, err)
		return model.Survey{}, false
	}

	survey.AdminCode = ""
	return survey, true
}

func PublicGetSurveyByKey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, found := publicSurvey(app, r, w, "db.get_survey_by_key")
		if !found {
			return
		}

		render.JSON(w, r, map[string]any{
			"survey":        survey,
			"admissibility": survey.Admissibility(time.Now()),
		})
	}
}

func PublicGetQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, found := publicSurvey(app, r, w, "db.get_questions.survey")
		if !found {
			return
		}

		qs, err := getQuestions(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"questions": qs,
		})
	}
}

type submitRequest struct {
	Answers                []model.Answer `json:"answers"`
	ParticipantFingerprint string         `json:"participantFingerprint"`
}

type fingerprintCheck struct {
	acquire     bool
	surveyID    string
	fingerprint string
	result      chan<- bool
}

func PublicSubmitResponse(app app.App) http.HandlerFunc {
	// serialize concurrent submissions from the same fingerprint: the
	// check-then-insert below is not atomic on its own
	inFlight := make(chan fingerprintCheck)
	go func() {
		submitting := make(map[string]bool)

		for {
			req := <-inFlight
			k := req.surveyID + "\x00" + req.fingerprint
			if req.acquire {
				req.result <- submitting[k]
				submitting[k] = true
			} else {
				delete(submitting, k)
			}
		}
	}()

	return func(w http.ResponseWriter, r *http.Request) {
		survey, found := publicSurvey(app, r, w, "db.submit_response.survey")
		if !found {
			return
		}

		switch survey.Admissibility(time.Now()) {
		case model.NotPublished:
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "submit_response.not_published", "survey is not published")
			return
		case model.NotStarted:
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "submit_response.not_started", "survey has not started yet")
			return
		case model.Ended:
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "submit_response.ended", "survey has ended")
			return
		}

		var req submitRequest
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "submit_response.parse_body", "invalid request body")
			return
		}

		qs, err := getQuestions(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_response.questions", err)
			return
		}

		// validate every question and collect all failures, so the caller
		// can display them at once
		values := make(map[string]any, len(req.Answers))
		for _, answer := range req.Answers {
			values[answer.QuestionID] = answer.Value
		}

		validationErrors := map[string]string{}
		for _, q := range qs {
			def, registered := questions.Get(q.Type)
			if !registered {
				log.Warnf("submit_response: skipping question %s of unregistered type %q", q.ID, q.Type)
				continue
			}
			if result := def.ValidateResponse(q, values[q.ID]); !result.Valid {
				validationErrors[q.ID] = result.Error
			}
		}
		if len(validationErrors) > 0 {
			httpx.JSONErrors(w, r, http.StatusUnprocessableEntity, "submit_response.validation", validationErrors)
			return
		}

		fingerprint := req.ParticipantFingerprint
		if fingerprint != "" {
			// reject a fingerprint that is mid-submission right now
			done := make(chan bool)
			inFlight <- fingerprintCheck{true, survey.ID, fingerprint, done}
			if <-done {
				httpx.JSONError(w, r, http.StatusConflict, "submit_response.in_flight", "already submitted")
				return
			}
			defer func() { inFlight <- fingerprintCheck{false, survey.ID, fingerprint, nil} }()

			var alreadySubmitted bool
			err = app.QueryRowContext(r.Context(), `
				SELECT 1 FROM response
				WHERE survey_id = ?
					AND participant_fingerprint = ?`,
				survey.ID, fingerprint,
			).Scan(&alreadySubmitted)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				httpx.LogInternalError(w, "db.submit_response.fingerprint", err)
				return
			}
			if alreadySubmitted {
				httpx.JSONError(w, r, http.StatusConflict, "submit_response.duplicate", "already submitted")
				return
			}
		}

		answersJSON, err := json.Marshal(req.Answers)
		if err != nil {
			httpx.LogInternalError(w, "submit_response.marshal_answers", err)
			return
		}

		responseID := uuid.NewString()
		var storedFingerprint *string
		if fingerprint != "" {
			storedFingerprint = &fingerprint
		}
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO response (id, survey_id, answers, participant_fingerprint, submitted_at)
			VALUES (?, ?, ?, ?, ?)`,
			responseID, survey.ID, string(answersJSON), storedFingerprint, time.Now().UnixMilli(),
		)
		if database.IsUniqueViolation(err) {
			// a concurrent submission with the same fingerprint won the race
			httpx.JSONError(w, r, http.StatusConflict, "submit_response.duplicate", "already submitted")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.submit_response.insert", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"responseId": responseID,
		})
	}
}

func PublicGetResponseCount(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, found := publicSurvey(app, r, w, "db.get_response_count.survey")
		if !found {
			return
		}

		var count int
		err := app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM response WHERE survey_id = ?`,
			survey.ID,
		).Scan(&count)
		if err != nil {
			httpx.LogInternalError(w, "db.get_response_count", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"count": count,
		})
	}
}

// liveSurvey additionally checks the allowLiveResults gate.
func liveSurvey(app app.App, r *http.Request, w http.ResponseWriter, code string) (model.Survey, bool) {
	survey, found := publicSurvey(app, r, w, code)
	if !found {
		return model.Survey{}, false
	}
	if !survey.AllowLiveResults {
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, code+".gate", "live results are not enabled for this survey")
		return model.Survey{}, false
	}
	return survey, true
}

func PublicGetLiveResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, found := liveSurvey(app, r, w, "db.get_live_responses")
		if !found {
			return
		}

		responses, err := getResponses(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_live_responses", err)
			return
		}

		// fingerprints stay server-side on public paths
		for i := range responses {
			responses[i].ParticipantFingerprint = ""
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func PublicGetLiveResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, found := liveSurvey(app, r, w, "db.get_live_results")
		if !found {
			return
		}

		qs, err := getQuestions(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_live_results.questions", err)
			return
		}
		responses, err := getResponses(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_live_results.responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responseCount": len(responses),
			"results":       questions.AggregateAll(qs, responses),
		})
	}
}
