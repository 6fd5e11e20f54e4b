package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/scalesurvey/scale-survey/app"
	"github.com/scalesurvey/scale-survey/database"
	"github.com/scalesurvey/scale-survey/httpx"
	"github.com/scalesurvey/scale-survey/keygen"
	"github.com/scalesurvey/scale-survey/model"
	"github.com/scalesurvey/scale-survey/questions"
	"github.com/scalesurvey/scale-survey/routes/middlewares"
)

// errInvalidAdminCode covers both "no such survey/question" and "wrong
// code": admin failures never reveal whether the target exists.
var errInvalidAdminCode = errors.New("invalid admin code")

// adminSurvey loads a survey and verifies the caller's admin code against it.
func adminSurvey(app app.App, r *http.Request, surveyID string) (model.Survey, error) {
	survey, err := getSurveyByID(r.Context(), app, surveyID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Survey{}, errInvalidAdminCode
	}
	if err != nil {
		return model.Survey{}, err
	}
	if survey.AdminCode != middlewares.GetAdminCode(r) {
		return model.Survey{}, errInvalidAdminCode
	}
	return survey, nil
}

// adminQuestion loads a question together with its parent survey, verifying
// the admin code against the survey.
func adminQuestion(app app.App, r *http.Request, questionID string) (model.Question, model.Survey, error) {
	var question model.Question
	var config string
	err := app.QueryRowContext(r.Context(), `
		SELECT id, survey_id, type, title, description, optional, ord, config
		FROM question
		WHERE id = ?`,
		questionID,
	).Scan(
		&question.ID, &question.SurveyID, &question.Type, &question.Title,
		&question.Description, &question.Optional, &question.Order, &config,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Question{}, model.Survey{}, errInvalidAdminCode
	}
	if err != nil {
		return model.Question{}, model.Survey{}, err
	}
	question.Config = json.RawMessage(config)

	survey, err := adminSurvey(app, r, question.SurveyID)
	if err != nil {
		return model.Question{}, model.Survey{}, err
	}
	return question, survey, nil
}

func adminError(w http.ResponseWriter, r *http.Request, code string, err error) {
	if errors.Is(err, errInvalidAdminCode) {
		httpx.JSONError(w, r, http.StatusUnauthorized, code, "invalid admin code")
	} else {
		httpx.LogInternalError(w, code, err)
	}
}

type createSurveyRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	AllowLiveResults bool   `json:"allowLiveResults"`
	StartDate        *int64 `json:"startDate"`
	EndDate          *int64 `json:"endDate"`
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSurveyRequest
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "create_survey.parse_body", "invalid request body")
			return
		}

		if strings.TrimSpace(req.Title) == "" {
			httpx.JSONError(w, r, http.StatusBadRequest, "create_survey.title", "title is required")
			return
		}
		if req.StartDate != nil && req.EndDate != nil && *req.StartDate >= *req.EndDate {
			httpx.JSONError(w, r, http.StatusBadRequest, "create_survey.dates", "startDate must be before endDate")
			return
		}

		surveyID := uuid.NewString()
		now := time.Now().UnixMilli()

		// key and admin code are globally unique; regenerate on the off
		// chance of a collision
		var key, adminCode string
		for attempt := 0; ; attempt++ {
			key, err = keygen.SurveyKey()
			if err != nil {
				httpx.LogInternalError(w, "create_survey.keygen", err)
				return
			}
			adminCode, err = keygen.AdminCode()
			if err != nil {
				httpx.LogInternalError(w, "create_survey.keygen", err)
				return
			}

			_, err = app.ExecContext(r.Context(), `
				INSERT INTO survey (
					id, key, admin_code, title, description, status,
					start_date, end_date, allow_live_results, created_at, updated_at
				)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				surveyID, key, adminCode, req.Title, req.Description, model.StatusDraft,
				req.StartDate, req.EndDate, req.AllowLiveResults, now, now,
			)
			if err == nil {
				break
			}
			if database.IsUniqueViolation(err) && attempt < 5 {
				continue
			}
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"surveyId":  surveyID,
			"adminCode": adminCode,
			"key":       key,
		})
	}
}

func GetSurveyByAdminCode(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := getSurveyByAdminCode(r.Context(), app, middlewares.GetAdminCode(r))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.JSONNotFound(w, r, "get_survey_by_admin_code", "survey")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey_by_admin_code", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

type surveyPatch struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	AllowLiveResults *bool   `json:"allowLiveResults"`
	StartDate        *int64  `json:"startDate"`
	EndDate          *int64  `json:"endDate"`
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "update_survey.auth", err)
			return
		}

		var patch surveyPatch
		err = render.DecodeJSON(r.Body, &patch)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "update_survey.parse_body", "invalid request body")
			return
		}

		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				httpx.JSONError(w, r, http.StatusBadRequest, "update_survey.title", "title is required")
				return
			}
			survey.Title = *patch.Title
		}
		if patch.Description != nil {
			survey.Description = *patch.Description
		}
		if patch.AllowLiveResults != nil {
			survey.AllowLiveResults = *patch.AllowLiveResults
		}
		if patch.StartDate != nil {
			survey.StartDate = patch.StartDate
		}
		if patch.EndDate != nil {
			survey.EndDate = patch.EndDate
		}
		if survey.StartDate != nil && survey.EndDate != nil && *survey.StartDate >= *survey.EndDate {
			httpx.JSONError(w, r, http.StatusBadRequest, "update_survey.dates", "startDate must be before endDate")
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				allow_live_results = ?,
				start_date = ?,
				end_date = ?,
				updated_at = ?
			WHERE id = ?`,
			survey.Title, survey.Description, survey.AllowLiveResults,
			survey.StartDate, survey.EndDate, time.Now().UnixMilli(),
			survey.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func PublishSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "publish_survey.auth", err)
			return
		}

		if !survey.Status.CanTransition(model.StatusPublished) {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "publish_survey.status", "survey is not in draft")
			return
		}

		var questionCount int
		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM question WHERE survey_id = ?`,
			survey.ID,
		).Scan(&questionCount)
		if err != nil {
			httpx.LogInternalError(w, "db.publish_survey.count_questions", err)
			return
		}
		if questionCount == 0 {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "publish_survey.no_questions", "cannot publish survey without questions")
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE survey SET status = ?, updated_at = ? WHERE id = ?`,
			model.StatusPublished, time.Now().UnixMilli(), survey.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.publish_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CloseSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "close_survey.auth", err)
			return
		}

		if !survey.Status.CanTransition(model.StatusClosed) {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "close_survey.status", "survey is not published")
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE survey SET status = ?, updated_at = ? WHERE id = ?`,
			model.StatusClosed, time.Now().UnixMilli(), survey.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.close_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type addQuestionRequest struct {
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Optional    bool            `json:"optional"`
	Config      json.RawMessage `json:"config"`
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "add_question.auth", err)
			return
		}
		if survey.Status != model.StatusDraft {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "add_question.status", "survey is not in draft")
			return
		}

		var req addQuestionRequest
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "add_question.parse_body", "invalid request body")
			return
		}

		if strings.TrimSpace(req.Title) == "" {
			httpx.JSONError(w, r, http.StatusBadRequest, "add_question.title", "title is required")
			return
		}
		def, found := questions.Get(req.Type)
		if !found {
			httpx.JSONError(w, r, http.StatusBadRequest, "add_question.type", "unknown question type")
			return
		}

		config := req.Config
		if len(config) == 0 {
			config, err = json.Marshal(def.DefaultConfig())
			if err != nil {
				httpx.LogInternalError(w, "add_question.default_config", err)
				return
			}
		}
		if err := def.ValidateConfig(config); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "add_question.config", err.Error())
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		// append at the end of the order
		var order int
		err = tx.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM question WHERE survey_id = ?`,
			survey.ID,
		).Scan(&order)
		if err != nil {
			httpx.LogInternalError(w, "db.add_question.count", err)
			return
		}

		questionID := uuid.NewString()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO question (id, survey_id, type, title, description, optional, ord, config)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			questionID, survey.ID, req.Type, req.Title, req.Description, req.Optional, order, string(config),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.add_question.insert", err)
			return
		}

		err = touchSurvey(r.Context(), tx, survey.ID, time.Now().UnixMilli())
		if err != nil {
			httpx.LogInternalError(w, "db.add_question.touch", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.add_question.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"questionId": questionID,
		})
	}
}

type questionPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Optional    *bool            `json:"optional"`
	Config      *json.RawMessage `json:"config"`
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, survey, err := adminQuestion(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "update_question.auth", err)
			return
		}
		if survey.Status != model.StatusDraft {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "update_question.status", "survey is not in draft")
			return
		}

		var patch questionPatch
		err = render.DecodeJSON(r.Body, &patch)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "update_question.parse_body", "invalid request body")
			return
		}

		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				httpx.JSONError(w, r, http.StatusBadRequest, "update_question.title", "title is required")
				return
			}
			question.Title = *patch.Title
		}
		if patch.Description != nil {
			question.Description = *patch.Description
		}
		if patch.Optional != nil {
			question.Optional = *patch.Optional
		}
		if patch.Config != nil {
			def, found := questions.Get(question.Type)
			if !found {
				httpx.JSONError(w, r, http.StatusBadRequest, "update_question.type", "unknown question type")
				return
			}
			if err := def.ValidateConfig(*patch.Config); err != nil {
				httpx.JSONError(w, r, http.StatusBadRequest, "update_question.config", err.Error())
				return
			}
			question.Config = *patch.Config
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			UPDATE question
			SET title = ?, description = ?, optional = ?, config = ?
			WHERE id = ?`,
			question.Title, question.Description, question.Optional, string(question.Config),
			question.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}

		err = touchSurvey(r.Context(), tx, survey.ID, time.Now().UnixMilli())
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.touch", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func RemoveQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, survey, err := adminQuestion(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "remove_question.auth", err)
			return
		}
		if survey.Status != model.StatusDraft {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "remove_question.status", "survey is not in draft")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question WHERE id = ?`,
			question.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.remove_question", err)
			return
		}

		// close the gap: every sibling past the deleted slot shifts down one
		_, err = tx.ExecContext(r.Context(), `
			UPDATE question
			SET ord = ord - 1
			WHERE survey_id = ? AND ord > ?`,
			survey.ID, question.Order,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.remove_question.renumber", err)
			return
		}

		err = touchSurvey(r.Context(), tx, survey.ID, time.Now().UnixMilli())
		if err != nil {
			httpx.LogInternalError(w, "db.remove_question.touch", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.remove_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderRequest struct {
	QuestionIDs []string `json:"questionIds"`
}

func ReorderQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "reorder_questions.auth", err)
			return
		}
		if survey.Status != model.StatusDraft {
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "reorder_questions.status", "survey is not in draft")
			return
		}

		var req reorderRequest
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "reorder_questions.parse_body", "invalid request body")
			return
		}

		existing, err := getQuestions(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.reorder_questions.get", err)
			return
		}

		// the supplied list must be a permutation of the current question
		// set, or a dropped id would silently lose its slot
		if !isPermutation(req.QuestionIDs, existing) {
			httpx.JSONError(w, r, http.StatusBadRequest, "reorder_questions.ids", "question ids do not match the survey's questions")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for i, questionID := range req.QuestionIDs {
			_, err = tx.ExecContext(r.Context(), `
				UPDATE question SET ord = ? WHERE id = ?`,
				i, questionID,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.reorder_questions.update", err)
				return
			}
		}

		err = touchSurvey(r.Context(), tx, survey.ID, time.Now().UnixMilli())
		if err != nil {
			httpx.LogInternalError(w, "db.reorder_questions.touch", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.reorder_questions.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func isPermutation(ids []string, existing []model.Question) bool {
	if len(ids) != len(existing) {
		return false
	}
	known := make(map[string]bool, len(existing))
	for _, q := range existing {
		known[q.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return false
		}
		delete(known, id)
	}
	return len(known) == 0
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "get_responses.auth", err)
			return
		}

		responses, err := getResponses(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func GetSurveyResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := adminSurvey(app, r, chi.URLParam(r, "id"))
		if err != nil {
			adminError(w, r, "get_results.auth", err)
			return
		}

		qs, err := getQuestions(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_results.questions", err)
			return
		}
		responses, err := getResponses(r.Context(), app, survey.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_results.responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responseCount": len(responses),
			"results":       questions.AggregateAll(qs, responses),
		})
	}
}
