package routes

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scalesurvey/scale-survey/app"
	"github.com/scalesurvey/scale-survey/config"
	"github.com/scalesurvey/scale-survey/database"
	"github.com/scalesurvey/scale-survey/model"
	"github.com/scalesurvey/scale-survey/questions"
	"github.com/scalesurvey/scale-survey/routes/middlewares"
	"github.com/stretchr/testify/require"
)

// newTestApp opens a fresh in-memory database, migrated, unique per test.
func newTestApp(t *testing.T) (app.App, http.Handler) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.Config{
		DBUrl: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)

	// pin one connection so the shared in-memory database outlives pool churn
	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		db.Close()
	})

	a := app.App{DB: db, Config: cfg}
	return a, Wire(a)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, adminCode string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if adminCode != "" {
		req.Header.Set(middlewares.HeaderAdminCode, adminCode)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "body: %s", rec.Body.String())
}

type createdSurvey struct {
	SurveyID  string `json:"surveyId"`
	AdminCode string `json:"adminCode"`
	Key       string `json:"key"`
}

func createTestSurvey(t *testing.T, handler http.Handler, body map[string]any) createdSurvey {
	t.Helper()

	if body == nil {
		body = map[string]any{"title": "Test survey"}
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/surveys", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created createdSurvey
	decodeBody(t, rec, &created)
	return created
}

func addTestQuestion(t *testing.T, handler http.Handler, survey createdSurvey, body map[string]any) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/admin/surveys/"+survey.SurveyID+"/questions", body, survey.AdminCode)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		QuestionID string `json:"questionId"`
	}
	decodeBody(t, rec, &created)
	return created.QuestionID
}

func ratingQuestionBody(title string) map[string]any {
	return map[string]any{
		"type":   "rating",
		"title":  title,
		"config": questions.RatingConfig{MaxRating: 5},
	}
}

func publishTestSurvey(t *testing.T, handler http.Handler, survey createdSurvey) {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/admin/surveys/"+survey.SurveyID+"/publish", nil, survey.AdminCode)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func listQuestions(t *testing.T, handler http.Handler, key string) []model.Question {
	t.Helper()

	rec := doJSON(t, handler, http.MethodGet, "/api/surveys/"+key+"/questions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Questions []model.Question `json:"questions"`
	}
	decodeBody(t, rec, &got)
	return got.Questions
}

func questionIDs(qs []model.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

func surveyStatus(t *testing.T, db *sql.DB, surveyID string) string {
	t.Helper()

	var status string
	err := db.QueryRow(`SELECT status FROM survey WHERE id = ?`, surveyID).Scan(&status)
	require.NoError(t, err)
	return status
}
