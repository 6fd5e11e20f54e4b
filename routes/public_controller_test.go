package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/scalesurvey/scale-survey/model"
	"github.com/scalesurvey/scale-survey/questions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitRating(t *testing.T, handler http.Handler, key, questionID string, value any, fingerprint string) *recResult {
	t.Helper()

	body := map[string]any{
		"answers": []map[string]any{
			{"questionId": questionID, "value": value},
		},
	}
	if fingerprint != "" {
		body["participantFingerprint"] = fingerprint
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/surveys/"+key+"/responses", body, "")
	return &recResult{rec.Code, rec.Body.String()}
}

type recResult struct {
	code int
	body string
}

func TestPublicGetSurveyStripsAdminCode(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)

	rec := doJSON(t, handler, http.MethodGet, "/api/surveys/"+survey.Key, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.NotContains(t, rec.Body.String(), "adminCode")
	assert.NotContains(t, rec.Body.String(), survey.AdminCode)

	var got struct {
		Survey        model.Survey        `json:"survey"`
		Admissibility model.Admissibility `json:"admissibility"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, survey.SurveyID, got.Survey.ID)
	assert.Equal(t, model.NotPublished, got.Admissibility)
}

func TestPublicGetSurveyUnknownKey(t *testing.T) {
	_, handler := newTestApp(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/surveys/zzzzzz", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitToDraftSurvey(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)
	id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))

	res := submitRating(t, handler, survey.Key, id, 3, "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.code)
	assert.Contains(t, res.body, "survey is not published")
}

func TestSubmitOutsideWindow(t *testing.T) {
	_, handler := newTestApp(t)

	now := time.Now().UnixMilli()
	hour := int64(time.Hour / time.Millisecond)

	t.Run("not started", func(t *testing.T) {
		survey := createTestSurvey(t, handler, map[string]any{
			"title":     "Future",
			"startDate": now + hour,
		})
		id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
		publishTestSurvey(t, handler, survey)

		res := submitRating(t, handler, survey.Key, id, 3, "")
		assert.Equal(t, http.StatusUnprocessableEntity, res.code)
		assert.Contains(t, res.body, "survey has not started yet")
	})

	t.Run("ended", func(t *testing.T) {
		survey := createTestSurvey(t, handler, map[string]any{"title": "Past"})
		id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
		publishTestSurvey(t, handler, survey)

		rec := doJSON(t, handler, http.MethodPatch, "/api/admin/surveys/"+survey.SurveyID, map[string]any{
			"startDate": now - 2*hour,
			"endDate":   now - hour,
		}, survey.AdminCode)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		res := submitRating(t, handler, survey.Key, id, 3, "")
		assert.Equal(t, http.StatusUnprocessableEntity, res.code)
		assert.Contains(t, res.body, "survey has ended")
	})

	t.Run("closed", func(t *testing.T) {
		survey := createTestSurvey(t, handler, map[string]any{"title": "Closed"})
		id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
		publishTestSurvey(t, handler, survey)
		rec := doJSON(t, handler, http.MethodPost, "/api/admin/surveys/"+survey.SurveyID+"/close", nil, survey.AdminCode)
		require.Equal(t, http.StatusNoContent, rec.Code)

		res := submitRating(t, handler, survey.Key, id, 3, "")
		assert.Equal(t, http.StatusUnprocessableEntity, res.code)
		assert.Contains(t, res.body, "survey has ended")
	})
}

func TestSubmitAndCount(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)
	id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
	publishTestSurvey(t, handler, survey)

	res := submitRating(t, handler, survey.Key, id, 4, "")
	require.Equal(t, http.StatusCreated, res.code, res.body)
	assert.Contains(t, res.body, "responseId")

	res = submitRating(t, handler, survey.Key, id, 5, "")
	require.Equal(t, http.StatusCreated, res.code, res.body)

	rec := doJSON(t, handler, http.MethodGet, "/api/surveys/"+survey.Key+"/responses/count", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, 2, got.Count)
}

func TestSubmitResponseBodyIsJSON(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)
	id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
	publishTestSurvey(t, handler, survey)

	rec := doJSON(t, handler, http.MethodPost, "/api/surveys/"+survey.Key+"/responses", map[string]any{
		"answers": []map[string]any{
			{"questionId": id, "value": 4},
		},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestDuplicateFingerprintRejected(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)
	id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
	publishTestSurvey(t, handler, survey)

	res := submitRating(t, handler, survey.Key, id, 4, "fp-one")
	require.Equal(t, http.StatusCreated, res.code, res.body)

	res = submitRating(t, handler, survey.Key, id, 5, "fp-one")
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Contains(t, res.body, "already submitted")

	// a different participant is unaffected
	res = submitRating(t, handler, survey.Key, id, 5, "fp-two")
	assert.Equal(t, http.StatusCreated, res.code, res.body)

	// the same fingerprint may answer a different survey
	other := createTestSurvey(t, handler, map[string]any{"title": "Other"})
	otherQ := addTestQuestion(t, handler, other, ratingQuestionBody("Q"))
	publishTestSurvey(t, handler, other)

	res = submitRating(t, handler, other.Key, otherQ, 3, "fp-one")
	assert.Equal(t, http.StatusCreated, res.code, res.body)
}

func TestSubmitCollectsAllValidationErrors(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)

	ratingID := addTestQuestion(t, handler, survey, ratingQuestionBody("Rate"))
	textID := addTestQuestion(t, handler, survey, map[string]any{
		"type":  "text",
		"title": "Explain",
	})
	optionalID := addTestQuestion(t, handler, survey, map[string]any{
		"type":     "text",
		"title":    "Extra",
		"optional": true,
	})
	publishTestSurvey(t, handler, survey)

	// rating out of range, required text missing, optional text missing
	rec := doJSON(t, handler, http.MethodPost, "/api/surveys/"+survey.Key+"/responses", map[string]any{
		"answers": []map[string]any{
			{"questionId": ratingID, "value": 99},
		},
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, rec, &got)
	assert.Len(t, got.Errors, 2)
	assert.Contains(t, got.Errors, ratingID)
	assert.Contains(t, got.Errors, textID)
	assert.NotContains(t, got.Errors, optionalID)
}

func TestLiveResultsGate(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)
	addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
	publishTestSurvey(t, handler, survey)

	for _, path := range []string{"/live", "/live/results"} {
		rec := doJSON(t, handler, http.MethodGet, "/api/surveys/"+survey.Key+path, nil, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "live results are not enabled")
	}

	rec := doJSON(t, handler, http.MethodPatch, "/api/admin/surveys/"+survey.SurveyID, map[string]any{
		"allowLiveResults": true,
	}, survey.AdminCode)
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, path := range []string{"/live", "/live/results"} {
		rec := doJSON(t, handler, http.MethodGet, "/api/surveys/"+survey.Key+path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLiveResponsesHideFingerprints(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, map[string]any{
		"title":            "Live",
		"allowLiveResults": true,
	})
	id := addTestQuestion(t, handler, survey, ratingQuestionBody("Q"))
	publishTestSurvey(t, handler, survey)

	res := submitRating(t, handler, survey.Key, id, 4, "secret-fingerprint")
	require.Equal(t, http.StatusCreated, res.code, res.body)

	rec := doJSON(t, handler, http.MethodGet, "/api/surveys/"+survey.Key+"/live", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-fingerprint")

	// the admin view keeps them
	rec = doJSON(t, handler, http.MethodGet, "/api/admin/surveys/"+survey.SurveyID+"/responses", nil, survey.AdminCode)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "secret-fingerprint")
}

func TestResultsAggregation(t *testing.T) {
	_, handler := newTestApp(t)
	survey := createTestSurvey(t, handler, nil)
	id := addTestQuestion(t, handler, survey, ratingQuestionBody("Rate your meal"))
	publishTestSurvey(t, handler, survey)

	for i, value := range []int{5, 4, 5, 3} {
		res := submitRating(t, handler, survey.Key, id, value, fmt.Sprintf("fp-%d", i))
		require.Equal(t, http.StatusCreated, res.code, res.body)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/admin/surveys/"+survey.SurveyID+"/results", nil, survey.AdminCode)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		ResponseCount int `json:"responseCount"`
		Results       []struct {
			QuestionID string                   `json:"questionId"`
			Type       string                   `json:"type"`
			Results    questions.NumericResults `json:"results"`
		} `json:"results"`
	}
	decodeBody(t, rec, &got)

	assert.Equal(t, 4, got.ResponseCount)
	require.Len(t, got.Results, 1)
	require.Equal(t, id, got.Results[0].QuestionID)

	stats := got.Results[0].Results
	assert.Equal(t, 4, stats.Answered)
	assert.InDelta(t, 4.25, stats.Average, 1e-9)
	assert.Equal(t, []questions.Bucket{
		{Value: 1, Count: 0},
		{Value: 2, Count: 0},
		{Value: 3, Count: 1},
		{Value: 4, Count: 1},
		{Value: 5, Count: 2},
	}, stats.Histogram)
}
