package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/scalesurvey/scale-survey/model"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const surveyColumns = `
	s.id, s.key, s.admin_code, s.title, s.description, s.status,
	s.start_date, s.end_date, s.allow_live_results, s.created_at, s.updated_at`

func scanSurvey(row *sql.Row) (s model.Survey, err error) {
	var startDate, endDate sql.NullInt64
	err = row.Scan(
		&s.ID, &s.Key, &s.AdminCode, &s.Title, &s.Description, &s.Status,
		&startDate, &endDate, &s.AllowLiveResults, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return
	}

	if startDate.Valid {
		s.StartDate = &startDate.Int64
	}
	if endDate.Valid {
		s.EndDate = &endDate.Int64
	}
	return
}

func getSurveyByID(ctx context.Context, q querier, surveyID string) (model.Survey, error) {
	return scanSurvey(q.QueryRowContext(ctx, `
		SELECT `+surveyColumns+`
		FROM survey s
		WHERE s.id = ?`,
		surveyID,
	))
}

func getSurveyByKey(ctx context.Context, q querier, key string) (model.Survey, error) {
	return scanSurvey(q.QueryRowContext(ctx, `
		SELECT `+surveyColumns+`
		FROM survey s
		WHERE s.key = ?`,
		key,
	))
}

func getSurveyByAdminCode(ctx context.Context, q querier, adminCode string) (model.Survey, error) {
	return scanSurvey(q.QueryRowContext(ctx, `
		SELECT `+surveyColumns+`
		FROM survey s
		WHERE s.admin_code = ?`,
		adminCode,
	))
}

func getQuestions(ctx context.Context, q querier, surveyID string) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, survey_id, type, title, description, optional, ord, config
		FROM question
		WHERE survey_id = ?
		ORDER BY ord`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var question model.Question
		var config string
		err = rows.Scan(
			&question.ID, &question.SurveyID, &question.Type, &question.Title,
			&question.Description, &question.Optional, &question.Order, &config,
		)
		if err != nil {
			return nil, err
		}
		question.Config = json.RawMessage(config)

		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func getResponses(ctx context.Context, q querier, surveyID string) ([]model.Response, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, survey_id, answers, participant_fingerprint, submitted_at
		FROM response
		WHERE survey_id = ?
		ORDER BY submitted_at`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var response model.Response
		var answers string
		var fingerprint sql.NullString
		err = rows.Scan(&response.ID, &response.SurveyID, &answers, &fingerprint, &response.SubmittedAt)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal([]byte(answers), &response.Answers)
		if err != nil {
			return nil, err
		}
		response.ParticipantFingerprint = fingerprint.String

		responses = append(responses, response)
	}
	return responses, rows.Err()
}

// touchSurvey refreshes updated_at; called by every survey or question
// mutation.
func touchSurvey(ctx context.Context, e execer, surveyID string, now int64) error {
	_, err := e.ExecContext(ctx, `
		UPDATE survey SET updated_at = ? WHERE id = ?`,
		now, surveyID,
	)
	return err
}
