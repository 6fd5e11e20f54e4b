package model

import "encoding/json"

type Survey struct {
	ID               string `json:"id"`
	Key              string `json:"key"`
	AdminCode        string `json:"adminCode,omitempty"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Status           Status `json:"status"`
	StartDate        *int64 `json:"startDate,omitempty"`
	EndDate          *int64 `json:"endDate,omitempty"`
	AllowLiveResults bool   `json:"allowLiveResults"`
	CreatedAt        int64  `json:"createdAt"`
	UpdatedAt        int64  `json:"updatedAt"`
}

type Question struct {
	ID          string          `json:"id"`
	SurveyID    string          `json:"surveyId"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Optional    bool            `json:"optional"`
	Order       int             `json:"order"`
	Config      json.RawMessage `json:"config"`
}

type Response struct {
	ID                     string   `json:"id"`
	SurveyID               string   `json:"surveyId"`
	Answers                []Answer `json:"answers"`
	ParticipantFingerprint string   `json:"participantFingerprint,omitempty"`
	SubmittedAt            int64    `json:"submittedAt"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}
