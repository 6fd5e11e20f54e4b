// Package localstore is the device-scoped mirror a client keeps of the
// surveys it created or visited, plus a ledger of surveys it already
// submitted to. It is a convenience cache: it may be stale, absent or reset
// at any time without affecting server-side correctness, and it is never
// transmitted.
package localstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type Survey struct {
	SurveyID       string `json:"surveyId"`
	AdminCode      string `json:"adminCode"`
	Key            string `json:"key"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"createdAt"`
	LastAccessedAt int64  `json:"lastAccessedAt"`
}

type Submission struct {
	SurveyID    string `json:"surveyId"`
	Fingerprint string `json:"fingerprint"`
	SubmittedAt int64  `json:"submittedAt"`
}

type storeData struct {
	Surveys     []Survey     `json:"surveys"`
	Submissions []Submission `json:"submissions"`
}

type Store struct {
	path string

	mu   sync.Mutex
	data storeData
}

// Open loads the store file, or starts empty if it does not exist yet.
func Open(path string) (*Store, error) {
	store := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &store.data)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// flush must be called with mu held.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "\t")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// SaveSurvey records a created or visited survey. An existing entry with the
// same survey id is replaced.
func (s *Store) SaveSurvey(survey Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	survey.LastAccessedAt = time.Now().UnixMilli()
	for i, existing := range s.data.Surveys {
		if existing.SurveyID == survey.SurveyID {
			s.data.Surveys[i] = survey
			return s.flush()
		}
	}
	s.data.Surveys = append(s.data.Surveys, survey)
	return s.flush()
}

func (s *Store) SurveyByKey(key string) (Survey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, survey := range s.data.Surveys {
		if survey.Key == key {
			return survey, true
		}
	}
	return Survey{}, false
}

func (s *Store) SurveyByID(surveyID string) (Survey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, survey := range s.data.Surveys {
		if survey.SurveyID == surveyID {
			return survey, true
		}
	}
	return Survey{}, false
}

// Surveys lists the saved surveys, most recently accessed first.
func (s *Store) Surveys() []Survey {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Survey, len(s.data.Surveys))
	copy(out, s.data.Surveys)
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessedAt > out[j].LastAccessedAt
	})
	return out
}

// Touch refreshes a survey's last access time. Unknown ids are ignored.
func (s *Store) Touch(surveyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Surveys {
		if s.data.Surveys[i].SurveyID == surveyID {
			s.data.Surveys[i].LastAccessedAt = time.Now().UnixMilli()
			return s.flush()
		}
	}
	return nil
}

// SetStatus updates the mirrored lifecycle status. Unknown ids are ignored.
func (s *Store) SetStatus(surveyID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Surveys {
		if s.data.Surveys[i].SurveyID == surveyID {
			s.data.Surveys[i].Status = status
			s.data.Surveys[i].LastAccessedAt = time.Now().UnixMilli()
			return s.flush()
		}
	}
	return nil
}

func (s *Store) DeleteSurvey(surveyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, survey := range s.data.Surveys {
		if survey.SurveyID == surveyID {
			s.data.Surveys = append(s.data.Surveys[:i], s.data.Surveys[i+1:]...)
			return s.flush()
		}
	}
	return nil
}

// RecordSubmission remembers that this device already submitted to a survey.
func (s *Store) RecordSubmission(surveyID, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Submissions = append(s.data.Submissions, Submission{
		SurveyID:    surveyID,
		Fingerprint: fingerprint,
		SubmittedAt: time.Now().UnixMilli(),
	})
	return s.flush()
}

// HasSubmitted is the client-side short-circuit of the duplicate guard: a
// hit saves a round-trip, a miss proves nothing. The server-side check is
// authoritative.
func (s *Store) HasSubmitted(surveyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, submission := range s.data.Submissions {
		if submission.SurveyID == surveyID {
			return true
		}
	}
	return false
}
