// Package questions defines the capability contract shared by all question
// types, a process-wide registry of implementations, and the five built-in
// types: single choice, multiple choice, free text, star rating and numeric
// scale.
package questions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/scalesurvey/scale-survey/model"
)

// Definition is the uniform capability set every question type implements.
type Definition interface {
	// Tag identifies the type in persisted questions.
	Tag() string
	// Label is the human-readable type name.
	Label() string
	// DefaultConfig produces an initial config value for a freshly added
	// question. It must already pass ValidateConfig.
	DefaultConfig() any
	// ValidateConfig checks a raw config payload for structural validity.
	ValidateConfig(raw json.RawMessage) error
	// ValidateResponse checks a candidate answer value against the question,
	// honoring its optional flag.
	ValidateResponse(q model.Question, value any) Result
	// Aggregate turns the raw answer values collected for this question into
	// display-ready statistics.
	Aggregate(q model.Question, values []any) (any, error)
}

// Result is the outcome of a response validation: either valid, or invalid
// with a human-readable reason.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func ok() Result {
	return Result{Valid: true}
}

func invalid(format string, args ...any) Result {
	return Result{Valid: false, Error: fmt.Sprintf(format, args...)}
}

// Option is a selectable choice of a single_choice or multiple_choice
// question.
type Option struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

const (
	minOptions = 2
	maxOptions = 10
)

func validateOptions(options []Option) error {
	if len(options) < minOptions {
		return fmt.Errorf("at least %d options are required", minOptions)
	}
	if len(options) > maxOptions {
		return fmt.Errorf("maximum %d options allowed", maxOptions)
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("option text is required")
		}
		if opt.ID == "" || seen[opt.ID] {
			return fmt.Errorf("option ids must be unique")
		}
		seen[opt.ID] = true
	}
	return nil
}

func defaultOptions() []Option {
	return []Option{
		{ID: uuid.NewString(), Text: "Option 1", Order: 0},
		{ID: uuid.NewString(), Text: "Option 2", Order: 1},
	}
}

// noValue reports whether a decoded answer value counts as "not answered".
// Empty strings, empty lists and nil are all treated the same way.
func noValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// toNumber normalizes the numeric types a JSON decode (or a caller) may
// produce.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// toStringList normalizes a decoded multi-select value. The second return is
// false when the value is present but not a list of strings.
func toStringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
