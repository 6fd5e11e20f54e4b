package questions

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scalesurvey/scale-survey/model"
)

type TextConfig struct {
	Placeholder string `json:"placeholder,omitempty"`
	MaxLength   *int   `json:"maxLength,omitempty"`
}

const textMaxLengthLimit = 5000

// Text is an open-ended free text question.
type Text struct{}

func (Text) Tag() string   { return "text" }
func (Text) Label() string { return "Text Response" }

func (Text) DefaultConfig() any {
	return TextConfig{}
}

func (Text) ValidateConfig(raw json.RawMessage) error {
	var cfg TextConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	if cfg.MaxLength != nil && (*cfg.MaxLength < 1 || *cfg.MaxLength > textMaxLengthLimit) {
		return fmt.Errorf("maxLength must be between 1 and %d", textMaxLengthLimit)
	}
	return nil
}

func (Text) ValidateResponse(q model.Question, value any) Result {
	var cfg TextConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return invalid("invalid question configuration")
	}

	if noValue(value) {
		if q.Optional {
			return ok()
		}
		return invalid("this question is required")
	}

	text, isString := value.(string)
	if !isString {
		return invalid("invalid value")
	}

	if cfg.MaxLength != nil && utf8.RuneCountInString(strings.TrimSpace(text)) > *cfg.MaxLength {
		return invalid("text must be at most %d characters", *cfg.MaxLength)
	}
	return ok()
}

func (Text) Aggregate(q model.Question, values []any) (any, error) {
	results := TextResults{Values: []string{}}
	for _, value := range values {
		text, isString := value.(string)
		if !isString || strings.TrimSpace(text) == "" {
			continue
		}
		results.Answered++
		results.Values = append(results.Values, text)
	}
	return results, nil
}
