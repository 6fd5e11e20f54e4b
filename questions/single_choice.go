package questions

import (
	"encoding/json"

	"github.com/scalesurvey/scale-survey/model"
)

type SingleChoiceConfig struct {
	Options []Option `json:"options"`
}

// SingleChoice lets participants select exactly one option from a list.
type SingleChoice struct{}

func (SingleChoice) Tag() string   { return "single_choice" }
func (SingleChoice) Label() string { return "Single Choice" }

func (SingleChoice) DefaultConfig() any {
	return SingleChoiceConfig{Options: defaultOptions()}
}

func (SingleChoice) ValidateConfig(raw json.RawMessage) error {
	var cfg SingleChoiceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	return validateOptions(cfg.Options)
}

func (SingleChoice) ValidateResponse(q model.Question, value any) Result {
	var cfg SingleChoiceConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return invalid("invalid question configuration")
	}

	if noValue(value) {
		if q.Optional {
			return ok()
		}
		return invalid("this question is required")
	}

	id, isString := value.(string)
	if !isString {
		return invalid("invalid option selected")
	}
	for _, opt := range cfg.Options {
		if opt.ID == id {
			return ok()
		}
	}
	return invalid("invalid option selected")
}

func (SingleChoice) Aggregate(q model.Question, values []any) (any, error) {
	var cfg SingleChoiceConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(cfg.Options))
	answered := 0
	for _, value := range values {
		if noValue(value) {
			continue
		}
		answered++
		if id, isString := value.(string); isString {
			counts[id]++
		}
	}

	results := ChoiceResults{Answered: answered, Options: make([]OptionCount, 0, len(cfg.Options))}
	for _, opt := range cfg.Options {
		results.Options = append(results.Options, optionCount(opt, counts[opt.ID], answered))
	}
	return results, nil
}
