package questions

import (
	"encoding/json"
	"errors"

	"github.com/scalesurvey/scale-survey/model"
)

type MultipleChoiceConfig struct {
	Options       []Option `json:"options"`
	MinSelections *int     `json:"minSelections,omitempty"`
	MaxSelections *int     `json:"maxSelections,omitempty"`
}

// MultipleChoice lets participants select any number of options, optionally
// bounded by minSelections/maxSelections.
type MultipleChoice struct{}

func (MultipleChoice) Tag() string   { return "multiple_choice" }
func (MultipleChoice) Label() string { return "Multiple Choice" }

func (MultipleChoice) DefaultConfig() any {
	return MultipleChoiceConfig{Options: defaultOptions()}
}

func (MultipleChoice) ValidateConfig(raw json.RawMessage) error {
	var cfg MultipleChoiceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	if err := validateOptions(cfg.Options); err != nil {
		return err
	}
	if cfg.MinSelections != nil && *cfg.MinSelections < 0 {
		return errors.New("minSelections must not be negative")
	}
	if cfg.MaxSelections != nil && *cfg.MaxSelections < 1 {
		return errors.New("maxSelections must be at least 1")
	}
	if cfg.MinSelections != nil && cfg.MaxSelections != nil && *cfg.MinSelections > *cfg.MaxSelections {
		return errors.New("minSelections must not exceed maxSelections")
	}
	return nil
}

func (MultipleChoice) ValidateResponse(q model.Question, value any) Result {
	var cfg MultipleChoiceConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return invalid("invalid question configuration")
	}

	if noValue(value) {
		if !q.Optional {
			return invalid("this question is required")
		}
		// minSelections binds even when the question is optional
		if cfg.MinSelections != nil && *cfg.MinSelections > 0 {
			return invalid("please select at least %d %s", *cfg.MinSelections, plural(*cfg.MinSelections, "option"))
		}
		return ok()
	}

	selected, isList := toStringList(value)
	if !isList {
		return invalid("invalid option selected")
	}

	if cfg.MinSelections != nil && len(selected) < *cfg.MinSelections {
		return invalid("please select at least %d %s", *cfg.MinSelections, plural(*cfg.MinSelections, "option"))
	}
	if cfg.MaxSelections != nil && len(selected) > *cfg.MaxSelections {
		return invalid("please select at most %d %s", *cfg.MaxSelections, plural(*cfg.MaxSelections, "option"))
	}

	valid := make(map[string]bool, len(cfg.Options))
	for _, opt := range cfg.Options {
		valid[opt.ID] = true
	}
	for _, id := range selected {
		if !valid[id] {
			return invalid("invalid option selected")
		}
	}
	return ok()
}

// Aggregate counts multi-membership: one response can contribute to several
// option counts, so percentages may sum past 100.
func (MultipleChoice) Aggregate(q model.Question, values []any) (any, error) {
	var cfg MultipleChoiceConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(cfg.Options))
	answered := 0
	for _, value := range values {
		selected, isList := toStringList(value)
		if !isList || len(selected) == 0 {
			continue
		}
		answered++
		for _, id := range selected {
			counts[id]++
		}
	}

	results := ChoiceResults{Answered: answered, Options: make([]OptionCount, 0, len(cfg.Options))}
	for _, opt := range cfg.Options {
		results.Options = append(results.Options, optionCount(opt, counts[opt.ID], answered))
	}
	return results, nil
}
