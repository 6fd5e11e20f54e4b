package questions

import (
	"encoding/json"
	"errors"

	"github.com/scalesurvey/scale-survey/model"
)

type ScaleConfig struct {
	MinValue int    `json:"minValue"`
	MaxValue int    `json:"maxValue"`
	MinLabel string `json:"minLabel,omitempty"`
	MaxLabel string `json:"maxLabel,omitempty"`
}

// Scale is a numeric scale with a custom integer range.
type Scale struct{}

func (Scale) Tag() string   { return "scale" }
func (Scale) Label() string { return "Scale" }

func (Scale) DefaultConfig() any {
	return ScaleConfig{MinValue: 1, MaxValue: 10}
}

func (Scale) ValidateConfig(raw json.RawMessage) error {
	var cfg ScaleConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	if cfg.MinValue >= cfg.MaxValue {
		return errors.New("minValue must be less than maxValue")
	}
	return nil
}

func (Scale) ValidateResponse(q model.Question, value any) Result {
	var cfg ScaleConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return invalid("invalid question configuration")
	}

	if noValue(value) {
		if q.Optional {
			return ok()
		}
		return invalid("this question is required")
	}

	n, isNumber := toNumber(value)
	if !isNumber {
		return invalid("invalid value")
	}
	if n < float64(cfg.MinValue) || n > float64(cfg.MaxValue) {
		return invalid("value must be between %d and %d", cfg.MinValue, cfg.MaxValue)
	}
	return ok()
}

func (Scale) Aggregate(q model.Question, values []any) (any, error) {
	var cfg ScaleConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return nil, err
	}
	return numericStats(values, cfg.MinValue, cfg.MaxValue), nil
}
