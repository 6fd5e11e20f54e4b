package questions

import (
	"encoding/json"
	"fmt"

	"github.com/scalesurvey/scale-survey/model"
)

type RatingConfig struct {
	MaxRating int `json:"maxRating"`
}

const (
	minMaxRating     = 3
	maxMaxRating     = 10
	defaultMaxRating = 5
)

// Rating is a star rating from 1 to maxRating.
type Rating struct{}

func (Rating) Tag() string   { return "rating" }
func (Rating) Label() string { return "Star Rating" }

func (Rating) DefaultConfig() any {
	return RatingConfig{MaxRating: defaultMaxRating}
}

func (Rating) ValidateConfig(raw json.RawMessage) error {
	var cfg RatingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	if cfg.MaxRating < minMaxRating || cfg.MaxRating > maxMaxRating {
		return fmt.Errorf("maxRating must be between %d and %d", minMaxRating, maxMaxRating)
	}
	return nil
}

func (Rating) ValidateResponse(q model.Question, value any) Result {
	var cfg RatingConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return invalid("invalid question configuration")
	}

	if noValue(value) {
		if q.Optional {
			return ok()
		}
		return invalid("this question is required")
	}

	rating, isNumber := toNumber(value)
	if !isNumber {
		return invalid("invalid value")
	}
	if rating < 1 || rating > float64(cfg.MaxRating) {
		return invalid("rating must be between 1 and %d", cfg.MaxRating)
	}
	return ok()
}

func (Rating) Aggregate(q model.Question, values []any) (any, error) {
	var cfg RatingConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return nil, err
	}
	return numericStats(values, 1, cfg.MaxRating), nil
}
