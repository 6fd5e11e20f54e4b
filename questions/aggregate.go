package questions

import (
	"github.com/scalesurvey/scale-survey/log"
	"github.com/scalesurvey/scale-survey/model"
)

// ChoiceResults holds per-option counts for choice questions. Percentages
// are relative to the number of responses that answered this question, not
// the survey's total response count: optional questions may be skipped.
type ChoiceResults struct {
	Answered int           `json:"answered"`
	Options  []OptionCount `json:"options"`
}

type OptionCount struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func optionCount(opt Option, count, answered int) OptionCount {
	oc := OptionCount{ID: opt.ID, Text: opt.Text, Count: count}
	if answered > 0 {
		oc.Percentage = float64(count) / float64(answered) * 100
	}
	return oc
}

// TextResults lists the verbatim non-empty text values for manual review.
type TextResults struct {
	Answered int      `json:"answered"`
	Values   []string `json:"values"`
}

// NumericResults holds the mean and the per-value histogram of a rating or
// scale question over its full configured range.
type NumericResults struct {
	Answered  int      `json:"answered"`
	Average   float64  `json:"average"`
	Histogram []Bucket `json:"histogram"`
}

type Bucket struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// numericStats aggregates numeric answer values over the integer range
// [lo, hi]. Out-of-range values still count toward the mean and the answered
// total, but land in no bucket.
func numericStats(values []any, lo, hi int) NumericResults {
	results := NumericResults{Histogram: make([]Bucket, 0, hi-lo+1)}

	counts := make(map[int]int)
	sum := 0.0
	for _, value := range values {
		if noValue(value) {
			continue
		}
		n, isNumber := toNumber(value)
		if !isNumber {
			continue
		}
		results.Answered++
		sum += n
		if n == float64(int(n)) {
			counts[int(n)]++
		}
	}

	if results.Answered > 0 {
		results.Average = sum / float64(results.Answered)
	}
	for v := lo; v <= hi; v++ {
		results.Histogram = append(results.Histogram, Bucket{Value: v, Count: counts[v]})
	}
	return results
}

// QuestionResults pairs a question with its aggregated statistics.
type QuestionResults struct {
	QuestionID string `json:"questionId"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Results    any    `json:"results"`
}

// AggregateAll extracts each question's answer values from the raw responses
// and runs the per-type aggregation. Questions of unregistered types are
// skipped with a warning.
func AggregateAll(qs []model.Question, responses []model.Response) []QuestionResults {
	values := make(map[string][]any, len(qs))
	for _, response := range responses {
		for _, answer := range response.Answers {
			values[answer.QuestionID] = append(values[answer.QuestionID], answer.Value)
		}
	}

	results := make([]QuestionResults, 0, len(qs))
	for _, q := range qs {
		def, found := Get(q.Type)
		if !found {
			log.Warnf("questions.aggregate: skipping question %s of unregistered type %q", q.ID, q.Type)
			continue
		}

		stats, err := def.Aggregate(q, values[q.ID])
		if err != nil {
			log.Warnf("questions.aggregate: skipping question %s: %s", q.ID, err)
			continue
		}
		results = append(results, QuestionResults{
			QuestionID: q.ID,
			Type:       q.Type,
			Title:      q.Title,
			Results:    stats,
		})
	}
	return results
}
