package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleValidateConfig(t *testing.T) {
	def := Scale{}

	assert.NoError(t, def.ValidateConfig(rawConfig(t, ScaleConfig{MinValue: 1, MaxValue: 10})))
	assert.NoError(t, def.ValidateConfig(rawConfig(t, ScaleConfig{MinValue: -5, MaxValue: 5, MinLabel: "Bad", MaxLabel: "Good"})))
	assert.Error(t, def.ValidateConfig(rawConfig(t, ScaleConfig{MinValue: 5, MaxValue: 5})))
	assert.Error(t, def.ValidateConfig(rawConfig(t, ScaleConfig{MinValue: 10, MaxValue: 1})))
}

func TestScaleValidateResponse(t *testing.T) {
	def := Scale{}
	required := mkQuestion(t, "scale", false, ScaleConfig{MinValue: 1, MaxValue: 7})
	optional := mkQuestion(t, "scale", true, ScaleConfig{MinValue: 1, MaxValue: 7})

	result := def.ValidateResponse(required, nil)
	require.False(t, result.Valid)
	assert.Contains(t, result.Error, "required")

	assert.True(t, def.ValidateResponse(optional, nil).Valid)

	assert.True(t, def.ValidateResponse(required, 1.0).Valid)
	assert.True(t, def.ValidateResponse(required, 7.0).Valid)

	result = def.ValidateResponse(required, 8.0)
	require.False(t, result.Valid)
	assert.Contains(t, result.Error, "between 1 and 7")

	assert.False(t, def.ValidateResponse(required, 0.0).Valid)
	assert.False(t, def.ValidateResponse(required, "high").Valid)
}

func TestScaleNegativeRange(t *testing.T) {
	def := Scale{}
	q := mkQuestion(t, "scale", false, ScaleConfig{MinValue: -2, MaxValue: 2})

	assert.True(t, def.ValidateResponse(q, -2.0).Valid)
	assert.True(t, def.ValidateResponse(q, 0.0).Valid)
	assert.False(t, def.ValidateResponse(q, -3.0).Valid)
}

func TestScaleAggregate(t *testing.T) {
	def := Scale{}
	q := mkQuestion(t, "scale", false, ScaleConfig{MinValue: 1, MaxValue: 5})

	stats, err := def.Aggregate(q, []any{1.0, 3.0, 5.0, 3.0})
	require.NoError(t, err)

	results := stats.(NumericResults)
	assert.Equal(t, 4, results.Answered)
	assert.InDelta(t, 3.0, results.Average, 0.0001)

	require.Len(t, results.Histogram, 5)
	expected := map[int]int{1: 1, 2: 0, 3: 2, 4: 0, 5: 1}
	for _, bucket := range results.Histogram {
		assert.Equal(t, expected[bucket.Value], bucket.Count, "bucket %d", bucket.Value)
	}
}
