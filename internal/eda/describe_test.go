package eda

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suryacli/internal/dataset"
)

func testTimes(n int) []time.Time {
	base := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * 10 * time.Minute)
	}
	return times
}

func TestDescribe_KnownValues(t *testing.T) {
	f, err := dataset.FromSeries(testTimes(5), []string{"v"}, map[string][]float64{
		"v": {4, 1, math.NaN(), 3, 2},
	})
	require.NoError(t, err)

	summaries := Describe(f)
	require.Len(t, summaries, 1)
	s := summaries[0]

	assert.Equal(t, "v", s.Column)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1, s.Missing)
	assert.InDelta(t, 2.5, s.Mean, 1e-9)
	assert.InDelta(t, 1.2909944487, s.Std, 1e-9)
	assert.InDelta(t, 1.0, s.Min, 1e-9)
	assert.InDelta(t, 1.75, s.P25, 1e-9)
	assert.InDelta(t, 2.5, s.Median, 1e-9)
	assert.InDelta(t, 3.25, s.P75, 1e-9)
	assert.InDelta(t, 4.0, s.Max, 1e-9)
	assert.InDelta(t, 0.0, s.Skew, 1e-9, "symmetric sample has zero skew")
}

func TestDescribe_AllMissing(t *testing.T) {
	f := dataset.New(testTimes(3), []string{"v"})

	summaries := Describe(f)
	require.Len(t, summaries, 1)
	s := summaries[0]

	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 3, s.Missing)
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Median))
}

func TestDescribe_SingleValue(t *testing.T) {
	f, err := dataset.FromSeries(testTimes(1), []string{"v"}, map[string][]float64{
		"v": {5},
	})
	require.NoError(t, err)

	s := Describe(f)[0]
	assert.Equal(t, 1, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.True(t, math.IsNaN(s.Std), "sample std of one value is undefined")
	assert.InDelta(t, 5.0, s.P25, 1e-9)
	assert.InDelta(t, 5.0, s.Median, 1e-9)
	assert.InDelta(t, 5.0, s.P75, 1e-9)
	assert.True(t, math.IsNaN(s.Skew), "skew of one value is undefined")
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"even count median", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"even count lower quartile", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"odd count median", []float64{1, 2, 3}, 0.5, 2},
		{"odd count lower quartile", []float64{1, 2, 3}, 0.25, 1.5},
		{"p zero", []float64{1, 2, 3, 4}, 0, 1},
		{"p one", []float64{1, 2, 3, 4}, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.sorted, tt.p), 1e-9)
		})
	}
}
