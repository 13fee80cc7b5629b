package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		step    time.Duration
		wantLen int
	}{
		{
			name:    "single day of ten minute slots",
			start:   ts(0),
			end:     ts(24*60 - 10),
			step:    10 * time.Minute,
			wantLen: 144,
		},
		{
			name:    "start equals end",
			start:   ts(0),
			end:     ts(0),
			step:    10 * time.Minute,
			wantLen: 1,
		},
		{
			name:    "inverted range",
			start:   ts(10),
			end:     ts(0),
			step:    10 * time.Minute,
			wantLen: 0,
		},
		{
			name:    "zero step",
			start:   ts(0),
			end:     ts(10),
			step:    0,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := Grid(tt.start, tt.end, tt.step)
			require.Len(t, grid, tt.wantLen)
			for i := 1; i < len(grid); i++ {
				assert.Equal(t, tt.step, grid[i].Sub(grid[i-1]))
			}
		})
	}
}

func TestFrame_Reindex(t *testing.T) {
	// Rows at 0, 10, 35 (off-grid) and 40 minutes; the grid covers 0..40.
	f, err := FromSeries(
		[]time.Time{ts(0), ts(10), ts(35), ts(40)},
		[]string{"v"},
		map[string][]float64{"v": {1, 2, 99, 5}},
	)
	require.NoError(t, err)

	grid := Grid(ts(0), ts(40), 10*time.Minute)
	nf, missing, dropped := f.Reindex(grid)

	assert.Equal(t, 2, missing, "slots 20 and 30 have no observation")
	assert.Equal(t, 1, dropped, "off-grid row at minute 35 is dropped")
	require.Equal(t, 5, nf.Len())

	vals, ok := nf.Column("v")
	require.True(t, ok)
	assert.Equal(t, 1.0, vals[0])
	assert.Equal(t, 2.0, vals[1])
	assert.True(t, math.IsNaN(vals[2]))
	assert.True(t, math.IsNaN(vals[3]))
	assert.Equal(t, 5.0, vals[4])
}

func TestFrame_Reindex_PreservesGridSpacing(t *testing.T) {
	f, err := FromSeries([]time.Time{ts(0)}, []string{"v"}, map[string][]float64{"v": {1}})
	require.NoError(t, err)

	grid := Grid(ts(0), ts(100), 10*time.Minute)
	nf, _, _ := f.Reindex(grid)

	times := nf.Times()
	require.Len(t, times, 11)
	for i := 1; i < len(times); i++ {
		assert.Equal(t, 10*time.Minute, times[i].Sub(times[i-1]), "grid spacing must be exact")
		assert.True(t, times[i].After(times[i-1]), "grid must be strictly increasing")
	}
}
