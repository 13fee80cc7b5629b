package export

import (
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"suryacli/internal/dataset"
)

func TestParquetWriter_WriteFrame_RoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(2022, 2, 28, 17, 0, 0, 0, time.UTC),
		time.Date(2022, 2, 28, 18, 0, 0, 0, time.UTC),
	}
	f, err := dataset.FromSeries(times,
		[]string{dataset.ColSolarAvg, dataset.ColAirTempAvg},
		map[string][]float64{
			dataset.ColSolarAvg:   {812.5, math.NaN()},
			dataset.ColAirTempAvg: {26.1, 25.4},
		})
	require.NoError(t, err)

	filePath := filepath.Join(t.TempDir(), "hourly.parquet")
	w := NewParquetWriter(slog.Default())
	require.NoError(t, w.WriteFrame(filePath, f))

	fr, err := local.NewLocalFileReader(filePath)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(HourlyRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(2), pr.GetNumRows())
	rows := make([]HourlyRow, 2)
	require.NoError(t, pr.Read(&rows))

	assert.Equal(t, times[0].UnixMilli(), rows[0].Time)
	assert.InDelta(t, 812.5, rows[0].SolarAvg, 1e-9)
	assert.InDelta(t, 26.1, rows[0].AirTempAvg, 1e-9)
	assert.True(t, math.IsNaN(rows[1].SolarAvg), "missing value must round-trip as NaN")
	assert.True(t, math.IsNaN(rows[0].Rainfall), "absent column must be written as NaN")
}

func TestParquetWriter_WriteFrame_Empty(t *testing.T) {
	f := dataset.New(nil, []string{dataset.ColSolarAvg})

	filePath := filepath.Join(t.TempDir(), "empty.parquet")
	w := NewParquetWriter(slog.Default())
	require.NoError(t, w.WriteFrame(filePath, f))

	fr, err := local.NewLocalFileReader(filePath)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(HourlyRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	assert.Equal(t, int64(0), pr.GetNumRows())
}
