package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"suryacli/internal/dataset"
)

// HourlyRow is the Parquet row schema for the hourly dataset. Timestamps are
// epoch milliseconds; missing observations stay NaN doubles.
type HourlyRow struct {
	Time        int64   `parquet:"name=Time,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Rainfall    float64 `parquet:"name=rr,type=DOUBLE"`
	WindAvg     float64 `parquet:"name=ws_avg,type=DOUBLE"`
	WindMax     float64 `parquet:"name=ws_max,type=DOUBLE"`
	WindDir     float64 `parquet:"name=wd_avg,type=DOUBLE"`
	AirTempMax  float64 `parquet:"name=tt_air_max,type=DOUBLE"`
	AirTempAvg  float64 `parquet:"name=tt_air_avg,type=DOUBLE"`
	AirTempMin  float64 `parquet:"name=tt_air_min,type=DOUBLE"`
	Humidity    float64 `parquet:"name=rh_avg,type=DOUBLE"`
	AirPressure float64 `parquet:"name=pp_air,type=DOUBLE"`
	SolarAvg    float64 `parquet:"name=sr_avg,type=DOUBLE"`
	SolarMax    float64 `parquet:"name=sr_max,type=DOUBLE"`
	SunAltitude float64 `parquet:"name=Sun_Altitude,type=DOUBLE"`
	SunAzimuth  float64 `parquet:"name=Sun_Azimuth,type=DOUBLE"`
	SunZenith   float64 `parquet:"name=Sun_Zenith_Angle,type=DOUBLE"`
	Hour        float64 `parquet:"name=Hour,type=DOUBLE"`
	DOY         float64 `parquet:"name=DOY,type=DOUBLE"`
	Month       float64 `parquet:"name=Month,type=DOUBLE"`
	Year        float64 `parquet:"name=Year,type=DOUBLE"`
	Day         float64 `parquet:"name=Day,type=DOUBLE"`
}

// ParquetWriter exports hourly frames as Snappy-compressed Parquet files.
type ParquetWriter struct {
	logger *slog.Logger
}

// NewParquetWriter creates a new Parquet writer instance.
func NewParquetWriter(logger *slog.Logger) *ParquetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetWriter{logger: logger.With(slog.String("component", "export"))}
}

// WriteFrame writes the frame to a Parquet file. Columns absent from the
// frame are written as NaN.
func (w *ParquetWriter) WriteFrame(filePath string, f *dataset.Frame) error {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(HourlyRow), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := 0; i < f.Len(); i++ {
		if err := pw.Write(hourlyRowAt(f, i)); err != nil {
			return fmt.Errorf("failed to write parquet record %d: %w", i, err)
		}
	}
	// WriteStop can panic inside the library; convert that into an error.
	if err := writeStop(pw); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}

	w.logger.Info("wrote parquet file",
		slog.String("path", filePath),
		slog.Int("rows", f.Len()),
		slog.Int("bytes", buf.Len()))
	return nil
}

func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("parquet writer panic: %w", rerr)
			} else {
				err = fmt.Errorf("parquet writer panic: %v", r)
			}
		}
	}()
	return pw.WriteStop()
}

func hourlyRowAt(f *dataset.Frame, i int) HourlyRow {
	at := func(col string) float64 {
		vals, ok := f.Column(col)
		if !ok {
			return math.NaN()
		}
		return vals[i]
	}
	return HourlyRow{
		Time:        f.Time(i).UnixMilli(),
		Rainfall:    at(dataset.ColRainfall),
		WindAvg:     at(dataset.ColWindAvg),
		WindMax:     at(dataset.ColWindMax),
		WindDir:     at(dataset.ColWindDir),
		AirTempMax:  at(dataset.ColAirTempMax),
		AirTempAvg:  at(dataset.ColAirTempAvg),
		AirTempMin:  at(dataset.ColAirTempMin),
		Humidity:    at(dataset.ColHumidity),
		AirPressure: at(dataset.ColAirPressure),
		SolarAvg:    at(dataset.ColSolarAvg),
		SolarMax:    at(dataset.ColSolarMax),
		SunAltitude: at(dataset.ColSunAltitude),
		SunAzimuth:  at(dataset.ColSunAzimuth),
		SunZenith:   at(dataset.ColSunZenith),
		Hour:        at(dataset.ColHour),
		DOY:         at(dataset.ColDOY),
		Month:       at(dataset.ColMonth),
		Year:        at(dataset.ColYear),
		Day:         at(dataset.ColDay),
	}
}
