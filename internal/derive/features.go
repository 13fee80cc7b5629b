// Package derive adds the solar-geometry and temporal feature columns to a
// cleaned observation frame.
package derive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"suryacli/internal/dataset"
	"suryacli/internal/solar"
)

// Features computes derived columns for a site. Times in the frame are UTC
// instants; calendar features are taken from the local wall clock.
type Features struct {
	site   solar.Site
	loc    *time.Location
	logger *slog.Logger
}

// New creates a feature deriver for the given site and local timezone.
func New(site solar.Site, loc *time.Location, logger *slog.Logger) *Features {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Features{
		site:   site,
		loc:    loc,
		logger: logger.With(slog.String("component", "derive")),
	}
}

// Apply appends the solar position columns and the Hour/DOY/Month/Year/Day
// calendar columns. The frame must not already contain them.
func (d *Features) Apply(ctx context.Context, f *dataset.Frame) error {
	n := f.Len()
	altitude := make([]float64, n)
	azimuth := make([]float64, n)
	zenith := make([]float64, n)
	hour := make([]float64, n)
	doy := make([]float64, n)
	month := make([]float64, n)
	year := make([]float64, n)
	day := make([]float64, n)

	start := time.Now()
	for i, t := range f.Times() {
		if i%8192 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		pos := solar.PositionAt(t, d.site, solar.EstimateDeltaT(t))
		altitude[i] = pos.ElevationDeg
		azimuth[i] = pos.AzimuthDeg
		zenith[i] = pos.ZenithDeg

		local := t.In(d.loc)
		hour[i] = float64(local.Hour())
		doy[i] = float64(local.YearDay())
		month[i] = float64(local.Month())
		year[i] = float64(local.Year())
		day[i] = float64(local.Day())
	}

	columns := []struct {
		name   string
		values []float64
	}{
		{dataset.ColSunAltitude, altitude},
		{dataset.ColSunAzimuth, azimuth},
		{dataset.ColSunZenith, zenith},
		{dataset.ColHour, hour},
		{dataset.ColDOY, doy},
		{dataset.ColMonth, month},
		{dataset.ColYear, year},
		{dataset.ColDay, day},
	}
	for _, col := range columns {
		if err := f.AddColumn(col.name, col.values); err != nil {
			return fmt.Errorf("failed to add derived column: %w", err)
		}
	}

	d.logger.Debug("derived feature columns",
		slog.Int("rows", n),
		slog.Int("columns", len(columns)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
