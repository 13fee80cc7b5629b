// Package dataset provides the time-indexed data frame used throughout the
// preprocessing pipeline. A Frame holds a strictly increasing timestamp index
// and a set of named float64 columns where NaN marks a missing value.
//
// # Creating a Frame
//
// Build a frame from parsed observations:
//
//	frame, err := dataset.FromSeries(times, columns, data)
//	if err != nil {
//	    return err
//	}
//	dropped := frame.SortByTime()
//
// # Regularizing the index
//
// Observations are aligned onto a complete fixed-frequency grid before any
// derived feature is computed:
//
//	grid := dataset.Grid(start, end, 10*time.Minute)
//	frame, missing, dropped := frame.Reindex(grid)
//	filled := frame.Interpolate()
//
// Reindex keeps only rows whose timestamp falls exactly on the grid and
// inserts all-NaN rows for grid slots without an observation. Interpolate
// fills interior gaps linearly and extends edge gaps with the nearest valid
// value.
//
// # Resampling
//
// Downsample to a coarser frequency with an explicit aggregator:
//
//	hourly, err := frame.Resample(time.Hour, dataset.AggFirst, loc)
//
// AggFirst takes the first non-missing value in each bin, AggMean the mean of
// the non-missing values. Bins are aligned to wall-clock boundaries in the
// given location.
package dataset
