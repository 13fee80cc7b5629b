package dataset

// Canonical column names shared by every stage. The observation names follow
// the station export schema; derived names are added by the feature stage.
const (
	ColTime = "Time"

	ColRainfall    = "rr"
	ColWindAvg     = "ws_avg"
	ColWindMax     = "ws_max"
	ColWindDir     = "wd_avg"
	ColAirTempMax  = "tt_air_max"
	ColAirTempAvg  = "tt_air_avg"
	ColAirTempMin  = "tt_air_min"
	ColHumidity    = "rh_avg"
	ColAirPressure = "pp_air"
	ColSolarAvg    = "sr_avg"
	ColSolarMax    = "sr_max"

	ColSunAltitude = "Sun_Altitude"
	ColSunAzimuth  = "Sun_Azimuth"
	ColSunZenith   = "Sun_Zenith_Angle"

	ColHour  = "Hour"
	ColDOY   = "DOY"
	ColMonth = "Month"
	ColYear  = "Year"
	ColDay   = "Day"
)

// ObservationColumns returns the measured value columns in schema order,
// excluding the timestamp.
func ObservationColumns() []string {
	return []string{
		ColRainfall, ColWindAvg, ColWindMax, ColWindDir,
		ColAirTempMax, ColAirTempAvg, ColAirTempMin,
		ColHumidity, ColAirPressure, ColSolarAvg, ColSolarMax,
	}
}

// SolarColumns returns the derived solar-geometry columns.
func SolarColumns() []string {
	return []string{ColSunAltitude, ColSunAzimuth, ColSunZenith}
}

// TemporalColumns returns the derived calendar/clock columns.
func TemporalColumns() []string {
	return []string{ColHour, ColDOY, ColMonth, ColYear, ColDay}
}

var columnUnits = map[string]string{
	ColRainfall:    "mm",
	ColWindAvg:     "m/s",
	ColWindMax:     "m/s",
	ColWindDir:     "deg",
	ColAirTempMax:  "degC",
	ColAirTempAvg:  "degC",
	ColAirTempMin:  "degC",
	ColHumidity:    "%",
	ColAirPressure: "hPa",
	ColSolarAvg:    "W/m²",
	ColSolarMax:    "W/m²",
	ColSunAltitude: "deg",
	ColSunAzimuth:  "deg",
	ColSunZenith:   "deg",
}

// ColumnUnit returns the measurement unit for a column, or an empty string
// for dimensionless columns.
func ColumnUnit(name string) string {
	return columnUnits[name]
}
