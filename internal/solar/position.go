// Package solar computes topocentric solar position. It implements
// algorithm 3 from Grena (2012), "Five new algorithms for the computation of
// sun position from 2010 to 2110", Solar Energy 86, which stays within 0.01
// degrees of the full SPA ephemeris over that period at a fraction of the
// cost. Refraction is corrected with the Grena formula from local pressure
// and temperature.
package solar

import (
	"math"
	"time"
)

// Position is the sun's topocentric position at one instant.
type Position struct {
	// ElevationDeg is the apparent elevation above the horizon in degrees,
	// negative below the horizon.
	ElevationDeg float64
	// AzimuthDeg is measured clockwise from North in [0, 360).
	AzimuthDeg float64
	// ZenithDeg is the apparent zenith angle, the complement of elevation.
	ZenithDeg float64
}

// Site describes the observer location and the local refraction conditions.
type Site struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeM    float64
	// PressureHPa is the annual mean air pressure used for the refraction
	// correction. Zero means derive it from AltitudeM.
	PressureHPa float64
	// TemperatureC is the annual mean air temperature used for the
	// refraction correction.
	TemperatureC float64
}

// pressure returns the refraction pressure in hPa, deriving a standard
// atmosphere value from the site altitude when none is configured.
func (s Site) pressure() float64 {
	if s.PressureHPa > 0 {
		return s.PressureHPa
	}
	return PressureFromAltitude(s.AltitudeM)
}

// PressureFromAltitude converts a site altitude in metres to the standard
// atmosphere pressure in hPa at that height.
func PressureFromAltitude(altitudeM float64) float64 {
	return math.Pow((44331.514-altitudeM)/11880.516, 1/0.1902632)
}

// PositionAt returns the apparent solar position at t for the given site.
// deltaT is the difference TT-UT1 in seconds; use EstimateDeltaT when no
// measured value is available.
func PositionAt(t time.Time, site Site, deltaT float64) Position {
	tt := grenaT(t.UTC())
	te := tt + 1.1574e-5*deltaT
	wte := 0.0172019715 * te

	lambda := -1.388803 + 1.720279216e-2*te +
		3.3366e-2*math.Sin(wte-0.06172) +
		3.53e-4*math.Sin(2*wte-0.1163)

	epsilon := 4.089567e-1 - 6.19e-9*te

	sLambda := math.Sin(lambda)
	cLambda := math.Cos(lambda)
	sEpsilon := math.Sin(epsilon)
	cEpsilon := math.Sqrt(1 - sEpsilon*sEpsilon)

	// Right ascension in [0, 2pi) and declination.
	alpha := math.Atan2(sLambda*cEpsilon, cLambda)
	if alpha < 0 {
		alpha += 2 * math.Pi
	}
	delta := math.Asin(sLambda * sEpsilon)

	// Hour angle in [-pi, pi).
	h := 1.7528311 + 6.300388099*tt + site.LongitudeDeg*math.Pi/180 - alpha
	h = math.Mod(h+math.Pi, 2*math.Pi) - math.Pi
	if h < -math.Pi {
		h += 2 * math.Pi
	}

	sPhi := math.Sin(site.LatitudeDeg * math.Pi / 180)
	cPhi := math.Sqrt(1 - sPhi*sPhi)
	sDelta := math.Sin(delta)
	cDelta := math.Sqrt(1 - sDelta*sDelta)
	sH := math.Sin(h)
	cH := math.Cos(h)

	// True elevation with the parallax correction, then azimuth from South.
	sE0 := sPhi*sDelta + cPhi*cDelta*cH
	eP := math.Asin(sE0) - 4.26e-5*math.Sqrt(1-sE0*sE0)
	gamma := math.Atan2(sH, cH*sPhi-sDelta*cPhi/cDelta)

	// Refraction lifts the apparent position while the sun is up.
	deltaRe := 0.0
	if eP > 0 {
		deltaRe = (0.08422 * (site.pressure() / 1000)) /
			((273 + site.TemperatureC) * math.Tan(eP+0.003138/(eP+0.08919)))
	}

	zenith := math.Pi/2 - eP - deltaRe
	azimuth := math.Mod((gamma+math.Pi)*180/math.Pi, 360)
	if azimuth < 0 {
		azimuth += 360
	}

	zenithDeg := zenith * 180 / math.Pi
	return Position{
		ElevationDeg: 90 - zenithDeg,
		AzimuthDeg:   azimuth,
		ZenithDeg:    zenithDeg,
	}
}

// grenaT converts a UTC instant to the day count used by the Grena
// algorithms. Integer casts truncate toward zero, matching the reference
// implementation.
func grenaT(t time.Time) float64 {
	year := t.Year()
	month := int(t.Month())
	day := t.Day()
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	if month <= 2 {
		month += 12
		year--
	}

	return float64(int(365.25*float64(year-2000))) +
		float64(int(30.6001*float64(month+1))) -
		float64(int(0.01*float64(year))) +
		float64(day) + 0.0416667*hour - 21958
}

// EstimateDeltaT returns an estimate of TT-UT1 in seconds for the given
// date, using the Espenak and Meeus polynomial fits. Observation datasets
// handled here fall in the 1986-2050 ranges; dates outside fall back to the
// long-range parabola.
func EstimateDeltaT(t time.Time) float64 {
	y := float64(t.Year()) + (float64(t.YearDay())-0.5)/365.25

	switch {
	case y >= 2005 && y < 2050:
		dt := y - 2000
		return 62.92 + 0.32217*dt + 0.005589*dt*dt
	case y >= 1986 && y < 2005:
		dt := y - 2000
		return 63.86 + 0.3345*dt - 0.060374*dt*dt +
			0.0017275*dt*dt*dt + 0.000651814*dt*dt*dt*dt +
			0.00002373599*dt*dt*dt*dt*dt
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}
