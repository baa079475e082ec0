// Package environment derives physical quantities from raw readings.
package environment

import "math"

// InvalidVPD is returned by ComputeVPD when its inputs are out of range.
const InvalidVPD = -1.0

// ComputeVPD returns the vapor pressure deficit in kPa for an air temperature
// in °C and a relative humidity in percent. Saturation pressure follows the
// Tetens relation. Humidity outside [0,100] or non-finite input yields
// InvalidVPD.
func ComputeVPD(tempC, rhPct float64) float64 {
	if math.IsNaN(tempC) || math.IsInf(tempC, 0) || math.IsNaN(rhPct) {
		return InvalidVPD
	}
	if rhPct < 0 || rhPct > 100 {
		return InvalidVPD
	}
	es := SaturationVaporPressure(tempC)
	if math.IsNaN(es) || math.IsInf(es, 0) {
		return InvalidVPD
	}
	ea := es * rhPct / 100
	return math.Max(0, es-ea)
}

// SaturationVaporPressure returns es in kPa at tempC.
func SaturationVaporPressure(tempC float64) float64 {
	return 0.6108 * math.Exp(17.27*tempC/(tempC+237.3))
}

// ValidVPD reports whether v is a real ComputeVPD result.
func ValidVPD(v float64) bool {
	return v >= 0 && !math.IsNaN(v)
}
