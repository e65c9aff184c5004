package celestium

import "math"

// G0 is the standard gravity in m/s².
const G0 = 9.80665

// Propellant returns the propellant mass (kg) needed by a vehicle of the provided dry mass (kg) and specific
// impulse (s) to perform a Δv (m/s), from the inverted rocket equation. It returns zero for a non positive Δv.
// The result is not bounded by any tank capacity.
func Propellant(dryMass, Δv, isp float64) float64 {
	if Δv <= 0 {
		return 0
	}
	return dryMass * (math.Exp(Δv/(isp*G0)) - 1)
}
