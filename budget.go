package celestium

import (
	"fmt"
	"math"
)

const (
	// penaltyThreshold is the absolute declination in degrees above which a plane change penalty applies.
	penaltyThreshold = 10.0
	// leoVelocity is the circular velocity in low Earth orbit (m/s) used to scale the plane change penalty.
	leoVelocity = 7800.0
)

// Budget is the Δv and transit time of a transfer.
type Budget struct {
	DeltaV      float64 // m/s, penalty included
	TransitTime float64 // hours
	Penalty     float64 // m/s, declination penalty
}

// DeclinationPenalty returns the extra Δv (m/s) needed to correct for a launch plane misaligned with the Moon.
// This is half the cost of a plane change of (|δ| - 10°) at LEO velocity, and zero under 10°.
func DeclinationPenalty(declination float64) float64 {
	excess := math.Abs(declination) - penaltyThreshold
	if excess <= 0 {
		return 0
	}
	return leoVelocity * 2 * math.Sin(excess/2*deg2rad) * 0.5
}

// ComputeBudget returns the Δv and transit time of the provided mode for this state.
// The base Δv and the transit time scale with the distance factor, except the free return time which is fixed.
func ComputeBudget(state CelestialState, mode TransferMode) (Budget, error) {
	p, err := mode.profile()
	if err != nil {
		return Budget{}, err
	}
	distFactor := state.DistanceFactor()
	if !finite(distFactor, state.Declination) || distFactor <= 0 {
		return Budget{}, fmt.Errorf("%w: distance factor %f", ErrNumericDomain, distFactor)
	}
	penalty := DeclinationPenalty(state.Declination)
	b := Budget{DeltaV: p.baseΔv*distFactor + penalty, Penalty: penalty}
	if p.fixedTime {
		b.TransitTime = p.timeCoeff
	} else {
		b.TransitTime = p.timeCoeff * distFactor
	}
	return b, nil
}
