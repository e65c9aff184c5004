package celestium

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// PathSamples is the number of points of a synthesized path.
	PathSamples = 100
	// freeReturnSpan is the parameter range of the free return path, which overshoots the Moon.
	freeReturnSpan = 1.2
)

// SynthesizePath returns the sampled path (km, world frame) of a transfer towards the target.
// The curve is built in a local frame whose x axis points to the target, then rotated with AlignX.
//
// The paths are illustrative and not propagated. For all modes but the free return, the last point is set to
// the target itself so that the path visually closes on the Moon: this is a geometric approximation, not a
// terminal boundary condition.
func SynthesizePath(target []float64, mode TransferMode, distance float64) ([][]float64, error) {
	p, err := mode.profile()
	if err != nil {
		return nil, err
	}
	if !finite(distance) || distance <= 0 {
		return nil, fmt.Errorf("%w: path distance %f", ErrNumericDomain, distance)
	}
	R, err := AlignX(target)
	if err != nil {
		return nil, err
	}
	var local *mat.Dense
	if mode == FreeReturn {
		local, err = freeReturnLocal(distance, p.amplitude)
		if err != nil {
			return nil, err
		}
	} else {
		local = arcLocal(distance, p.amplitude)
	}

	var world mat.Dense
	world.Mul(local, R.T())
	path := make([][]float64, PathSamples)
	for i := range path {
		path[i] = []float64{world.At(i, 0), world.At(i, 1), world.At(i, 2)}
		if !finite(path[i]...) {
			return nil, fmt.Errorf("%w: sample %d of the %s path is %v", ErrNumericDomain, i, mode, path[i])
		}
	}
	if mode != FreeReturn {
		path[PathSamples-1] = []float64{target[0], target[1], target[2]}
	}
	return path, nil
}

// arcLocal is a straight advance along x with a single sinusoidal excursion in y.
func arcLocal(distance, amplitude float64) *mat.Dense {
	local := mat.NewDense(PathSamples, 3, nil)
	for i, t := range linspace(0, 1, PathSamples) {
		local.Set(i, 0, distance*t)
		local.Set(i, 1, amplitude*distance*math.Sin(math.Pi*t))
	}
	return local
}

// freeReturnLocal is a double lobe in y and a half sine in z, with x rescaled so that the sample nearest to
// t = 1 lies exactly at the target distance.
func freeReturnLocal(distance, amplitude float64) (*mat.Dense, error) {
	ts := linspace(0, freeReturnSpan, PathSamples)
	scale := distance * amplitude
	ref := 0
	for i, t := range ts {
		if math.Abs(t-1) < math.Abs(ts[ref]-1) {
			ref = i
		}
	}
	xRef := distance * ts[ref]
	if xRef == 0 || !finite(xRef) {
		return nil, fmt.Errorf("%w: free return reference abscissa is %f", ErrNumericDomain, xRef)
	}
	rescale := distance / xRef
	local := mat.NewDense(PathSamples, 3, nil)
	for i, t := range ts {
		local.Set(i, 0, distance*t*rescale)
		local.Set(i, 1, scale*math.Sin(2*math.Pi*t)*t)
		local.Set(i, 2, scale*0.5*math.Sin(math.Pi*t))
	}
	local.Set(ref, 0, distance)
	return local, nil
}
