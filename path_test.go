package celestium

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

var pathTargets = [][]float64{
	{MeanLunarDistance, 0, 0},
	{-363104.2, -47215.7, -151302.9},
	{120000, 350000, 90000},
	{-MeanLunarDistance, 0, 0},
}

func TestSynthesizePathClosure(t *testing.T) {
	for _, target := range pathTargets {
		dist := norm(target)
		for _, mode := range Modes() {
			path, err := SynthesizePath(target, mode, dist)
			if err != nil {
				t.Fatalf("%s towards %v: %s", mode, target, err)
			}
			if len(path) != PathSamples {
				t.Fatalf("%s: %d samples", mode, len(path))
			}
			if !vectorsEqual(path[0], []float64{0, 0, 0}) {
				t.Fatalf("%s: path should start at the origin, got %v", mode, path[0])
			}
			if mode == FreeReturn {
				continue
			}
			last := path[PathSamples-1]
			for i := 0; i < 3; i++ {
				if !scalar.EqualWithinAbs(last[i], target[i], 1e-6*dist) {
					t.Fatalf("%s: last point %v != target %v", mode, last, target)
				}
			}
		}
	}
}

func TestSynthesizePathAmplitude(t *testing.T) {
	target := []float64{MeanLunarDistance, 0, 0}
	for _, exp := range []struct {
		mode TransferMode
		amp  float64
	}{{Fast, 0.05}, {Balanced, 0.2}, {FuelOpt, 0.35}, {Hohmann, 0.4}} {
		path, err := SynthesizePath(target, exp.mode, MeanLunarDistance)
		if err != nil {
			t.Fatal(err)
		}
		peak := 0.0
		for _, pt := range path {
			peak = math.Max(peak, pt[1])
			if pt[2] != 0 {
				t.Fatalf("%s: arc should stay in the xy plane for an x aligned target", exp.mode)
			}
		}
		// 100 samples do not hit t = 0.5 exactly.
		if !scalar.EqualWithinRel(peak, exp.amp*MeanLunarDistance, 1e-3) {
			t.Fatalf("%s: peak excursion %f, expected %f", exp.mode, peak, exp.amp*MeanLunarDistance)
		}
	}
}

func TestSynthesizePathFreeReturn(t *testing.T) {
	for _, target := range pathTargets {
		dist := norm(target)
		path, err := SynthesizePath(target, FreeReturn, dist)
		if err != nil {
			t.Fatal(err)
		}
		// The sample nearest to t = 1 reaches the Moon distance along the target direction.
		ts := linspace(0, freeReturnSpan, PathSamples)
		ref := 0
		for i, tt := range ts {
			if math.Abs(tt-1) < math.Abs(ts[ref]-1) {
				ref = i
			}
		}
		if along := dot(path[ref], unit(target)); !scalar.EqualWithinRel(along, dist, 1e-9) {
			t.Fatalf("free return reference sample at %f km along the target, expected %f", along, dist)
		}
		// The path overshoots the Moon.
		if along := dot(path[PathSamples-1], unit(target)); along <= dist {
			t.Fatalf("free return should extend beyond the Moon, ends at %f", along)
		}
	}
}

func TestSynthesizePathErrors(t *testing.T) {
	target := []float64{MeanLunarDistance, 0, 0}
	if _, err := SynthesizePath(target, TransferMode(42), MeanLunarDistance); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if _, err := SynthesizePath([]float64{0, 0, 0}, Fast, MeanLunarDistance); !errors.Is(err, ErrNumericDomain) {
		t.Fatalf("expected ErrNumericDomain for a zero target, got %v", err)
	}
	for _, d := range []float64{0, -5, math.NaN()} {
		if _, err := SynthesizePath(target, FreeReturn, d); !errors.Is(err, ErrNumericDomain) {
			t.Fatalf("expected ErrNumericDomain for distance %f, got %v", d, err)
		}
	}
}

func TestSynthesizePathDeterministic(t *testing.T) {
	target := pathTargets[1]
	a, err := SynthesizePath(target, FreeReturn, norm(target))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := SynthesizePath(target, FreeReturn, norm(target))
	for i := range a {
		for c := 0; c < 3; c++ {
			if a[i][c] != b[i][c] {
				t.Fatalf("sample %d differs", i)
			}
		}
	}
}
