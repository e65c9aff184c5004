package celestium

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gonum.org/v1/gonum/floats/scalar"
)

// fixedEphemeris always returns the same position or error.
type fixedEphemeris struct {
	R   []float64
	err error
}

func (f fixedEphemeris) Name() string { return "fixed" }

func (f fixedEphemeris) Position(context.Context, time.Time) ([]float64, error) {
	return f.R, f.err
}

// stuckEphemeris ignores its context and blocks until released.
type stuckEphemeris struct{ release chan struct{} }

func (s stuckEphemeris) Name() string { return "stuck" }

func (s stuckEphemeris) Position(context.Context, time.Time) ([]float64, error) {
	<-s.release
	return []float64{1, 2, 3}, nil
}

type panickyEphemeris struct{}

func (panickyEphemeris) Name() string { return "panicky" }

func (panickyEphemeris) Position(context.Context, time.Time) ([]float64, error) {
	panic("corrupted table")
}

func TestCircularState(t *testing.T) {
	for days := -400.0; days < 400; days += 3.7 {
		epoch := refEpoch.Add(time.Duration(days * 24 * float64(time.Hour)))
		st := CircularState(epoch)
		if !scalar.EqualWithinRel(st.Distance, MeanLunarDistance, 1e-12) {
			t.Fatalf("circular distance %f", st.Distance)
		}
		if st.Position[2] != 0 || st.Declination != 0 {
			t.Fatalf("circular orbit should be equatorial, got %v", st.Position)
		}
		if st.Source != SourceCircular || st.Fallback {
			t.Fatalf("unexpected source %s / fallback %t", st.Source, st.Fallback)
		}
	}
	// One period later the Moon is back at the same place.
	a := CircularState(refEpoch)
	b := CircularState(refEpoch.Add(time.Duration(LunarPeriod * 24 * float64(time.Hour))))
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(a.Position[i], b.Position[i], 1) {
			t.Fatalf("not periodic: %v vs %v", a.Position, b.Position)
		}
	}
	// A quarter period later it moved by 90 degrees, counterclockwise.
	c := CircularState(refEpoch.Add(time.Duration(LunarPeriod / 4 * 24 * float64(time.Hour))))
	if d := dot(a.Position, c.Position) / (a.Distance * c.Distance); !scalar.EqualWithinAbs(d, 0, 1e-9) {
		t.Fatalf("quarter period cosine %f", d)
	}
	if z := cross(a.Position, c.Position)[2]; z <= 0 {
		t.Fatal("the circular orbit should be prograde")
	}
}

func TestNewCelestialState(t *testing.T) {
	st, err := NewCelestialState(refEpoch.In(time.FixedZone("CET", 3600)), []float64{0, 3, 4}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if st.Distance != 5 || !scalar.EqualWithinAbs(st.Declination, math.Asin(0.8)/deg2rad, 1e-12) {
		t.Fatalf("got %+v", st)
	}
	if st.Epoch.Location() != time.UTC {
		t.Fatal("epoch should be UTC")
	}
	for _, R := range [][]float64{{0, 0, 0}, {1, 2}, {math.NaN(), 0, 1}, {math.Inf(-1), 0, 0}} {
		if _, err := NewCelestialState(refEpoch, R, "test"); !errors.Is(err, ErrNumericDomain) {
			t.Fatalf("%v: expected ErrNumericDomain, got %v", R, err)
		}
	}
	if st.WindowStatus() != WindowCritical {
		t.Fatal("53° declination should be critical")
	}
	if CircularState(refEpoch).WindowStatus() != WindowOptimal {
		t.Fatal("zero declination should be optimal")
	}
}

func TestResolverAuthoritative(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(fixedEphemeris{R: []float64{MeanLunarDistance, 0, 0}}, time.Second, nil, metrics)
	st := r.State(context.Background(), refEpoch)
	if st.Fallback || st.Err != nil || st.Source != "fixed" {
		t.Fatalf("unexpected fallback: %+v", st)
	}
	if st.Distance != MeanLunarDistance || st.Declination != 0 {
		t.Fatalf("got %+v", st)
	}
	if got := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("fixed", "ok")); got != 1 {
		t.Fatalf("lookups ok = %f", got)
	}
	if got := testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("fixed")); got != 0 {
		t.Fatalf("fallbacks = %f", got)
	}
}

func TestResolverFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("service unreachable")
	for _, eph := range []Ephemeris{
		fixedEphemeris{err: boom},
		fixedEphemeris{R: []float64{0, 0, 0}},
		fixedEphemeris{R: []float64{math.NaN(), 1, 1}},
		panickyEphemeris{},
	} {
		st := NewResolver(eph, time.Second, nil, metrics).State(context.Background(), refEpoch)
		if !st.Fallback {
			t.Fatalf("%s: expected a fallback state", eph.Name())
		}
		if !errors.Is(st.Err, ErrEphemerisUnavailable) {
			t.Fatalf("%s: fallback error %v should wrap ErrEphemerisUnavailable", eph.Name(), st.Err)
		}
		exp := CircularState(refEpoch)
		if !vectorsEqual(st.Position, exp.Position) || st.Source != SourceCircular {
			t.Fatalf("%s: fallback should be the circular state, got %+v", eph.Name(), st)
		}
	}
	st := NewResolver(fixedEphemeris{err: boom}, time.Second, nil, nil).State(context.Background(), refEpoch)
	if !errors.Is(st.Err, boom) {
		t.Fatalf("fallback error %v should wrap the cause", st.Err)
	}
	if got := testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("fixed")); got != 3 {
		t.Fatalf("fallbacks = %f, expected 3", got)
	}
}

func TestResolverTimeout(t *testing.T) {
	eph := stuckEphemeris{release: make(chan struct{})}
	defer close(eph.release)
	r := NewResolver(eph, 20*time.Millisecond, nil, nil)
	start := time.Now()
	st := r.State(context.Background(), refEpoch)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("lookup was not bounded: %s", elapsed)
	}
	if !st.Fallback || !errors.Is(st.Err, context.DeadlineExceeded) {
		t.Fatalf("expected a timeout fallback, got %+v", st)
	}
}

func TestResolverDefaults(t *testing.T) {
	r := NewResolver(nil, 0, nil, nil)
	if r.Source() != SourceCircular || r.timeout != DefaultLookupTimeout {
		t.Fatalf("unexpected defaults %s %s", r.Source(), r.timeout)
	}
	if st := r.State(context.Background(), refEpoch); st.Fallback {
		t.Fatal("the circular ephemeris never falls back")
	}
}
