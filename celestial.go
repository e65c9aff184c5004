package celestium

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MeanLunarDistance is the mean Earth-Moon distance in kilometers.
	MeanLunarDistance = 384400.0
	// LunarPeriod is the sidereal period of the circular fallback orbit in days.
	LunarPeriod = 27.3
	// DefaultLookupTimeout bounds a single ephemeris lookup.
	DefaultLookupTimeout = 5 * time.Second
	// circularSource is the Source of the states computed from the circular orbit model.
	circularSource = "circular"
)

// Window statuses, based on the Moon declination.
const (
	WindowOptimal  = "OPTIMAL"
	WindowCritical = "CRITICAL"
)

// CelestialState is the geocentric state of the Moon at a given epoch.
type CelestialState struct {
	Epoch       time.Time
	Position    []float64 // km, geocentric equatorial
	Distance    float64   // km
	Declination float64   // degrees
	Source      string    // name of the ephemeris which produced this state
	Fallback    bool      // true if the precise lookup failed and the circular model was used
	Err         error     // cause of the fallback, nil otherwise
}

// DistanceFactor returns the distance normalized by the mean lunar distance.
func (s CelestialState) DistanceFactor() float64 {
	return s.Distance / MeanLunarDistance
}

// WindowStatus returns OPTIMAL if the declination is under 10 degrees in absolute value, CRITICAL otherwise.
func (s CelestialState) WindowStatus() string {
	if math.Abs(s.Declination) < penaltyThreshold {
		return WindowOptimal
	}
	return WindowCritical
}

// String implements the Stringer interface.
func (s CelestialState) String() string {
	str := fmt.Sprintf("Moon @ %s: r=%.0f km δ=%.2f° (%s)", s.Epoch.Format(time.RFC3339), s.Distance, s.Declination, s.Source)
	if s.Fallback {
		str += " [fallback]"
	}
	return str
}

// NewCelestialState builds a state from a geocentric equatorial position in km.
func NewCelestialState(epoch time.Time, R []float64, source string) (CelestialState, error) {
	if len(R) != 3 || !finite(R...) {
		return CelestialState{}, fmt.Errorf("%w: invalid position %v", ErrNumericDomain, R)
	}
	r := norm(R)
	if r <= 0 || math.IsInf(r, 0) {
		return CelestialState{}, fmt.Errorf("%w: invalid distance %f", ErrNumericDomain, r)
	}
	δ := math.Asin(math.Max(-1, math.Min(1, R[2]/r))) / deg2rad
	return CelestialState{Epoch: epoch.UTC(), Position: []float64{R[0], R[1], R[2]}, Distance: r, Declination: δ, Source: source}, nil
}

// CircularState returns the state of the Moon on a circular equatorial orbit at the mean lunar distance.
// The angular position is measured from the J2000 epoch.
func CircularState(epoch time.Time) CelestialState {
	st, _ := NewCelestialState(epoch, circularPosition(epoch), circularSource)
	return st
}

func circularPosition(epoch time.Time) []float64 {
	days := julian.TimeToJD(epoch.UTC()) - base.J2000
	θ := 2 * math.Pi * math.Mod(days, LunarPeriod) / LunarPeriod
	return MxV33(R3(-θ), []float64{MeanLunarDistance, 0, 0})
}

// Ephemeris is a source of the geocentric position of the Moon.
type Ephemeris interface {
	// Name returns the name of the source, used in logs and metrics.
	Name() string
	// Position returns the geocentric equatorial position of the Moon in km.
	Position(ctx context.Context, epoch time.Time) ([]float64, error)
}

// CircularEphemeris is the deterministic circular orbit model.
type CircularEphemeris struct{}

// Name implements the Ephemeris interface.
func (CircularEphemeris) Name() string { return circularSource }

// Position implements the Ephemeris interface.
func (CircularEphemeris) Position(_ context.Context, epoch time.Time) ([]float64, error) {
	return circularPosition(epoch), nil
}

// Resolver maps an epoch to a CelestialState and falls back to the circular model if the ephemeris fails.
type Resolver struct {
	eph     Ephemeris
	timeout time.Duration
	logger  log.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewResolver returns a new Resolver. A zero timeout uses DefaultLookupTimeout; logger and metrics may be nil.
func NewResolver(eph Ephemeris, timeout time.Duration, logger log.Logger, metrics *Metrics) *Resolver {
	if eph == nil {
		eph = CircularEphemeris{}
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Resolver{eph, timeout, log.With(logger, "subsys", "ephem"), metrics, tracer()}
}

// Source returns the name of the underlying ephemeris.
func (r *Resolver) Source() string {
	return r.eph.Name()
}

// State returns the state of the Moon at the provided epoch. It never fails: if the lookup errors or times out
// then the circular state is returned with Fallback set and Err holding the cause.
func (r *Resolver) State(ctx context.Context, epoch time.Time) CelestialState {
	epoch = epoch.UTC()
	source := r.eph.Name()
	ctx, span := r.tracer.Start(ctx, "ephemeris.lookup", trace.WithAttributes(
		attribute.String("ephemeris.source", source),
		attribute.String("epoch", epoch.Format(time.RFC3339)),
	))
	defer span.End()

	start := time.Now()
	R, err := r.lookup(ctx, epoch)
	var st CelestialState
	if err == nil {
		st, err = NewCelestialState(epoch, R, source)
	}
	r.metrics.observeLookup(source, time.Since(start), err)
	if err == nil {
		span.SetAttributes(attribute.Float64("moon.distance_km", st.Distance), attribute.Float64("moon.declination_deg", st.Declination))
		return st
	}

	err = fmt.Errorf("%w: %s: %w", ErrEphemerisUnavailable, source, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "ephemeris lookup failed")
	r.logger.Log("level", "warning", "source", source, "epoch", epoch, "fallback", circularSource, "err", err)
	st = CircularState(epoch)
	st.Fallback = true
	st.Err = err
	return st
}

type lookupResult struct {
	R   []float64
	err error
}

// lookup runs the ephemeris in its own goroutine so that the timeout holds even if it ignores its context.
func (r *Resolver) lookup(ctx context.Context, epoch time.Time) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	done := make(chan lookupResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- lookupResult{nil, fmt.Errorf("ephemeris panicked: %v", p)}
			}
		}()
		R, err := r.eph.Position(ctx, epoch)
		done <- lookupResult{R, err}
	}()
	select {
	case res := <-done:
		return res.R, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("lookup after %s: %w", r.timeout, ctx.Err())
	}
}
