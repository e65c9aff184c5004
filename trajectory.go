package celestium

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TrajectoryResult is the transfer of a vehicle towards the Moon for one mode.
type TrajectoryResult struct {
	Mode         TransferMode
	Name         string
	Color        string
	Description  string
	DeltaV       float64     // m/s, penalty included
	Penalty      float64     // m/s
	TransitTime  float64     // hours
	Propellant   float64     // kg
	FuelFraction float64     // propellant over the vehicle fuel capacity
	OverCapacity bool        // the propellant exceeds the vehicle fuel capacity (never clamped)
	Target       []float64   // km
	Path         [][]float64 // km, PathSamples points
}

// DeltaVText returns the Δv as displayed, in m/s with one decimal.
func (r TrajectoryResult) DeltaVText() string {
	return fmt.Sprintf("%.1f", r.DeltaV)
}

// PropellantText returns the propellant mass as displayed, in kg without decimals.
func (r TrajectoryResult) PropellantText() string {
	return fmt.Sprintf("%.0f", r.Propellant)
}

// TimeText returns the transit time as displayed, in hours with one decimal.
func (r TrajectoryResult) TimeText() string {
	return fmt.Sprintf("%.1f h", r.TransitTime)
}

// TransitDuration returns the transit time as a time.Duration.
func (r TrajectoryResult) TransitDuration() time.Duration {
	return time.Duration(r.TransitTime * float64(time.Hour))
}

// Solve computes the transfer of the vehicle in the provided mode for that Moon state.
// It is a pure function of its arguments.
func Solve(state CelestialState, v Vehicle, mode TransferMode) (TrajectoryResult, error) {
	p, err := mode.profile()
	if err != nil {
		return TrajectoryResult{}, err
	}
	if err := v.Validate(); err != nil {
		return TrajectoryResult{}, err
	}
	budget, err := ComputeBudget(state, mode)
	if err != nil {
		return TrajectoryResult{}, err
	}
	path, err := SynthesizePath(state.Position, mode, state.Distance)
	if err != nil {
		return TrajectoryResult{}, err
	}
	fuel := v.Propellant(budget.DeltaV)
	return TrajectoryResult{
		Mode:         mode,
		Name:         p.name,
		Color:        p.color,
		Description:  p.desc,
		DeltaV:       budget.DeltaV,
		Penalty:      budget.Penalty,
		TransitTime:  budget.TransitTime,
		Propellant:   fuel,
		FuelFraction: v.FuelFraction(fuel),
		OverCapacity: fuel > v.FuelCapacity,
		Target:       []float64{state.Position[0], state.Position[1], state.Position[2]},
		Path:         path,
	}, nil
}

// GenerateTrajectories solves all the modes for that Moon state.
func GenerateTrajectories(state CelestialState, v Vehicle) (map[TransferMode]TrajectoryResult, error) {
	out := make(map[TransferMode]TrajectoryResult, len(Modes()))
	for _, mode := range Modes() {
		tr, err := Solve(state, v, mode)
		if err != nil {
			return nil, fmt.Errorf("%s transfer: %w", mode, err)
		}
		out[mode] = tr
	}
	return out, nil
}

// Plan holds all the transfers of a vehicle launched at an epoch.
type Plan struct {
	Epoch        time.Time
	Vehicle      Vehicle
	State        CelestialState
	Trajectories map[TransferMode]TrajectoryResult
}

// Planner resolves the Moon state and generates the trajectories. It holds no mutable state.
type Planner struct {
	resolver *Resolver
	logger   log.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// NewPlanner returns a new Planner; logger and metrics may be nil.
func NewPlanner(resolver *Resolver, logger log.Logger, metrics *Metrics) *Planner {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if resolver == nil {
		resolver = NewResolver(MeeusEphemeris{}, DefaultLookupTimeout, logger, metrics)
	}
	return &Planner{resolver, log.With(logger, "subsys", "plan"), metrics, tracer()}
}

// State returns the state of the Moon at this epoch; check Fallback before trusting it.
func (p *Planner) State(ctx context.Context, epoch time.Time) CelestialState {
	return p.resolver.State(ctx, epoch)
}

// Trajectories returns the transfers of all the modes for this epoch and vehicle.
func (p *Planner) Trajectories(ctx context.Context, epoch time.Time, v Vehicle) (map[TransferMode]TrajectoryResult, error) {
	plan, err := p.Plan(ctx, epoch, v)
	if err != nil {
		return nil, err
	}
	return plan.Trajectories, nil
}

// Plan resolves the Moon state once and generates the transfers of all the modes.
func (p *Planner) Plan(ctx context.Context, epoch time.Time, v Vehicle) (Plan, error) {
	ctx, span := p.tracer.Start(ctx, "plan", trace.WithAttributes(attribute.String("vehicle", v.Name)))
	defer span.End()
	epoch = epoch.UTC()
	state := p.resolver.State(ctx, epoch)
	trajectories, err := GenerateTrajectories(state, v)
	if err != nil {
		span.RecordError(err)
		return Plan{}, err
	}
	plan := Plan{Epoch: epoch, Vehicle: v, State: state, Trajectories: trajectories}
	p.metrics.observePlan(plan)
	for _, mode := range Modes() {
		if tr := trajectories[mode]; tr.OverCapacity {
			p.logger.Log("level", "notice", "vehicle", v.Name, "mode", mode, "fuel(kg)", tr.PropellantText(), "capacity(kg)", v.FuelCapacity, "message", "over capacity")
		}
	}
	p.logger.Log("level", "info", "vehicle", v.Name, "epoch", epoch, "source", state.Source, "fallback", state.Fallback, "dec(deg)", state.Declination)
	return plan, nil
}
