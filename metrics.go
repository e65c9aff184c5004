package celestium

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the ephemeris and planning counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LookupsTotal   *prometheus.CounterVec
	FallbacksTotal *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	PlansTotal     *prometheus.CounterVec
	OverCapacity   *prometheus.CounterVec
}

// NewMetrics registers the collectors against the provided registerer (the default one if nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		LookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "celestium_ephemeris_lookups_total",
			Help: "Total number of Moon ephemeris lookups.",
		}, []string{"source", "result"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "celestium_ephemeris_fallbacks_total",
			Help: "Total number of lookups resolved with the circular orbit model.",
		}, []string{"source"}),
		LookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "celestium_ephemeris_lookup_duration_seconds",
			Help:    "Duration of Moon ephemeris lookups.",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		PlansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "celestium_plans_total",
			Help: "Total number of trajectory plans generated.",
		}, []string{"vehicle", "fallback"}),
		OverCapacity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "celestium_trajectories_over_capacity_total",
			Help: "Trajectories whose propellant mass exceeds the vehicle fuel capacity.",
		}, []string{"mode"}),
	}
	for name, c := range map[string]prometheus.Collector{
		"celestium_ephemeris_lookups_total":           m.LookupsTotal,
		"celestium_ephemeris_fallbacks_total":         m.FallbacksTotal,
		"celestium_ephemeris_lookup_duration_seconds": m.LookupDuration,
		"celestium_plans_total":                       m.PlansTotal,
		"celestium_trajectories_over_capacity_total":  m.OverCapacity,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return nil, fmt.Errorf("collector %s already registered", name)
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeLookup(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		m.FallbacksTotal.WithLabelValues(source).Inc()
	}
	m.LookupsTotal.WithLabelValues(source, result).Inc()
	m.LookupDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) observePlan(p Plan) {
	if m == nil {
		return
	}
	m.PlansTotal.WithLabelValues(p.Vehicle.Name, fmt.Sprintf("%t", p.State.Fallback)).Inc()
	for _, mode := range Modes() {
		if tr, ok := p.Trajectories[mode]; ok && tr.OverCapacity {
			m.OverCapacity.WithLabelValues(mode.Key()).Inc()
		}
	}
}
