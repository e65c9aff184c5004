package celestium

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gopkg.in/yaml.v3"
)

/* Plan reports (YAML and CSV) */

// PlanReport is the serializable form of a Plan.
type PlanReport struct {
	Epoch        time.Time          `yaml:"epoch"`
	Vehicle      Vehicle            `yaml:"vehicle"`
	Moon         StateReport        `yaml:"moon"`
	Trajectories []TrajectoryReport `yaml:"trajectories"`
}

// StateReport is the serializable form of a CelestialState.
type StateReport struct {
	Position    []float64 `yaml:"position_km,flow"`
	Distance    float64   `yaml:"distance_km"`
	Declination float64   `yaml:"declination_deg"`
	Window      string    `yaml:"window"`
	HohmannTLI  float64   `yaml:"hohmann_tli_mps"`
	Source      string    `yaml:"source"`
	Fallback    bool      `yaml:"fallback"`
	Error       string    `yaml:"error,omitempty"`
}

// TrajectoryReport is the serializable form of a TrajectoryResult.
type TrajectoryReport struct {
	Key          string      `yaml:"key"`
	Label        string      `yaml:"label"`
	Name         string      `yaml:"name"`
	Color        string      `yaml:"color"`
	Description  string      `yaml:"description"`
	DeltaV       float64     `yaml:"delta_v_mps"`
	Penalty      float64     `yaml:"penalty_mps"`
	TransitTime  float64     `yaml:"transit_time_h"`
	Propellant   float64     `yaml:"propellant_kg"`
	FuelFraction float64     `yaml:"fuel_fraction"`
	OverCapacity bool        `yaml:"over_capacity"`
	Path         [][]float64 `yaml:"path_km,omitempty,flow"`
}

// NewStateReport returns the report of a state.
func NewStateReport(s CelestialState) StateReport {
	rpt := StateReport{Position: s.Position, Distance: s.Distance, Declination: s.Declination, Window: s.WindowStatus(), Source: s.Source, Fallback: s.Fallback}
	if Δv, _, err := HohmannTLI(s.Distance); err == nil {
		rpt.HohmannTLI = Δv
	}
	if s.Err != nil {
		rpt.Error = s.Err.Error()
	}
	return rpt
}

// NewPlanReport returns the report of a plan, with the trajectories in display order.
func NewPlanReport(plan Plan, withPaths bool) PlanReport {
	rpt := PlanReport{Epoch: plan.Epoch, Vehicle: plan.Vehicle, Moon: NewStateReport(plan.State)}
	for _, mode := range Modes() {
		tr, ok := plan.Trajectories[mode]
		if !ok {
			continue
		}
		t := TrajectoryReport{Key: mode.Key(), Label: mode.Label(), Name: tr.Name, Color: tr.Color, Description: tr.Description,
			DeltaV: tr.DeltaV, Penalty: tr.Penalty, TransitTime: tr.TransitTime, Propellant: tr.Propellant,
			FuelFraction: tr.FuelFraction, OverCapacity: tr.OverCapacity}
		if withPaths {
			t.Path = tr.Path
		}
		rpt.Trajectories = append(rpt.Trajectories, t)
	}
	return rpt
}

// WriteYAML writes the plan report as YAML.
func WriteYAML(w io.Writer, plan Plan, withPaths bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewPlanReport(plan, withPaths)); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return enc.Close()
}

var csvHeader = []string{"mode", "name", "delta_v_mps", "penalty_mps", "transit_time_h", "propellant_kg", "fuel_fraction", "over_capacity"}

// WriteCSV writes one row per trajectory of the plan.
func WriteCSV(w io.Writer, plan Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range NewPlanReport(plan, false).Trajectories {
		record := []string{t.Key, t.Name,
			strconv.FormatFloat(t.DeltaV, 'f', 1, 64),
			strconv.FormatFloat(t.Penalty, 'f', 1, 64),
			strconv.FormatFloat(t.TransitTime, 'f', 1, 64),
			strconv.FormatFloat(t.Propellant, 'f', 0, 64),
			strconv.FormatFloat(t.FuelFraction, 'f', 4, 64),
			strconv.FormatBool(t.OverCapacity)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

/* Cosmographia export */

// CgCatalog definition.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
}

// CgItems definition.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// CgInterpolatedState definition.
type CgInterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an interpolated state file.
func ParseInterpolatedStates(r io.Reader) ([]CgInterpolatedState, error) {
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	cr.FieldsPerRecord = 7
	var states []CgInterpolatedState
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return states, nil
		}
		if err != nil {
			return nil, err
		}
		vals := make([]float64, 7)
		for i, field := range record {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("field %d of %v: %w", i, record, err)
			}
		}
		states = append(states, CgInterpolatedState{JD: vals[0], Position: vals[1:4], Velocity: vals[4:7]})
	}
}

// InterpolatedStates spreads the path samples evenly over the transit time from the epoch.
// Velocities (km/s) are finite differences between samples and only matter to the viewer's interpolation.
func InterpolatedStates(epoch time.Time, tr TrajectoryResult) []CgInterpolatedState {
	n := len(tr.Path)
	states := make([]CgInterpolatedState, n)
	if n == 0 {
		return states
	}
	step := tr.TransitDuration() / time.Duration(max(n-1, 1))
	for i, pt := range tr.Path {
		j, k := i, i+1
		if k == n {
			j, k = n-2, n-1
		}
		V := []float64{0, 0, 0}
		if j >= 0 && step > 0 {
			for c := 0; c < 3; c++ {
				V[c] = (tr.Path[k][c] - tr.Path[j][c]) / step.Seconds()
			}
		}
		states[i] = CgInterpolatedState{JD: julian.TimeToJD(epoch.Add(time.Duration(i) * step)), Position: pt, Velocity: V}
	}
	return states
}

// ExportCosmographia writes one interpolated state file per trajectory and the catalog in dir.
// It returns the names of the created files.
func ExportCosmographia(dir string, plan Plan) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	slug := strings.ReplaceAll(strings.ToLower(plan.Vehicle.Name), " ", "-")
	var created []string
	catalog := CgCatalog{Version: "1.0", Name: plan.Vehicle.Name}
	for _, mode := range Modes() {
		tr, ok := plan.Trajectories[mode]
		if !ok {
			continue
		}
		source := fmt.Sprintf("prop-%s-%s.xyzv", slug, mode.Key())
		fname := filepath.Join(dir, source)
		if err := writeInterpolatedFile(fname, plan, tr); err != nil {
			return created, err
		}
		created = append(created, fname)
		end := plan.Epoch.Add(tr.TransitDuration())
		color := hexColor(tr.Color)
		catalog.Items = append(catalog.Items, &CgItems{
			Class:           "spacecraft",
			Name:            fmt.Sprintf("%s-%s", plan.Vehicle.Name, mode.Label()),
			StartTime:       plan.Epoch.UTC().Format(time.RFC3339),
			EndTime:         end.UTC().Format(time.RFC3339),
			Center:          "Earth",
			TrajectoryFrame: "ICRF",
			Trajectory:      &CgTrajectory{Type: "InterpolatedStates", Source: source},
			Label:           &CgLabel{Color: color, FadeSize: 1000000, ShowText: true},
			TrajectoryPlot:  &CgTrajectoryPlot{Color: color, LineWidth: 1, Duration: fmt.Sprintf("%d d", int(tr.TransitTime/24+1)), Lead: "0 d", SampleCount: len(tr.Path)},
		})
	}
	marsh, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return created, err
	}
	fname := filepath.Join(dir, fmt.Sprintf("catalog-%s.json", slug))
	if err := os.WriteFile(fname, marsh, 0o644); err != nil {
		return created, err
	}
	return append(created, fname), nil
}

func writeInterpolatedFile(fname string, plan Plan, tr TrajectoryResult) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	// Header
	if _, err := fmt.Fprintf(f, `# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a UTC Julian date
#   Position in km
#   Velocity in km/sec
#   Transfer: %s (%s) on %s, Moon source %s (fallback %t)`, tr.Name, tr.Mode, plan.Vehicle.Name, plan.State.Source, plan.State.Fallback); err != nil {
		return err
	}
	for _, st := range InterpolatedStates(plan.Epoch, tr) {
		if _, err := f.WriteString("\n" + st.ToText()); err != nil {
			return err
		}
	}
	_, err = f.WriteString("\n")
	if err != nil {
		return err
	}
	return f.Close()
}

// hexColor converts a "#RRGGBB" token to RGB components in [0, 1].
func hexColor(token string) []float64 {
	token = strings.TrimPrefix(token, "#")
	if len(token) != 6 {
		return []float64{0.6, 1, 1}
	}
	rgb := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(token[2*i:2*i+2], 16, 8)
		if err != nil {
			return []float64{0.6, 1, 1}
		}
		rgb[i] = float64(v) / 255
	}
	return rgb
}
