package celestium

import (
	"fmt"
	"strings"
)

// TransferMode defines the strategy of a translunar transfer.
type TransferMode uint8

const (
	// Fast is a hyperbolic, high energy injection.
	Fast TransferMode = iota + 1
	// Balanced trades some transit time for propellant.
	Balanced
	// FuelOpt is the minimum energy numerical profile.
	FuelOpt
	// Hohmann is the two-burn theoretical reference.
	Hohmann
	// FreeReturn loops around the Moon and heads back without a burn at closest approach.
	FreeReturn
)

// modeProfile holds the fixed coefficients and display metadata of a transfer mode.
type modeProfile struct {
	key, label        string
	name, color, desc string
	baseΔv            float64 // m/s at mean lunar distance
	timeCoeff         float64 // hours at mean lunar distance, or fixed hours
	fixedTime         bool
	amplitude         float64 // out of plane excursion as a fraction of the distance
}

func (m TransferMode) profile() (modeProfile, error) {
	switch m {
	case Fast:
		return modeProfile{"fast", "FAST", "High Speed Injection", "#FF00FF", "Hyperbolic Trajectory (Fastest)", 4100, 35, false, 0.05}, nil
	case Balanced:
		return modeProfile{"bal", "BAL", "Balanced Profile", "#FFA500", "Optimal Cost-Benefit", 3250, 55, false, 0.2}, nil
	case FuelOpt:
		return modeProfile{"opt", "OPT", "Min-Fuel Optimized", "#3388FF", "Numerical Minimum Energy", 3120, 75, false, 0.35}, nil
	case Hohmann:
		return modeProfile{"ho", "STD", "Standard Hohmann", "#00FF00", "Theoretical Reference", 3150, 72, false, 0.4}, nil
	case FreeReturn:
		return modeProfile{"fr", "RET", "Free Return", "#00FFFF", "Safety Loop", 3300, 144, true, 0.15}, nil
	default:
		return modeProfile{}, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(m))
	}
}

// Modes returns all the transfer modes in display order.
func Modes() []TransferMode {
	return []TransferMode{Fast, Balanced, FuelOpt, Hohmann, FreeReturn}
}

// Valid returns whether this mode is one of the five supported strategies.
func (m TransferMode) Valid() bool {
	_, err := m.profile()
	return err == nil
}

// Key returns the short key of this mode (e.g. "fast", "ho").
func (m TransferMode) Key() string {
	p, _ := m.profile()
	return p.key
}

// Label returns the short upper case label of this mode (e.g. "STD").
func (m TransferMode) Label() string {
	p, _ := m.profile()
	return p.label
}

// DisplayName returns the human readable name.
func (m TransferMode) DisplayName() string {
	p, _ := m.profile()
	return p.name
}

// Color returns the hexadecimal color token.
func (m TransferMode) Color() string {
	p, _ := m.profile()
	return p.color
}

// Description returns the one line description.
func (m TransferMode) Description() string {
	p, _ := m.profile()
	return p.desc
}

func (m TransferMode) String() string {
	if p, err := m.profile(); err == nil {
		return p.key
	}
	return fmt.Sprintf("TransferMode(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m TransferMode) MarshalText() ([]byte, error) {
	p, err := m.profile()
	if err != nil {
		return nil, err
	}
	return []byte(p.key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *TransferMode) UnmarshalText(b []byte) error {
	mode, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode returns the mode from either its key, its label or its long name.
func ParseMode(name string) (TransferMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fast", "high_speed":
		return Fast, nil
	case "bal", "balanced":
		return Balanced, nil
	case "opt", "fuel_opt", "fuelopt":
		return FuelOpt, nil
	case "ho", "std", "hohmann":
		return Hohmann, nil
	case "fr", "ret", "free_return", "freereturn":
		return FreeReturn, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}
