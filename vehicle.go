package celestium

import (
	"fmt"
	"strings"
)

// Vehicle defines a launch vehicle. Vehicles are values and must not be modified once registered.
type Vehicle struct {
	Name         string  `mapstructure:"name" yaml:"name"`
	DryMass      float64 `mapstructure:"dry_mass" yaml:"dry_mass"`           // kg
	Isp          float64 `mapstructure:"isp" yaml:"isp"`                     // s
	FuelCapacity float64 `mapstructure:"fuel_capacity" yaml:"fuel_capacity"` // kg
	Description  string  `mapstructure:"description" yaml:"description,omitempty"`
}

// Validate returns an error if the vehicle cannot be used in the rocket equation.
func (v Vehicle) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: vehicle has no name", ErrNumericDomain)
	}
	if !finite(v.DryMass, v.Isp, v.FuelCapacity) || v.DryMass <= 0 || v.Isp <= 0 || v.FuelCapacity < 0 {
		return fmt.Errorf("%w: vehicle %s has dry mass %f kg, isp %f s, capacity %f kg", ErrNumericDomain, v.Name, v.DryMass, v.Isp, v.FuelCapacity)
	}
	return nil
}

// Propellant returns the propellant mass needed for this Δv (m/s).
func (v Vehicle) Propellant(Δv float64) float64 {
	return Propellant(v.DryMass, Δv, v.Isp)
}

// FuelFraction returns the provided propellant mass as a fraction of the fuel capacity.
func (v Vehicle) FuelFraction(mass float64) float64 {
	if v.FuelCapacity <= 0 {
		return 0
	}
	return mass / v.FuelCapacity
}

// String implements the Stringer interface.
func (v Vehicle) String() string {
	return fmt.Sprintf("%s (dry %.0f kg, isp %.0f s, fuel cap %.0f kg)", v.Name, v.DryMass, v.Isp, v.FuelCapacity)
}

/* Catalog */

// Starship is fully reusable; optimization assumes orbital refueling is complete.
var Starship = Vehicle{"SpaceX Starship", 120000, 380, 1200000, "Fully reusable. Optimization assumes orbital refueling is complete."}

// SaturnV is the Apollo launcher.
var SaturnV = Vehicle{"Apollo Saturn V", 130000, 421, 110000, "Expendable 3-stage rocket. S-IVB stage used for TLI."}

// SLSBlock1B is the Artemis super heavy lifter.
var SLSBlock1B = Vehicle{"SLS Block 1B", 125000, 460, 130000, "NASA's Super Heavy-Lift Launch Vehicle (Artemis)."}

// DefaultVehicles returns the built-in catalog.
func DefaultVehicles() []Vehicle {
	return []Vehicle{Starship, SaturnV, SLSBlock1B}
}

// VehicleRegistry is a read-only catalog of vehicles, safe for concurrent use.
type VehicleRegistry struct {
	names    []string
	vehicles map[string]Vehicle
}

// NewVehicleRegistry validates and registers the provided vehicles. Names are case insensitive and unique.
func NewVehicleRegistry(vehicles ...Vehicle) (*VehicleRegistry, error) {
	r := &VehicleRegistry{vehicles: make(map[string]Vehicle, len(vehicles))}
	for _, v := range vehicles {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(v.Name)
		if _, dup := r.vehicles[key]; dup {
			return nil, fmt.Errorf("duplicate vehicle '%s'", v.Name)
		}
		r.vehicles[key] = v
		r.names = append(r.names, v.Name)
	}
	return r, nil
}

// Lookup returns the vehicle from its name.
func (r *VehicleRegistry) Lookup(name string) (Vehicle, error) {
	v, ok := r.vehicles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Vehicle{}, fmt.Errorf("%w: '%s'", ErrUnknownVehicle, name)
	}
	return v, nil
}

// Names returns the vehicle names in registration order.
func (r *VehicleRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

// Vehicles returns the vehicles in registration order.
func (r *VehicleRegistry) Vehicles() []Vehicle {
	out := make([]Vehicle, len(r.names))
	for i, name := range r.names {
		out[i] = r.vehicles[strings.ToLower(name)]
	}
	return out
}

// Len returns the number of registered vehicles.
func (r *VehicleRegistry) Len() int {
	return len(r.names)
}
