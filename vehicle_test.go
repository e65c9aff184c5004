package celestium

import (
	"errors"
	"math"
	"testing"
)

func TestVehicleValidate(t *testing.T) {
	for _, v := range DefaultVehicles() {
		if err := v.Validate(); err != nil {
			t.Fatalf("%s: %s", v.Name, err)
		}
	}
	for _, v := range []Vehicle{
		{DryMass: 1, Isp: 1},
		{Name: "no mass", Isp: 300, FuelCapacity: 1},
		{Name: "no isp", DryMass: 1000, FuelCapacity: 1},
		{Name: "negative capacity", DryMass: 1000, Isp: 300, FuelCapacity: -1},
		{Name: "nan", DryMass: math.NaN(), Isp: 300, FuelCapacity: 1},
	} {
		if err := v.Validate(); !errors.Is(err, ErrNumericDomain) {
			t.Fatalf("%q: expected ErrNumericDomain, got %v", v.Name, err)
		}
	}
}

func TestVehicleRegistry(t *testing.T) {
	reg, err := NewVehicleRegistry(DefaultVehicles()...)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 3 {
		t.Fatalf("expected 3 vehicles, got %d", reg.Len())
	}
	names := reg.Names()
	if names[0] != Starship.Name || names[1] != SaturnV.Name || names[2] != SLSBlock1B.Name {
		t.Fatalf("unexpected order %v", names)
	}
	names[0] = "mutated"
	if reg.Names()[0] != Starship.Name {
		t.Fatal("Names should return a copy")
	}
	v, err := reg.Lookup("  apollo SATURN v ")
	if err != nil {
		t.Fatal(err)
	}
	if v != SaturnV {
		t.Fatalf("got %s", v)
	}
	if _, err := reg.Lookup("Falcon 9"); !errors.Is(err, ErrUnknownVehicle) {
		t.Fatalf("expected ErrUnknownVehicle, got %v", err)
	}
	if vs := reg.Vehicles(); len(vs) != 3 || vs[2] != SLSBlock1B {
		t.Fatalf("unexpected vehicles %v", vs)
	}
}

func TestVehicleRegistryErrors(t *testing.T) {
	if _, err := NewVehicleRegistry(Starship, Vehicle{Name: "SPACEX STARSHIP", DryMass: 1, Isp: 1}); err == nil {
		t.Fatal("duplicate names should be rejected")
	}
	if _, err := NewVehicleRegistry(Vehicle{Name: "bad"}); !errors.Is(err, ErrNumericDomain) {
		t.Fatalf("expected ErrNumericDomain, got %v", err)
	}
}
