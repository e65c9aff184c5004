package celestium

import (
	"fmt"
	"math"
	"time"
)

const (
	// earthGM is the gravitational parameter of the Earth in km^3/s^2.
	earthGM = 3.98600433e5
	// earthRadius is the equatorial radius of the Earth in km.
	earthRadius = 6378.1363
	// ParkingAltitude is the altitude of the circular parking orbit in km.
	ParkingAltitude = 200.0
)

// HohmannTransfer computes an Hohmann transfer about the Earth between two circular orbits of radii rI and rF (km).
// It returns the departure and arrival velocities (km/s) on the transfer ellipse, and the time of flight.
// To get final computations:
// ΔvInit = vDeparture - vI
// ΔvFinal = vF - vArrival
func HohmannTransfer(rI, rF float64) (vDeparture, vArrival float64, tof time.Duration, err error) {
	if !finite(rI, rF) || rI <= 0 || rF <= 0 {
		err = fmt.Errorf("%w: Hohmann radii %f and %f km", ErrNumericDomain, rI, rF)
		return
	}
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * earthGM / rI) - (earthGM / aTransfer))
	vArrival = math.Sqrt((2 * earthGM / rF) - (earthGM / aTransfer))
	tof = time.Duration(math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/earthGM) * float64(time.Second))
	return
}

// HohmannTLI returns the theoretical injection Δv (m/s) from the parking orbit to the Moon distance (km)
// and the transfer time. It ignores the lunar gravity and is the reference the Hohmann mode is calibrated on.
func HohmannTLI(distance float64) (Δv float64, tof time.Duration, err error) {
	rI := earthRadius + ParkingAltitude
	vDeparture, _, tof, err := HohmannTransfer(rI, distance)
	if err != nil {
		return 0, 0, err
	}
	return (vDeparture - math.Sqrt(earthGM/rI)) * 1e3, tof, nil
}
