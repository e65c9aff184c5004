package celestium

import "errors"

var (
	// ErrEphemerisUnavailable is attached to a fallback CelestialState when the precise lookup failed.
	ErrEphemerisUnavailable = errors.New("ephemeris unavailable")
	// ErrUnknownMode is returned when a transfer mode is outside of the five supported strategies.
	ErrUnknownMode = errors.New("unknown transfer mode")
	// ErrNumericDomain is returned on degenerate geometry (zero vectors, zero scale references, NaN or Inf).
	ErrNumericDomain = errors.New("numeric domain error")
	// ErrUnknownVehicle is returned by the registry for a name it does not hold.
	ErrUnknownVehicle = errors.New("unknown vehicle")
)
