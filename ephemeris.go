package celestium

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
)

// Ephemeris sources which can be selected by name.
const (
	SourceMeeus    = "meeus"
	SourceHorizons = "horizons"
	SourceCircular = circularSource
)

// MeeusEphemeris computes the Moon position from the ELP-2000/82 theory as truncated by Meeus (ch. 47).
// UTC is used in place of TT: ΔT (about a minute) moves the Moon by less than 60 km.
type MeeusEphemeris struct{}

// Name implements the Ephemeris interface.
func (MeeusEphemeris) Name() string { return SourceMeeus }

// Position implements the Ephemeris interface.
func (MeeusEphemeris) Position(ctx context.Context, epoch time.Time) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if epoch.IsZero() {
		return nil, errors.New("zero epoch")
	}
	jde := julian.TimeToJD(epoch.UTC())
	λ, β, Δ := moonposition.Position(jde)
	sε, cε := math.Sincos(nutation.MeanObliquity(jde).Rad())
	α, δ := coord.EclToEq(λ, β, sε, cε)
	sα, cα := math.Sincos(α.Rad())
	sδ, cδ := math.Sincos(δ.Rad())
	R := []float64{Δ * cδ * cα, Δ * cδ * sα, Δ * sδ}
	if !finite(R...) {
		return nil, fmt.Errorf("%w: non finite lunar position at JDE %f", ErrNumericDomain, jde)
	}
	return R, nil
}

// NewEphemeris returns the ephemeris for the provided source name.
func NewEphemeris(source string, horizonsURL string, timeout time.Duration) (Ephemeris, error) {
	switch strings.ToLower(source) {
	case "", SourceMeeus:
		return MeeusEphemeris{}, nil
	case SourceHorizons:
		return NewHorizonsEphemeris(horizonsURL, timeout), nil
	case SourceCircular:
		return CircularEphemeris{}, nil
	default:
		return nil, fmt.Errorf("unknown ephemeris source '%s'", source)
	}
}
