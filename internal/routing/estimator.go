package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// Geocoder resolves an address to a point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (orb.Point, error)
}

// Average door-to-door speeds in km/h.
var modeSpeeds = map[models.TravelMode]float64{
	models.ModeTransit:   25,
	models.ModeDriving:   40,
	models.ModeBicycling: 15,
}

// Streets are not straight lines.
const detourFactor = 1.3

// Estimator approximates travel times from the straight-line distance
// between the geocoded endpoints. Its results are marked Estimated.
type Estimator struct {
	geocoder Geocoder
}

func NewEstimator(g Geocoder) *Estimator {
	return &Estimator{geocoder: g}
}

func (e *Estimator) Route(ctx context.Context, req Request) (*Result, error) {
	if _, ok := modeSpeeds[req.Mode]; !ok {
		return nil, fmt.Errorf("unsupported travel mode %q", req.Mode)
	}

	from, err := e.geocoder.Geocode(ctx, req.Origin)
	if err != nil {
		return nil, fmt.Errorf("geocode origin: %w", err)
	}
	to, err := e.geocoder.Geocode(ctx, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("geocode destination: %w", err)
	}

	return &Result{Minutes: EstimateMinutes(from, to, req.Mode), Estimated: true}, nil
}

// EstimateMinutes converts the distance between two points into minutes at
// the mode's average speed. Distinct points take at least one minute.
func EstimateMinutes(from, to orb.Point, mode models.TravelMode) int {
	speed, ok := modeSpeeds[mode]
	if !ok {
		speed = modeSpeeds[models.ModeTransit]
	}
	km := geo.DistanceHaversine(from, to) / 1000 * detourFactor
	minutes := int(math.Round(km / speed * 60))
	if minutes == 0 && km > 0 {
		minutes = 1
	}
	return minutes
}
