package geo

import (
	"math"

	"github.com/mr1hm/go-club-map/internal/models"
)

// SpreadStep is the radius, in degrees, of the ring clubs are placed on
// around their school.
const SpreadStep = 0.00015

// Spread returns the raw coordinate of the index-th pin around a school
// point. Pins step by 45 degrees so up to eight clubs at one school stay
// apart.
func Spread(center models.Point, index int) models.PairCoordinate {
	angle := float64(index) * (math.Pi / 4)
	return models.PairCoordinate{
		center.Lat + math.Sin(angle)*SpreadStep,
		center.Lng + math.Cos(angle)*SpreadStep,
	}
}
