// Package geo turns raw dataset coordinates into map-ready points.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/mr1hm/go-club-map/internal/models"
)

const (
	maxLat = 90.0
	maxLng = 180.0
)

var (
	latKeys = []string{"lat", "latitude"}
	lngKeys = []string{"lng", "lon", "long", "longitude"}
)

// Normalize converts a raw coordinate into a point. It reports false for
// absent, malformed, non-finite, out-of-bounds and (0,0) sentinel values.
// It never panics.
//
// When both axis orders are within bounds the stored order (lat, lng)
// wins; only when it is out of bounds is the swapped order tried.
func Normalize(raw models.RawCoordinate) (models.Point, bool) {
	a, b, ok := extract(raw)
	if !ok {
		return models.Point{}, false
	}
	if !isFinite(a) || !isFinite(b) {
		return models.Point{}, false
	}
	if a == 0 && b == 0 {
		return models.Point{}, false
	}

	if inBounds(a, b) {
		return models.Point{Lat: a, Lng: b}, true
	}
	if inBounds(b, a) {
		return models.Point{Lat: b, Lng: a}, true
	}
	return models.Point{}, false
}

// Locate is Normalize over the wrapper type stored on clubs and schools.
func Locate(c models.Coordinate) (models.Point, bool) {
	return Normalize(c.Raw)
}

func extract(raw models.RawCoordinate) (float64, float64, bool) {
	switch v := raw.(type) {
	case models.PairCoordinate:
		return extractPair(v)
	case models.TextCoordinate:
		return extractText(v)
	case models.KeyedCoordinate:
		return extractKeyed(v)
	default:
		return 0, 0, false
	}
}

func extractPair(p models.PairCoordinate) (float64, float64, bool) {
	return p[0], p[1], true
}

func extractText(t models.TextCoordinate) (float64, float64, bool) {
	s := strings.TrimSpace(string(t))
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

func extractKeyed(k models.KeyedCoordinate) (float64, float64, bool) {
	lat, ok := lookup(k, latKeys)
	if !ok {
		return 0, 0, false
	}
	lng, ok := lookup(k, lngKeys)
	if !ok {
		return 0, 0, false
	}
	return lat, lng, true
}

// lookup returns the value of the first spelling in keys. An exact key
// wins; otherwise keys are compared case-insensitively, and spellings
// that collide with different values ("Lat" and "LAT") count as missing.
func lookup(m models.KeyedCoordinate, keys []string) (float64, bool) {
	for _, want := range keys {
		if v, ok := m[want]; ok {
			return v, true
		}

		var (
			found bool
			value float64
		)
		for key, v := range m {
			if strings.ToLower(strings.TrimSpace(key)) != want {
				continue
			}
			if found && !sameValue(v, value) {
				return 0, false
			}
			found, value = true, v
		}
		if found {
			return value, true
		}
	}
	return 0, false
}

func sameValue(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func inBounds(lat, lng float64) bool {
	return math.Abs(lat) <= maxLat && math.Abs(lng) <= maxLng
}
