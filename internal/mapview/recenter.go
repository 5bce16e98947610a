package mapview

import (
	"sync"
	"time"

	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/models"
)

// Recenterer flies the viewport to a selected club. It skips clubs
// without a location and repeated requests for the point it last flew to.
type Recenterer struct {
	viewport Viewport
	zoom     int
	duration time.Duration

	mu   sync.Mutex
	last *models.Point
}

func NewRecenterer(viewport Viewport, zoom int, duration time.Duration) *Recenterer {
	return &Recenterer{
		viewport: viewport,
		zoom:     zoom,
		duration: duration,
	}
}

// Recenter reports whether a FlyTo was issued.
func (r *Recenterer) Recenter(club models.Club) bool {
	pt, ok := geo.Locate(club.Coordinates)
	if !ok {
		return false
	}

	r.mu.Lock()
	if r.last != nil && *r.last == pt {
		r.mu.Unlock()
		return false
	}
	r.last = &pt
	r.mu.Unlock()

	r.viewport.FlyTo(pt, r.zoom, r.duration)
	return true
}

// Last returns the point most recently flown to.
func (r *Recenterer) Last() (models.Point, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return models.Point{}, false
	}
	return *r.last, true
}
