// Package mapview places club and school markers and drives viewport
// recentering. Rendering itself is delegated to a MarkerSurface and a
// Viewport supplied by the caller.
package mapview

import (
	"time"

	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/marker"
	"github.com/mr1hm/go-club-map/internal/models"
)

type MarkerKind string

const (
	KindClub   MarkerKind = "club"
	KindSchool MarkerKind = "school"
)

type Popup struct {
	Title   string `json:"title"`
	Subject string `json:"subject,omitempty"`
	Action  string `json:"action,omitempty"`
}

type Marker struct {
	ID     string
	Kind   MarkerKind
	Point  models.Point
	Icon   *marker.Icon
	Popup  Popup
	Status models.Status // empty for schools
}

// MarkerSurface draws markers. onClick is nil for markers that do not
// select anything.
type MarkerSurface interface {
	DrawMarker(m Marker, onClick func())
}

// Viewport moves the visible map. FlyTo must not block: a later call
// supersedes one still animating.
type Viewport interface {
	FlyTo(p models.Point, zoom int, duration time.Duration)
}

// IconSource is satisfied by *marker.Resolver.
type IconSource interface {
	ForStatus(models.Status) *marker.Icon
	School() *marker.Icon
}

// Projection is the result of placing one club listing on the map.
type Projection struct {
	Markers  []Marker
	ListOnly []string // ids of clubs without a usable location
}

// Project places a marker for every school and club whose coordinate
// normalizes. Schools come first, then clubs in the given order.
func Project(clubs []models.Club, schools []models.School, icons IconSource) Projection {
	p := Projection{
		Markers: make([]Marker, 0, len(clubs)+len(schools)),
	}

	for _, s := range schools {
		pt, ok := geo.Locate(s.Coordinates)
		if !ok {
			continue
		}
		p.Markers = append(p.Markers, Marker{
			ID:    s.ID,
			Kind:  KindSchool,
			Point: pt,
			Icon:  icons.School(),
			Popup: Popup{Title: s.Name},
		})
	}

	for _, c := range clubs {
		pt, ok := geo.Locate(c.Coordinates)
		if !ok {
			p.ListOnly = append(p.ListOnly, c.ID)
			continue
		}
		p.Markers = append(p.Markers, Marker{
			ID:     c.ID,
			Kind:   KindClub,
			Point:  pt,
			Icon:   icons.ForStatus(c.Status),
			Popup:  Popup{Title: c.Name, Subject: c.Subject, Action: "詳細を見る"},
			Status: c.Status,
		})
	}

	return p
}

// Render draws every marker of p. Clicking a club marker calls onSelect
// with that club's id.
func Render(surface MarkerSurface, p Projection, onSelect func(clubID string)) {
	for _, m := range p.Markers {
		var onClick func()
		if m.Kind == KindClub && onSelect != nil {
			id := m.ID
			onClick = func() { onSelect(id) }
		}
		surface.DrawMarker(m, onClick)
	}
}
