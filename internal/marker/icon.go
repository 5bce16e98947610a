// Package marker resolves the visual descriptor used to draw each pin.
package marker

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-club-map/internal/models"
)

const (
	colorIconURL = "https://raw.githubusercontent.com/pointhi/leaflet-color-markers/master/img/marker-icon-2x-%s.png"
	shadowURL    = "https://cdnjs.cloudflare.com/ajax/libs/leaflet/0.7.7/images/marker-shadow.png"
)

type Kind string

const (
	KindPin   Kind = "pin"
	KindBadge Kind = "badge"
)

// Icon describes how a marker is drawn. Icons returned by a Resolver are
// shared and must not be modified.
type Icon struct {
	Kind        Kind    `json:"kind"`
	Color       string  `json:"color,omitempty"`
	URL         string  `json:"url,omitempty"`
	ShadowURL   string  `json:"shadow_url,omitempty"`
	ClassName   string  `json:"class_name,omitempty"`
	HTML        string  `json:"html,omitempty"`
	Size        [2]int  `json:"size"`
	Anchor      [2]int  `json:"anchor"`
	PopupAnchor *[2]int `json:"popup_anchor,omitempty"`
	ShadowSize  *[2]int `json:"shadow_size,omitempty"`
}

// Resolver memoizes one Icon per status for the life of the process.
type Resolver struct {
	mu     sync.Mutex
	icons  map[models.Status]*Icon
	school *Icon
	builds atomic.Int64
}

func NewResolver() *Resolver {
	return &Resolver{
		icons: make(map[models.Status]*Icon, 3),
	}
}

// ForStatus returns the pin for a club status, building it on first use.
func (r *Resolver) ForStatus(s models.Status) *Icon {
	r.mu.Lock()
	defer r.mu.Unlock()

	if icon, ok := r.icons[s]; ok {
		return icon
	}
	icon := r.pin(Color(s))
	r.icons[s] = icon
	return icon
}

// School returns the fixed badge drawn for school locations.
func (r *Resolver) School() *Icon {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.school == nil {
		r.builds.Add(1)
		r.school = &Icon{
			Kind:      KindBadge,
			ClassName: "school-marker",
			HTML:      `<div class="school-marker-inner">文</div>`,
			Size:      [2]int{32, 32},
			Anchor:    [2]int{16, 16},
		}
	}
	return r.school
}

// Builds reports how many descriptors have been constructed.
func (r *Resolver) Builds() int64 {
	return r.builds.Load()
}

func (r *Resolver) pin(color string) *Icon {
	r.builds.Add(1)
	return &Icon{
		Kind:        KindPin,
		Color:       color,
		URL:         fmt.Sprintf(colorIconURL, color),
		ShadowURL:   shadowURL,
		Size:        [2]int{25, 41},
		Anchor:      [2]int{12, 41},
		PopupAnchor: &[2]int{1, -34},
		ShadowSize:  &[2]int{41, 41},
	}
}

// Color maps a status to its pin colour.
func Color(s models.Status) string {
	switch s {
	case models.StatusActive:
		return "green"
	case models.StatusCoordinating:
		return "orange"
	default:
		return "grey"
	}
}

var defaultResolver = NewResolver()

// Default returns the process-wide resolver.
func Default() *Resolver {
	return defaultResolver
}
