// Package session holds per-client selection and view state.
package session

import (
	"sync"

	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/models"
)

type View string

const (
	ViewMap  View = "map"
	ViewList View = "list"
)

func ParseView(s string) (View, bool) {
	switch View(s) {
	case ViewMap, ViewList:
		return View(s), true
	}
	return "", false
}

// Recenterer is satisfied by *mapview.Recenterer.
type Recenterer interface {
	Recenter(club models.Club) bool
}

// State tracks the active view and the selected club. It starts on the
// map with nothing selected.
type State struct {
	mu       sync.RWMutex
	view     View
	selected *models.Club
	recenter Recenterer
}

func NewState(recenter Recenterer) *State {
	return &State{
		view:     ViewMap,
		recenter: recenter,
	}
}

// Selection is the outcome of Select.
type Selection struct {
	View       View
	Recentered bool
}

// Select opens club regardless of its location. On a narrow viewport the
// view switches to the map, but only when the club can be shown there.
func (s *State) Select(club models.Club, narrow bool) Selection {
	_, mappable := geo.Locate(club.Coordinates)

	s.mu.Lock()
	s.selected = &club
	if narrow && mappable {
		s.view = ViewMap
	}
	view := s.view
	s.mu.Unlock()

	recentered := false
	if s.recenter != nil {
		recentered = s.recenter.Recenter(club)
	}
	return Selection{View: view, Recentered: recentered}
}

// Deselect closes the detail; the view is left alone.
func (s *State) Deselect() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

func (s *State) SetView(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Selected returns a copy of the selected club.
func (s *State) Selected() (models.Club, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return models.Club{}, false
	}
	return *s.selected, true
}
