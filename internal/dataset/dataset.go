// Package dataset decodes the static club and school table.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/models"
)

//go:embed clubs.json
var embedded []byte

var ErrInvalid = errors.New("invalid dataset")

type SchoolEntry struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Coordinates models.Coordinate `json:"coordinates"`
}

// ClubEntry is one club as written in the dataset. A club either carries
// raw coordinates or a pin index around its school.
type ClubEntry struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Name        string            `json:"name"`
	Subject     string            `json:"subject"`
	Location    string            `json:"location"`
	SchoolID    string            `json:"school_id"`
	Target      string            `json:"target"`
	Fee         string            `json:"fee"`
	Frequency   string            `json:"frequency"`
	Status      string            `json:"status"`
	Coordinates models.Coordinate `json:"coordinates"`
	Pin         *int              `json:"pin,omitempty"`
	Description string            `json:"description,omitempty"`
	ApplyMethod string            `json:"apply_method,omitempty"`
	URL         string            `json:"url,omitempty"`
}

type File struct {
	Schools []SchoolEntry `json:"schools"`
	Clubs   []ClubEntry   `json:"clubs"`
}

// Dataset is the validated, resolved collection in base order.
type Dataset struct {
	Schools []models.School
	Clubs   []models.Club
}

// Embedded decodes the dataset compiled into the binary.
func Embedded() (*Dataset, error) {
	return Decode(bytes.NewReader(embedded))
}

func Decode(r io.Reader) (*Dataset, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("error decoding dataset: %w", err)
	}
	return f.Resolve()
}

// Resolve validates every entry and turns pins into raw coordinates. A
// pin on a school without a usable point becomes the (0,0) sentinel, so
// the club stays list-only.
func (f *File) Resolve() (*Dataset, error) {
	ds := &Dataset{
		Schools: make([]models.School, 0, len(f.Schools)),
		Clubs:   make([]models.Club, 0, len(f.Clubs)),
	}

	schoolPoints := make(map[string]models.Point, len(f.Schools))
	seen := make(map[string]bool, len(f.Schools))
	for _, s := range f.Schools {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: school without id", ErrInvalid)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate school id %q", ErrInvalid, s.ID)
		}
		seen[s.ID] = true

		if p, ok := geo.Locate(s.Coordinates); ok {
			schoolPoints[s.ID] = p
		}
		ds.Schools = append(ds.Schools, models.School{
			ID:          s.ID,
			Name:        s.Name,
			Coordinates: s.Coordinates,
		})
	}

	seen = make(map[string]bool, len(f.Clubs))
	for _, c := range f.Clubs {
		club, err := c.toClub(schoolPoints)
		if err != nil {
			return nil, err
		}
		if seen[club.ID] {
			return nil, fmt.Errorf("%w: duplicate club id %q", ErrInvalid, club.ID)
		}
		seen[club.ID] = true
		ds.Clubs = append(ds.Clubs, club)
	}

	return ds, nil
}

func (c ClubEntry) toClub(schoolPoints map[string]models.Point) (models.Club, error) {
	if c.ID == "" {
		return models.Club{}, fmt.Errorf("%w: club without id", ErrInvalid)
	}
	category, ok := models.ParseCategory(c.Category)
	if !ok || !category.Valid() {
		return models.Club{}, fmt.Errorf("%w: club %q has unknown category %q", ErrInvalid, c.ID, c.Category)
	}
	status, ok := models.ParseStatus(c.Status)
	if !ok {
		return models.Club{}, fmt.Errorf("%w: club %q has unknown status %q", ErrInvalid, c.ID, c.Status)
	}
	if c.Pin != nil && !c.Coordinates.IsAbsent() {
		return models.Club{}, fmt.Errorf("%w: club %q sets both pin and coordinates", ErrInvalid, c.ID)
	}

	coords := c.Coordinates
	if c.Pin != nil {
		coords = models.Pair(0, 0)
		if center, ok := schoolPoints[c.SchoolID]; ok {
			coords = models.Coordinate{Raw: geo.Spread(center, *c.Pin)}
		}
	}

	return models.Club{
		ID:          c.ID,
		Category:    category,
		Name:        c.Name,
		Subject:     c.Subject,
		Location:    c.Location,
		SchoolID:    c.SchoolID,
		Target:      c.Target,
		Fee:         c.Fee,
		Frequency:   c.Frequency,
		Status:      status,
		Coordinates: coords,
		Description: c.Description,
		ApplyMethod: c.ApplyMethod,
		URL:         c.URL,
	}, nil
}

// School looks up a school by id.
func (d *Dataset) School(id string) (models.School, bool) {
	for _, s := range d.Schools {
		if s.ID == id {
			return s, true
		}
	}
	return models.School{}, false
}
