package mapview

import "github.com/mr1hm/go-club-map/internal/marker"

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// GeoJSON is a MarkerSurface that records markers as GeoJSON point
// features. Click handlers are dropped; clients select through the API.
type GeoJSON struct {
	features []Feature
}

func NewGeoJSON() *GeoJSON {
	return &GeoJSON{features: make([]Feature, 0)}
}

func (g *GeoJSON) DrawMarker(m Marker, _ func()) {
	props := map[string]any{
		"id":    m.ID,
		"kind":  string(m.Kind),
		"title": m.Popup.Title,
		"icon":  iconOrNil(m.Icon),
	}
	if m.Kind == KindClub {
		props["subject"] = m.Popup.Subject
		props["status"] = string(m.Status)
		props["status_label"] = m.Status.Label()
		props["action"] = m.Popup.Action
	}

	g.features = append(g.features, Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{m.Point.Lng, m.Point.Lat},
		},
		Properties: props,
	})
}

func (g *GeoJSON) Collection() FeatureCollection {
	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: g.features,
	}
}

func iconOrNil(icon *marker.Icon) any {
	if icon == nil {
		return nil
	}
	return icon
}
