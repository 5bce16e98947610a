package api

import (
	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/links"
	"github.com/mr1hm/go-club-map/internal/models"
	"github.com/mr1hm/go-club-map/internal/session"
)

type clubResponse struct {
	ID            string        `json:"id"`
	Category      string        `json:"category"`
	CategoryLabel string        `json:"category_label"`
	Name          string        `json:"name"`
	Subject       string        `json:"subject"`
	Location      string        `json:"location"`
	SchoolID      string        `json:"school_id,omitempty"`
	Target        string        `json:"target"`
	Fee           string        `json:"fee"`
	Frequency     string        `json:"frequency"`
	Status        string        `json:"status"`
	StatusLabel   string        `json:"status_label"`
	Description   string        `json:"description,omitempty"`
	ApplyMethod   string        `json:"apply_method,omitempty"`
	URL           string        `json:"url,omitempty"`
	HasLocation   bool          `json:"has_location"`
	Point         *models.Point `json:"point"`
}

type clubDetailResponse struct {
	clubResponse
	SchoolName string           `json:"school_name,omitempty"`
	Link       links.Resolution `json:"link"`
}

type schoolResponse struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Point *models.Point `json:"point"`
}

type sessionResponse struct {
	ID       string        `json:"id"`
	View     session.View  `json:"view"`
	Selected *clubResponse `json:"selected"`
}

type selectResponse struct {
	sessionResponse
	Recentered bool `json:"recentered"`
}

func toClubResponse(c models.Club) clubResponse {
	resp := clubResponse{
		ID:            c.ID,
		Category:      string(c.Category),
		CategoryLabel: c.Category.Label(),
		Name:          c.Name,
		Subject:       c.Subject,
		Location:      c.Location,
		SchoolID:      c.SchoolID,
		Target:        c.Target,
		Fee:           c.Fee,
		Frequency:     c.Frequency,
		Status:        string(c.Status),
		StatusLabel:   c.Status.Label(),
		Description:   c.Description,
		ApplyMethod:   c.ApplyMethod,
		URL:           c.URL,
	}
	if p, ok := geo.Locate(c.Coordinates); ok {
		resp.HasLocation = true
		resp.Point = &p
	}
	return resp
}

func toSchoolResponse(s models.School) schoolResponse {
	resp := schoolResponse{ID: s.ID, Name: s.Name}
	if p, ok := geo.Locate(s.Coordinates); ok {
		resp.Point = &p
	}
	return resp
}

func toSessionResponse(id string, st *session.State) sessionResponse {
	resp := sessionResponse{ID: id, View: st.View()}
	if club, ok := st.Selected(); ok {
		cr := toClubResponse(club)
		resp.Selected = &cr
	}
	return resp
}
