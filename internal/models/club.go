package models

import "strings"

type Category string

const (
	CategorySports  Category = "sports"
	CategoryCulture Category = "culture"
	CategoryOther   Category = "other"

	// CategoryAll is the wildcard selector; no club carries it.
	CategoryAll Category = "all"
)

var categoryLabels = map[Category]string{
	CategorySports:  "運動系",
	CategoryCulture: "文化系",
	CategoryOther:   "その他",
	CategoryAll:     "すべて",
}

func (c Category) Label() string {
	return categoryLabels[c]
}

// Valid reports whether c is a category a club may carry.
func (c Category) Valid() bool {
	switch c {
	case CategorySports, CategoryCulture, CategoryOther:
		return true
	}
	return false
}

// ParseCategory accepts the canonical names and the display labels.
// Anything else returns false.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for c, label := range categoryLabels {
		if strings.EqualFold(s, string(c)) || s == label {
			return c, true
		}
	}
	return "", false
}

type Status string

const (
	StatusActive       Status = "active"
	StatusCoordinating Status = "coordinating"
	StatusConsidering  Status = "considering"
)

var statusLabels = map[Status]string{
	StatusActive:       "活動中",
	StatusCoordinating: "調整中",
	StatusConsidering:  "検討中",
}

func (s Status) Label() string {
	return statusLabels[s]
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Priority is the sort key: active clubs first, clubs under consideration last.
func (s Status) Priority() int {
	switch s {
	case StatusActive:
		return 0
	case StatusCoordinating:
		return 1
	default:
		return 2
	}
}

func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for st, label := range statusLabels {
		if strings.EqualFold(s, string(st)) || s == label {
			return st, true
		}
	}
	return "", false
}

type Club struct {
	ID          string
	Category    Category
	Name        string
	Subject     string
	Location    string // free-text venue label, not a coordinate
	SchoolID    string // may reference no known school
	Target      string
	Fee         string
	Frequency   string
	Status      Status
	Coordinates Coordinate
	Description string
	ApplyMethod string
	URL         string
}

type School struct {
	ID          string
	Name        string
	Coordinates Coordinate
}
