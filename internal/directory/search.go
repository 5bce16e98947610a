// Package directory filters and orders the club listing.
package directory

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mr1hm/go-club-map/internal/models"
)

// Query selects clubs by free text and category. The zero Category and
// models.CategoryAll both match every club.
type Query struct {
	Text     string
	Category models.Category
}

// Search returns the clubs matching q, ordered by status priority. Clubs
// of equal status keep their order in clubs. The input is not modified.
func Search(clubs []models.Club, q Query) []models.Club {
	needle := newNeedle(q.Text)

	out := make([]models.Club, 0, len(clubs))
	for _, c := range clubs {
		if matchesCategory(c, q.Category) && matchesText(c, needle) {
			out = append(out, c)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Club) int {
		return a.Status.Priority() - b.Status.Priority()
	})
	return out
}

func matchesCategory(c models.Club, sel models.Category) bool {
	return sel == "" || sel == models.CategoryAll || c.Category == sel
}

// needle holds the query both plainly lower-cased and NFKC-folded.
type needle struct {
	lower  string
	folded string
}

func newNeedle(text string) needle {
	return needle{lower: strings.ToLower(text), folded: fold(text)}
}

func matchesText(c models.Club, n needle) bool {
	if n.lower == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Subject, c.Location, c.Description} {
		if strings.Contains(strings.ToLower(field), n.lower) {
			return true
		}
		if n.folded != "" && strings.Contains(fold(field), n.folded) {
			return true
		}
	}
	return false
}

// fold makes full-width and half-width forms compare equal before
// lower-casing, so "ＦＣ" finds "FC". It only widens the plain
// lower-case match: NFKC composes half-width voiced kana, which can
// hide a substring that matches unfolded.
func fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}
