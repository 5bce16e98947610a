// Package links decides where a club's "website" button leads.
package links

import (
	"net/url"
	"strings"

	"github.com/mr1hm/go-club-map/internal/models"
)

const (
	DefaultSearchURL    = "https://www.google.com/search"
	DefaultSearchPhrase = "宝塚市 地域部活動"
)

// placeholderWords mark URL fields that were filled in with a note
// ("to be opened", "undecided", ...) instead of an address.
var placeholderWords = []string{"今後", "予定", "検討", "なし", "未定", "開設", "作成", "確認"}

var urlHints = []string{".com", ".jp", ".io"}

type Resolver struct {
	searchURL string
	phrase    string
}

func NewResolver(searchURL, phrase string) *Resolver {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Resolver{searchURL: searchURL, phrase: phrase}
}

// Resolution is the link shown for a club.
type Resolution struct {
	URL      string `json:"url"`
	External bool   `json:"external"` // false when falling back to search
}

func (r *Resolver) Resolve(club models.Club) Resolution {
	if Usable(club.URL) {
		return Resolution{URL: club.URL, External: true}
	}
	return Resolution{URL: r.SearchURL(club.Name)}
}

// SearchURL builds a web search for the club name.
func (r *Resolver) SearchURL(name string) string {
	q := strings.TrimSpace(r.phrase + " " + name)
	return r.searchURL + "?q=" + escapeComponent(q)
}

// componentReplacer undoes the url.QueryEscape output that differs from
// a browser's encodeURIComponent: spaces become %20 and !'()* stay bare.
var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent encodes s like encodeURIComponent. A literal "+" is
// already %2B after QueryEscape, so the replacer only sees spaces.
func escapeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

// Usable reports whether raw looks like a real address and carries no
// placeholder words.
func Usable(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return false
	}
	for _, w := range placeholderWords {
		if strings.Contains(s, w) {
			return false
		}
	}
	if strings.HasPrefix(s, "http") {
		return true
	}
	for _, hint := range urlHints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
