package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/models"
)

func TestEmbedded(t *testing.T) {
	ds, err := Embedded()
	require.NoError(t, err)

	assert.Len(t, ds.Schools, 12)
	assert.Len(t, ds.Clubs, 60)
	assert.Equal(t, "c1", ds.Clubs[0].ID)

	for _, s := range ds.Schools {
		_, ok := geo.Locate(s.Coordinates)
		assert.True(t, ok, "school %s should be mappable", s.ID)
	}
}

func TestEmbedded_PinsSpreadAroundSchool(t *testing.T) {
	ds, err := Embedded()
	require.NoError(t, err)

	school, ok := ds.School("s8")
	require.True(t, ok)
	center, ok := geo.Locate(school.Coordinates)
	require.True(t, ok)

	club := ds.Clubs[0] // c1 sits on pin 1 around s8
	require.Equal(t, "s8", club.SchoolID)
	assert.Equal(t, models.Coordinate{Raw: geo.Spread(center, 1)}, club.Coordinates)
}

func TestEmbedded_OffsiteClubsAreListOnly(t *testing.T) {
	ds, err := Embedded()
	require.NoError(t, err)

	for _, c := range ds.Clubs {
		if c.ID == "c18" {
			_, ok := geo.Locate(c.Coordinates)
			assert.False(t, ok)
			return
		}
	}
	t.Fatal("c18 missing")
}

func TestDecode_UnknownSchoolPinBecomesSentinel(t *testing.T) {
	ds, err := Decode(strings.NewReader(`{
		"schools": [],
		"clubs": [{"id": "c1", "category": "sports", "status": "active", "school_id": "nowhere", "pin": 2}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, models.Pair(0, 0), ds.Clubs[0].Coordinates)
}

func TestDecode_AcceptsLabelsAndRawShapes(t *testing.T) {
	ds, err := Decode(strings.NewReader(`{
		"schools": [{"id": "s1", "name": "宝塚中学校", "coordinates": {"latitude": 34.8, "longitude": 135.36}}],
		"clubs": [
			{"id": "c1", "category": "運動系", "status": "活動中", "coordinates": "34.81,135.36"},
			{"id": "c2", "category": "文化系", "status": "検討中", "coordinates": [135.36, 34.81]}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, models.CategorySports, ds.Clubs[0].Category)
	assert.Equal(t, models.StatusActive, ds.Clubs[0].Status)
	assert.Equal(t, models.Text("34.81,135.36"), ds.Clubs[0].Coordinates)
	assert.Equal(t, models.StatusConsidering, ds.Clubs[1].Status)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown status", `{"clubs": [{"id": "c1", "category": "sports", "status": "closed"}]}`},
		{"unknown category", `{"clubs": [{"id": "c1", "category": "music", "status": "active"}]}`},
		{"wildcard category", `{"clubs": [{"id": "c1", "category": "all", "status": "active"}]}`},
		{"duplicate club", `{"clubs": [{"id": "c1", "category": "sports", "status": "active"}, {"id": "c1", "category": "sports", "status": "active"}]}`},
		{"duplicate school", `{"schools": [{"id": "s1"}, {"id": "s1"}]}`},
		{"missing id", `{"clubs": [{"category": "sports", "status": "active"}]}`},
		{"pin and coordinates", `{"clubs": [{"id": "c1", "category": "sports", "status": "active", "pin": 1, "coordinates": [34, 135]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"clubs": [`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}
