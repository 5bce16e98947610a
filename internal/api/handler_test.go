package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-club-map/internal/links"
	"github.com/mr1hm/go-club-map/internal/mapview"
	"github.com/mr1hm/go-club-map/internal/marker"
	"github.com/mr1hm/go-club-map/internal/models"
	"github.com/mr1hm/go-club-map/internal/observability"
	"github.com/mr1hm/go-club-map/internal/repository"
	"github.com/mr1hm/go-club-map/internal/session"
	"github.com/mr1hm/go-club-map/internal/stream"
)

// mockRepo implements repository.DirectoryRepository for testing
type mockRepo struct {
	schools []models.School
	clubs   []models.Club
}

func (m *mockRepo) Reset(ctx context.Context) error {
	m.schools = nil
	m.clubs = nil
	return nil
}

func (m *mockRepo) AddSchool(ctx context.Context, position int, s *models.School) error {
	m.schools = append(m.schools, *s)
	return nil
}

func (m *mockRepo) AddClub(ctx context.Context, position int, c *models.Club) error {
	m.clubs = append(m.clubs, *c)
	return nil
}

func (m *mockRepo) SchoolExists(ctx context.Context, id string) (bool, error) {
	_, err := m.GetSchool(ctx, id)
	return err == nil, nil
}

func (m *mockRepo) ClubExists(ctx context.Context, id string) (bool, error) {
	_, err := m.GetClub(ctx, id)
	return err == nil, nil
}

func (m *mockRepo) GetClub(ctx context.Context, id string) (*models.Club, error) {
	for _, c := range m.clubs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockRepo) GetSchool(ctx context.Context, id string) (*models.School, error) {
	for _, s := range m.schools {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockRepo) ListClubs(ctx context.Context) ([]models.Club, error) {
	return m.clubs, nil
}

func (m *mockRepo) ListSchools(ctx context.Context) ([]models.School, error) {
	return m.schools, nil
}

func testRepo() *mockRepo {
	return &mockRepo{
		schools: []models.School{
			{ID: "s1", Name: "宝梅中学校", Coordinates: models.Pair(34.797495, 135.336279)},
		},
		clubs: []models.Club{
			{
				ID: "c1", Category: models.CategorySports, Name: "野球部A", Subject: "野球",
				SchoolID: "s1", Status: models.StatusConsidering,
				Coordinates: models.Pair(34.7976, 135.3364),
				URL:         "今後開設予定",
			},
			{
				ID: "c2", Category: models.CategorySports, Name: "宝梅BC", Subject: "野球",
				SchoolID: "s1", Status: models.StatusActive,
				Coordinates: models.Pair(34.797495, 135.336279),
				URL:         "https://example.jp/baseball",
			},
			{
				ID: "c3", Category: models.CategoryCulture, Name: "吹奏楽クラブ", Subject: "吹奏楽",
				Status:      models.StatusCoordinating,
				Coordinates: models.Pair(0, 0),
			},
		},
	}
}

type testServer struct {
	router      *gin.Engine
	broadcaster *stream.Broadcaster
	sessions    *session.Store
}

func setupTestRouter(repo repository.DirectoryRepository) *testServer {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	b := stream.NewBroadcaster()
	sessions := session.NewStore(time.Hour, clockwork.NewFakeClock(), SessionStates(b, 16, 1200*time.Millisecond))

	handler := NewHandler(Deps{
		Repo:                repo,
		Sessions:            sessions,
		Broadcaster:         b,
		Links:               links.NewResolver(links.DefaultSearchURL, links.DefaultSearchPhrase),
		Icons:               marker.NewResolver(),
		Metrics:             observability.NewMetricsForTesting(),
		NarrowViewportWidth: 768,
	})
	handler.RegisterRoutes(router)
	return &testServer{router: router, broadcaster: b, sessions: sessions}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) newSession(t *testing.T) sessionResponse {
	t.Helper()
	w := s.do("POST", "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

type listResponse struct {
	Clubs []clubResponse `json:"clubs"`
	Count int            `json:"count"`
}

func TestListClubs_SortedByStatus(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/clubs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	var ids []string
	for _, c := range resp.Clubs {
		ids = append(ids, c.ID)
	}
	if strings.Join(ids, ",") != "c2,c3,c1" {
		t.Errorf("expected order c2,c3,c1, got %v", ids)
	}
	if resp.Clubs[1].HasLocation || resp.Clubs[1].Point != nil {
		t.Error("expected c3 to have no location")
	}
	if resp.Clubs[0].StatusLabel != "活動中" {
		t.Errorf("unexpected status label %q", resp.Clubs[0].StatusLabel)
	}
}

func TestListClubs_Filters(t *testing.T) {
	srv := setupTestRouter(testRepo())

	tests := []struct {
		query string
		want  int
	}{
		{"q=" + url.QueryEscape("野球"), 2},
		{"category=culture", 1},
		{"category=all", 3},
		{"category=" + url.QueryEscape("運動系") + "&q=BC", 1},
		{"q=" + url.QueryEscape("存在しない"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := srv.do("GET", "/api/clubs?"+tt.query, nil)
			var resp listResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Count != tt.want {
				t.Errorf("expected %d clubs, got %d", tt.want, resp.Count)
			}
		})
	}
}

func TestListClubs_UnknownCategory(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/clubs?category=music", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetClub_Detail(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/clubs/c1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp clubDetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.SchoolName != "宝梅中学校" {
		t.Errorf("expected school name, got %q", resp.SchoolName)
	}
	if resp.Link.External {
		t.Error("expected placeholder url to fall back to search")
	}
	if !strings.HasPrefix(resp.Link.URL, links.DefaultSearchURL+"?q=") {
		t.Errorf("unexpected link %q", resp.Link.URL)
	}
}

func TestGetClub_NotFound(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/clubs/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestClubLink_Redirects(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/clubs/c2/link", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.jp/baseball" {
		t.Errorf("expected external url, got %q", loc)
	}

	w = srv.do("GET", "/api/clubs/c3/link", nil)
	want := links.DefaultSearchURL + "?q=" + url.PathEscape("宝塚市 地域部活動 吹奏楽クラブ")
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("expected %q, got %q", want, loc)
	}
}

func TestListSchools(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/schools", nil)
	var resp struct {
		Schools []schoolResponse `json:"schools"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if len(resp.Schools) != 1 || resp.Schools[0].Point == nil {
		t.Errorf("expected one located school, got %+v", resp.Schools)
	}
}

func TestMarkers_ReturnsGeoJSON(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/markers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", contentType)
	}

	var fc mapview.FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}

	// one school, two mappable clubs; c3 is list-only
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["kind"] != "school" {
		t.Errorf("expected school marker first, got %v", fc.Features[0].Properties["kind"])
	}
	for _, f := range fc.Features {
		if f.Properties["id"] == "c3" {
			t.Error("club without location must not be drawn")
		}
	}
}

func TestMarkers_CategoryFilter(t *testing.T) {
	srv := setupTestRouter(testRepo())

	w := srv.do("GET", "/api/markers?category=culture", nil)
	var fc mapview.FeatureCollection
	json.Unmarshal(w.Body.Bytes(), &fc)

	// only the school remains: the culture club has no location
	if len(fc.Features) != 1 {
		t.Errorf("expected 1 feature, got %d", len(fc.Features))
	}
}

func TestSession_NarrowSelectWithoutLocationStaysOnList(t *testing.T) {
	srv := setupTestRouter(testRepo())
	sess := srv.newSession(t)

	if sess.View != session.ViewMap {
		t.Errorf("expected new session on map view, got %s", sess.View)
	}

	w := srv.do("PUT", "/api/sessions/"+sess.ID+"/view", gin.H{"view": "list"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = srv.do("POST", "/api/sessions/"+sess.ID+"/select", gin.H{"club_id": "c3", "viewport_width": 375})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp selectResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.View != session.ViewList {
		t.Errorf("expected view to stay on list, got %s", resp.View)
	}
	if resp.Recentered {
		t.Error("expected no recenter for a club without location")
	}
	if resp.Selected == nil || resp.Selected.ID != "c3" {
		t.Errorf("expected c3 selected, got %+v", resp.Selected)
	}
}

func TestSession_NarrowSelectWithLocationSwitchesToMap(t *testing.T) {
	srv := setupTestRouter(testRepo())
	sess := srv.newSession(t)
	srv.do("PUT", "/api/sessions/"+sess.ID+"/view", gin.H{"view": "list"})

	w := srv.do("POST", "/api/sessions/"+sess.ID+"/select", gin.H{"club_id": "c2", "viewport_width": 375})
	var resp selectResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.View != session.ViewMap {
		t.Errorf("expected map view, got %s", resp.View)
	}
	if !resp.Recentered {
		t.Error("expected a recenter")
	}

	// same point again: no second flight
	w = srv.do("POST", "/api/sessions/"+sess.ID+"/select", gin.H{"club_id": "c2", "viewport_width": 375})
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Recentered {
		t.Error("expected repeated selection not to recenter")
	}
}

func TestSession_WideSelectKeepsList(t *testing.T) {
	srv := setupTestRouter(testRepo())
	sess := srv.newSession(t)
	srv.do("PUT", "/api/sessions/"+sess.ID+"/view", gin.H{"view": "list"})

	w := srv.do("POST", "/api/sessions/"+sess.ID+"/select", gin.H{"club_id": "c2", "viewport_width": 1280})
	var resp selectResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.View != session.ViewList {
		t.Errorf("expected list view on a wide viewport, got %s", resp.View)
	}
}

func TestSession_DeselectKeepsView(t *testing.T) {
	srv := setupTestRouter(testRepo())
	sess := srv.newSession(t)

	srv.do("POST", "/api/sessions/"+sess.ID+"/select", gin.H{"club_id": "c2", "viewport_width": 375})
	w := srv.do("DELETE", "/api/sessions/"+sess.ID+"/select", nil)

	var resp sessionResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Selected != nil {
		t.Error("expected selection to be cleared")
	}
	if resp.View != session.ViewMap {
		t.Errorf("expected view to stay on map, got %s", resp.View)
	}
}

func TestSession_Errors(t *testing.T) {
	srv := setupTestRouter(testRepo())
	sess := srv.newSession(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", "GET", "/api/sessions/nope", nil, http.StatusNotFound},
		{"missing club id", "POST", "/api/sessions/" + sess.ID + "/select", gin.H{}, http.StatusBadRequest},
		{"unknown club", "POST", "/api/sessions/" + sess.ID + "/select", gin.H{"club_id": "zz"}, http.StatusNotFound},
		{"bad view", "PUT", "/api/sessions/" + sess.ID + "/view", gin.H{"view": "satellite"}, http.StatusBadRequest},
		{"events for unknown session", "GET", "/api/sessions/nope/events", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestSession_EventsStreamRecenter(t *testing.T) {
	srv := setupTestRouter(testRepo())
	sess := srv.newSession(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/"+sess.ID+"/events", nil)

	done := make(chan struct{})
	go func() {
		srv.router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for srv.broadcaster.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.do("POST", "/api/sessions/"+sess.ID+"/select", gin.H{"club_id": "c2"})
	srv.broadcaster.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not finish")
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:recenter") {
		t.Errorf("expected a recenter event, got %q", body)
	}
	if !strings.Contains(body, `"zoom":16`) || !strings.Contains(body, `"duration_ms":1200`) {
		t.Errorf("unexpected event payload %q", body)
	}
}

func TestHealth(t *testing.T) {
	srv := setupTestRouter(&mockRepo{})

	w := srv.do("GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 200,200,429, got %v", codes)
	}

	// a different client has its own budget
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for a second client, got %d", w.Code)
	}
}
