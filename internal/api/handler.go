package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-club-map/internal/directory"
	"github.com/mr1hm/go-club-map/internal/links"
	"github.com/mr1hm/go-club-map/internal/mapview"
	"github.com/mr1hm/go-club-map/internal/models"
	"github.com/mr1hm/go-club-map/internal/observability"
	"github.com/mr1hm/go-club-map/internal/repository"
	"github.com/mr1hm/go-club-map/internal/session"
	"github.com/mr1hm/go-club-map/internal/stream"
)

// Deps are the collaborators a Handler serves from.
type Deps struct {
	Repo        repository.DirectoryRepository
	Sessions    *session.Store
	Broadcaster *stream.Broadcaster
	Links       *links.Resolver
	Icons       mapview.IconSource
	Metrics     *observability.Metrics

	// NarrowViewportWidth is the width in pixels below which a viewport
	// counts as narrow.
	NarrowViewportWidth int
}

type Handler struct {
	repo        repository.DirectoryRepository
	sessions    *session.Store
	broadcaster *stream.Broadcaster
	links       *links.Resolver
	icons       mapview.IconSource
	metrics     *observability.Metrics
	narrowWidth int
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		repo:        d.Repo,
		sessions:    d.Sessions,
		broadcaster: d.Broadcaster,
		links:       d.Links,
		icons:       d.Icons,
		metrics:     d.Metrics,
		narrowWidth: d.NarrowViewportWidth,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/clubs", h.listClubs)
	api.GET("/clubs/:id", h.getClub)
	api.GET("/clubs/:id/link", h.clubLink)
	api.GET("/schools", h.listSchools)
	api.GET("/markers", h.markers)

	api.POST("/sessions", h.createSession)
	api.GET("/sessions/:id", h.getSession)
	api.POST("/sessions/:id/select", h.selectClub)
	api.DELETE("/sessions/:id/select", h.deselectClub)
	api.PUT("/sessions/:id/view", h.setView)
	api.GET("/sessions/:id/events", h.events)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listClubs(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	clubs, err := h.repo.ListClubs(c.Request.Context())
	if err != nil {
		slog.Error("failed to list clubs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch clubs",
		})
		return
	}

	results := directory.Search(clubs, q)
	h.metrics.SearchRequests.Inc()
	h.metrics.SearchResults.Observe(float64(len(results)))

	out := make([]clubResponse, 0, len(results))
	for _, club := range results {
		out = append(out, toClubResponse(club))
	}
	c.JSON(http.StatusOK, gin.H{
		"clubs": out,
		"count": len(out),
	})
}

func (h *Handler) getClub(c *gin.Context) {
	club, ok := h.lookupClub(c, c.Param("id"))
	if !ok {
		return
	}

	resp := clubDetailResponse{
		clubResponse: toClubResponse(*club),
		Link:         h.links.Resolve(*club),
	}
	if club.SchoolID != "" {
		school, err := h.repo.GetSchool(c.Request.Context(), club.SchoolID)
		switch {
		case err == nil:
			resp.SchoolName = school.Name
		case !errors.Is(err, repository.ErrNotFound):
			slog.Warn("failed to fetch school", "school_id", club.SchoolID, "error", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) clubLink(c *gin.Context) {
	club, ok := h.lookupClub(c, c.Param("id"))
	if !ok {
		return
	}

	res := h.links.Resolve(*club)
	target := "search"
	if res.External {
		target = "external"
	}
	h.metrics.LinkRedirects.WithLabelValues(target).Inc()

	c.Redirect(http.StatusFound, res.URL)
}

func (h *Handler) listSchools(c *gin.Context) {
	schools, err := h.repo.ListSchools(c.Request.Context())
	if err != nil {
		slog.Error("failed to list schools", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch schools",
		})
		return
	}

	out := make([]schoolResponse, 0, len(schools))
	for _, s := range schools {
		out = append(out, toSchoolResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"schools": out})
}

func (h *Handler) markers(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	clubs, err := h.repo.ListClubs(ctx)
	if err != nil {
		slog.Error("failed to list clubs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch clubs"})
		return
	}
	schools, err := h.repo.ListSchools(ctx)
	if err != nil {
		slog.Error("failed to list schools", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch schools"})
		return
	}

	proj := mapview.Project(directory.Search(clubs, q), schools, h.icons)
	if len(proj.ListOnly) > 0 {
		slog.Debug("clubs without map location", "ids", proj.ListOnly)
	}
	h.metrics.MarkersProjected.Add(float64(len(proj.Markers)))
	h.metrics.ListOnlyClubs.Add(float64(len(proj.ListOnly)))

	surface := mapview.NewGeoJSON()
	mapview.Render(surface, proj, nil)

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, surface.Collection())
}

// lookupClub writes the error response itself when it returns false.
func (h *Handler) lookupClub(c *gin.Context, id string) (*models.Club, bool) {
	club, err := h.repo.GetClub(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "club not found"})
		return nil, false
	}
	if err != nil {
		slog.Error("failed to fetch club", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch club"})
		return nil, false
	}
	return club, true
}

func parseQuery(c *gin.Context) (directory.Query, bool) {
	q := directory.Query{Text: c.Query("q")}
	if raw := c.Query("category"); raw != "" {
		cat, ok := models.ParseCategory(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return q, false
		}
		q.Category = cat
	}
	return q, true
}
