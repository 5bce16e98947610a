package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-club-map/internal/mapview"
	"github.com/mr1hm/go-club-map/internal/session"
	"github.com/mr1hm/go-club-map/internal/stream"
)

// SessionStates builds session state whose recenters are published to
// that session's event stream.
func SessionStates(b *stream.Broadcaster, zoom int, duration time.Duration) session.NewStateFunc {
	return func(id string) *session.State {
		return session.NewState(mapview.NewRecenterer(b.Viewport(id), zoom, duration))
	}
}

type selectRequest struct {
	ClubID        string `json:"club_id" binding:"required"`
	ViewportWidth int    `json:"viewport_width"`
}

type viewRequest struct {
	View string `json:"view" binding:"required"`
}

func (h *Handler) createSession(c *gin.Context) {
	id, st := h.sessions.Create()

	slog.Debug("session created", "session_id", id)
	c.JSON(http.StatusCreated, toSessionResponse(id, st))
}

func (h *Handler) getSession(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.lookupSession(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(id, st))
}

func (h *Handler) selectClub(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.lookupSession(c, id)
	if !ok {
		return
	}

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "club_id is required"})
		return
	}

	club, ok := h.lookupClub(c, req.ClubID)
	if !ok {
		return
	}

	// An unknown width (0) counts as wide.
	narrow := req.ViewportWidth > 0 && req.ViewportWidth < h.narrowWidth
	sel := st.Select(*club, narrow)

	h.metrics.Selections.WithLabelValues(string(sel.View)).Inc()
	outcome := "skipped"
	if sel.Recentered {
		outcome = "flown"
	}
	h.metrics.Recenters.WithLabelValues(outcome).Inc()

	c.JSON(http.StatusOK, selectResponse{
		sessionResponse: toSessionResponse(id, st),
		Recentered:      sel.Recentered,
	})
}

func (h *Handler) deselectClub(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.lookupSession(c, id)
	if !ok {
		return
	}
	st.Deselect()
	c.JSON(http.StatusOK, toSessionResponse(id, st))
}

func (h *Handler) setView(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.lookupSession(c, id)
	if !ok {
		return
	}

	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view is required"})
		return
	}
	view, ok := session.ParseView(req.View)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be map or list"})
		return
	}

	st.SetView(view)
	c.JSON(http.StatusOK, toSessionResponse(id, st))
}

// events streams recenter commands for one session as server-sent
// events until the client goes away or the broadcaster closes.
func (h *Handler) events(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.lookupSession(c, id); !ok {
		return
	}

	subID, ch := h.broadcaster.Subscribe(id)
	defer h.broadcaster.Unsubscribe(subID)

	slog.Debug("event stream opened", "session_id", id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("event stream closed by client", "session_id", id)
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("recenter", r)
			c.Writer.Flush()
		}
	}
}

func (h *Handler) lookupSession(c *gin.Context, id string) (*session.State, bool) {
	st, err := h.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return nil, false
	}
	return st, true
}
