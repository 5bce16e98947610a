package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-club-map/internal/api"
	"github.com/mr1hm/go-club-map/internal/config"
	"github.com/mr1hm/go-club-map/internal/ingestion"
	"github.com/mr1hm/go-club-map/internal/links"
	"github.com/mr1hm/go-club-map/internal/logging"
	"github.com/mr1hm/go-club-map/internal/marker"
	"github.com/mr1hm/go-club-map/internal/observability"
	"github.com/mr1hm/go-club-map/internal/repository"
	"github.com/mr1hm/go-club-map/internal/session"
	"github.com/mr1hm/go-club-map/internal/stream"
	"github.com/mr1hm/go-club-map/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	// The directory is immutable for the life of the process: import once.
	importCtx, importCancel := context.WithTimeout(ctx, cfg.Dataset.FetchTimeout+30*time.Second)
	res, err := ingestion.NewManager(cfg, db).WithRecorder(metrics).Import(importCtx)
	importCancel()
	if err != nil {
		logging.Fatalf("Failed to import dataset: %v", err)
	}
	if res.Failed > 0 {
		slog.Warn("dataset imported with failures", "failed", res.Failed)
	}

	broadcaster := stream.NewBroadcaster()

	sessions := session.NewStore(
		cfg.Session.TTL,
		clockwork.NewRealClock(),
		api.SessionStates(broadcaster, cfg.Map.RecenterZoom, cfg.Map.RecenterDuration),
	).WithObserver(func(active int) {
		metrics.ActiveSessions.Set(float64(active))
	})
	go sessions.Run(ctx, cfg.Session.TTL/2)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(api.Deps{
		Repo:                db,
		Sessions:            sessions,
		Broadcaster:         broadcaster,
		Links:               links.NewResolver(cfg.Links.SearchURL, cfg.Links.SearchPhrase),
		Icons:               marker.Default(),
		Metrics:             metrics,
		NarrowViewportWidth: cfg.Map.NarrowViewportWidth,
	})
	handler.RegisterRoutes(router)

	if err := web.Register(router, web.View{
		CenterLat:           cfg.Map.CenterLat,
		CenterLng:           cfg.Map.CenterLng,
		Zoom:                cfg.Map.Zoom,
		NarrowViewportWidth: cfg.Map.NarrowViewportWidth,
	}); err != nil {
		logging.Fatalf("Failed to render page: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	broadcaster.Close() // Close all event streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
