package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mr1hm/go-club-map/internal/config"
	"github.com/mr1hm/go-club-map/internal/models"
	"github.com/mr1hm/go-club-map/internal/repository"
	"github.com/mr1hm/go-club-map/internal/worker"
)

type jobKind string

const (
	jobSchool jobKind = "school"
	jobClub   jobKind = "club"
)

type job struct {
	kind     jobKind
	position int
	school   *models.School
	club     *models.Club
}

func (j job) id() string {
	if j.kind == jobSchool {
		return j.school.ID
	}
	return j.club.ID
}

// Result counts what one import did.
type Result struct {
	Source   string
	Inserted int64
	Skipped  int64
	Failed   int64
}

// Recorder observes every import outcome. Outcome is one of "inserted",
// "skipped" or "failed".
type Recorder interface {
	RecordImport(kind, outcome string)
}

type Manager struct {
	cfg      *config.Config
	repo     repository.DirectoryRepository
	source   Source
	recorder Recorder
}

func NewManager(cfg *config.Config, repo repository.DirectoryRepository) *Manager {
	return &Manager{
		cfg:    cfg,
		repo:   repo,
		source: SourceFor(cfg.Dataset),
	}
}

// WithSource overrides the configured source.
func (m *Manager) WithSource(s Source) *Manager {
	m.source = s
	return m
}

func (m *Manager) WithRecorder(r Recorder) *Manager {
	m.recorder = r
	return m
}

// Import loads the source and replaces the stored directory with it.
// The repository is only cleared once the source has loaded, so a bad
// source leaves the previous snapshot in place. Records keep their
// dataset position, so the base order survives concurrent inserts.
func (m *Manager) Import(ctx context.Context) (Result, error) {
	res := Result{Source: m.source.Name()}

	ds, err := m.source.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("error loading %s dataset: %w", m.source.Name(), err)
	}
	if err := m.repo.Reset(ctx); err != nil {
		return res, fmt.Errorf("error clearing previous snapshot: %w", err)
	}

	var inserted, skipped, failed atomic.Int64

	processor := func(ctx context.Context, j job) error {
		exists, err := m.exists(ctx, j)
		if err != nil {
			return fmt.Errorf("error checking existence: %w", err)
		}
		if exists {
			skipped.Add(1)
			m.record(j.kind, "skipped")
			return nil
		}

		switch j.kind {
		case jobSchool:
			err = m.repo.AddSchool(ctx, j.position, j.school)
		case jobClub:
			err = m.repo.AddClub(ctx, j.position, j.club)
		}
		if err != nil {
			return fmt.Errorf("error adding %s: %w", j.kind, err)
		}

		inserted.Add(1)
		m.record(j.kind, "inserted")
		slog.Debug("imported record", "kind", j.kind, "id", j.id())
		return nil
	}
	onError := func(j job, err error) {
		failed.Add(1)
		m.record(j.kind, "failed")
		slog.Error("import failed", "kind", j.kind, "id", j.id(), "error", err)
	}

	pool := worker.NewWorkerPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor, onError)
	pool.Start(ctx)

	submitErr := m.submitAll(ctx, pool, ds.Schools, ds.Clubs)
	pool.Stop()

	res.Inserted = inserted.Load()
	res.Skipped = skipped.Load()
	res.Failed = failed.Load()

	if submitErr != nil {
		return res, fmt.Errorf("import interrupted: %w", submitErr)
	}

	slog.Info("import complete",
		"source", res.Source,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res, nil
}

func (m *Manager) submitAll(ctx context.Context, pool *worker.WorkerPool[job], schools []models.School, clubs []models.Club) error {
	for i := range schools {
		if err := pool.Submit(ctx, job{kind: jobSchool, position: i, school: &schools[i]}); err != nil {
			return err
		}
	}
	for i := range clubs {
		if err := pool.Submit(ctx, job{kind: jobClub, position: i, club: &clubs[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) exists(ctx context.Context, j job) (bool, error) {
	if j.kind == jobSchool {
		return m.repo.SchoolExists(ctx, j.school.ID)
	}
	return m.repo.ClubExists(ctx, j.club.ID)
}

func (m *Manager) record(kind jobKind, outcome string) {
	if m.recorder != nil {
		m.recorder.RecordImport(string(kind), outcome)
	}
}
