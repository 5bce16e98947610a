package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mr1hm/go-club-map/internal/config"
	"github.com/mr1hm/go-club-map/internal/dataset"
)

// Source yields the club table to import.
type Source interface {
	Name() string
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// SourceFor picks the configured source: URL, then file, then the table
// compiled into the binary.
func SourceFor(cfg config.DatasetConfig) Source {
	switch {
	case cfg.URL != "":
		return &URLSource{URL: cfg.URL, Timeout: cfg.FetchTimeout}
	case cfg.Path != "":
		return FileSource{Path: cfg.Path}
	default:
		return EmbeddedSource{}
	}
}

type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dataset.Embedded()
}

type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file" }

func (s FileSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening dataset: %w", err)
	}
	defer f.Close()

	return dataset.Decode(f)
}

type URLSource struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

func (s *URLSource) Name() string { return "url" }

func (s *URLSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	return dataset.Decode(resp.Body)
}
