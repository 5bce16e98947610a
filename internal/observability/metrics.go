package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the club map service.
type Metrics struct {
	// Directory
	ImportedRecords *prometheus.CounterVec // labels: kind={school,club}, outcome={inserted,skipped,failed}
	SearchRequests  prometheus.Counter
	SearchResults   prometheus.Histogram

	// Map
	MarkersProjected prometheus.Counter
	ListOnlyClubs    prometheus.Counter
	Recenters        *prometheus.CounterVec // labels: outcome={flown,skipped}

	// Sessions
	ActiveSessions prometheus.Gauge
	Selections     *prometheus.CounterVec // labels: view={map,list}
	LinkRedirects  *prometheus.CounterVec // labels: target={external,search}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ImportedRecords,
		m.SearchRequests,
		m.SearchResults,
		m.MarkersProjected,
		m.ListOnlyClubs,
		m.Recenters,
		m.ActiveSessions,
		m.Selections,
		m.LinkRedirects,
	)
	return m
}

// NewMetricsForTesting creates metrics without registering them, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ImportedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "imported_records_total",
			Help:      "Dataset records processed by the importer.",
		}, []string{"kind", "outcome"}),
		SearchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "search_requests_total",
			Help:      "Club list queries served.",
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "club_map",
			Name:      "search_results",
			Help:      "Number of clubs returned per list query.",
			Buckets:   []float64{0, 1, 5, 10, 20, 40, 80},
		}),
		MarkersProjected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "markers_projected_total",
			Help:      "Markers drawn onto the map surface.",
		}),
		ListOnlyClubs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "list_only_clubs_total",
			Help:      "Clubs left off the map because their coordinates did not normalize.",
		}),
		Recenters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "recenters_total",
			Help:      "Recenter requests by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "club_map",
			Name:      "active_sessions",
			Help:      "Browsing sessions currently held in memory.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "selections_total",
			Help:      "Club selections by resulting view.",
		}, []string{"view"}),
		LinkRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_map",
			Name:      "link_redirects_total",
			Help:      "Club link redirects by target.",
		}, []string{"target"}),
	}
}

// RecordImport counts one importer outcome.
func (m *Metrics) RecordImport(kind, outcome string) {
	m.ImportedRecords.WithLabelValues(kind, outcome).Inc()
}
