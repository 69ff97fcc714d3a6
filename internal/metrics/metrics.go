// Package metrics counts ranking activity with Prometheus collectors.
// albumtier is a short-lived CLI, so metrics are written to a textfile
// (node_exporter textfile collector format) instead of being served.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricComparisonsTotal    = "albumtier_comparisons_total"
	MetricInspectionsTotal    = "albumtier_inspections_total"
	MetricSessionsTotal       = "albumtier_sessions_total"
	MetricSpotifyRequests     = "albumtier_spotify_requests_total"
	MetricSessionDurationSecs = "albumtier_session_duration_seconds"
)

// Session outcomes.
const (
	OutcomeComplete = "complete"
	OutcomeAborted  = "aborted"
	OutcomeError    = "error"
)

// Metrics holds the collectors and the registry they are registered with.
// All operations are thread-safe.
type Metrics struct {
	reg *prometheus.Registry

	comparisons     prometheus.Counter
	inspections     prometheus.Counter
	sessions        *prometheus.CounterVec
	spotifyRequests *prometheus.CounterVec
	sessionDuration prometheus.Histogram
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricComparisonsTotal,
			Help: "Pairwise comparisons answered",
		}),
		inspections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricInspectionsTotal,
			Help: "Track list previews requested during comparisons",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSessionsTotal,
			Help: "Ranking sessions by outcome",
		}, []string{"outcome"}),
		spotifyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSpotifyRequests,
			Help: "Spotify Web API responses by HTTP status code",
		}, []string{"code"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSessionDurationSecs,
			Help:    "Wall time of ranking sessions in seconds",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
		}),
	}
	m.reg.MustRegister(m.comparisons, m.inspections, m.sessions, m.spotifyRequests, m.sessionDuration)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// IncComparisons counts one answered comparison.
func (m *Metrics) IncComparisons() { m.comparisons.Inc() }

// IncInspections counts one track preview.
func (m *Metrics) IncInspections() { m.inspections.Inc() }

// ObserveSpotifyResponse counts a Web API response by status code.
func (m *Metrics) ObserveSpotifyResponse(code int) {
	m.spotifyRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveSession records a finished session. Only completed sessions
// contribute to the duration histogram.
func (m *Metrics) ObserveSession(outcome string, d time.Duration) {
	m.sessions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeComplete {
		m.sessionDuration.Observe(d.Seconds())
	}
}

// WriteFile writes every metric to path in the text exposition format.
// The write is atomic; the directory is created if missing.
func (m *Metrics) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
