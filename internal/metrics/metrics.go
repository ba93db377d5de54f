package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var states = []string{"idle", "listening", "announcing"}

// Metrics records session activity for the /metrics endpoint. It implements
// session.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	segments      *prometheus.CounterVec
	matches       *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	announcements *prometheus.CounterVec
	state         *prometheus.GaugeVec
}

// New registers the session metrics on a fresh registry together with the
// Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ddvoice_segments_total",
			Help: "Transcript segments received, by kind",
		}, []string{"kind"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ddvoice_matches_total",
			Help: "Keyword matches that triggered an announcement",
		}, []string{"keyword"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ddvoice_matches_dropped_total",
			Help: "Keyword matches ignored because an announcement was in progress",
		}, []string{"keyword"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ddvoice_announcements_total",
			Help: "Finished announcements by outcome",
		}, []string{"outcome"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ddvoice_session_state",
			Help: "1 for the current session state, 0 otherwise",
		}, []string{"state"}),
	}
	reg.MustRegister(
		m.segments,
		m.matches,
		m.dropped,
		m.announcements,
		m.state,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.StateChanged("idle")
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SegmentSeen(final bool) {
	kind := "interim"
	if final {
		kind = "final"
	}
	m.segments.WithLabelValues(kind).Inc()
}

func (m *Metrics) MatchAnnounced(keyword string) {
	m.matches.WithLabelValues(keyword).Inc()
}

func (m *Metrics) MatchDropped(keyword string) {
	m.dropped.WithLabelValues(keyword).Inc()
}

func (m *Metrics) AnnouncementFinished(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.announcements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StateChanged(state string) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		m.state.WithLabelValues(s).Set(v)
	}
}
