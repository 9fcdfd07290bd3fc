package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/walletlink/internal/journal"
	"github.com/rickgao/walletlink/internal/wallet"
)

const namespace = "walletlink"

var statuses = []wallet.Status{
	wallet.StatusDisconnected,
	wallet.StatusConnected,
	wallet.StatusDemoConnected,
}

// Recorder turns session events into Prometheus metrics. It is a
// wallet.EventSink.
type Recorder struct {
	events   *prometheus.CounterVec
	status   *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Session events by type.",
		}, []string{"type"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_status",
			Help:      "1 for the current session status, 0 otherwise.",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_seconds",
			Help:      "Time spent waiting on the wallet provider, by event type.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
		}, []string{"type"}),
	}

	for _, c := range []prometheus.Collector{r.events, r.status, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	r.setStatus(wallet.StatusDisconnected)
	return r, nil
}

// Record updates the metrics for ev.
func (r *Recorder) Record(ev wallet.Event) {
	r.events.WithLabelValues(string(ev.Type)).Inc()
	if ev.Status != "" {
		r.setStatus(ev.Status)
	}
	if ev.Duration > 0 {
		r.duration.WithLabelValues(string(ev.Type)).Observe(ev.Duration.Seconds())
	}
}

func (r *Recorder) setStatus(current wallet.Status) {
	for _, s := range statuses {
		v := 0.0
		if s == current {
			v = 1
		}
		r.status.WithLabelValues(string(s)).Set(v)
	}
}

// RegisterJournal exposes journal writer stats as counters.
func RegisterJournal(reg prometheus.Registerer, stats func() journal.Stats) error {
	counters := []struct {
		name, help string
		value      func(journal.Stats) int64
	}{
		{"journal_inserts_total", "Session events written to the journal.", func(s journal.Stats) int64 { return s.Inserts }},
		{"journal_conflicts_total", "Session events already present in the journal.", func(s journal.Stats) int64 { return s.Conflicts }},
		{"journal_errors_total", "Failed journal batch inserts.", func(s journal.Stats) int64 { return s.Errors }},
		{"journal_dropped_total", "Session events dropped on a full journal buffer.", func(s journal.Stats) int64 { return s.Dropped }},
	}

	for _, c := range counters {
		value := c.value
		err := reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      c.name,
			Help:      c.help,
		}, func() float64 { return float64(value(stats())) }))
		if err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
