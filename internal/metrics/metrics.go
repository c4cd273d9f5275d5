// Package metrics exposes prometheus counters for the scheduler's
// dispatch decisions, boosts, demotions and cpu_share rejections. Grounded on the vendored
// client_golang registry+handler idiom used throughout the retrieved
// kubernetes tree: a dedicated prometheus.Registry (not the global
// default, so tests can construct as many independent Recorders as
// they like) plus a promhttp.Handler for cmd/schedsim's --metrics-addr.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records scheduler events as prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	Dispatches    *prometheus.CounterVec
	Boosts        prometheus.Counter
	Demotions     prometheus.Counter
	ShareRejected prometheus.Counter
}

// NewRecorder builds a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedsim",
			Name:      "dispatches_total",
			Help:      "Number of times a process was dispatched, by scheduling class.",
		}, []string{"class"}),
		Boosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedsim",
			Name:      "mlfq_boosts_total",
			Help:      "Number of MLFQ priority boosts performed.",
		}),
		Demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedsim",
			Name:      "mlfq_demotions_total",
			Help:      "Number of MLFQ level demotions performed.",
		}),
		ShareRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedsim",
			Name:      "cpu_share_rejected_total",
			Help:      "Number of cpu_share requests rejected (budget exceeded or invalid percent).",
		}),
	}

	reg.MustRegister(r.Dispatches, r.Boosts, r.Demotions, r.ShareRejected)
	return r
}

// Handler returns an http.Handler serving this Recorder's registry in
// the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
