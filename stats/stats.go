// Package stats implements the engine's optional statistics hooks: declared
// but not required, an implementation may wire one in or leave it stubbed.
// Nothing in engine, revocation, or session calls into a Recorder as part of
// control flow — these are observability only, a best-effort side channel.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the stats surface a caller may wire in. TLS records one
// completed (or failed) handshake; OCSP records one completed (or failed)
// revocation check. Both must never panic: a Recorder is invoked from the
// hot path of a live connection.
type Recorder interface {
	TLS(hostname string, resumed bool, duration time.Duration, err error)
	OCSP(hostname string, duration time.Duration, err error)
}

// noopRecorder implements Recorder by discarding everything.
type noopRecorder struct{}

func (noopRecorder) TLS(string, bool, time.Duration, error) {}
func (noopRecorder) OCSP(string, time.Duration, error)      {}

// Noop returns a Recorder that does nothing; the default when a caller
// wires no stats backend at all.
func Noop() Recorder { return noopRecorder{} }

// promRecorder implements Recorder against prometheus/client_golang
// counters and histograms.
type promRecorder struct {
	handshakes  *prometheus.CounterVec
	handshakeMS prometheus.Histogram
	resumptions prometheus.Counter
	ocspChecks  *prometheus.CounterVec
	ocspMS      prometheus.Histogram
}

// Prometheus returns a Recorder that registers its collectors against reg.
// Pass prometheus.DefaultRegisterer for process-wide metrics.
func Prometheus(reg prometheus.Registerer) Recorder {
	r := &promRecorder{
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tlsclient_handshakes_total",
			Help: "TLS handshakes attempted, labeled by outcome.",
		}, []string{"outcome"}),
		handshakeMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tlsclient_handshake_duration_seconds",
			Help:    "TLS handshake duration.",
			Buckets: prometheus.DefBuckets,
		}),
		resumptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tlsclient_sessions_resumed_total",
			Help: "TLS handshakes that resumed a cached session.",
		}),
		ocspChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tlsclient_ocsp_checks_total",
			Help: "OCSP revocation checks performed, labeled by outcome.",
		}, []string{"outcome"}),
		ocspMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tlsclient_ocsp_check_duration_seconds",
			Help:    "OCSP revocation check duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.handshakes, r.handshakeMS, r.resumptions, r.ocspChecks, r.ocspMS)
	return r
}

func (r *promRecorder) TLS(_ string, resumed bool, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.handshakes.WithLabelValues(outcome).Inc()
	r.handshakeMS.Observe(duration.Seconds())
	if resumed {
		r.resumptions.Inc()
	}
}

func (r *promRecorder) OCSP(_ string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.ocspChecks.WithLabelValues(outcome).Inc()
	r.ocspMS.Observe(duration.Seconds())
}
