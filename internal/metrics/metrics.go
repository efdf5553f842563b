// Package metrics holds the Prometheus collectors of the custody core.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crypto_vault"

// Service groups the collectors. A nil *Service is valid and records nothing, so
// components can be built without metrics in tests and embedders.
type Service struct {
	KeysStored    *prometheus.CounterVec
	Fallbacks     prometheus.Counter
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	Decrypts      *prometheus.CounterVec
	GasEstimates  *prometheus.CounterVec
	Submissions   *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	ReceiptWaited prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Service, error) {
	s := &Service{
		KeysStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "keys_stored_total",
			Help:      "Key records written, by encryption backend.",
		}, []string{"backend"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "fallback_total",
			Help:      "Stores that fell back from the remote to the local backend.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "cache_hits_total",
			Help:      "Key retrievals served from the decrypted-key cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "cache_misses_total",
			Help:      "Key retrievals that required a backend decrypt.",
		}),
		Decrypts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "decrypts_total",
			Help:      "Backend decrypt calls, by backend.",
		}, []string{"backend"}),
		GasEstimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gas",
			Name:      "estimates_total",
			Help:      "Gas estimations, by speed tier and fee model.",
		}, []string{"speed", "fee_model"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "submissions_total",
			Help:      "Signed transactions accepted by the node, by operation.",
		}, []string{"operation"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "failures_total",
			Help:      "Aborted operations, by operation and error kind.",
		}, []string{"operation", "kind"}),
		ReceiptWaited: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "receipt_wait_seconds",
			Help:      "Time spent waiting for approval receipts.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		s.KeysStored, s.Fallbacks, s.CacheHits, s.CacheMisses, s.Decrypts,
		s.GasEstimates, s.Submissions, s.Failures, s.ReceiptWaited,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return s, nil
}

func (s *Service) KeyStored(backend string) {
	if s == nil {
		return
	}
	s.KeysStored.WithLabelValues(backend).Inc()
}

func (s *Service) Fallback() {
	if s == nil {
		return
	}
	s.Fallbacks.Inc()
}

func (s *Service) CacheHit() {
	if s == nil {
		return
	}
	s.CacheHits.Inc()
}

func (s *Service) CacheMiss() {
	if s == nil {
		return
	}
	s.CacheMisses.Inc()
}

func (s *Service) Decrypted(backend string) {
	if s == nil {
		return
	}
	s.Decrypts.WithLabelValues(backend).Inc()
}

func (s *Service) GasEstimated(speed string, eip1559 bool) {
	if s == nil {
		return
	}
	model := "legacy"
	if eip1559 {
		model = "eip1559"
	}
	s.GasEstimates.WithLabelValues(speed, model).Inc()
}

func (s *Service) Submitted(operation string) {
	if s == nil {
		return
	}
	s.Submissions.WithLabelValues(operation).Inc()
}

func (s *Service) Failed(operation string, kind string) {
	if s == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	s.Failures.WithLabelValues(operation, kind).Inc()
}

func (s *Service) ReceiptWait(seconds float64) {
	if s == nil {
		return
	}
	s.ReceiptWaited.Observe(seconds)
}
