package gateway

import (
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vault_invocations_total",
	Help: "contract write invocations by function and outcome",
}, []string{"function", "outcome"})

var readsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vault_reads_total",
	Help: "read only contract simulations by function and outcome",
}, []string{"function", "outcome"})

var pollAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "vault_poll_attempts",
	Help:    "status queries needed before a submitted transaction settled",
	Buckets: prometheus.LinearBuckets(1, 1, 10),
})

var pipelineSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "vault_pipeline_seconds",
	Help:    "wall time of a write invocation from account load to confirmation",
	Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
})

func outcome(err error, simulated bool) string {
	if err == nil {
		if simulated {
			return "simulated"
		}
		return "success"
	}
	return string(model.KindOf(err))
}
