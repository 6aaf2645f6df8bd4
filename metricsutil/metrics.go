// Package metricsutil exposes the Prometheus counters and gauges the
// consensus engine and gossip ingestion point update, following the
// teacher's convention of package-level metric variables registered
// against the default registry.
package metricsutil

import "github.com/prometheus/client_golang/prometheus"

var (
	BlocksProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "proof_of_stake",
		Name:      "blocks_processed_total",
		Help:      "Total number of blocks successfully processed by the consensus engine.",
	})

	BlocksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "proof_of_stake",
		Name:      "blocks_rejected_total",
		Help:      "Total number of blocks rejected by the consensus engine, by error kind.",
	}, []string{"kind"})

	AttestationsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "proof_of_stake",
		Name:      "attestations_processed_total",
		Help:      "Total number of attestations successfully processed.",
	})

	AttestationsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "proof_of_stake",
		Name:      "attestations_rejected_total",
		Help:      "Total number of attestations rejected by the consensus engine, by error kind.",
	}, []string{"kind"})

	HeadSlot = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "proof_of_stake",
		Name:      "head_slot",
		Help:      "Slot of the current fork-choice head block.",
	})

	ValidatorSetSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "proof_of_stake",
		Name:      "validator_set_size",
		Help:      "Number of validators currently registered.",
	})

	GossipThroughput = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "proof_of_stake",
		Name:      "gossip_messages_per_second",
		Help:      "Rolling gossip envelope ingestion rate.",
	})

	GossipDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "proof_of_stake",
		Name:      "gossip_envelopes_dropped_total",
		Help:      "Total gossip envelopes dropped by validation or backpressure.",
	})
)

func init() {
	prometheus.MustRegister(
		BlocksProcessed,
		BlocksRejected,
		AttestationsProcessed,
		AttestationsRejected,
		HeadSlot,
		ValidatorSetSize,
		GossipThroughput,
		GossipDropped,
	)
}
