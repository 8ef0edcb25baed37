// Package metrics exposes Prometheus counters for the simulator and a
// small /metrics + /healthz server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicebot_bets_resolved_total",
		Help: "Resolved bets by result",
	}, []string{"result"})

	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicebot_sessions_ended_total",
		Help: "Finished sessions by stop reason",
	}, []string{"stop_reason"})

	SimulationsRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicebot_simulations_total",
		Help: "Simulation runs by strategy",
	}, []string{"strategy"})

	SeedRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dicebot_seed_rotations_total",
		Help: "Provably fair seed rotations",
	})

	StrategySwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicebot_strategy_switches_total",
		Help: "Adaptive strategy switches by outcome",
	}, []string{"outcome"})

	CheckpointOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicebot_checkpoint_operations_total",
		Help: "Checkpoint saves and loads by operation and status",
	}, []string{"operation", "status"})
)
