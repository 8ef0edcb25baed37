package metrics

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Sink counts simulation events into the Prometheus collectors. Safe
// for concurrent use; prometheus counters handle their own locking.
type Sink struct{}

func (Sink) BetDecision(string, int, models.BetDecision) {}

func (Sink) BetResult(_ string, _ int, o models.Outcome) {
	result := "loss"
	if o.Won {
		result = "win"
	}
	if o.Parking {
		result = "parking_" + result
	}
	BetsResolved.WithLabelValues(result).Inc()
}

func (Sink) SessionStart(_ string, strategy string, _ decimal.Decimal) {
	SimulationsRun.WithLabelValues(strategy).Inc()
}

func (Sink) SessionEnd(_ string, stopReason string, state *models.GameState) {
	SessionsEnded.WithLabelValues(stopReason).Inc()
	SeedRotations.Add(float64(state.SeedRotations))
}

func (Sink) StrategyEvent(_ string, _ string, message string) {
	outcome := "switched"
	if strings.Contains(message, "failed") {
		outcome = "failed"
	}
	StrategySwitches.WithLabelValues(outcome).Inc()
}

func (Sink) Error(string, error) {}
