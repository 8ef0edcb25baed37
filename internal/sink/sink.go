// Package sink carries simulation events to their consumers: log files,
// websocket subscribers, alert handlers or nothing at all.
package sink

import (
	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// EventSink receives every observable event of a simulation run. One
// method per event kind so consumers can ignore what they do not care
// about. Implementations must tolerate concurrent calls when used with
// parallel runs.
type EventSink interface {
	BetDecision(sessionID string, betIndex int, d models.BetDecision)
	BetResult(sessionID string, betIndex int, o models.Outcome)
	SessionStart(sessionID, strategy string, bankroll decimal.Decimal)
	SessionEnd(sessionID, stopReason string, state *models.GameState)
	StrategyEvent(sessionID, strategy, message string)
	Error(sessionID string, err error)
}

// Severity grades alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertFunc is a hook for out-of-band notifications: strategy switch
// failures, lost worker batches, vault settlement errors.
type AlertFunc func(kind, message string, severity Severity)

// NopSink discards every event.
type NopSink struct{}

func (NopSink) BetDecision(string, int, models.BetDecision)  {}
func (NopSink) BetResult(string, int, models.Outcome)        {}
func (NopSink) SessionStart(string, string, decimal.Decimal) {}
func (NopSink) SessionEnd(string, string, *models.GameState) {}
func (NopSink) StrategyEvent(string, string, string)         {}
func (NopSink) Error(string, error)                          {}

// MultiSink fans every event out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) BetDecision(id string, i int, d models.BetDecision) {
	for _, s := range m {
		s.BetDecision(id, i, d)
	}
}

func (m MultiSink) BetResult(id string, i int, o models.Outcome) {
	for _, s := range m {
		s.BetResult(id, i, o)
	}
}

func (m MultiSink) SessionStart(id, strategy string, bankroll decimal.Decimal) {
	for _, s := range m {
		s.SessionStart(id, strategy, bankroll)
	}
}

func (m MultiSink) SessionEnd(id, reason string, state *models.GameState) {
	for _, s := range m {
		s.SessionEnd(id, reason, state)
	}
}

func (m MultiSink) StrategyEvent(id, strategy, message string) {
	for _, s := range m {
		s.StrategyEvent(id, strategy, message)
	}
}

func (m MultiSink) Error(id string, err error) {
	for _, s := range m {
		s.Error(id, err)
	}
}
