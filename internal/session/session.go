// Package session tracks one betting session: its game state, stop
// rules and final outcome.
package session

import (
	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// StopReason names why a session ended.
type StopReason string

const (
	StopNone                 StopReason = ""
	StopMaxBets              StopReason = "max_bets"
	StopLoss                 StopReason = "stop_loss"
	StopTakeProfit           StopReason = "take_profit"
	StopMaxConsecutiveLosses StopReason = "max_consecutive_losses"
	StopBalanceBelowMinimum  StopReason = "balance_below_minimum"
	StopInsufficientBalance  StopReason = "insufficient_balance"
	StopCancelled            StopReason = "cancelled"
	StopStalled              StopReason = "stalled"
)

// Session is one bounded run of a strategy against the dice game. It owns
// the game state and decides when to stop. The first stop rule to match
// is recorded; later rules never overwrite it.
type Session struct {
	ID    string
	State *models.GameState

	cfg    models.SessionConfig
	reason StopReason
}

func New(bankroll decimal.Decimal, cfg models.SessionConfig) *Session {
	return &Session{
		ID:    models.NewSessionID(),
		State: models.NewGameState(bankroll),
		cfg:   cfg,
	}
}

func (s *Session) Config() models.SessionConfig { return s.cfg }

// Ended reports whether a stop rule has fired.
func (s *Session) Ended() bool { return s.reason != StopNone }

// StopReason is the rule that ended the session, empty while running.
func (s *Session) StopReason() StopReason { return s.reason }

// End force-stops the session with the given reason unless it already
// ended.
func (s *Session) End(reason StopReason) {
	if s.reason == StopNone {
		s.reason = reason
	}
}

// Apply folds one outcome into the state and evaluates the stop rules.
func (s *Session) Apply(o models.Outcome) {
	s.State.Apply(o)
	s.evaluate()
}

// evaluate checks the stop rules in precedence order and records the
// first match.
func (s *Session) evaluate() {
	if s.reason != StopNone {
		return
	}

	switch {
	case s.cfg.MaxBets > 0 && s.State.BetsCount >= s.cfg.MaxBets:
		s.reason = StopMaxBets
	case s.cfg.StopLoss != 0 && s.State.SessionROI() <= -abs(s.cfg.StopLoss):
		s.reason = StopLoss
	case s.cfg.TakeProfit > 0 && s.State.SessionROI() >= s.cfg.TakeProfit:
		s.reason = StopTakeProfit
	case s.cfg.MaxConsecutiveLosses > 0 && s.State.ConsecutiveLosses >= s.cfg.MaxConsecutiveLosses:
		s.reason = StopMaxConsecutiveLosses
	case s.cfg.MinBalance.IsPositive() && s.State.Balance.LessThan(s.cfg.MinBalance):
		s.reason = StopBalanceBelowMinimum
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
