package strategy

import (
	"fmt"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/models"
)

// Waiter lets a wrapped strategy ask its Parking wrapper to hold off
// betting on a signal of its own, beyond the wrapper's loss and
// drawdown triggers.
type Waiter interface {
	ShouldWait(state *models.GameState) bool
}

// Parking wraps another strategy and protects capital during losing
// streaks. While the wait condition holds it prefers actions that cost
// nothing: first a seed rotation, then a bounded number of bet side
// toggles, and only then a minimal high-probability bet whose losses are
// tracked separately as parking cost. When the streak clears it
// delegates to the wrapped strategy again.
type Parking struct {
	inner Strategy
	cfg   Config
	park  ParkingConfig
	game  models.GameConfig

	parked  bool
	rotated bool
	toggles int
}

func newParking(cfg Config, game models.GameConfig, inner Strategy) *Parking {
	var park ParkingConfig
	if cfg.Parking != nil {
		park = *cfg.Parking
	}
	if park.OnConsecutiveLosses <= 0 {
		park.OnConsecutiveLosses = DefaultParkingOnLosses
	}
	if park.OnDrawdown <= 0 {
		park.OnDrawdown = DefaultParkingOnDrawdown
	}
	if park.ParkingTarget <= 0 {
		park.ParkingTarget = DefaultParkingTarget
	}
	if park.MaxToggles <= 0 {
		park.MaxToggles = DefaultMaxToggles
	}
	if park.RotateNonceAge <= 0 {
		park.RotateNonceAge = DefaultRotateNonceAge
	}
	if park.RotateOnLosses <= 0 {
		park.RotateOnLosses = DefaultRotateOnLosses
	}
	return &Parking{inner: inner, cfg: cfg, park: park, game: game}
}

func (s *Parking) Name() string { return "parking" }

func (s *Parking) Config() Config { return s.cfg }

// Parked reports whether the wrapper is currently protecting capital.
func (s *Parking) Parked() bool { return s.parked }

func (s *Parking) Decide(state *models.GameState) models.BetDecision {
	waiting, why := s.shouldWait(state)
	if !waiting {
		if s.parked {
			s.parked = false
			s.rotated = false
			s.toggles = 0
		}
		return s.inner.Decide(state)
	}
	s.parked = true

	// Seed rotation first: it costs nothing and does not consume a nonce.
	if !s.rotated && (state.CurrentNonce >= s.park.RotateNonceAge || state.ConsecutiveLosses >= s.park.RotateOnLosses) {
		s.rotated = true
		return models.BetDecision{
			Skip:   true,
			Action: models.ActionRotateSeed,
			Reason: why,
		}
	}

	// Then a bounded number of bet side toggles.
	if s.toggles < s.park.MaxToggles {
		s.toggles++
		return models.BetDecision{
			Skip:   true,
			Action: models.ActionToggleBetType,
			Reason: fmt.Sprintf("%s, toggle %d of %d", why, s.toggles, s.park.MaxToggles),
		}
	}

	// Out of free moves: place the smallest possible high-probability bet
	// to keep the session alive while the streak clears.
	return s.parkingBet(state, why)
}

func (s *Parking) parkingBet(state *models.GameState, why string) models.BetDecision {
	amount := s.game.MinBet
	if amount.GreaterThan(state.Balance) {
		return models.BetDecision{Skip: true, Reason: "balance below minimum bet"}
	}
	return models.BetDecision{
		Amount:     amount,
		Target:     s.park.ParkingTarget,
		BetType:    models.BetUnder,
		Multiplier: dice.MultiplierFor(s.park.ParkingTarget, models.BetUnder),
		Confidence: 0.1,
		Action:     models.ActionForcedParkingBet,
		Reason:     why,
	}
}

func (s *Parking) shouldWait(state *models.GameState) (bool, string) {
	if state.ConsecutiveLosses >= s.park.OnConsecutiveLosses {
		return true, fmt.Sprintf("parked after %d consecutive losses", state.ConsecutiveLosses)
	}
	dd, _ := state.CurrentDrawdown.Float64()
	if dd >= s.park.OnDrawdown {
		return true, fmt.Sprintf("parked at %.1f%% drawdown", dd*100)
	}
	if w, ok := s.inner.(Waiter); ok && w.ShouldWait(state) {
		return true, "parked at wrapped strategy's request"
	}
	return false, ""
}

func (s *Parking) Update(o models.Outcome) {
	// Parking bets are not part of the wrapped strategy's progression.
	if o.Parking {
		return
	}
	s.inner.Update(o)
}

func (s *Parking) Reset() {
	s.inner.Reset()
	s.parked = false
	s.rotated = false
	s.toggles = 0
}
