package strategy

import (
	"github.com/ShakaTry/DiceBot/internal/models"
)

// Flat bets the configured base amount on every roll.
type Flat struct {
	base
}

func newFlat(cfg Config, game models.GameConfig) *Flat {
	return &Flat{base: newBase(cfg, game)}
}

func (s *Flat) Name() string { return "flat" }

func (s *Flat) Decide(state *models.GameState) models.BetDecision {
	return s.decision(state, s.cfg.BaseBet, "flat base bet")
}

func (s *Flat) Update(o models.Outcome) {
	s.observe(o)
}

func (s *Flat) Reset() {
	s.resetBase()
}
