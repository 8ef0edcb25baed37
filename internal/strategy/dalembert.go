package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// DAlembert raises the stake by one base unit after a loss and lowers it
// by one after a win, never below one unit and never beyond the loss cap.
type DAlembert struct {
	base
	units int
}

func newDAlembert(cfg Config, game models.GameConfig) *DAlembert {
	return &DAlembert{base: newBase(cfg, game), units: 1}
}

func (s *DAlembert) Name() string { return "dalembert" }

func (s *DAlembert) Decide(state *models.GameState) models.BetDecision {
	amount := s.cfg.BaseBet.Mul(decimal.NewFromInt(int64(s.units)))
	return s.decision(state, amount, fmt.Sprintf("%d units", s.units))
}

func (s *DAlembert) Update(o models.Outcome) {
	s.observe(o)
	if o.Won {
		if s.units > 1 {
			s.units--
		}
		return
	}
	if s.units < s.cfg.MaxLosses {
		s.units++
	}
}

func (s *DAlembert) Reset() {
	s.resetBase()
	s.units = 1
}
