package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Martingale multiplies the stake after every loss and returns to the
// base bet on a win or once the loss cap is reached. The factory rejects
// configurations whose worst-case stake exceeds the table maximum.
type Martingale struct {
	base
	losses int
}

func newMartingale(cfg Config, game models.GameConfig) *Martingale {
	return &Martingale{base: newBase(cfg, game)}
}

func (s *Martingale) Name() string { return "martingale" }

func (s *Martingale) Decide(state *models.GameState) models.BetDecision {
	amount := s.cfg.BaseBet.Mul(decimal.NewFromFloat(math.Pow(s.cfg.Multiplier, float64(s.losses))))
	reason := "base bet"
	if s.losses > 0 {
		reason = fmt.Sprintf("progression step %d", s.losses)
	}
	return s.decision(state, amount, reason)
}

func (s *Martingale) Update(o models.Outcome) {
	s.observe(o)
	if o.Won {
		s.losses = 0
		return
	}
	s.losses++
	if s.losses >= s.cfg.MaxLosses {
		s.losses = 0
	}
}

func (s *Martingale) Reset() {
	s.resetBase()
	s.losses = 0
}
