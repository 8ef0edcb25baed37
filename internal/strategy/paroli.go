package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Paroli is a positive progression: the stake is multiplied after every
// win until the target streak is reached, then returns to the base bet.
// Any loss resets the progression.
type Paroli struct {
	base
	streak int
}

func newParoli(cfg Config, game models.GameConfig) *Paroli {
	return &Paroli{base: newBase(cfg, game)}
}

func (s *Paroli) Name() string { return "paroli" }

func (s *Paroli) Decide(state *models.GameState) models.BetDecision {
	amount := s.cfg.BaseBet.Mul(decimal.NewFromFloat(math.Pow(s.cfg.Multiplier, float64(s.streak))))
	reason := "base bet"
	if s.streak > 0 {
		reason = fmt.Sprintf("win streak %d", s.streak)
	}
	return s.decision(state, amount, reason)
}

func (s *Paroli) Update(o models.Outcome) {
	s.observe(o)
	if !o.Won {
		s.streak = 0
		return
	}
	s.streak++
	if s.streak >= s.cfg.TargetWins {
		s.streak = 0
	}
}

func (s *Paroli) Reset() {
	s.resetBase()
	s.streak = 0
}
