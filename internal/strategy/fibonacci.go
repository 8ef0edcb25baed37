package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Fibonacci walks a precomputed stake sequence: one step forward on a
// loss, two steps back on a win, never below the start. The sequence is
// capped at the configured loss limit.
type Fibonacci struct {
	base
	seq   []decimal.Decimal
	index int
}

func newFibonacci(cfg Config, game models.GameConfig) *Fibonacci {
	return &Fibonacci{
		base: newBase(cfg, game),
		seq:  fibonacciSequence(cfg.BaseBet, cfg.MaxLosses),
	}
}

// fibonacciSequence is the stake ladder: base, base, then each the sum of
// the previous two, length steps long.
func fibonacciSequence(baseBet decimal.Decimal, steps int) []decimal.Decimal {
	if steps < 2 {
		steps = 2
	}
	seq := make([]decimal.Decimal, steps)
	seq[0] = baseBet
	seq[1] = baseBet
	for i := 2; i < steps; i++ {
		seq[i] = seq[i-1].Add(seq[i-2])
	}
	return seq
}

func (s *Fibonacci) Name() string { return "fibonacci" }

func (s *Fibonacci) Decide(state *models.GameState) models.BetDecision {
	return s.decision(state, s.seq[s.index], fmt.Sprintf("fibonacci step %d", s.index))
}

func (s *Fibonacci) Update(o models.Outcome) {
	s.observe(o)
	if o.Won {
		s.index -= 2
		if s.index < 0 {
			s.index = 0
		}
		return
	}
	if s.index < len(s.seq)-1 {
		s.index++
	}
}

func (s *Fibonacci) Reset() {
	s.resetBase()
	s.index = 0
}
