package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Composite merge modes.
const (
	ModeAverage      = "average"
	ModeWeighted     = "weighted"
	ModeConsensus    = "consensus"
	ModeAggressive   = "aggressive"
	ModeConservative = "conservative"
	ModeRotate       = "rotate"
)

const defaultQuorum = 0.5

// consensusTolerance groups component stakes that sit within 10% of each
// other when looking for agreement.
var consensusTolerance = decimal.NewFromFloat(0.10)

// Composite merges the decisions of several component strategies into a
// single bet. Updates fan out to every component.
type Composite struct {
	base
	components []Strategy
	weights    []float64

	betsSeen    int
	rotateIndex int
}

func newComposite(cfg Config, game models.GameConfig, components []Strategy) *Composite {
	return &Composite{
		base:       newBase(cfg, game),
		components: components,
		weights:    cfg.Weights,
	}
}

func (s *Composite) Name() string { return "composite" }

func (s *Composite) Decide(state *models.GameState) models.BetDecision {
	if s.cfg.Mode == ModeRotate {
		return s.components[s.rotateIndex].Decide(state)
	}

	decisions := make([]models.BetDecision, 0, len(s.components))
	for _, c := range s.components {
		d := c.Decide(state)
		if d.Skip {
			continue
		}
		decisions = append(decisions, d)
	}
	if len(decisions) == 0 {
		return models.BetDecision{Skip: true, Reason: "all components skipped"}
	}

	var merged models.BetDecision
	switch s.cfg.Mode {
	case ModeWeighted:
		merged = s.mergeWeighted(decisions)
	case ModeConsensus:
		var ok bool
		merged, ok = s.mergeConsensus(decisions)
		if !ok {
			return merged
		}
	case ModeAggressive:
		merged = decisions[0]
		for _, d := range decisions[1:] {
			if d.Amount.GreaterThan(merged.Amount) {
				merged = d
			}
		}
	case ModeConservative:
		merged = decisions[0]
		for _, d := range decisions[1:] {
			if d.Amount.LessThan(merged.Amount) {
				merged = d
			}
		}
	default:
		merged = mergeAverage(decisions)
	}

	out := s.decision(state, merged.Amount, fmt.Sprintf("composite %s of %d components", s.cfg.Mode, len(decisions)))
	if out.Skip {
		return out
	}
	out.Target = merged.Target
	out.BetType = majorityBetType(decisions)
	out.Multiplier = merged.Multiplier
	out.Confidence = merged.Confidence
	return out
}

func mergeAverage(decisions []models.BetDecision) models.BetDecision {
	sum := decimal.Zero
	target, mult, conf := 0.0, 0.0, 0.0
	for _, d := range decisions {
		sum = sum.Add(d.Amount)
		target += d.Target
		mult += d.Multiplier
		conf += d.Confidence
	}
	n := decimal.NewFromInt(int64(len(decisions)))
	nf := float64(len(decisions))
	return models.BetDecision{
		Amount:     sum.Div(n),
		Target:     target / nf,
		Multiplier: mult / nf,
		Confidence: conf / nf,
	}
}

func (s *Composite) mergeWeighted(decisions []models.BetDecision) models.BetDecision {
	if len(s.weights) != len(s.components) {
		return mergeAverage(decisions)
	}

	sum := decimal.Zero
	target, mult, conf, weightSum := 0.0, 0.0, 0.0, 0.0
	for i, d := range decisions {
		w := s.weights[i]
		sum = sum.Add(d.Amount.Mul(decimal.NewFromFloat(w)))
		target += d.Target * w
		mult += d.Multiplier * w
		conf += d.Confidence * w
		weightSum += w
	}
	if weightSum == 0 {
		return mergeAverage(decisions)
	}
	ws := decimal.NewFromFloat(weightSum)
	return models.BetDecision{
		Amount:     sum.Div(ws),
		Target:     target / weightSum,
		Multiplier: mult / weightSum,
		Confidence: conf / weightSum,
	}
}

// mergeConsensus groups stakes within 10% of each other and goes with the
// largest group when it reaches the quorum fraction; otherwise the round
// is skipped.
func (s *Composite) mergeConsensus(decisions []models.BetDecision) (models.BetDecision, bool) {
	quorum := s.cfg.Quorum
	if quorum <= 0 {
		quorum = defaultQuorum
	}

	var best []models.BetDecision
	for _, anchor := range decisions {
		group := make([]models.BetDecision, 0, len(decisions))
		for _, d := range decisions {
			diff := d.Amount.Sub(anchor.Amount).Abs()
			if anchor.Amount.IsZero() || diff.LessThanOrEqual(anchor.Amount.Mul(consensusTolerance)) {
				group = append(group, d)
			}
		}
		if len(group) > len(best) {
			best = group
		}
	}

	if float64(len(best))/float64(len(decisions)) < quorum {
		return models.BetDecision{Skip: true, Reason: "no consensus among components"}, false
	}
	return mergeAverage(best), true
}

func majorityBetType(decisions []models.BetDecision) models.BetType {
	over := 0
	for _, d := range decisions {
		if d.BetType == models.BetOver {
			over++
		}
	}
	if over*2 > len(decisions) {
		return models.BetOver
	}
	return models.BetUnder
}

func (s *Composite) Update(o models.Outcome) {
	s.observe(o)
	for _, c := range s.components {
		c.Update(o)
	}

	s.betsSeen++
	rotateEvery := s.cfg.RotateEvery
	if rotateEvery <= 0 {
		rotateEvery = 10
	}
	if s.cfg.Mode == ModeRotate && s.betsSeen%rotateEvery == 0 {
		s.rotateIndex = (s.rotateIndex + 1) % len(s.components)
	}
}

func (s *Composite) Reset() {
	s.resetBase()
	s.betsSeen = 0
	s.rotateIndex = 0
	for _, c := range s.components {
		c.Reset()
	}
}
