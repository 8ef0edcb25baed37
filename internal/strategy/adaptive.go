package strategy

import (
	"fmt"
	"time"

	"github.com/ShakaTry/DiceBot/internal/models"
)

const (
	defaultSwitchCooldown      = 10
	defaultMinBetsBeforeSwitch = 5
	switchConfidenceCarryover  = 1.1
)

// SwitchEvent records one attempted strategy switch, failed attempts
// included.
type SwitchEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Condition string    `json:"condition"`
	AtBet     int       `json:"at_bet"`
	Failed    bool      `json:"failed,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// confidenceCarrier lets the adaptive wrapper hand the outgoing
// strategy's momentum to the incoming one. Every strategy embedding base
// satisfies it.
type confidenceCarrier interface {
	Confidence() float64
	carryConfidence(factor float64)
}

// Adaptive runs one strategy at a time from a named pool and switches
// between them when ordered rules trigger on the session state. The
// outgoing strategy goes on cooldown so a noisy rule cannot flap.
type Adaptive struct {
	cfg  Config
	pool map[string]Strategy

	current         string
	rules           []SwitchRule
	minBets         int
	betsSinceSwitch int
	betsSeen        int

	cooldowns map[string]int
	history   []SwitchEvent
	pending   []SwitchEvent
}

func newAdaptive(cfg Config, pool map[string]Strategy) *Adaptive {
	minBets := cfg.MinBetsBeforeSwitch
	if minBets <= 0 {
		minBets = defaultMinBetsBeforeSwitch
	}
	return &Adaptive{
		cfg:       cfg,
		pool:      pool,
		current:   cfg.Initial,
		rules:     cfg.Rules,
		minBets:   minBets,
		cooldowns: make(map[string]int),
	}
}

func (s *Adaptive) Name() string { return "adaptive" }

func (s *Adaptive) Config() Config { return s.cfg }

// Current is the name of the strategy currently placing bets.
func (s *Adaptive) Current() string { return s.current }

// SwitchHistory is every recorded switch attempt, oldest first.
func (s *Adaptive) SwitchHistory() []SwitchEvent { return s.history }

// TakeEvents returns and clears switch events not yet reported. The
// engine drains these into the event sink.
func (s *Adaptive) TakeEvents() []SwitchEvent {
	events := s.pending
	s.pending = nil
	return events
}

func (s *Adaptive) Decide(state *models.GameState) models.BetDecision {
	s.maybeSwitch(state)
	return s.pool[s.current].Decide(state)
}

func (s *Adaptive) maybeSwitch(state *models.GameState) {
	if s.betsSinceSwitch < s.minBets {
		return
	}

	for _, rule := range s.rules {
		if !s.triggered(rule, state) {
			continue
		}
		if rule.Target == s.current {
			continue
		}

		event := SwitchEvent{
			From:      s.current,
			To:        rule.Target,
			Condition: rule.Condition,
			AtBet:     s.betsSeen,
			Timestamp: time.Now(),
		}

		next, ok := s.pool[rule.Target]
		if !ok {
			event.Failed = true
			event.Reason = fmt.Sprintf("strategy %q not in pool", rule.Target)
			s.record(event)
			return
		}
		if s.cooldowns[rule.Target] > 0 {
			event.Failed = true
			event.Reason = fmt.Sprintf("strategy %q cooling down for %d more bets", rule.Target, s.cooldowns[rule.Target])
			s.record(event)
			return
		}

		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = defaultSwitchCooldown
		}
		s.cooldowns[s.current] = cooldown

		outgoing := s.pool[s.current]
		next.Reset()
		if from, okFrom := outgoing.(confidenceCarrier); okFrom {
			if to, okTo := next.(confidenceCarrier); okTo {
				to.carryConfidence(from.Confidence() * switchConfidenceCarryover)
			}
		}

		s.current = rule.Target
		s.betsSinceSwitch = 0
		s.record(event)
		return
	}
}

func (s *Adaptive) triggered(rule SwitchRule, state *models.GameState) bool {
	switch rule.Condition {
	case CondConsecutiveLosses:
		return state.ConsecutiveLosses >= int(rule.Threshold)
	case CondConsecutiveWins:
		return state.ConsecutiveWins >= int(rule.Threshold)
	case CondDrawdown:
		dd, _ := state.CurrentDrawdown.Float64()
		return dd >= rule.Threshold
	case CondProfit:
		return state.SessionROI() >= rule.Threshold
	case CondConfidenceBelow:
		if c, ok := s.pool[s.current].(confidenceCarrier); ok {
			return c.Confidence() <= rule.Threshold
		}
		return false
	case CondBalanceRatioBelow:
		if state.StartBalance.IsZero() {
			return false
		}
		ratio, _ := state.Balance.Div(state.StartBalance).Float64()
		return ratio <= rule.Threshold
	default:
		return false
	}
}

func (s *Adaptive) record(event SwitchEvent) {
	s.history = append(s.history, event)
	s.pending = append(s.pending, event)
}

func (s *Adaptive) Update(o models.Outcome) {
	s.pool[s.current].Update(o)

	s.betsSeen++
	s.betsSinceSwitch++
	for name, left := range s.cooldowns {
		if left <= 1 {
			delete(s.cooldowns, name)
			continue
		}
		s.cooldowns[name] = left - 1
	}
}

func (s *Adaptive) Reset() {
	for _, st := range s.pool {
		st.Reset()
	}
	s.current = s.cfg.Initial
	s.betsSinceSwitch = 0
	s.betsSeen = 0
	s.cooldowns = make(map[string]int)
	s.history = nil
	s.pending = nil
}
