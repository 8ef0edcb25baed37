package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

func adaptiveCfg(rules []SwitchRule, minBets int) Config {
	return Config{
		Name:    NameAdaptive,
		Initial: NameFlat,
		Strategies: []Config{
			{Name: NameFlat, BaseBet: decimal.NewFromInt(1), Target: 50},
			{Name: NameMartingale, BaseBet: decimal.NewFromInt(1), Target: 50, Multiplier: 2, MaxLosses: 5},
		},
		Rules:               rules,
		MinBetsBeforeSwitch: minBets,
	}
}

func newAdaptiveForTest(t *testing.T, rules []SwitchRule, minBets int) *Adaptive {
	t.Helper()
	s := mustStrategy(t, adaptiveCfg(rules, minBets))
	a, ok := s.(*Adaptive)
	if !ok {
		t.Fatalf("factory returned %T, want *Adaptive", s)
	}
	return a
}

func runLosses(a *Adaptive, state *models.GameState, n int) {
	for i := 0; i < n; i++ {
		a.Decide(state)
		o := lossOutcome("1")
		a.Update(o)
		state.Apply(o)
	}
}

func TestAdaptiveSwitchesOnLossStreak(t *testing.T) {
	a := newAdaptiveForTest(t, []SwitchRule{
		{Condition: CondConsecutiveLosses, Threshold: 3, Target: NameMartingale},
	}, 1)
	state := testState("1000")

	runLosses(a, state, 3)
	a.Decide(state)

	if a.Current() != NameMartingale {
		t.Fatalf("current = %q, want martingale after 3 losses", a.Current())
	}

	history := a.SwitchHistory()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].From != NameFlat || history[0].To != NameMartingale || history[0].Failed {
		t.Errorf("unexpected switch event: %+v", history[0])
	}
}

func TestAdaptiveMinBetsGate(t *testing.T) {
	a := newAdaptiveForTest(t, []SwitchRule{
		{Condition: CondConsecutiveLosses, Threshold: 1, Target: NameMartingale},
	}, 5)
	state := testState("1000")

	// The rule fires immediately but the gate holds until five bets.
	runLosses(a, state, 4)
	a.Decide(state)
	if a.Current() != NameFlat {
		t.Fatalf("switched before the minimum bet gate: %q", a.Current())
	}

	runLosses(a, state, 1)
	a.Decide(state)
	if a.Current() != NameMartingale {
		t.Errorf("current = %q, want martingale after the gate opens", a.Current())
	}
}

func TestAdaptiveCooldownBlocksFlapping(t *testing.T) {
	a := newAdaptiveForTest(t, []SwitchRule{
		{Condition: CondConsecutiveLosses, Threshold: 2, Target: NameMartingale, Cooldown: 100},
		{Condition: CondConsecutiveLosses, Threshold: 4, Target: NameFlat, Cooldown: 100},
	}, 1)
	state := testState("1000")

	runLosses(a, state, 2)
	a.Decide(state)
	if a.Current() != NameMartingale {
		t.Fatalf("current = %q, want martingale", a.Current())
	}

	// Flat is cooling down, so the second rule fails and the strategy
	// stays put.
	runLosses(a, state, 4)
	a.Decide(state)
	if a.Current() != NameMartingale {
		t.Fatalf("current = %q, want martingale while flat cools down", a.Current())
	}

	var failed bool
	for _, e := range a.SwitchHistory() {
		if e.Failed && e.To == NameFlat {
			failed = true
		}
	}
	if !failed {
		t.Error("cooldown-blocked switch was not recorded as failed")
	}
}

func TestAdaptiveFailedSwitchStays(t *testing.T) {
	a := newAdaptiveForTest(t, []SwitchRule{
		{Condition: CondConsecutiveLosses, Threshold: 2, Target: "ghost"},
	}, 1)
	state := testState("1000")

	runLosses(a, state, 2)
	a.Decide(state)

	if a.Current() != NameFlat {
		t.Fatalf("current = %q, want flat after failed switch", a.Current())
	}

	events := a.TakeEvents()
	if len(events) == 0 || !events[len(events)-1].Failed {
		t.Fatalf("failed switch not reported: %+v", events)
	}
	if again := a.TakeEvents(); len(again) != 0 {
		t.Errorf("TakeEvents did not drain: %+v", again)
	}
}

func TestAdaptiveConfidenceCarryover(t *testing.T) {
	a := newAdaptiveForTest(t, []SwitchRule{
		{Condition: CondConsecutiveLosses, Threshold: 3, Target: NameMartingale},
	}, 1)
	state := testState("1000")

	runLosses(a, state, 3)
	a.Decide(state)

	// Outgoing confidence 0.95^3 ~ 0.857, carried in at x1.1 ~ 0.943.
	incoming, ok := a.pool[NameMartingale].(confidenceCarrier)
	if !ok {
		t.Fatal("pool strategy does not carry confidence")
	}
	got := incoming.Confidence()
	if got <= 0.9 || got >= 1.0 {
		t.Errorf("carried confidence = %g, want ~0.94", got)
	}
}

func TestAdaptiveReset(t *testing.T) {
	a := newAdaptiveForTest(t, []SwitchRule{
		{Condition: CondConsecutiveLosses, Threshold: 2, Target: NameMartingale},
	}, 1)
	state := testState("1000")

	runLosses(a, state, 2)
	a.Decide(state)
	if a.Current() != NameMartingale {
		t.Fatalf("current = %q, want martingale", a.Current())
	}

	a.Reset()
	if a.Current() != NameFlat {
		t.Errorf("current after reset = %q, want flat", a.Current())
	}
	if len(a.SwitchHistory()) != 0 {
		t.Errorf("history survived reset: %+v", a.SwitchHistory())
	}
}
