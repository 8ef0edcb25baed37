package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

func flatCfg(amount string) Config {
	return Config{Name: NameFlat, BaseBet: decimal.RequireFromString(amount), Target: 50}
}

func TestCompositeAverage(t *testing.T) {
	s := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeAverage, BaseBet: decimal.NewFromInt(1),
		Components: []Config{flatCfg("1"), flatCfg("3")},
	})
	state := testState("100")

	d := s.Decide(state)
	if d.Skip {
		t.Fatalf("skipped: %s", d.Reason)
	}
	if !d.Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("amount = %s, want 2", d.Amount)
	}
}

func TestCompositeWeighted(t *testing.T) {
	s := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeWeighted, BaseBet: decimal.NewFromInt(1),
		Weights:    []float64{3, 1},
		Components: []Config{flatCfg("1"), flatCfg("5")},
	})
	state := testState("100")

	// (1*3 + 5*1) / 4 = 2
	d := s.Decide(state)
	if !d.Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("amount = %s, want 2", d.Amount)
	}
}

func TestCompositeAggressiveAndConservative(t *testing.T) {
	components := []Config{flatCfg("1"), flatCfg("5"), flatCfg("2")}

	agg := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeAggressive, BaseBet: decimal.NewFromInt(1),
		Components: components,
	})
	if d := agg.Decide(testState("100")); !d.Amount.Equal(decimal.NewFromInt(5)) {
		t.Errorf("aggressive amount = %s, want 5", d.Amount)
	}

	con := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeConservative, BaseBet: decimal.NewFromInt(1),
		Components: components,
	})
	if d := con.Decide(testState("100")); !d.Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("conservative amount = %s, want 1", d.Amount)
	}
}

func TestCompositeConsensus(t *testing.T) {
	// Two of three components agree within 10%; quorum 0.5 is met.
	agree := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeConsensus, BaseBet: decimal.NewFromInt(1),
		Quorum:     0.5,
		Components: []Config{flatCfg("1"), flatCfg("1.05"), flatCfg("10")},
	})
	d := agree.Decide(testState("100"))
	if d.Skip {
		t.Fatalf("consensus round skipped: %s", d.Reason)
	}
	want := decimal.RequireFromString("1.025")
	if !d.Amount.Equal(want) {
		t.Errorf("amount = %s, want %s", d.Amount, want)
	}

	// Stakes too far apart for the quorum: the round is skipped.
	split := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeConsensus, BaseBet: decimal.NewFromInt(1),
		Quorum:     0.75,
		Components: []Config{flatCfg("1"), flatCfg("5"), flatCfg("20"), flatCfg("100")},
	})
	if d := split.Decide(testState("1000")); !d.Skip {
		t.Errorf("expected skip without consensus, got amount %s", d.Amount)
	}
}

func TestCompositeRotate(t *testing.T) {
	s := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeRotate, BaseBet: decimal.NewFromInt(1),
		RotateEvery: 2,
		Components:  []Config{flatCfg("1"), flatCfg("5")},
	})
	state := testState("100")

	wantAmounts := []string{"1", "1", "5", "5", "1"}
	for i, want := range wantAmounts {
		d := s.Decide(state)
		if !d.Amount.Equal(decimal.RequireFromString(want)) {
			t.Errorf("bet %d amount = %s, want %s", i, d.Amount, want)
		}
		s.Update(lossOutcome(want))
	}
}

func TestCompositeMajorityBetType(t *testing.T) {
	over := Config{Name: NameFlat, BaseBet: decimal.NewFromInt(1), Target: 50, BetType: models.BetOver}
	s := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeAverage, BaseBet: decimal.NewFromInt(1),
		Components: []Config{over, over, flatCfg("1")},
	})

	state := testState("100")
	state.CurrentBetType = models.BetOver

	d := s.Decide(state)
	if d.BetType != models.BetOver {
		t.Errorf("bet type = %s, want over", d.BetType)
	}
}

func TestCompositeUpdateFansOut(t *testing.T) {
	s := mustStrategy(t, Config{
		Name: NameComposite, Mode: ModeAggressive, BaseBet: decimal.NewFromInt(1),
		Components: []Config{
			{Name: NameMartingale, BaseBet: decimal.NewFromInt(1), Target: 50, Multiplier: 2, MaxLosses: 5},
			flatCfg("1"),
		},
	})
	state := testState("1000")

	s.Update(lossOutcome("1"))
	s.Update(lossOutcome("2"))

	// The martingale component walked to 4, so aggressive picks it.
	if d := s.Decide(state); !d.Amount.Equal(decimal.NewFromInt(4)) {
		t.Errorf("amount = %s, want 4 after fan-out updates", d.Amount)
	}
}
