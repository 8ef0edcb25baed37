package dice_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/models"
)

func newGame(t *testing.T) *dice.Game {
	t.Helper()
	gen, err := fair.New("test_server", "test_client")
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return dice.New(models.DefaultGameConfig(), gen)
}

func TestWinChance(t *testing.T) {
	g := newGame(t)

	tests := []struct {
		target  float64
		betType models.BetType
		want    float64
	}{
		{50, models.BetUnder, 49.5},
		{50, models.BetOver, 49.5},
		{98, models.BetUnder, 97.02},
		{98, models.BetOver, 1.98},
		{10, models.BetUnder, 9.9},
		{10, models.BetOver, 89.1},
	}

	for _, tt := range tests {
		got, err := g.WinChance(tt.target, tt.betType)
		if err != nil {
			t.Errorf("WinChance(%.2f, %s) failed: %v", tt.target, tt.betType, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WinChance(%.2f, %s) = %.4f, want %.4f", tt.target, tt.betType, got, tt.want)
		}
	}

	if _, err := g.WinChance(0, models.BetUnder); err == nil {
		t.Error("target 0 accepted")
	}
	if _, err := g.WinChance(100, models.BetOver); err == nil {
		t.Error("target 100 accepted")
	}
}

func TestMultiplierClamping(t *testing.T) {
	g := newGame(t)

	// target 50 under: raw chance 50 -> multiplier 2.0
	if m := g.Multiplier(50, models.BetUnder); math.Abs(m-2.0) > 1e-9 {
		t.Errorf("Multiplier(50, under) = %.4f, want 2.0", m)
	}
	// Very high win chance clamps at the minimum multiplier.
	if m := g.Multiplier(99.99, models.BetUnder); m != models.MinMultiplier {
		t.Errorf("Multiplier(99.99, under) = %.4f, want %.2f", m, models.MinMultiplier)
	}
	// Very low win chance clamps at the maximum multiplier.
	if m := g.Multiplier(0.01, models.BetUnder); m != models.MaxMultiplier {
		t.Errorf("Multiplier(0.01, under) = %.4f, want %.2f", m, models.MaxMultiplier)
	}
}

func TestTargetForMultiplierRoundTrip(t *testing.T) {
	g := newGame(t)

	for _, mult := range []float64{1.5, 2.0, 4.0, 10.0} {
		for _, bt := range []models.BetType{models.BetUnder, models.BetOver} {
			target := g.TargetForMultiplier(mult, bt)
			back := g.Multiplier(target, bt)
			if math.Abs(back-mult) > 0.01 {
				t.Errorf("round trip %.2f %s: target %.2f -> %.4f", mult, bt, target, back)
			}
		}
	}
}

func TestResolveValidation(t *testing.T) {
	g := newGame(t)
	balance := decimal.NewFromInt(10)

	nonceBefore := g.Generator().Nonce()

	cases := []struct {
		name   string
		amount decimal.Decimal
		target float64
	}{
		{"below minimum", decimal.RequireFromString("0.0000001"), 50},
		{"above maximum", decimal.NewFromInt(10000), 50},
		{"above balance", decimal.NewFromInt(11), 50},
		{"bad target", decimal.NewFromInt(1), 0},
	}

	for _, tc := range cases {
		_, err := g.Resolve(tc.amount, tc.target, models.BetUnder, balance)
		if !errors.Is(err, models.ErrInvalidParameter) {
			t.Errorf("%s: err = %v, want ErrInvalidParameter", tc.name, err)
		}
	}

	// Rejected bets must not consume a nonce.
	if g.Generator().Nonce() != nonceBefore {
		t.Errorf("rejected bets consumed a nonce: %d -> %d", nonceBefore, g.Generator().Nonce())
	}
}

func TestResolveKnownRoll(t *testing.T) {
	// test_server/test_client nonce 0 rolls 4.43: a bet under 50 wins.
	g := newGame(t)
	stake := decimal.NewFromInt(1)

	out, err := g.Resolve(stake, 50, models.BetUnder, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if math.Abs(out.Roll-4.43) >= fair.Tolerance {
		t.Errorf("roll = %.2f, want 4.43", out.Roll)
	}
	if !out.Won {
		t.Error("roll 4.43 under 50 should win")
	}
	if out.Nonce != 0 {
		t.Errorf("outcome nonce = %d, want 0", out.Nonce)
	}
	if out.ClientSeed != "test_client" {
		t.Errorf("client seed = %q", out.ClientSeed)
	}

	want := stake.Mul(decimal.NewFromFloat(2.0))
	if !out.Payout.Equal(want) {
		t.Errorf("payout = %s, want %s", out.Payout, want)
	}
	// A single win at ~2x raises the balance by roughly the stake.
	if !out.Profit().Equal(stake) {
		t.Errorf("profit = %s, want %s", out.Profit(), stake)
	}
}

func TestExpectedValueNegative(t *testing.T) {
	g := newGame(t)
	amount := decimal.NewFromInt(1)

	// EV must be ~ -house_edge * amount (within 0.5%) for every valid bet.
	for _, target := range []float64{5, 25, 50, 75, 95} {
		for _, bt := range []models.BetType{models.BetUnder, models.BetOver} {
			ev, err := g.ExpectedValue(amount, target, bt)
			if err != nil {
				t.Fatalf("ExpectedValue(%.2f, %s) failed: %v", target, bt, err)
			}
			if !ev.IsNegative() {
				t.Errorf("EV(%.2f, %s) = %s, want negative", target, bt, ev)
			}

			evf, _ := ev.Float64()
			if math.Abs(evf+models.HouseEdge) > 0.005 {
				t.Errorf("EV(%.2f, %s) = %.6f, want ~%.2f", target, bt, evf, -models.HouseEdge)
			}
		}
	}
}

func TestKellyStake(t *testing.T) {
	g := newGame(t)
	bankroll := decimal.NewFromInt(100)

	// House-edge games have negative edge everywhere: Kelly says don't bet.
	stake, err := g.KellyStake(bankroll, 50, models.BetUnder)
	if err != nil {
		t.Fatalf("KellyStake failed: %v", err)
	}
	if !stake.IsZero() {
		t.Errorf("Kelly stake = %s, want 0 for negative-EV bet", stake)
	}
}
