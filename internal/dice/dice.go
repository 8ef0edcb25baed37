// Package dice turns bet parameters into resolved outcomes using the
// provably fair generator.
package dice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/models"
)

type Game struct {
	cfg models.GameConfig
	gen *fair.Generator
}

func New(cfg models.GameConfig, gen *fair.Generator) *Game {
	return &Game{cfg: cfg, gen: gen}
}

// Generator exposes the underlying generator for seed management.
func (g *Game) Generator() *fair.Generator {
	return g.gen
}

// Config returns the table rules the game was built with.
func (g *Game) Config() models.GameConfig {
	return g.cfg
}

func validTarget(target float64) bool {
	return target >= models.MinTarget && target <= models.MaxTarget
}

// WinChance is the effective win probability in percent for the given
// target and side, house edge applied.
func (g *Game) WinChance(target float64, betType models.BetType) (float64, error) {
	if !validTarget(target) {
		return 0, fmt.Errorf("%w: target must be between %.2f and %.2f",
			models.ErrInvalidParameter, models.MinTarget, models.MaxTarget)
	}

	raw := target
	if betType == models.BetOver {
		raw = 100 - target
	}
	return raw * (1 - g.cfg.HouseEdge), nil
}

// Multiplier is the payout multiplier for the given target and side,
// clamped to the table limits.
func (g *Game) Multiplier(target float64, betType models.BetType) float64 {
	return MultiplierFor(target, betType)
}

// MultiplierFor is the payout multiplier for the given target and side,
// clamped to the table limits.
func MultiplierFor(target float64, betType models.BetType) float64 {
	raw := target
	if betType == models.BetOver {
		raw = 100 - target
	}
	if raw <= 0 {
		return models.MaxMultiplier
	}

	mult := 100 / raw
	if mult < models.MinMultiplier {
		mult = models.MinMultiplier
	}
	if mult > models.MaxMultiplier {
		mult = models.MaxMultiplier
	}
	return mult
}

// TargetForMultiplier converts a desired payout multiplier back to a
// target for the given side, clamped to the valid target range.
func (g *Game) TargetForMultiplier(multiplier float64, betType models.BetType) float64 {
	rawChance := 100 / multiplier

	target := rawChance
	if betType == models.BetOver {
		target = 100 - rawChance
	}

	if target < models.MinTarget {
		target = models.MinTarget
	}
	if target > models.MaxTarget {
		target = models.MaxTarget
	}
	return target
}

// Resolve validates the bet, draws one roll and returns the outcome with
// seed metadata attached. A rejected bet never consumes a nonce.
func (g *Game) Resolve(amount decimal.Decimal, target float64, betType models.BetType, balance decimal.Decimal) (models.Outcome, error) {
	if amount.LessThan(g.cfg.MinBet) {
		return models.Outcome{}, fmt.Errorf("%w: minimum bet is %s", models.ErrInvalidParameter, g.cfg.MinBet)
	}
	if amount.GreaterThan(g.cfg.MaxBet) {
		return models.Outcome{}, fmt.Errorf("%w: maximum bet is %s", models.ErrInvalidParameter, g.cfg.MaxBet)
	}
	if amount.GreaterThan(balance) {
		return models.Outcome{}, fmt.Errorf("%w: bet %s exceeds balance %s", models.ErrInvalidParameter, amount, balance)
	}
	if !validTarget(target) {
		return models.Outcome{}, fmt.Errorf("%w: target must be between %.2f and %.2f",
			models.ErrInvalidParameter, models.MinTarget, models.MaxTarget)
	}

	multiplier := g.Multiplier(target, betType)

	serverSeedHash := g.gen.CurrentServerSeedHash()
	clientSeed := g.gen.Current().ClientSeed
	nonce := g.gen.Nonce()

	roll := g.gen.Roll()

	var won bool
	if betType == models.BetOver {
		won = roll > target
	} else {
		won = roll < target
	}

	payout := decimal.Zero
	if won {
		payout = amount.Mul(decimal.NewFromFloat(multiplier))
	}

	return models.Outcome{
		Roll:           roll,
		Won:            won,
		Amount:         amount,
		Payout:         payout,
		BetType:        betType,
		Target:         target,
		Multiplier:     multiplier,
		ServerSeedHash: serverSeedHash,
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		Timestamp:      time.Now(),
	}, nil
}

// ExpectedValue is the expected profit of a bet. It is strictly negative
// for every valid target/side, approximately -house_edge * amount.
func (g *Game) ExpectedValue(amount decimal.Decimal, target float64, betType models.BetType) (decimal.Decimal, error) {
	chance, err := g.WinChance(target, betType)
	if err != nil {
		return decimal.Zero, err
	}
	multiplier := g.Multiplier(target, betType)

	expectedWin := amount.
		Mul(decimal.NewFromFloat(multiplier)).
		Mul(decimal.NewFromFloat(chance / 100))
	return expectedWin.Sub(amount), nil
}

// KellyStake is a capped fractional Kelly sizing helper: a quarter of the
// Kelly fraction, never more than 10% of the bankroll, zero when the edge
// is negative (which it always is here; the helper exists for strategies
// and tests reasoning about sizing).
func (g *Game) KellyStake(bankroll decimal.Decimal, target float64, betType models.BetType) (decimal.Decimal, error) {
	chance, err := g.WinChance(target, betType)
	if err != nil {
		return decimal.Zero, err
	}

	p := chance / 100
	q := 1 - p
	b := g.Multiplier(target, betType) - 1
	if b <= 0 {
		return decimal.Zero, nil
	}

	kelly := (b*p - q) / b
	if kelly <= 0 {
		return decimal.Zero, nil
	}

	safe := kelly * 0.25
	if safe > 0.1 {
		safe = 0.1
	}
	return bankroll.Mul(decimal.NewFromFloat(safe)), nil
}
