package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/strategy"
	"github.com/ShakaTry/DiceBot/internal/vault"
)

// ComparisonEntry is one strategy's share of a comparison run.
type ComparisonEntry struct {
	Strategy     strategy.Config `json:"strategy"`
	Summary      Summary         `json:"summary"`
	Results      []SessionResult `json:"results"`
	FinalCapital decimal.Decimal `json:"final_capital"`
}

// Comparison ranks several strategies run under identical starting
// conditions.
type Comparison struct {
	Capital  decimal.Decimal `json:"capital"`
	Sessions int             `json:"sessions"`

	Entries []ComparisonEntry `json:"entries"`
	Best    string            `json:"best"`

	GeneratedAt time.Time `json:"generated_at"`
}

// RunComparison runs each strategy through its own vault with the same
// capital, session rules and requested session count, so the summaries
// are directly comparable. Entries keep the input order; Best names the
// strategy with the highest total profit.
func RunComparison(ctx context.Context, game models.GameConfig, cfgs []strategy.Config, capital decimal.Decimal, sessCfg models.SessionConfig, sessions int, opts Options) (*Comparison, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("%w: comparison needs at least one strategy", models.ErrInvalidParameter)
	}

	cmp := &Comparison{
		Capital:     capital,
		Sessions:    sessions,
		GeneratedAt: time.Now(),
	}

	var best decimal.Decimal
	for i, cfg := range cfgs {
		eng, vlt, err := buildEngine(game, cfg, capital, sessCfg, opts)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", cfg.Name, err)
		}

		results, err := eng.RunSessions(ctx, sessions, true)
		if err != nil {
			return cmp, err
		}

		entry := ComparisonEntry{
			Strategy:     cfg,
			Summary:      Summarize(results),
			Results:      results,
			FinalCapital: vlt.Total(),
		}
		cmp.Entries = append(cmp.Entries, entry)

		if i == 0 || entry.Summary.TotalProfit.GreaterThan(best) {
			best = entry.Summary.TotalProfit
			cmp.Best = cfg.Name
		}
	}
	return cmp, nil
}

// buildEngine assembles a fresh vault, generator and engine for one
// strategy config in a multi-run batch.
func buildEngine(game models.GameConfig, cfg strategy.Config, capital decimal.Decimal, sessCfg models.SessionConfig, opts Options) (*Engine, *vault.Vault, error) {
	strat, err := strategy.New(cfg, game)
	if err != nil {
		return nil, nil, err
	}
	vlt, err := vault.New(models.DefaultVaultConfig(capital))
	if err != nil {
		return nil, nil, err
	}
	gen, err := fair.New("", "")
	if err != nil {
		return nil, nil, err
	}
	return New(dice.New(game, gen), strat, vlt, sessCfg, opts), vlt, nil
}
