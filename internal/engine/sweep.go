package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/strategy"
)

// SweepPoint is one grid point of a parameter sweep: the value tried,
// the full config it produced and its aggregate summary.
type SweepPoint struct {
	Value    float64         `json:"value"`
	Strategy strategy.Config `json:"strategy"`
	Summary  Summary         `json:"summary"`
}

// Sweep holds a parameter sweep's results, one point per tried value.
type Sweep struct {
	Parameter string          `json:"parameter"`
	Capital   decimal.Decimal `json:"capital"`
	Sessions  int             `json:"sessions"`

	Points    []SweepPoint `json:"points"`
	BestValue float64      `json:"best_value"`

	GeneratedAt time.Time `json:"generated_at"`
}

// RunParameterSweep varies one parameter of a base strategy config over
// a value grid, running each variant under identical starting
// conditions. Points keep the input order; BestValue is the value with
// the highest total profit. A value the factory rejects fails the whole
// sweep, so a bad grid surfaces immediately.
func RunParameterSweep(ctx context.Context, game models.GameConfig, base strategy.Config, parameter string, values []float64, capital decimal.Decimal, sessCfg models.SessionConfig, sessions int, opts Options) (*Sweep, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sweep needs at least one value", models.ErrInvalidParameter)
	}

	sw := &Sweep{
		Parameter:   parameter,
		Capital:     capital,
		Sessions:    sessions,
		GeneratedAt: time.Now(),
	}

	var best decimal.Decimal
	for i, value := range values {
		cfg, err := sweepConfig(base, parameter, value)
		if err != nil {
			return nil, err
		}

		eng, _, err := buildEngine(game, cfg, capital, sessCfg, opts)
		if err != nil {
			return nil, fmt.Errorf("%s=%v: %w", parameter, value, err)
		}

		results, err := eng.RunSessions(ctx, sessions, true)
		if err != nil {
			return sw, err
		}

		point := SweepPoint{
			Value:    value,
			Strategy: cfg,
			Summary:  Summarize(results),
		}
		sw.Points = append(sw.Points, point)

		if i == 0 || point.Summary.TotalProfit.GreaterThan(best) {
			best = point.Summary.TotalProfit
			sw.BestValue = value
		}
	}
	return sw, nil
}

// sweepConfig applies one grid value to a copy of the base config.
func sweepConfig(base strategy.Config, parameter string, value float64) (strategy.Config, error) {
	cfg := base
	switch parameter {
	case "base_bet":
		cfg.BaseBet = decimal.NewFromFloat(value)
	case "target":
		cfg.Target = value
	case "multiplier":
		cfg.Multiplier = value
	case "max_losses":
		cfg.MaxLosses = int(value)
	case "target_wins":
		cfg.TargetWins = int(value)
	default:
		return cfg, fmt.Errorf("%w: unknown sweep parameter %q", models.ErrInvalidParameter, parameter)
	}
	return cfg, nil
}
