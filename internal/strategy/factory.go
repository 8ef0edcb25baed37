package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Strategy names accepted by the factory.
const (
	NameFlat       = "flat"
	NameMartingale = "martingale"
	NameFibonacci  = "fibonacci"
	NameDAlembert  = "dalembert"
	NameParoli     = "paroli"
	NameComposite  = "composite"
	NameAdaptive   = "adaptive"
	NameParking    = "parking"
)

// Names lists every strategy the factory can build.
func Names() []string {
	return []string{
		NameFlat, NameMartingale, NameFibonacci, NameDAlembert,
		NameParoli, NameComposite, NameAdaptive, NameParking,
	}
}

// New builds a strategy from its serialized config. Construction is
// fail-fast: invalid parameters and progressions whose worst case
// exceeds the table maximum are rejected here, never mid-session.
func New(cfg Config, game models.GameConfig) (Strategy, error) {
	cfg = withDefaults(cfg)

	switch cfg.Name {
	case NameFlat:
		if err := validateBaseBet(cfg, game); err != nil {
			return nil, err
		}
		return newFlat(cfg, game), nil

	case NameMartingale:
		if err := validateBaseBet(cfg, game); err != nil {
			return nil, err
		}
		if cfg.Multiplier <= 1 {
			return nil, fmt.Errorf("%w: martingale multiplier must be greater than 1, got %g",
				models.ErrInvalidParameter, cfg.Multiplier)
		}
		worst := cfg.BaseBet.Mul(decimal.NewFromFloat(math.Pow(cfg.Multiplier, float64(cfg.MaxLosses))))
		if worst.GreaterThan(game.MaxBet) {
			return nil, fmt.Errorf("%w: martingale worst case %s after %d losses exceeds max bet %s",
				models.ErrInvalidParameter, worst, cfg.MaxLosses, game.MaxBet)
		}
		return newMartingale(cfg, game), nil

	case NameFibonacci:
		if err := validateBaseBet(cfg, game); err != nil {
			return nil, err
		}
		seq := fibonacciSequence(cfg.BaseBet, cfg.MaxLosses)
		if worst := seq[len(seq)-1]; worst.GreaterThan(game.MaxBet) {
			return nil, fmt.Errorf("%w: fibonacci step %d stake %s exceeds max bet %s",
				models.ErrInvalidParameter, len(seq)-1, worst, game.MaxBet)
		}
		return newFibonacci(cfg, game), nil

	case NameDAlembert:
		if err := validateBaseBet(cfg, game); err != nil {
			return nil, err
		}
		worst := cfg.BaseBet.Mul(decimal.NewFromInt(int64(cfg.MaxLosses)))
		if worst.GreaterThan(game.MaxBet) {
			return nil, fmt.Errorf("%w: dalembert worst case %s at %d units exceeds max bet %s",
				models.ErrInvalidParameter, worst, cfg.MaxLosses, game.MaxBet)
		}
		return newDAlembert(cfg, game), nil

	case NameParoli:
		if err := validateBaseBet(cfg, game); err != nil {
			return nil, err
		}
		if cfg.Multiplier <= 1 {
			return nil, fmt.Errorf("%w: paroli multiplier must be greater than 1, got %g",
				models.ErrInvalidParameter, cfg.Multiplier)
		}
		if cfg.TargetWins < 1 {
			return nil, fmt.Errorf("%w: paroli target wins must be at least 1", models.ErrInvalidParameter)
		}
		return newParoli(cfg, game), nil

	case NameComposite:
		return newCompositeFromConfig(cfg, game)

	case NameAdaptive:
		return newAdaptiveFromConfig(cfg, game)

	case NameParking:
		if cfg.Base == nil {
			return nil, fmt.Errorf("%w: parking requires a wrapped strategy", models.ErrInvalidParameter)
		}
		inner, err := New(*cfg.Base, game)
		if err != nil {
			return nil, fmt.Errorf("parking wrapped strategy: %w", err)
		}
		if cfg.Parking != nil && cfg.Parking.ParkingTarget != 0 {
			if cfg.Parking.ParkingTarget < models.MinTarget || cfg.Parking.ParkingTarget > models.MaxTarget {
				return nil, fmt.Errorf("%w: parking target %g out of range",
					models.ErrInvalidParameter, cfg.Parking.ParkingTarget)
			}
		}
		return newParking(cfg, game, inner), nil

	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", models.ErrInvalidParameter, cfg.Name)
	}
}

func newCompositeFromConfig(cfg Config, game models.GameConfig) (Strategy, error) {
	if len(cfg.Components) == 0 {
		return nil, fmt.Errorf("%w: composite requires at least one component", models.ErrInvalidParameter)
	}
	switch cfg.Mode {
	case ModeAverage, ModeWeighted, ModeConsensus, ModeAggressive, ModeConservative, ModeRotate:
	default:
		return nil, fmt.Errorf("%w: unknown composite mode %q", models.ErrInvalidParameter, cfg.Mode)
	}
	if cfg.Mode == ModeWeighted && len(cfg.Weights) != len(cfg.Components) {
		return nil, fmt.Errorf("%w: weighted composite needs %d weights, got %d",
			models.ErrInvalidParameter, len(cfg.Components), len(cfg.Weights))
	}

	components := make([]Strategy, 0, len(cfg.Components))
	for i, c := range cfg.Components {
		comp, err := New(c, game)
		if err != nil {
			return nil, fmt.Errorf("composite component %d: %w", i, err)
		}
		components = append(components, comp)
	}
	return newComposite(cfg, game, components), nil
}

func newAdaptiveFromConfig(cfg Config, game models.GameConfig) (Strategy, error) {
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("%w: adaptive requires a strategy pool", models.ErrInvalidParameter)
	}

	pool := make(map[string]Strategy, len(cfg.Strategies))
	for i, c := range cfg.Strategies {
		st, err := New(c, game)
		if err != nil {
			return nil, fmt.Errorf("adaptive pool strategy %d: %w", i, err)
		}
		if _, dup := pool[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate strategy %q in adaptive pool", models.ErrInvalidParameter, c.Name)
		}
		pool[c.Name] = st
	}

	if _, ok := pool[cfg.Initial]; !ok {
		return nil, fmt.Errorf("%w: initial strategy %q not in pool", models.ErrInvalidParameter, cfg.Initial)
	}
	for i, rule := range cfg.Rules {
		switch rule.Condition {
		case CondConsecutiveLosses, CondConsecutiveWins, CondDrawdown,
			CondProfit, CondConfidenceBelow, CondBalanceRatioBelow:
		default:
			return nil, fmt.Errorf("%w: rule %d has unknown condition %q",
				models.ErrInvalidParameter, i, rule.Condition)
		}
	}
	return newAdaptive(cfg, pool), nil
}

func validateBaseBet(cfg Config, game models.GameConfig) error {
	if !cfg.BaseBet.IsPositive() {
		return fmt.Errorf("%w: base bet must be positive, got %s", models.ErrInvalidParameter, cfg.BaseBet)
	}
	if cfg.BaseBet.LessThan(game.MinBet) {
		return fmt.Errorf("%w: base bet %s below minimum %s", models.ErrInvalidParameter, cfg.BaseBet, game.MinBet)
	}
	if cfg.BaseBet.GreaterThan(game.MaxBet) {
		return fmt.Errorf("%w: base bet %s above maximum %s", models.ErrInvalidParameter, cfg.BaseBet, game.MaxBet)
	}
	if cfg.Target < models.MinTarget || cfg.Target > models.MaxTarget {
		return fmt.Errorf("%w: target %g out of range [%g, %g]",
			models.ErrInvalidParameter, cfg.Target, models.MinTarget, models.MaxTarget)
	}
	return nil
}

func withDefaults(cfg Config) Config {
	if cfg.Target == 0 {
		cfg.Target = models.DefaultTarget
	}
	if cfg.BetType == "" {
		cfg.BetType = models.BetUnder
	}
	if cfg.MaxLosses <= 0 {
		cfg.MaxLosses = 10
	}
	switch cfg.Name {
	case NameMartingale, NameParoli:
		if cfg.Multiplier == 0 {
			cfg.Multiplier = 2.0
		}
	}
	if cfg.Name == NameParoli && cfg.TargetWins == 0 {
		cfg.TargetWins = 3
	}
	if cfg.Name == NameComposite && cfg.Mode == "" {
		cfg.Mode = ModeAverage
	}
	return cfg
}
