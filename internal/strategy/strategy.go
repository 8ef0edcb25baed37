// Package strategy implements the betting strategy family: flat and
// progression strategies, composites, rule-based adaptive switching and
// the parking wrapper that protects capital during losing streaks.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/models"
)

// Strategy decides the next bet from the session state and folds resolved
// outcomes back into its own progression state. Implementations are not
// concurrency-safe; parallel runs rebuild one per worker from Config.
type Strategy interface {
	Decide(state *models.GameState) models.BetDecision
	Update(outcome models.Outcome)
	Reset()
	Name() string
	Config() Config
}

// SwitchRule is one adaptive trigger: when Condition crosses Threshold,
// switch to the Target strategy. Cooldown is the number of bets the
// outgoing strategy stays unavailable after a switch.
type SwitchRule struct {
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
	Target    string  `json:"target"`
	Cooldown  int     `json:"cooldown,omitempty"`
}

// Switch rule conditions.
const (
	CondConsecutiveLosses = "consecutive_losses"
	CondConsecutiveWins   = "consecutive_wins"
	CondDrawdown          = "drawdown"
	CondProfit            = "profit"
	CondConfidenceBelow   = "confidence_below"
	CondBalanceRatioBelow = "balance_ratio_below"
)

// ParkingConfig tunes the capital-protection wrapper.
type ParkingConfig struct {
	OnConsecutiveLosses int     `json:"on_consecutive_losses"`
	OnDrawdown          float64 `json:"on_drawdown"`
	ParkingTarget       float64 `json:"parking_target"`
	MaxToggles          int     `json:"max_toggles"`
	RotateNonceAge      int64   `json:"rotate_nonce_age"`
	RotateOnLosses      int     `json:"rotate_on_losses"`
}

// Parking defaults.
const (
	DefaultParkingOnLosses   = 5
	DefaultParkingOnDrawdown = 0.10
	DefaultParkingTarget     = 98.0
	DefaultMaxToggles        = 3
	DefaultRotateNonceAge    = 1000
	DefaultRotateOnLosses    = 10
)

// Config is the serializable description of a strategy tree. The factory
// rebuilds a strategy from it, which is how parallel workers clone
// strategies and how the HTTP API accepts them.
type Config struct {
	Name    string          `json:"name"`
	BaseBet decimal.Decimal `json:"base_bet"`
	Target  float64         `json:"target"`
	BetType models.BetType  `json:"bet_type"`

	// Progression parameters.
	Multiplier float64 `json:"multiplier,omitempty"`
	MaxLosses  int     `json:"max_losses,omitempty"`
	TargetWins int     `json:"target_wins,omitempty"`

	// Composite parameters.
	Mode        string    `json:"mode,omitempty"`
	Weights     []float64 `json:"weights,omitempty"`
	Quorum      float64   `json:"quorum,omitempty"`
	RotateEvery int       `json:"rotate_every,omitempty"`
	Components  []Config  `json:"components,omitempty"`

	// Adaptive parameters.
	Strategies          []Config     `json:"strategies,omitempty"`
	Initial             string       `json:"initial,omitempty"`
	Rules               []SwitchRule `json:"rules,omitempty"`
	MinBetsBeforeSwitch int          `json:"min_bets_before_switch,omitempty"`

	// Parking parameters.
	Base    *Config        `json:"base,omitempty"`
	Parking *ParkingConfig `json:"parking,omitempty"`
}

// base carries the shared decision plumbing: the balance floor check,
// stake clamping and the confidence signal every variant embeds.
type base struct {
	cfg        Config
	game       models.GameConfig
	confidence float64
}

func newBase(cfg Config, game models.GameConfig) base {
	return base{cfg: cfg, game: game, confidence: 1.0}
}

func clampConfidence(c float64) float64 {
	if c < 0.1 {
		return 0.1
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}

var drawdownPenaltyThreshold = decimal.NewFromFloat(0.10)

// decision clamps the stake to the table limits and the balance, and
// fills the shared decision fields. A balance below the minimum bet
// yields a skip.
func (b *base) decision(state *models.GameState, amount decimal.Decimal, reason string) models.BetDecision {
	if state.Balance.LessThan(b.game.MinBet) {
		return models.BetDecision{
			Skip:   true,
			Reason: "balance below minimum bet",
		}
	}

	if amount.LessThan(b.game.MinBet) {
		amount = b.game.MinBet
	}
	if amount.GreaterThan(b.game.MaxBet) {
		amount = b.game.MaxBet
	}
	if amount.GreaterThan(state.Balance) {
		amount = state.Balance
	}

	conf := b.confidence
	if state.CurrentDrawdown.GreaterThan(drawdownPenaltyThreshold) {
		conf *= 0.9
	}

	betType := state.CurrentBetType
	return models.BetDecision{
		Amount:     amount,
		Target:     b.cfg.Target,
		BetType:    betType,
		Multiplier: dice.MultiplierFor(b.cfg.Target, betType),
		Confidence: clampConfidence(conf),
		Reason:     reason,
	}
}

// observe folds a resolved outcome into the confidence signal.
func (b *base) observe(o models.Outcome) {
	if o.Won {
		b.confidence *= 1.05
	} else {
		b.confidence *= 0.95
	}
	b.confidence = clampConfidence(b.confidence)
}

func (b *base) resetBase() {
	b.confidence = 1.0
}

// Confidence is the current confidence signal, clamped to [0.1, 1].
func (b *base) Confidence() float64 {
	return b.confidence
}

// carryConfidence scales the signal, used when an adaptive switch hands
// momentum to the incoming strategy.
func (b *base) carryConfidence(factor float64) {
	b.confidence = clampConfidence(b.confidence * factor)
}

func (b *base) Config() Config {
	return b.cfg
}
