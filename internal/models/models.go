package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BetType string

const (
	BetUnder BetType = "under"
	BetOver  BetType = "over"
)

// Toggle returns the opposite bet type.
func (bt BetType) Toggle() BetType {
	if bt == BetUnder {
		return BetOver
	}
	return BetUnder
}

// Action is a non-standard decision a strategy can take instead of, or in
// addition to, a regular bet. RotateSeed and ToggleBetType do not consume a
// nonce; ForcedParkingBet is a real bet tracked separately as parking cost.
type Action string

const (
	ActionNone             Action = ""
	ActionRotateSeed       Action = "rotate_seed"
	ActionToggleBetType    Action = "toggle_bet_type"
	ActionForcedParkingBet Action = "forced_parking_bet"
)

// Outcome is one resolved bet with its provably-fair metadata attached.
type Outcome struct {
	Roll       float64         `json:"roll"`
	Won        bool            `json:"won"`
	Amount     decimal.Decimal `json:"amount"`
	Payout     decimal.Decimal `json:"payout"`
	BetType    BetType         `json:"bet_type"`
	Target     float64         `json:"target"`
	Multiplier float64         `json:"multiplier"`

	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          int64  `json:"nonce"`

	Parking   bool      `json:"parking,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Profit is payout minus stake (negative on a loss).
func (o Outcome) Profit() decimal.Decimal {
	return o.Payout.Sub(o.Amount)
}

// BetDecision is what a strategy returns: either a bet to place or an
// alternate action with Skip set.
type BetDecision struct {
	Amount     decimal.Decimal `json:"amount"`
	Target     float64         `json:"target"`
	BetType    BetType         `json:"bet_type"`
	Multiplier float64         `json:"multiplier"`
	Confidence float64         `json:"confidence"`

	Skip   bool   `json:"skip,omitempty"`
	Action Action `json:"action,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// GameState is the running state of one session's betting loop.
type GameState struct {
	Balance      decimal.Decimal `json:"balance"`
	StartBalance decimal.Decimal `json:"start_balance"`

	BetsCount   int `json:"bets_count"`
	WinsCount   int `json:"wins_count"`
	LossesCount int `json:"losses_count"`

	TotalWagered decimal.Decimal `json:"total_wagered"`
	TotalProfit  decimal.Decimal `json:"total_profit"`

	MaxBalance decimal.Decimal `json:"max_balance"`
	MinBalance decimal.Decimal `json:"min_balance"`

	ConsecutiveWins      int `json:"consecutive_wins"`
	ConsecutiveLosses    int `json:"consecutive_losses"`
	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	// Drawdown ratios relative to the session peak balance.
	CurrentDrawdown decimal.Decimal `json:"current_drawdown"`
	MaxDrawdown     decimal.Decimal `json:"max_drawdown"`

	// Bounded recent-outcome history, oldest first.
	History      []Outcome `json:"-"`
	HistoryLimit int       `json:"-"`

	CurrentBetType BetType `json:"current_bet_type"`
	CurrentTarget  float64 `json:"current_target"`

	// Parking & provably-fair bookkeeping.
	ParkingBets    int             `json:"parking_bets"`
	ParkingLosses  decimal.Decimal `json:"parking_losses"`
	SeedRotations  int             `json:"seed_rotations"`
	BetTypeToggles int             `json:"bet_type_toggles"`

	// CurrentNonce mirrors the generator's nonce; the engine refreshes it
	// before every decision so strategies can reason about seed age.
	CurrentNonce int64 `json:"current_nonce"`

	StartedAt time.Time `json:"started_at"`
}

func NewGameState(balance decimal.Decimal) *GameState {
	return &GameState{
		Balance:        balance,
		StartBalance:   balance,
		MaxBalance:     balance,
		MinBalance:     balance,
		TotalWagered:   decimal.Zero,
		TotalProfit:    decimal.Zero,
		ParkingLosses:  decimal.Zero,
		HistoryLimit:   DefaultBetHistoryLimit,
		CurrentBetType: BetUnder,
		CurrentTarget:  DefaultTarget,
		StartedAt:      time.Now(),
	}
}

// Apply folds one resolved outcome into the state.
func (gs *GameState) Apply(o Outcome) {
	gs.BetsCount++
	gs.TotalWagered = gs.TotalWagered.Add(o.Amount)

	gs.History = append(gs.History, o)
	if gs.HistoryLimit > 0 && len(gs.History) > gs.HistoryLimit {
		gs.History = gs.History[1:]
	}

	profit := o.Profit()
	gs.Balance = gs.Balance.Add(profit)
	gs.TotalProfit = gs.TotalProfit.Add(profit)

	if o.Won {
		gs.WinsCount++
		gs.ConsecutiveWins++
		gs.ConsecutiveLosses = 0
		if gs.ConsecutiveWins > gs.MaxConsecutiveWins {
			gs.MaxConsecutiveWins = gs.ConsecutiveWins
		}
	} else {
		gs.LossesCount++
		gs.ConsecutiveLosses++
		gs.ConsecutiveWins = 0
		if gs.ConsecutiveLosses > gs.MaxConsecutiveLosses {
			gs.MaxConsecutiveLosses = gs.ConsecutiveLosses
		}
	}

	if o.Parking {
		gs.ParkingBets++
		if !o.Won {
			gs.ParkingLosses = gs.ParkingLosses.Add(o.Amount)
		}
	}

	if gs.Balance.GreaterThan(gs.MaxBalance) {
		gs.MaxBalance = gs.Balance
	}
	if gs.Balance.LessThan(gs.MinBalance) {
		gs.MinBalance = gs.Balance
	}

	if gs.Balance.LessThan(gs.MaxBalance) && gs.MaxBalance.IsPositive() {
		gs.CurrentDrawdown = gs.MaxBalance.Sub(gs.Balance).Div(gs.MaxBalance)
		if gs.CurrentDrawdown.GreaterThan(gs.MaxDrawdown) {
			gs.MaxDrawdown = gs.CurrentDrawdown
		}
	} else {
		gs.CurrentDrawdown = decimal.Zero
	}
}

// WinRate is wins over total bets, 0 before the first bet.
func (gs *GameState) WinRate() float64 {
	if gs.BetsCount == 0 {
		return 0
	}
	return float64(gs.WinsCount) / float64(gs.BetsCount)
}

// ROI is total profit over total wagered.
func (gs *GameState) ROI() float64 {
	if gs.TotalWagered.IsZero() {
		return 0
	}
	f, _ := gs.TotalProfit.Div(gs.TotalWagered).Float64()
	return f
}

// SessionROI is profit relative to the session start balance.
func (gs *GameState) SessionROI() float64 {
	if gs.StartBalance.IsZero() {
		return 0
	}
	f, _ := gs.Balance.Sub(gs.StartBalance).Div(gs.StartBalance).Float64()
	return f
}
