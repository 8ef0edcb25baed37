package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GameConfig holds the dice table rules.
type GameConfig struct {
	HouseEdge float64         `json:"house_edge"`
	MinBet    decimal.Decimal `json:"min_bet"`
	MaxBet    decimal.Decimal `json:"max_bet"`
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		HouseEdge: HouseEdge,
		MinBet:    MinBet,
		MaxBet:    MaxBet,
	}
}

// VaultConfig describes the reserve/bankroll capital split.
type VaultConfig struct {
	TotalCapital         decimal.Decimal `json:"total_capital"`
	VaultRatio           float64         `json:"vault_ratio"`
	SessionBankrollRatio float64         `json:"session_bankroll_ratio"`
}

func DefaultVaultConfig(totalCapital decimal.Decimal) VaultConfig {
	return VaultConfig{
		TotalCapital:         totalCapital,
		VaultRatio:           DefaultVaultRatio,
		SessionBankrollRatio: DefaultSessionBankrollRatio,
	}
}

func (vc VaultConfig) Validate() error {
	if !vc.TotalCapital.IsPositive() {
		return fmt.Errorf("%w: total capital must be positive", ErrInvalidParameter)
	}
	if vc.VaultRatio < 0 || vc.VaultRatio >= 1 {
		return fmt.Errorf("%w: vault ratio must be in [0, 1)", ErrInvalidParameter)
	}
	if vc.SessionBankrollRatio <= 0 || vc.SessionBankrollRatio > 1 {
		return fmt.Errorf("%w: session bankroll ratio must be in (0, 1]", ErrInvalidParameter)
	}
	return nil
}

// VaultAmount is the reserve portion of the total capital, rounded to two
// decimal places the way deposits are split.
func (vc VaultConfig) VaultAmount() decimal.Decimal {
	return vc.TotalCapital.Mul(decimal.NewFromFloat(vc.VaultRatio)).Round(2)
}

func (vc VaultConfig) BankrollAmount() decimal.Decimal {
	return vc.TotalCapital.Sub(vc.VaultAmount())
}

// SessionConfig holds per-session stop rules. Zero-valued thresholds disable
// the corresponding rule except MaxBets, which always applies.
type SessionConfig struct {
	StopLoss             float64         `json:"stop_loss"`   // ROI threshold, e.g. -0.5
	TakeProfit           float64         `json:"take_profit"` // ROI threshold, e.g. 1.0
	MaxBets              int             `json:"max_bets"`
	MaxConsecutiveLosses int             `json:"max_consecutive_losses"`
	MinBalance           decimal.Decimal `json:"min_balance"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StopLoss:   DefaultStopLoss,
		TakeProfit: DefaultTakeProfit,
		MaxBets:    DefaultMaxBetsPerSession,
		MinBalance: MinBet,
	}
}
