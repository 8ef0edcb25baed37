package models

import "github.com/shopspring/decimal"

// Bitsler-compatible dice constants.
const (
	HouseEdge     = 0.01 // 1%
	MinMultiplier = 1.01
	MaxMultiplier = 99.0

	MinTarget = 0.01
	MaxTarget = 99.99

	DefaultTarget = 50.0

	// Vault/bankroll management
	DefaultVaultRatio           = 0.85 // 85% kept in reserve
	DefaultSessionBankrollRatio = 0.15 // 15% of bankroll per session

	// Session limits
	DefaultStopLoss           = -0.50 // -50% of session bankroll
	DefaultTakeProfit         = 1.00  // +100% of session bankroll
	DefaultMaxBetsPerSession  = 1000
	DefaultBetHistoryLimit    = 20
	DefaultCheckpointInterval = 100
)

var (
	// MinBet / MaxBet are the absolute table limits in LTC.
	MinBet = decimal.RequireFromString("0.00015")
	MaxBet = decimal.NewFromInt(1000)
)
