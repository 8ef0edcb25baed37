package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/session"
)

// Summary aggregates a batch of finished sessions.
type Summary struct {
	Strategy string `json:"strategy"`
	Sessions int    `json:"sessions"`

	TotalBets    int             `json:"total_bets"`
	TotalWagered decimal.Decimal `json:"total_wagered"`
	TotalProfit  decimal.Decimal `json:"total_profit"`

	Profitable     int     `json:"profitable_sessions"`
	ProfitableRate float64 `json:"profitable_rate"`
	AvgWinRate     float64 `json:"avg_win_rate"`
	AvgROI         float64 `json:"avg_roi"`

	BestSession  decimal.Decimal `json:"best_session_profit"`
	WorstSession decimal.Decimal `json:"worst_session_profit"`

	MaxDrawdown float64 `json:"max_drawdown"`
	AvgDrawdown float64 `json:"avg_drawdown"`

	StopReasons map[session.StopReason]int `json:"stop_reasons"`

	ParkingBets   int             `json:"parking_bets"`
	ParkingLosses decimal.Decimal `json:"parking_losses"`
	SeedRotations int             `json:"seed_rotations"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Summarize folds a batch of session results into one summary. An empty
// batch yields a zero summary with no stop reasons.
func Summarize(results []SessionResult) Summary {
	s := Summary{
		Sessions:      len(results),
		TotalWagered:  decimal.Zero,
		TotalProfit:   decimal.Zero,
		BestSession:   decimal.Zero,
		WorstSession:  decimal.Zero,
		ParkingLosses: decimal.Zero,
		StopReasons:   make(map[session.StopReason]int),
		GeneratedAt:   time.Now(),
	}
	if len(results) == 0 {
		return s
	}
	s.Strategy = results[0].Strategy
	s.BestSession = results[0].Profit()
	s.WorstSession = results[0].Profit()

	var winRateSum, roiSum, ddSum float64
	for _, r := range results {
		state := r.State
		s.TotalBets += state.BetsCount
		s.TotalWagered = s.TotalWagered.Add(state.TotalWagered)

		profit := r.Profit()
		s.TotalProfit = s.TotalProfit.Add(profit)
		if profit.IsPositive() {
			s.Profitable++
		}
		if profit.GreaterThan(s.BestSession) {
			s.BestSession = profit
		}
		if profit.LessThan(s.WorstSession) {
			s.WorstSession = profit
		}

		winRateSum += state.WinRate()
		roiSum += state.SessionROI()

		dd, _ := state.MaxDrawdown.Float64()
		ddSum += dd
		if dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}

		s.StopReasons[r.StopReason]++
		s.ParkingBets += state.ParkingBets
		s.ParkingLosses = s.ParkingLosses.Add(state.ParkingLosses)
		s.SeedRotations += state.SeedRotations
	}

	n := float64(len(results))
	s.ProfitableRate = float64(s.Profitable) / n
	s.AvgWinRate = winRateSum / n
	s.AvgROI = roiSum / n
	s.AvgDrawdown = ddSum / n
	return s
}
