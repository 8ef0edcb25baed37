// Package engine runs strategies against the dice game: single
// sessions, sequential batches and parallel batches, with vault
// settlement and event emission.
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/session"
	"github.com/ShakaTry/DiceBot/internal/sink"
	"github.com/ShakaTry/DiceBot/internal/strategy"
	"github.com/ShakaTry/DiceBot/internal/vault"
)

// maxConsecutiveSkips bounds skip loops that take no action, so a
// strategy that refuses to bet cannot stall a session forever.
const maxConsecutiveSkips = 100

// SessionResult is one finished session: its allocation, final balance
// and the state it ended with.
type SessionResult struct {
	SessionID  string             `json:"session_id"`
	Strategy   string             `json:"strategy"`
	StopReason session.StopReason `json:"stop_reason"`
	Allocated  decimal.Decimal    `json:"allocated"`
	Final      decimal.Decimal    `json:"final"`
	State      *models.GameState  `json:"state"`
}

// Profit is the session's net result.
func (r SessionResult) Profit() decimal.Decimal {
	return r.Final.Sub(r.Allocated)
}

// Options carries the optional engine collaborators. Zero values fall
// back to no-ops.
type Options struct {
	Sink   sink.EventSink
	Alert  sink.AlertFunc
	Logger *zap.Logger

	// Checkpoint, when set, receives all completed results every
	// models.DefaultCheckpointInterval sessions of a sequential batch.
	Checkpoint func(completed []SessionResult)
}

// Engine drives one strategy through sessions funded by the vault.
// Not concurrency-safe; parallel runs build one engine per worker.
type Engine struct {
	game  *dice.Game
	strat strategy.Strategy
	vault *vault.Vault
	cfg   models.SessionConfig

	sink       sink.EventSink
	alert      sink.AlertFunc
	log        *zap.Logger
	checkpoint func(completed []SessionResult)
}

func New(game *dice.Game, strat strategy.Strategy, vlt *vault.Vault, cfg models.SessionConfig, opts Options) *Engine {
	if opts.Sink == nil {
		opts.Sink = sink.NopSink{}
	}
	if opts.Alert == nil {
		opts.Alert = func(string, string, sink.Severity) {}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		game:       game,
		strat:      strat,
		vault:      vlt,
		cfg:        cfg,
		sink:       opts.Sink,
		alert:      opts.Alert,
		log:        opts.Logger,
		checkpoint: opts.Checkpoint,
	}
}

// RunSession allocates a bankroll from the vault, runs one session to
// its stop rule and settles the result back.
func (e *Engine) RunSession(ctx context.Context) (SessionResult, error) {
	alloc, err := e.vault.AllocateSessionBankroll()
	if err != nil {
		return SessionResult{}, fmt.Errorf("funding session: %w", err)
	}

	// A cancelled session still settles, so the allocation is never lost.
	result, runErr := e.runWithBankroll(ctx, alloc)

	if err := e.vault.ReturnSessionResult(alloc, result.Final); err != nil {
		e.alert("vault", fmt.Sprintf("session %s settlement failed: %v", result.SessionID, err), sink.SeverityCritical)
		return result, fmt.Errorf("settling session %s: %w", result.SessionID, err)
	}
	return result, runErr
}

// runWithBankroll runs one session on a fixed bankroll without touching
// the vault. Parallel workers fold their results in afterwards.
func (e *Engine) runWithBankroll(ctx context.Context, bankroll decimal.Decimal) (SessionResult, error) {
	sess := session.New(bankroll, e.cfg)
	state := sess.State

	e.sink.SessionStart(sess.ID, e.strat.Name(), bankroll)
	e.log.Debug("session started",
		zap.String("session_id", sess.ID),
		zap.String("strategy", e.strat.Name()),
		zap.String("bankroll", bankroll.String()),
	)

	skips := 0
	for !sess.Ended() {
		if err := ctx.Err(); err != nil {
			sess.End(session.StopCancelled)
			return e.finish(sess, bankroll), err
		}

		state.CurrentNonce = e.game.Generator().Nonce()
		decision := e.strat.Decide(state)
		e.sink.BetDecision(sess.ID, state.BetsCount, decision)

		if decision.Skip {
			switch decision.Action {
			case models.ActionRotateSeed:
				if _, err := e.game.Generator().Rotate(); err != nil {
					e.sink.Error(sess.ID, err)
					e.log.Warn("seed rotation failed",
						zap.String("session_id", sess.ID),
						zap.Error(err),
					)
				} else {
					state.SeedRotations++
					state.CurrentNonce = 0
				}
				skips = 0
			case models.ActionToggleBetType:
				state.CurrentBetType = state.CurrentBetType.Toggle()
				state.BetTypeToggles++
				skips = 0
			default:
				if state.Balance.LessThan(e.game.Config().MinBet) {
					sess.End(session.StopInsufficientBalance)
					continue
				}
				skips++
				if skips >= maxConsecutiveSkips {
					e.log.Warn("session stalled on skips",
						zap.String("session_id", sess.ID),
						zap.String("strategy", e.strat.Name()),
					)
					sess.End(session.StopStalled)
				}
			}
			e.drainStrategyEvents(sess.ID)
			continue
		}
		skips = 0

		outcome, err := e.game.Resolve(decision.Amount, decision.Target, decision.BetType, state.Balance)
		if err != nil {
			e.sink.Error(sess.ID, err)
			e.log.Warn("bet rejected",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			sess.End(session.StopInsufficientBalance)
			continue
		}
		outcome.Parking = decision.Action == models.ActionForcedParkingBet

		sess.Apply(outcome)
		e.strat.Update(outcome)
		e.sink.BetResult(sess.ID, state.BetsCount, outcome)
		e.drainStrategyEvents(sess.ID)
	}

	return e.finish(sess, bankroll), nil
}

func (e *Engine) finish(sess *session.Session, bankroll decimal.Decimal) SessionResult {
	state := sess.State
	e.sink.SessionEnd(sess.ID, string(sess.StopReason()), state)
	e.log.Info("session ended",
		zap.String("session_id", sess.ID),
		zap.String("strategy", e.strat.Name()),
		zap.String("stop_reason", string(sess.StopReason())),
		zap.Int("bets", state.BetsCount),
		zap.String("profit", state.Balance.Sub(bankroll).String()),
	)
	return SessionResult{
		SessionID:  sess.ID,
		Strategy:   e.strat.Name(),
		StopReason: sess.StopReason(),
		Allocated:  bankroll,
		Final:      state.Balance,
		State:      state,
	}
}

// drainStrategyEvents forwards pending adaptive switch events to the
// sink, alerting on failed switches.
func (e *Engine) drainStrategyEvents(sessionID string) {
	src, ok := e.strat.(interface{ TakeEvents() []strategy.SwitchEvent })
	if !ok {
		return
	}
	for _, ev := range src.TakeEvents() {
		msg := fmt.Sprintf("switch %s -> %s on %s", ev.From, ev.To, ev.Condition)
		if ev.Failed {
			msg = fmt.Sprintf("switch %s -> %s on %s failed: %s", ev.From, ev.To, ev.Condition, ev.Reason)
			e.alert("strategy_switch", msg, sink.SeverityWarning)
		}
		e.sink.StrategyEvent(sessionID, e.strat.Name(), msg)
	}
}

// RunSessions runs up to n sessions back to back, resetting the
// strategy between sessions when asked. It halts early when the vault
// can no longer fund a session.
func (e *Engine) RunSessions(ctx context.Context, n int, resetBetween bool) ([]SessionResult, error) {
	results := make([]SessionResult, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !e.vault.CanStartSession() {
			e.log.Info("vault exhausted, halting batch",
				zap.Int("completed", len(results)),
				zap.Int("requested", n),
			)
			break
		}
		if resetBetween && i > 0 {
			e.strat.Reset()
		}

		result, err := e.RunSession(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if e.checkpoint != nil && len(results)%models.DefaultCheckpointInterval == 0 {
			e.checkpoint(results)
		}
	}
	return results, nil
}
