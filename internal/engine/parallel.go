package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/sink"
	"github.com/ShakaTry/DiceBot/internal/strategy"
)

// maxWorkers caps parallel fan-out regardless of the machine size.
const maxWorkers = 4

// workerCount clamps the requested worker count to [1, min(4, GOMAXPROCS)].
func workerCount(requested int) int {
	limit := maxWorkers
	if procs := runtime.GOMAXPROCS(0); procs < limit {
		limit = procs
	}
	if requested < 1 || requested > limit {
		return limit
	}
	return requested
}

// splitBatches partitions n sessions into near-equal batches, one per
// worker, dropping workers that would receive nothing.
func splitBatches(n, workers int) []int {
	if workers > n {
		workers = n
	}
	batches := make([]int, workers)
	for i := range batches {
		batches[i] = n / workers
		if i < n%workers {
			batches[i]++
		}
	}
	return batches
}

// RunParallel runs n sessions across up to `workers` goroutines. Every
// worker gets a fresh engine with its own independently seeded
// generator and a strategy rebuilt from the serialized config, so
// workers never share mutable state. Sessions run against fixed-size
// bankrolls; vault settlement happens once after all workers join, in
// completion order. A panicking worker loses its batch: the loss is
// logged and alerted, the other batches survive.
func (e *Engine) RunParallel(ctx context.Context, n, workers int) ([]SessionResult, error) {
	if n <= 0 {
		return nil, nil
	}
	workers = workerCount(workers)
	batches := splitBatches(n, workers)

	alloc := e.vault.SessionAllocationSize()
	if !alloc.IsPositive() {
		return nil, fmt.Errorf("%w: bankroll too small to fund a parallel run", models.ErrInsufficientFunds)
	}

	type workerDone struct {
		worker  int
		results []SessionResult
		err     error
	}
	done := make(chan workerDone, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(worker, batch int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.log.Error("worker panicked, batch lost",
						zap.Int("worker", worker),
						zap.Int("batch", batch),
						zap.Any("panic", r),
					)
					e.alert("worker_panic",
						fmt.Sprintf("worker %d lost a batch of %d sessions: %v", worker, batch, r),
						sink.SeverityCritical)
					done <- workerDone{worker: worker, err: fmt.Errorf("worker %d panicked: %v", worker, r)}
				}
			}()

			we, err := e.workerEngine()
			if err != nil {
				done <- workerDone{worker: worker, err: err}
				return
			}

			results := make([]SessionResult, 0, batch)
			for s := 0; s < batch; s++ {
				if ctx.Err() != nil {
					break
				}
				result, err := we.runWithBankroll(ctx, alloc)
				if err != nil {
					break
				}
				results = append(results, result)
			}
			done <- workerDone{worker: worker, results: results}
		}(i, batch)
	}
	wg.Wait()
	close(done)

	// Fold completed sessions into the vault in completion order.
	var all []SessionResult
	for d := range done {
		if d.err != nil {
			continue
		}
		for _, result := range d.results {
			if err := e.vault.FundSession(alloc); err != nil {
				e.alert("vault", fmt.Sprintf("folding session %s: %v", result.SessionID, err), sink.SeverityCritical)
				all = append(all, result)
				continue
			}
			if err := e.vault.ReturnSessionResult(alloc, result.Final); err != nil {
				e.alert("vault", fmt.Sprintf("settling session %s: %v", result.SessionID, err), sink.SeverityCritical)
			}
			all = append(all, result)
		}
	}

	e.log.Info("parallel run finished",
		zap.Int("requested", n),
		zap.Int("completed", len(all)),
		zap.Int("workers", len(batches)),
	)
	return all, ctx.Err()
}

// workerEngine clones the engine for one worker: same table rules and
// options, fresh random seeds, strategy rebuilt from its config.
func (e *Engine) workerEngine() (*Engine, error) {
	gen, err := fair.New("", "")
	if err != nil {
		return nil, fmt.Errorf("seeding worker generator: %w", err)
	}
	strat, err := strategy.New(e.strat.Config(), e.game.Config())
	if err != nil {
		return nil, fmt.Errorf("rebuilding worker strategy: %w", err)
	}
	return New(dice.New(e.game.Config(), gen), strat, e.vault, e.cfg, Options{
		Sink:   e.sink,
		Alert:  e.alert,
		Logger: e.log,
	}), nil
}
