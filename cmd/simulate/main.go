// Command simulate runs a strategy simulation from the command line and
// writes the results as JSON and JSONL logs. It supports three modes:
// a single-strategy run, a multi-strategy comparison and a parameter
// sweep over a value grid.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/engine"
	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/logger"
	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/results"
	"github.com/ShakaTry/DiceBot/internal/sink"
	"github.com/ShakaTry/DiceBot/internal/strategy"
	"github.com/ShakaTry/DiceBot/internal/vault"
)

const (
	modeSingle     = "single"
	modeComparison = "comparison"
	modeSweep      = "sweep"
)

func main() {
	var (
		mode         = flag.String("mode", modeSingle, "single, comparison or sweep")
		strategyFile = flag.String("strategy", "", "strategy config JSON file (comma-separated list for comparison)")
		capital      = flag.String("capital", "100", "total capital")
		sessions     = flag.Int("sessions", 10, "number of sessions per strategy")
		parallel     = flag.Bool("parallel", false, "run sessions in parallel (single mode only)")
		workers      = flag.Int("workers", 4, "parallel worker count")
		logDir       = flag.String("logs", "logs", "JSONL log directory")
		outFile      = flag.String("out", "", "results JSON path (default results/<simulation id>.json)")
		env          = flag.String("env", "local", "environment name for logging")
		sweepParam   = flag.String("sweep-param", "", "parameter to sweep (base_bet, target, multiplier, max_losses, target_wins)")
		sweepValues  = flag.String("sweep-values", "", "comma-separated values for the swept parameter")
	)
	flag.Parse()

	if *strategyFile == "" {
		log.Fatal("-strategy is required")
	}

	zlog, err := logger.New("dicebot-simulate", *env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	stratCfgs, err := loadStrategies(*strategyFile)
	if err != nil {
		log.Fatalf("Failed to load strategy config: %v", err)
	}

	totalCapital, err := decimal.NewFromString(*capital)
	if err != nil {
		log.Fatalf("Invalid capital: %v", err)
	}

	writer := sink.NewJSONLWriter(*logDir)
	defer writer.Close()

	alert := func(kind, message string, severity sink.Severity) {
		zlog.Sugar().Warnf("[%s] %s: %s", severity, kind, message)
	}

	opts := engine.Options{
		Sink:   sink.NewJSONLSink(writer, recordType(*mode, stratCfgs[0].Name)),
		Alert:  alert,
		Logger: zlog,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameCfg := models.DefaultGameConfig()
	sessCfg := models.DefaultSessionConfig()

	switch *mode {
	case modeSingle:
		runSingle(ctx, gameCfg, stratCfgs[0], totalCapital, sessCfg, *sessions, *parallel, *workers, *outFile, opts)
	case modeComparison:
		runComparison(ctx, gameCfg, stratCfgs, totalCapital, sessCfg, *sessions, *outFile, opts)
	case modeSweep:
		runSweep(ctx, gameCfg, stratCfgs[0], *sweepParam, *sweepValues, totalCapital, sessCfg, *sessions, *outFile, opts)
	default:
		log.Fatalf("Unknown mode %q", *mode)
	}
}

// recordType routes the JSONL event stream the way the log layout
// expects: per-strategy logs for single runs, simulation logs for the
// multi-run modes.
func recordType(mode, strategyName string) string {
	switch mode {
	case modeComparison:
		return sink.TypeComparison
	case modeSweep:
		return sink.TypeParameterSweep
	}
	return sink.StrategyRecordType(strategyName)
}

func loadStrategies(files string) ([]strategy.Config, error) {
	var cfgs []strategy.Config
	for _, file := range strings.Split(files, ",") {
		data, err := os.ReadFile(strings.TrimSpace(file))
		if err != nil {
			return nil, err
		}
		var cfg strategy.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func runSingle(ctx context.Context, gameCfg models.GameConfig, stratCfg strategy.Config, capital decimal.Decimal, sessCfg models.SessionConfig, sessions int, parallel bool, workers int, outFile string, opts engine.Options) {
	strat, err := strategy.New(stratCfg, gameCfg)
	if err != nil {
		log.Fatalf("Invalid strategy: %v", err)
	}
	vlt, err := vault.New(models.DefaultVaultConfig(capital))
	if err != nil {
		log.Fatalf("Invalid vault config: %v", err)
	}
	gen, err := fair.New("", "")
	if err != nil {
		log.Fatalf("Failed to seed generator: %v", err)
	}

	eng := engine.New(dice.New(gameCfg, gen), strat, vlt, sessCfg, opts)

	var sessionResults []engine.SessionResult
	if parallel {
		sessionResults, err = eng.RunParallel(ctx, sessions, workers)
	} else {
		sessionResults, err = eng.RunSessions(ctx, sessions, true)
	}
	if err != nil && len(sessionResults) == 0 {
		log.Fatalf("Simulation failed: %v", err)
	}

	summary := engine.Summarize(sessionResults)
	simulationID := models.NewSimulationID(stratCfg.Name)

	out := resolveOut(outFile, simulationID)
	doc := &results.Document{
		SimulationID: simulationID,
		Strategy:     stratCfg,
		Sessions:     sessions,
		Parallel:     parallel,
		Results:      sessionResults,
		Summary:      summary,
	}
	if err := results.Save(out, doc); err != nil {
		log.Fatalf("Failed to save results: %v", err)
	}

	fmt.Printf("simulation %s: %d sessions, total profit %s, avg ROI %.2f%%, stop reasons %v\n",
		simulationID, summary.Sessions, summary.TotalProfit, summary.AvgROI*100, summary.StopReasons)
	fmt.Printf("vault: reserve %s, bankroll %s, total %s\n", vlt.Vault(), vlt.Bankroll(), vlt.Total())
	fmt.Printf("results written to %s\n", out)
}

func runComparison(ctx context.Context, gameCfg models.GameConfig, stratCfgs []strategy.Config, capital decimal.Decimal, sessCfg models.SessionConfig, sessions int, outFile string, opts engine.Options) {
	cmp, err := engine.RunComparison(ctx, gameCfg, stratCfgs, capital, sessCfg, sessions, opts)
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}

	simulationID := models.NewSimulationID("comparison")
	out := resolveOut(outFile, simulationID)
	if err := results.SaveComparison(out, cmp); err != nil {
		log.Fatalf("Failed to save results: %v", err)
	}

	for _, entry := range cmp.Entries {
		fmt.Printf("%-12s profit %s, avg ROI %.2f%%, profitable %d/%d\n",
			entry.Strategy.Name, entry.Summary.TotalProfit, entry.Summary.AvgROI*100,
			entry.Summary.Profitable, entry.Summary.Sessions)
	}
	fmt.Printf("best strategy: %s\n", cmp.Best)
	fmt.Printf("results written to %s\n", out)
}

func runSweep(ctx context.Context, gameCfg models.GameConfig, base strategy.Config, parameter, rawValues string, capital decimal.Decimal, sessCfg models.SessionConfig, sessions int, outFile string, opts engine.Options) {
	if parameter == "" || rawValues == "" {
		log.Fatal("-sweep-param and -sweep-values are required in sweep mode")
	}
	values, err := parseValues(rawValues)
	if err != nil {
		log.Fatalf("Invalid sweep values: %v", err)
	}

	sw, err := engine.RunParameterSweep(ctx, gameCfg, base, parameter, values, capital, sessCfg, sessions, opts)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	simulationID := models.NewSimulationID("sweep")
	out := resolveOut(outFile, simulationID)
	if err := results.SaveSweep(out, sw); err != nil {
		log.Fatalf("Failed to save results: %v", err)
	}

	for _, point := range sw.Points {
		fmt.Printf("%s=%-8v profit %s, avg ROI %.2f%%\n",
			sw.Parameter, point.Value, point.Summary.TotalProfit, point.Summary.AvgROI*100)
	}
	fmt.Printf("best %s: %v\n", sw.Parameter, sw.BestValue)
	fmt.Printf("results written to %s\n", out)
}

func parseValues(raw string) ([]float64, error) {
	var values []float64
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func resolveOut(outFile, simulationID string) string {
	if outFile != "" {
		return outFile
	}
	return filepath.Join("results", simulationID+".json")
}
