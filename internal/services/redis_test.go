package services_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/config"
	"github.com/ShakaTry/DiceBot/internal/engine"
	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/services"
	"github.com/ShakaTry/DiceBot/internal/session"
	"github.com/ShakaTry/DiceBot/internal/strategy"
)

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer redisService.Close()

	id := models.NewSimulationID("flat")
	defer redisService.DeleteCheckpoint(id)

	state := models.NewGameState(decimal.NewFromInt(100))
	state.Apply(models.Outcome{
		Roll: 20, Won: true,
		Amount: decimal.NewFromInt(1), Payout: decimal.NewFromInt(2),
		Target: 50, BetType: models.BetUnder,
	})

	sessions := []engine.SessionResult{{
		SessionID:  models.NewSessionID(),
		Strategy:   "flat",
		StopReason: session.StopMaxBets,
		Allocated:  decimal.NewFromInt(100),
		Final:      state.Balance,
		State:      state,
	}}

	summary := services.CheckpointSummary{
		SimulationID:      id,
		Strategy:          strategy.Config{Name: strategy.NameFlat, BaseBet: decimal.NewFromInt(1), Target: 50},
		RequestedSessions: 10,
		CompletedSessions: 1,
		TotalCapital:      decimal.NewFromInt(1000),
		CurrentCapital:    decimal.NewFromInt(1001),
	}

	if err := redisService.SaveCheckpoint(summary, sessions); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, loadedSessions, err := redisService.LoadCheckpoint(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.SimulationID != id {
		t.Errorf("simulation id = %q, want %q", loaded.SimulationID, id)
	}
	if loaded.CompletedSessions != 1 {
		t.Errorf("completed sessions = %d, want 1", loaded.CompletedSessions)
	}
	if len(loadedSessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(loadedSessions))
	}
	if !loadedSessions[0].Final.Equal(decimal.NewFromInt(101)) {
		t.Errorf("final = %s, want 101", loadedSessions[0].Final)
	}
	if loadedSessions[0].State.BetsCount != 1 {
		t.Errorf("state bets = %d, want 1", loadedSessions[0].State.BetsCount)
	}

	ids, err := redisService.ListCheckpoints(10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	found := false
	for _, got := range ids {
		if got == id {
			found = true
		}
	}
	if !found {
		t.Errorf("checkpoint %s missing from index %v", id, ids)
	}
}

func TestCheckpointNotFound(t *testing.T) {
	cfg := &config.Config{RedisURL: "localhost:6379"}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer redisService.Close()

	_, _, err = redisService.LoadCheckpoint("sim_missing_00000000_000000_0")
	if !errors.Is(err, services.ErrCheckpointNotFound) {
		t.Errorf("err = %v, want ErrCheckpointNotFound", err)
	}
}

func TestCheckpointDelete(t *testing.T) {
	cfg := &config.Config{RedisURL: "localhost:6379"}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer redisService.Close()

	id := models.NewSimulationID("delete")
	summary := services.CheckpointSummary{
		SimulationID: id,
		Strategy:     strategy.Config{Name: strategy.NameFlat, BaseBet: decimal.NewFromInt(1)},
	}
	if err := redisService.SaveCheckpoint(summary, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := redisService.DeleteCheckpoint(id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, _, err := redisService.LoadCheckpoint(id); !errors.Is(err, services.ErrCheckpointNotFound) {
		t.Errorf("err after delete = %v, want ErrCheckpointNotFound", err)
	}
}
