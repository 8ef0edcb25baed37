package services

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/config"
	"github.com/ShakaTry/DiceBot/internal/engine"
	"github.com/ShakaTry/DiceBot/internal/metrics"
	"github.com/ShakaTry/DiceBot/internal/strategy"
)

// ErrCheckpointNotFound is returned for missing and for unreadable
// checkpoints alike; a corrupt checkpoint is as unusable as an absent
// one.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{client: client, ctx: ctx}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// Ping reports connection health, for /healthz.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// CheckpointSummary is the small JSON part of a checkpoint: enough to
// list and inspect runs without decoding the session blob.
type CheckpointSummary struct {
	SimulationID      string          `json:"simulation_id"`
	Strategy          strategy.Config `json:"strategy"`
	RequestedSessions int             `json:"requested_sessions"`
	CompletedSessions int             `json:"completed_sessions"`
	TotalCapital      decimal.Decimal `json:"total_capital"`
	CurrentCapital    decimal.Decimal `json:"current_capital"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SaveCheckpoint stores a simulation checkpoint: the summary as JSON,
// the session list as a gob blob, both under a 7 day TTL, and the id in
// a sorted-set index for listing.
func (s *RedisService) SaveCheckpoint(summary CheckpointSummary, sessions []engine.SessionResult) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}

	summaryData, err := json.Marshal(summary)
	if err != nil {
		metrics.CheckpointOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("marshaling checkpoint summary: %w", err)
	}

	var blob bytes.Buffer
	if err := gob.NewEncoder(&blob).Encode(sessions); err != nil {
		metrics.CheckpointOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("encoding checkpoint sessions: %w", err)
	}

	id := summary.SimulationID
	if err := s.client.Set(s.ctx, fmt.Sprintf(KeyCheckpointSummary, id), summaryData, TTLCheckpoint).Err(); err != nil {
		metrics.CheckpointOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("storing checkpoint summary: %w", err)
	}
	if err := s.client.Set(s.ctx, fmt.Sprintf(KeyCheckpointData, id), blob.Bytes(), TTLCheckpoint).Err(); err != nil {
		metrics.CheckpointOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("storing checkpoint data: %w", err)
	}
	if err := s.client.ZAdd(s.ctx, KeyCheckpointIndex, redis.Z{
		Score:  float64(summary.CreatedAt.Unix()),
		Member: id,
	}).Err(); err != nil {
		metrics.CheckpointOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("indexing checkpoint: %w", err)
	}

	metrics.CheckpointOps.WithLabelValues("save", "ok").Inc()
	return nil
}

// LoadCheckpoint reads a checkpoint back. Missing or corrupt entries
// both yield ErrCheckpointNotFound.
func (s *RedisService) LoadCheckpoint(id string) (CheckpointSummary, []engine.SessionResult, error) {
	var summary CheckpointSummary

	summaryData, err := s.client.Get(s.ctx, fmt.Sprintf(KeyCheckpointSummary, id)).Result()
	if err != nil {
		metrics.CheckpointOps.WithLabelValues("load", "miss").Inc()
		if errors.Is(err, redis.Nil) {
			return summary, nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
		}
		return summary, nil, fmt.Errorf("reading checkpoint summary: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryData), &summary); err != nil {
		metrics.CheckpointOps.WithLabelValues("load", "corrupt").Inc()
		return summary, nil, fmt.Errorf("%w: %s: corrupt summary: %v", ErrCheckpointNotFound, id, err)
	}

	blob, err := s.client.Get(s.ctx, fmt.Sprintf(KeyCheckpointData, id)).Bytes()
	if err != nil {
		metrics.CheckpointOps.WithLabelValues("load", "miss").Inc()
		if errors.Is(err, redis.Nil) {
			return summary, nil, fmt.Errorf("%w: %s: summary without data", ErrCheckpointNotFound, id)
		}
		return summary, nil, fmt.Errorf("reading checkpoint data: %w", err)
	}

	var sessions []engine.SessionResult
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&sessions); err != nil {
		metrics.CheckpointOps.WithLabelValues("load", "corrupt").Inc()
		return summary, nil, fmt.Errorf("%w: %s: corrupt session data: %v", ErrCheckpointNotFound, id, err)
	}

	metrics.CheckpointOps.WithLabelValues("load", "ok").Inc()
	return summary, sessions, nil
}

// ListCheckpoints returns up to limit checkpoint ids, newest first.
func (s *RedisService) ListCheckpoints(limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.client.ZRevRange(s.ctx, KeyCheckpointIndex, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	return ids, nil
}

// DeleteCheckpoint removes a checkpoint and its index entry.
func (s *RedisService) DeleteCheckpoint(id string) error {
	if err := s.client.Del(s.ctx,
		fmt.Sprintf(KeyCheckpointSummary, id),
		fmt.Sprintf(KeyCheckpointData, id),
	).Err(); err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return s.client.ZRem(s.ctx, KeyCheckpointIndex, id).Err()
}
