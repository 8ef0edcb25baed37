package services

import "time"

const (
	KeyCheckpointSummary = "sim:checkpoint:%s:summary"
	KeyCheckpointData    = "sim:checkpoint:%s:data"
	KeyCheckpointIndex   = "sim:checkpoints"

	TTLCheckpoint = 7 * 24 * time.Hour // 7 days
)
