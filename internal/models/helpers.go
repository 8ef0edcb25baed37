package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func NewSessionID() string {
	return uuid.New().String()
}

func NewSimulationID(strategyName string) string {
	return fmt.Sprintf("sim_%s_%s_%d",
		strategyName,
		time.Now().Format("20060102_150405"),
		uuid.New().ID())
}
