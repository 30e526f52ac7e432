package models

import (
	"time"
)

// KafkaMarketSignalMessage carries one scoring request for an event over Kafka
type KafkaMarketSignalMessage struct {
	EventID   string         `json:"event_id"`
	Context   ScoringContext `json:"context"`
	Reset     bool           `json:"reset"` // start a fresh session before scoring
	Timestamp time.Time      `json:"timestamp"`
	BatchID   string         `json:"batch_id"`
}
