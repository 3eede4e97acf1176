package queue

import (
	"encoding/json"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultLeaseTTL   = 30 * time.Second
)

// QueuedMutation es una escritura pendiente. ID es también la idempotency key.
type QueuedMutation struct {
	ID          string
	HouseholdID string

	Type    Kind
	Payload json.RawMessage

	Timestamp time.Time

	Retries    int
	MaxRetries int
	LastError  string

	// NextAttemptAt: backoff lineal retryDelay*retries después de un fallo transitorio.
	NextAttemptAt *time.Time
}

func (q QueuedMutation) Exhausted() bool {
	return q.Retries >= q.MaxRetries
}

func (q QueuedMutation) ready(now time.Time) bool {
	return q.NextAttemptAt == nil || !now.Before(*q.NextAttemptAt)
}
