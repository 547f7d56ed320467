package outbox

import (
	"context"
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
	LastError     *string
}

// Appender writes an event as part of the caller's transaction.
type Appender interface {
	Append(ctx context.Context, e Event) error
}

// NewEvent marshals payload to JSON and builds a pending event.
func NewEvent(aggregateType, aggregateID, eventType string, payload any, traceparent string) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       body,
		Headers:       map[string]string{"source": aggregateType},
		Traceparent:   traceparent,
		CreatedAt:     time.Now().UTC(),
		Status:        StatusPending,
	}, nil
}
