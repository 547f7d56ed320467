package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Store leases events to a relay. LockBatch returns pending events, events
// whose lease expired, and failed events with fewer than maxAttempts
// attempts whose retry delay has elapsed.
type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration, maxAttempts int) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string, retryAfter time.Duration) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
	// failed events are retried until they reach maxAttempts
	maxAttempts int
	retryAfter  time.Duration
}

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string) *Relay {
	return &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize:   100,
		interval:    500 * time.Millisecond,
		lease:       5 * time.Second,
		maxAttempts: 10,
		retryAfter:  30 * time.Second,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.Tick(ctx); err != nil {
				r.log.Error("relay lock batch error", "err", err)
			}
		}
	}
}

// Tick dispatches one batch and returns how many events were sent.
// Dispatch failures are recorded on the row and never returned.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease, r.maxAttempts)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			attempts := e.RetryCount + 1
			if attempts >= r.maxAttempts {
				r.log.Error("outbox event gave up", "event_id", e.ID, "type", e.Type, "attempts", attempts, "err", err)
			} else {
				r.log.Warn("outbox dispatch failed, will retry", "event_id", e.ID, "attempts", attempts, "err", err)
			}
			if mErr := r.store.MarkFailed(ctx, e.ID, err.Error(), r.retryAfter); mErr != nil {
				r.log.Error("relay mark failed error", "event_id", e.ID, "err", mErr)
			}
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			r.log.Error("relay mark sent error", "err", err)
		}
	}
	return len(ids), nil
}
