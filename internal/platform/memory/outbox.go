package memory

import (
	"context"
	"time"

	"github.com/dmehra2102/commerce-core/pkg/outbox"
)

type Outbox struct {
	s *Store
}

func (r *Outbox) Append(ctx context.Context, e outbox.Event) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	e.ID = r.s.nextOutbox
	r.s.nextOutbox++
	e.Status = outbox.StatusPending
	r.s.events = append(r.s.events, outboxRecord{event: e})
	return nil
}

func (r *Outbox) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration, maxAttempts int) ([]outbox.Event, error) {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	now := time.Now()
	var out []outbox.Event
	for i := range r.s.events {
		if len(out) == batchSize {
			break
		}
		rec := &r.s.events[i]
		switch rec.event.Status {
		case outbox.StatusPending:
		case outbox.StatusInProgress:
			if !rec.leaseUntil.Before(now) {
				continue
			}
		case outbox.StatusFailed:
			if rec.event.RetryCount >= maxAttempts || !rec.leaseUntil.Before(now) {
				continue
			}
		default:
			continue
		}
		rec.event.Status = outbox.StatusInProgress
		rec.event.RelayID = relayID
		rec.leaseUntil = now.Add(lease)
		out = append(out, rec.event)
	}
	return out, nil
}

func (r *Outbox) MarkSent(ctx context.Context, ids []int64) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	for _, id := range ids {
		if rec := r.find(id); rec != nil {
			rec.event.Status = outbox.StatusSent
		}
	}
	return nil
}

func (r *Outbox) MarkFailed(ctx context.Context, id int64, errMsg string, retryAfter time.Duration) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	if rec := r.find(id); rec != nil {
		rec.event.Status = outbox.StatusFailed
		rec.leaseUntil = time.Now().Add(retryAfter)
		rec.event.RetryCount++
		msg := errMsg
		rec.event.LastError = &msg
	}
	return nil
}

// Events returns a copy of every appended event in append order.
func (r *Outbox) Events() []outbox.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]outbox.Event, 0, len(r.s.events))
	for _, rec := range r.s.events {
		out = append(out, rec.event)
	}
	return out
}

func (r *Outbox) find(id int64) *outboxRecord {
	for i := range r.s.events {
		if r.s.events[i].event.ID == id {
			return &r.s.events[i]
		}
	}
	return nil
}
