package domain

import "time"

const DefaultReturnWindow = 15 * 24 * time.Hour

// ReturnPolicy gates return requests on elapsed wall-clock time since the
// order was marked received. The cutoff is inclusive.
type ReturnPolicy struct {
	Window time.Duration
}

func NewReturnPolicy(window time.Duration) ReturnPolicy {
	if window <= 0 {
		window = DefaultReturnWindow
	}
	return ReturnPolicy{Window: window}
}

func (p ReturnPolicy) CanReturn(receivedAt *time.Time, now time.Time) bool {
	if receivedAt == nil {
		return false
	}
	return now.Sub(*receivedAt) <= p.Window
}

// Deadline is the last instant a return may be requested, if the order was
// received.
func (p ReturnPolicy) Deadline(receivedAt *time.Time) (time.Time, bool) {
	if receivedAt == nil {
		return time.Time{}, false
	}
	return receivedAt.Add(p.Window), true
}
