package domain

import (
	"time"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
)

type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorStaff    Actor = "staff"
)

type Event string

const (
	EventShip          Event = "ship"
	EventDeliver       Event = "deliver"
	EventCancel        Event = "cancel"
	EventRequestReturn Event = "request_return"
	EventApproveReturn Event = "approve_return"
	EventRejectReturn  Event = "reject_return"
	EventConfirmReturn Event = "confirm_return"
)

func ParseEvent(s string) (Event, error) {
	switch e := Event(s); e {
	case EventShip, EventDeliver, EventCancel, EventRequestReturn,
		EventApproveReturn, EventRejectReturn, EventConfirmReturn:
		return e, nil
	}
	return "", apperr.InvalidArgument("unknown event %q", s)
}

type edge struct {
	from  ItemStatus
	event Event
	actor Actor
}

// A rejected return lands in cancelled.
var transitions = map[edge]ItemStatus{
	{ItemPending, EventShip, ActorStaff}:                  ItemShipped,
	{ItemPending, EventCancel, ActorCustomer}:             ItemCancelled,
	{ItemPending, EventCancel, ActorStaff}:                ItemCancelled,
	{ItemShipped, EventDeliver, ActorStaff}:               ItemDelivered,
	{ItemDelivered, EventRequestReturn, ActorCustomer}:    ItemReturnRequested,
	{ItemReturnRequested, EventApproveReturn, ActorStaff}: ItemReturnApproved,
	{ItemReturnRequested, EventRejectReturn, ActorStaff}:  ItemCancelled,
	{ItemReturnApproved, EventConfirmReturn, ActorStaff}:  ItemReturned,
}

// Next returns the target status for (from, event, actor) if the table has it.
func Next(from ItemStatus, event Event, actor Actor) (ItemStatus, bool) {
	to, ok := transitions[edge{from, event, actor}]
	return to, ok
}

// Transition records one applied line-item change.
type Transition struct {
	ItemID        string
	From          ItemStatus
	To            ItemStatus
	Event         Event
	Actor         Actor
	At            time.Time
	SetReceivedAt bool
}

// Apply moves one line item of o through event, returning the updated copy.
// o is left untouched on error.
func Apply(o Order, itemID string, event Event, actor Actor, now time.Time, policy ReturnPolicy) (Order, Transition, error) {
	item, idx, ok := o.Item(itemID)
	if !ok {
		return o, Transition{}, apperr.NotFound("line item %s not found in order %s", itemID, o.ID)
	}

	to, ok := Next(item.Status, event, actor)
	if !ok {
		return o, Transition{}, apperr.InvalidTransition("%s cannot %s a line item in status %s", actor, event, item.Status)
	}

	out := o.Clone()
	tr := Transition{ItemID: itemID, From: item.Status, To: to, Event: event, Actor: actor, At: now}

	switch event {
	case EventShip:
		if !o.ShippingAddress.Complete() {
			return o, Transition{}, apperr.InvalidTransition("order %s has no shipping address", o.ID)
		}
	case EventDeliver:
		if out.ReceivedAt == nil {
			received := now
			out.ReceivedAt = &received
			tr.SetReceivedAt = true
		}
	case EventRequestReturn:
		if !policy.CanReturn(o.ReceivedAt, now) {
			return o, Transition{}, apperr.Newf(apperr.KindReturnWindowExpired,
				"return window of %s for order %s has closed", policy.Window, o.ID)
		}
	}

	out.Items[idx].Status = to
	out.Items[idx].UpdatedAt = now
	return out, tr, nil
}

// CancelAll cancels every line item of a pending order on behalf of actor.
// Items that are already cancelled stay as they are.
func CancelAll(o Order, actor Actor, now time.Time) (Order, []Transition, error) {
	if s := o.Status(); s != StatusPending {
		return o, nil, apperr.InvalidTransition("order %s is %s and can no longer be cancelled", o.ID, s)
	}
	return applyEach(o, EventCancel, actor, now, ReturnPolicy{})
}

// ApplyAll applies event to every line item for which it is valid. It fails
// with InvalidTransition when no item accepts the event.
func ApplyAll(o Order, event Event, actor Actor, now time.Time, policy ReturnPolicy) (Order, []Transition, error) {
	out, trs, err := applyEach(o, event, actor, now, policy)
	if err != nil {
		return o, nil, err
	}
	if len(trs) == 0 {
		return o, nil, apperr.InvalidTransition("no line item of order %s accepts %s", o.ID, event)
	}
	return out, trs, nil
}

func applyEach(o Order, event Event, actor Actor, now time.Time, policy ReturnPolicy) (Order, []Transition, error) {
	out := o.Clone()
	var trs []Transition
	for _, it := range o.Items {
		if _, ok := Next(it.Status, event, actor); !ok {
			continue
		}
		next, tr, err := Apply(out, it.ID, event, actor, now, policy)
		if err != nil {
			return o, nil, err
		}
		out = next
		trs = append(trs, tr)
	}
	return out, trs, nil
}
