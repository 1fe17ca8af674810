package installment

import (
	"fmt"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
)

// Status is the lifecycle state of an installment application.
type Status string

const (
	StatusNone             Status = ""
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusPaymentCompleted Status = "payment_completed"
)

// Event drives a lifecycle transition.
type Event string

const (
	EventSubmit            Event = "submit"
	EventApprove           Event = "approve"
	EventReject            Event = "reject"
	EventInitializePayment Event = "initializePayment"
	EventPaymentConfirmed  Event = "paymentConfirmed"
)

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusNone, EventSubmit}:                StatusPending,
	{StatusPending, EventApprove}:            StatusApproved,
	{StatusPending, EventReject}:             StatusRejected,
	{StatusApproved, EventInitializePayment}: StatusApproved,
	{StatusApproved, EventPaymentConfirmed}:  StatusPaymentCompleted,
}

// RequiredSource is the state an event must be applied from.
func RequiredSource(ev Event) (Status, bool) {
	for k := range transitions {
		if k.event == ev {
			return k.from, true
		}
	}
	return StatusNone, false
}

// Transition returns the target state of applying ev in from.
func Transition(from Status, ev Event) (Status, error) {
	if to, ok := transitions[transitionKey{from, ev}]; ok {
		return to, nil
	}

	switch ev {
	case EventApprove, EventReject:
		return from, errors.NewConflictError("application is not pending",
			fmt.Sprintf("cannot %s an application in status %q", ev, from))
	case EventInitializePayment, EventPaymentConfirmed:
		return from, errors.NewConflictError("application is not approved",
			fmt.Sprintf("cannot apply %s to an application in status %q", ev, from))
	case EventSubmit:
		return from, errors.NewConflictError("application already exists",
			fmt.Sprintf("cannot submit an application in status %q", from))
	}
	return from, errors.NewConflictError("unknown lifecycle event", string(ev))
}

// Valid reports whether s is a known persisted status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaymentCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further event applies.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPaymentCompleted
}
