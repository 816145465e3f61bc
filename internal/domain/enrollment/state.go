package enrollment

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of one (seeker, task) proposal. Absence of
// a record is the implicit initial state.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusInvited    Status = "invited"
	StatusEnrolled   Status = "enrolled"
	StatusTLRejected Status = "tl_rejected"
	StatusVRejected  Status = "v_rejected"
)

type Action string

const (
	// Initiating actions.
	ActionRequest Action = "request"
	ActionInvite  Action = "invite"

	// Transition actions.
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionWithdraw Action = "withdraw"
)

var ErrInvalidAction = errors.New("invalid enrollment action")

// InvalidTransitionError reports the state that blocked a transition.
type InvalidTransitionError struct {
	Current Status
	Action  Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s enrollment in status %s", e.Action, e.Current)
}

// InitialStatus maps an initiating action to the row's first state.
func InitialStatus(action Action) (Status, error) {
	switch action {
	case ActionRequest:
		return StatusRequested, nil
	case ActionInvite:
		return StatusInvited, nil
	default:
		return "", fmt.Errorf("%w: %s (must be %q or %q)", ErrInvalidAction, action, ActionRequest, ActionInvite)
	}
}

// Transition returns the next state for an action applied to the current
// one. Transitions outside the table fail with InvalidTransitionError;
// unknown actions fail with ErrInvalidAction.
func Transition(current Status, action Action) (Status, error) {
	switch action {
	case ActionAccept:
		if current == StatusRequested || current == StatusInvited {
			return StatusEnrolled, nil
		}
	case ActionReject:
		switch current {
		case StatusRequested:
			// Coordinator rejecting the seeker's request.
			return StatusTLRejected, nil
		case StatusInvited:
			// Seeker declining the coordinator's invitation.
			return StatusVRejected, nil
		}
	case ActionWithdraw:
		if current == StatusRequested {
			// Seeker withdrawing their own request.
			return StatusVRejected, nil
		}
	default:
		return "", fmt.Errorf("%w: %s (must be %q, %q or %q)", ErrInvalidAction, action, ActionAccept, ActionReject, ActionWithdraw)
	}
	return "", &InvalidTransitionError{Current: current, Action: action}
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusEnrolled, StatusTLRejected, StatusVRejected:
		return true
	}
	return false
}

// Engaged reports whether s counts as an active engagement: any state that
// is not a terminal rejection. Used by IsEnrolled.
func (s Status) Engaged() bool {
	switch s {
	case StatusRequested, StatusInvited, StatusEnrolled:
		return true
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusRequested, StatusInvited, StatusEnrolled, StatusTLRejected, StatusVRejected:
		return true
	}
	return false
}
