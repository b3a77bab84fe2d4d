package swap

import "github.com/google/uuid"

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"
)

type Role int

const (
	RoleRequester Role = iota + 1
	RoleResponder
)

// Transition describes one edge out of pending: who may take it, where it
// lands and who hears about it.
type Transition struct {
	Action    Action
	Actor     Role
	Target    Status
	Event     string
	Recipient Role
}

var transitions = map[Action]Transition{
	ActionAccept: {Action: ActionAccept, Actor: RoleResponder, Target: StatusAccepted, Event: EventSwapAccepted, Recipient: RoleRequester},
	ActionReject: {Action: ActionReject, Actor: RoleResponder, Target: StatusRejected, Event: EventSwapRejected, Recipient: RoleRequester},
	ActionCancel: {Action: ActionCancel, Actor: RoleRequester, Target: StatusCancelled, Event: EventSwapCancelled, Recipient: RoleResponder},
}

func TransitionFor(a Action) (Transition, bool) {
	t, ok := transitions[a]
	return t, ok
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	for _, t := range transitions {
		if t.Target == to {
			return true
		}
	}
	return false
}

func (s SwapRequest) UserIn(r Role) uuid.UUID {
	switch r {
	case RoleRequester:
		return s.RequesterID
	case RoleResponder:
		return s.ResponderID
	default:
		return uuid.Nil
	}
}
