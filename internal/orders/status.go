package orders

import (
	"errors"
	"fmt"

	"github.com/ariefcatur/go-pharma-stock/internal/palette"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

type Action string

const (
	ActionProcess  Action = "process"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// TransitionError reports an action that is not legal from a status.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order that is %s", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// completed and cancelled have no entries: both are terminal.
var validNext = map[Status]map[Action]Status{
	StatusPending: {
		ActionProcess: StatusProcessing,
		ActionCancel:  StatusCancelled,
	},
	StatusProcessing: {
		ActionComplete: StatusCompleted,
		ActionCancel:   StatusCancelled,
	},
}

// Transition returns the status reached by applying action to current.
func Transition(current Status, action Action) (Status, error) {
	next, ok := validNext[current][action]
	if !ok {
		return current, &TransitionError{From: current, Action: action}
	}
	return next, nil
}

func CanTransition(current Status, action Action) bool {
	_, ok := validNext[current][action]
	return ok
}

// NextActions lists the actions a client may offer for an order in s.
func NextActions(s Status) []Action {
	var out []Action
	for _, a := range []Action{ActionProcess, ActionComplete, ActionCancel} {
		if CanTransition(s, a) {
			out = append(out, a)
		}
	}
	return out
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

func (s Status) Color() palette.Color {
	switch s {
	case StatusPending:
		return palette.Warning
	case StatusProcessing:
		return palette.Primary
	case StatusCompleted:
		return palette.Success
	case StatusCancelled:
		return palette.Danger
	}
	return palette.Gray
}

func (s Status) Icon() string {
	switch s {
	case StatusPending:
		return "time-outline"
	case StatusProcessing:
		return "refresh-outline"
	case StatusCompleted:
		return "checkmark-circle-outline"
	case StatusCancelled:
		return "close-circle-outline"
	}
	return "help-circle-outline"
}

func (a Action) Valid() bool {
	switch a {
	case ActionProcess, ActionComplete, ActionCancel:
		return true
	}
	return false
}
