package booking

import (
	"fmt"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
)

// transitions lists the legal status edges. Reschedule is not an edge: it
// re-enters pending from pending or confirmed and is guarded separately.
var transitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusConfirmed: {},
		StatusCancelled: {},
	},
	StatusConfirmed: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
}

// CanTransition reports whether from→to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// guardTransition converts an illegal edge into the invalid-state error.
// Any transition outside the table is rejected, never silently ignored.
func guardTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: cannot move session from %s to %s", httpx.ErrInvalidTransition, from, to)
}

// canReschedule reports whether a session in this status may move to a new
// slot (re-entering pending).
func canReschedule(from Status) bool {
	return from == StatusPending || from == StatusConfirmed
}
