package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub/internal/availability"
)

// Conflict reasons. Clients render these verbatim, so the exact wording is
// part of the contract.
const (
	ReasonAlreadyBooked   = "Mentor already has a session at this time."
	ReasonDayClosed       = "Mentor is not available on this day."
	ReasonOutsideHours    = "Session time is outside mentor's available hours."
	ReasonDateUnavailable = "Mentor is unavailable on this date."
)

// Decision is the resolver's verdict for a candidate slot.
type Decision struct {
	Free   bool
	Reason string
}

// SlotReader supplies a mentor's non-terminal sessions for one date.
type SlotReader interface {
	ListForMentorOnDate(ctx context.Context, mentorID string, date time.Time) ([]Session, error)
}

// ScheduleReader supplies the active weekly rule governing one weekday.
type ScheduleReader interface {
	RuleForDay(ctx context.Context, mentorID string, day time.Weekday) (*availability.Rule, error)
}

// Resolver determines whether a candidate slot is free for a mentor. All
// checks are advisory reads; atomicity against concurrent bookings is the
// orchestrator's job.
type Resolver struct {
	sessions SlotReader
	schedule ScheduleReader
}

// NewResolver constructs a Resolver.
func NewResolver(sessions SlotReader, schedule ScheduleReader) *Resolver {
	return &Resolver{sessions: sessions, schedule: schedule}
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect. Touching
// boundaries (end == start) do not count as overlap.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// CheckSlot runs the ordered conflict checks for (mentor, date, time,
// duration): existing bookings first, then the weekly window with any
// dated exception applied. excludeID skips one session, so a reschedule
// does not collide with its own current slot.
func (r *Resolver) CheckSlot(ctx context.Context, mentorID string, date time.Time, clock string, d Duration, excludeID string) (Decision, error) {
	candStart, err := availability.ToMinutes(clock)
	if err != nil {
		return Decision{}, fmt.Errorf("booking: candidate time: %w", err)
	}
	candEnd := candStart + d.Minutes()

	existing, err := r.sessions.ListForMentorOnDate(ctx, mentorID, date)
	if err != nil {
		return Decision{}, fmt.Errorf("booking: load sessions: %w", err)
	}
	for _, sess := range existing {
		if sess.Status.Terminal() || sess.ID == excludeID {
			continue
		}
		start, err := availability.ToMinutes(sess.SessionTime)
		if err != nil {
			continue
		}
		if Overlaps(candStart, candEnd, start, start+sess.Duration.Minutes()) {
			return Decision{Reason: ReasonAlreadyBooked}, nil
		}
	}

	rule, err := r.schedule.RuleForDay(ctx, mentorID, date.Weekday())
	if err != nil {
		return Decision{}, fmt.Errorf("booking: load schedule: %w", err)
	}
	if rule == nil {
		return Decision{Reason: ReasonDayClosed}, nil
	}

	window, open := rule.EffectiveWindow(date)
	if !open {
		return Decision{Reason: ReasonDateUnavailable}, nil
	}
	if !window.Contains(candStart, candEnd) {
		return Decision{Reason: ReasonOutsideHours}, nil
	}

	return Decision{Free: true}, nil
}
