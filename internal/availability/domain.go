// Package availability models a mentor's recurring weekly windows and
// dated exceptions.
package availability

import (
	"errors"
	"fmt"
	"time"
)

// ExceptionType distinguishes blackout dates from custom-hour overrides.
type ExceptionType string

const (
	ExceptionUnavailable ExceptionType = "unavailable"
	ExceptionCustomHours ExceptionType = "custom_hours"
)

// Rule is a mentor's recurring weekly window. At most one active rule may
// exist per (mentor, day_of_week); the storage layer enforces this with a
// partial unique index.
type Rule struct {
	ID         string      `json:"id"`
	MentorID   string      `json:"mentor_id"`
	DayOfWeek  int         `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime  string      `json:"start_time"`  // HH:MM
	EndTime    string      `json:"end_time"`    // HH:MM
	Timezone   string      `json:"timezone"`
	IsActive   bool        `json:"is_active"`
	Exceptions []Exception `json:"exceptions,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Exception is a date-specific override to the weekly window.
type Exception struct {
	ID        string        `json:"id"`
	RuleID    string        `json:"rule_id"`
	Date      time.Time     `json:"date"`
	Type      ExceptionType `json:"type"`
	StartTime string        `json:"start_time,omitempty"` // custom_hours only
	EndTime   string        `json:"end_time,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

// ErrBadClock indicates a malformed HH:MM value.
var ErrBadClock = errors.New("availability: bad clock value")

// ToMinutes converts an HH:MM clock string to minutes since midnight.
func ToMinutes(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	return h*60 + m, nil
}

// Window is a [start, end) interval in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// Window resolves the rule's bounds in minutes. Malformed rules yield an
// empty window, which rejects every candidate.
func (r Rule) Window() Window {
	start, err := ToMinutes(r.StartTime)
	if err != nil {
		return Window{}
	}
	end, err := ToMinutes(r.EndTime)
	if err != nil {
		return Window{}
	}
	return Window{Start: start, End: end}
}

// Contains reports whether [candStart, candEnd) fits entirely inside the
// window.
func (w Window) Contains(candStart, candEnd int) bool {
	return w.Start <= candStart && candEnd <= w.End
}

// ExceptionFor returns the exception matching the calendar date, if any.
func (r Rule) ExceptionFor(date time.Time) *Exception {
	y, m, d := date.Date()
	for i := range r.Exceptions {
		ey, em, ed := r.Exceptions[i].Date.Date()
		if ey == y && em == m && ed == d {
			return &r.Exceptions[i]
		}
	}
	return nil
}

// EffectiveWindow resolves the bounds for a concrete date: a custom-hours
// exception overrides the weekly bounds, an unavailable exception closes
// the day entirely.
func (r Rule) EffectiveWindow(date time.Time) (Window, bool) {
	if exc := r.ExceptionFor(date); exc != nil {
		switch exc.Type {
		case ExceptionUnavailable:
			return Window{}, false
		case ExceptionCustomHours:
			start, err := ToMinutes(exc.StartTime)
			if err != nil {
				return Window{}, false
			}
			end, err := ToMinutes(exc.EndTime)
			if err != nil {
				return Window{}, false
			}
			return Window{Start: start, End: end}, true
		}
	}
	return r.Window(), true
}
