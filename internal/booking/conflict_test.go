package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/mentorhub/internal/availability"
)

type stubSlots struct {
	sessions []Session
}

func (s *stubSlots) ListForMentorOnDate(_ context.Context, _ string, _ time.Time) ([]Session, error) {
	return s.sessions, nil
}

type stubSchedule struct {
	rules map[time.Weekday]*availability.Rule
}

func (s *stubSchedule) RuleForDay(_ context.Context, _ string, day time.Weekday) (*availability.Rule, error) {
	return s.rules[day], nil
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 int
		want           bool
	}{
		{"identical", 600, 660, 600, 660, true},
		{"partial", 600, 660, 630, 690, true},
		{"contained", 600, 720, 630, 660, true},
		{"touching end to start", 600, 660, 660, 720, false},
		{"touching start to end", 660, 720, 600, 660, false},
		{"disjoint", 600, 660, 720, 780, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.s1, tc.e1, tc.s2, tc.e2))
		})
	}
}

func TestCheckSlot(t *testing.T) {
	// 2026-09-09 is a Wednesday.
	wednesday := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	schedule := &stubSchedule{rules: map[time.Weekday]*availability.Rule{
		time.Wednesday: {
			MentorID:  "m1",
			DayOfWeek: int(time.Wednesday),
			StartTime: "09:00",
			EndTime:   "17:00",
			IsActive:  true,
		},
	}}

	t.Run("free slot inside window", func(t *testing.T) {
		r := NewResolver(&stubSlots{}, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "10:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.True(t, d.Free)
	})

	t.Run("overlapping booking wins over window check", func(t *testing.T) {
		slots := &stubSlots{sessions: []Session{{
			ID: "s1", SessionTime: "10:00", Duration: Duration1Hour, Status: StatusConfirmed,
		}}}
		r := NewResolver(slots, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "10:30", Duration1Hour, "")
		require.NoError(t, err)
		assert.False(t, d.Free)
		assert.Equal(t, ReasonAlreadyBooked, d.Reason)
	})

	t.Run("cancelled booking does not block", func(t *testing.T) {
		slots := &stubSlots{sessions: []Session{{
			ID: "s1", SessionTime: "10:00", Duration: Duration1Hour, Status: StatusCancelled,
		}}}
		r := NewResolver(slots, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "10:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.True(t, d.Free)
	})

	t.Run("excluded session does not block its own slot", func(t *testing.T) {
		slots := &stubSlots{sessions: []Session{{
			ID: "s1", SessionTime: "10:00", Duration: Duration1Hour, Status: StatusConfirmed,
		}}}
		r := NewResolver(slots, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "10:00", Duration1Hour, "s1")
		require.NoError(t, err)
		assert.True(t, d.Free)
	})

	t.Run("back to back bookings are allowed", func(t *testing.T) {
		slots := &stubSlots{sessions: []Session{{
			ID: "s1", SessionTime: "10:00", Duration: Duration1Hour, Status: StatusConfirmed,
		}}}
		r := NewResolver(slots, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "11:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.True(t, d.Free)
	})

	t.Run("no rule for the weekday", func(t *testing.T) {
		r := NewResolver(&stubSlots{}, schedule)
		thursday := wednesday.AddDate(0, 0, 1)
		d, err := r.CheckSlot(context.Background(), "m1", thursday, "10:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.False(t, d.Free)
		assert.Equal(t, ReasonDayClosed, d.Reason)
	})

	t.Run("slot outside window", func(t *testing.T) {
		r := NewResolver(&stubSlots{}, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "16:30", Duration1Hour, "")
		require.NoError(t, err)
		assert.False(t, d.Free)
		assert.Equal(t, ReasonOutsideHours, d.Reason)
	})

	t.Run("slot ending exactly at window end", func(t *testing.T) {
		r := NewResolver(&stubSlots{}, schedule)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "16:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.True(t, d.Free)
	})

	t.Run("unavailable exception closes the date", func(t *testing.T) {
		dated := &stubSchedule{rules: map[time.Weekday]*availability.Rule{
			time.Wednesday: {
				MentorID:  "m1",
				DayOfWeek: int(time.Wednesday),
				StartTime: "09:00",
				EndTime:   "17:00",
				IsActive:  true,
				Exceptions: []availability.Exception{{
					Date: wednesday,
					Type: availability.ExceptionUnavailable,
				}},
			},
		}}
		r := NewResolver(&stubSlots{}, dated)
		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "10:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.False(t, d.Free)
		assert.Equal(t, ReasonDateUnavailable, d.Reason)
	})

	t.Run("custom hours exception overrides the window", func(t *testing.T) {
		dated := &stubSchedule{rules: map[time.Weekday]*availability.Rule{
			time.Wednesday: {
				MentorID:  "m1",
				DayOfWeek: int(time.Wednesday),
				StartTime: "09:00",
				EndTime:   "17:00",
				IsActive:  true,
				Exceptions: []availability.Exception{{
					Date:      wednesday,
					Type:      availability.ExceptionCustomHours,
					StartTime: "13:00",
					EndTime:   "15:00",
				}},
			},
		}}
		r := NewResolver(&stubSlots{}, dated)

		d, err := r.CheckSlot(context.Background(), "m1", wednesday, "10:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.Equal(t, ReasonOutsideHours, d.Reason)

		d, err = r.CheckSlot(context.Background(), "m1", wednesday, "13:00", Duration1Hour, "")
		require.NoError(t, err)
		assert.True(t, d.Free)
	})

	t.Run("malformed candidate time errors", func(t *testing.T) {
		r := NewResolver(&stubSlots{}, schedule)
		_, err := r.CheckSlot(context.Background(), "m1", wednesday, "25:99", Duration1Hour, "")
		require.Error(t, err)
	})
}
