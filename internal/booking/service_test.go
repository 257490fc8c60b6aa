package booking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/mentorhub/internal/availability"
	"github.com/mentorhub/mentorhub/internal/mentors"
	"github.com/mentorhub/mentorhub/internal/notifications"
	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	sessions map[string]*Session
	nextID   int

	insertError error
	getError    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{sessions: make(map[string]*Session), nextID: 1}
}

func (m *mockRepository) Insert(_ context.Context, sess Session) (Session, error) {
	if m.insertError != nil {
		return Session{}, m.insertError
	}
	for _, existing := range m.sessions {
		if existing.Status.Terminal() {
			continue
		}
		if existing.MentorID == sess.MentorID &&
			existing.SessionDate.Equal(sess.SessionDate) &&
			existing.SessionTime == sess.SessionTime {
			return Session{}, fmt.Errorf("%w: %s", httpx.ErrConflict, ReasonAlreadyBooked)
		}
	}
	sess.ID = fmt.Sprintf("sess-%d", m.nextID)
	m.nextID++
	sess.CreatedAt = time.Now().UTC()
	sess.UpdatedAt = sess.CreatedAt
	m.sessions[sess.ID] = &sess
	return sess, nil
}

func (m *mockRepository) Get(_ context.Context, id string) (*Session, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	sess, ok := m.sessions[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *sess
	return &clone, nil
}

func (m *mockRepository) ListForMentorOnDate(_ context.Context, mentorID string, date time.Time) ([]Session, error) {
	var out []Session
	for _, sess := range m.sessions {
		if sess.MentorID == mentorID && sess.SessionDate.Equal(date) && !sess.Status.Terminal() {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]SessionWithParty, int, error) {
	var out []SessionWithParty
	for _, sess := range m.sessions {
		if filter.StudentID != "" && sess.StudentID != filter.StudentID {
			continue
		}
		if filter.MentorID != "" && sess.MentorID != filter.MentorID {
			continue
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		out = append(out, SessionWithParty{Session: *sess})
	}
	return out, len(out), nil
}

func (m *mockRepository) MarkConfirmed(_ context.Context, id string) (bool, error) {
	sess, ok := m.sessions[id]
	if !ok || sess.Status != StatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	sess.Status = StatusConfirmed
	sess.PaymentStatus = PaymentPaid
	sess.ConfirmedAt = &now
	return true, nil
}

func (m *mockRepository) MarkPaymentRejected(_ context.Context, id string) (bool, error) {
	sess, ok := m.sessions[id]
	if !ok || sess.Status != StatusPending {
		return false, nil
	}
	sess.PaymentStatus = PaymentRejected
	return true, nil
}

func (m *mockRepository) MarkCancelled(_ context.Context, id string) (bool, error) {
	sess, ok := m.sessions[id]
	if !ok || sess.Status.Terminal() {
		return false, nil
	}
	now := time.Now().UTC()
	sess.Status = StatusCancelled
	sess.CancelledAt = &now
	return true, nil
}

func (m *mockRepository) MarkCompleted(_ context.Context, id string) (bool, error) {
	sess, ok := m.sessions[id]
	if !ok || sess.Status != StatusConfirmed {
		return false, nil
	}
	now := time.Now().UTC()
	sess.Status = StatusCompleted
	sess.CompletedAt = &now
	return true, nil
}

func (m *mockRepository) Reschedule(_ context.Context, id string, newDate time.Time, newTime string) (bool, error) {
	sess, ok := m.sessions[id]
	if !ok || sess.Status.Terminal() {
		return false, nil
	}
	if sess.OriginalDate == nil {
		origDate := sess.SessionDate
		origTime := sess.SessionTime
		sess.OriginalDate = &origDate
		sess.OriginalTime = &origTime
	}
	sess.SessionDate = newDate
	sess.SessionTime = newTime
	sess.Status = StatusPending
	sess.ConfirmedAt = nil
	return true, nil
}

func (m *mockRepository) AutoCompleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, sess := range m.sessions {
		if sess.Status == StatusConfirmed && sess.SessionDate.Before(cutoff) {
			sess.Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

type mockDirectory struct {
	profiles map[string]*mentors.Profile
	sessions map[string]int
	earnings map[string]float64
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		profiles: make(map[string]*mentors.Profile),
		sessions: make(map[string]int),
		earnings: make(map[string]float64),
	}
}

func (m *mockDirectory) Profile(_ context.Context, userID string) (*mentors.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return p, nil
}

func (m *mockDirectory) RecordSession(_ context.Context, mentorID string) {
	m.sessions[mentorID]++
}

func (m *mockDirectory) RecordEarnings(_ context.Context, mentorID string, amount float64) {
	m.earnings[mentorID] += amount
}

type mockNotifier struct {
	sent []notifications.Notification
}

func (m *mockNotifier) Send(_ context.Context, n notifications.Notification) error {
	m.sent = append(m.sent, n)
	return nil
}

// ============================================================================
// FIXTURE
// ============================================================================

type fixture struct {
	repo     *mockRepository
	dir      *mockDirectory
	notifier *mockNotifier
	service  *Service
	date     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepository()
	dir := newMockDirectory()
	dir.profiles["mentor-1"] = &mentors.Profile{
		UserID:              "mentor-1",
		HourlyRate:          50,
		OnboardingCompleted: true,
		IsActive:            true,
	}

	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7)
	schedule := &stubSchedule{rules: map[time.Weekday]*availability.Rule{
		date.Weekday(): {
			MentorID:  "mentor-1",
			DayOfWeek: int(date.Weekday()),
			StartTime: "09:00",
			EndTime:   "17:00",
			IsActive:  true,
		},
	}}

	notifier := &mockNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, NewResolver(repo, schedule), dir, nil, notifier, nil, logger)
	return &fixture{repo: repo, dir: dir, notifier: notifier, service: svc, date: date}
}

func (f *fixture) createRequest() CreateRequest {
	return CreateRequest{
		MentorID:    "mentor-1",
		SessionDate: f.date.Format("2006-01-02"),
		SessionTime: "10:00",
		Duration:    "1hour",
		Subject:     "Algebra",
		SessionType: "video",
	}
}

func student(id string) rbac.AccessContext {
	return rbac.AccessContext{UserID: id, Role: rbac.RoleStudent}
}

func mentor(id string) rbac.AccessContext {
	return rbac.AccessContext{UserID: id, Role: rbac.RoleMentor}
}

func admin(id string) rbac.AccessContext {
	return rbac.AccessContext{UserID: id, Role: rbac.RoleAdmin}
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, sess.Status)
	assert.Equal(t, PaymentPending, sess.PaymentStatus)
	assert.Equal(t, float64(50), sess.Amount)
	assert.Equal(t, "student-1", sess.StudentID)
	assert.Equal(t, 1, f.dir.sessions["mentor-1"])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "mentor-1", f.notifier.sent[0].UserID)
	assert.Equal(t, notifications.TypeBooking, f.notifier.sent[0].Type)
}

func TestCreateBookingHalfHourPricing(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest()
	req.Duration = "30min"

	sess, err := f.service.Create(context.Background(), student("student-1"), req)
	require.NoError(t, err)
	assert.Equal(t, float64(25), sess.Amount)
}

func TestCreateBookingSameSlotTwice(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Create(context.Background(), student("student-2"), f.createRequest())
	require.ErrorIs(t, err, httpx.ErrConflict)
	assert.Contains(t, err.Error(), ReasonAlreadyBooked)
}

func TestCreateBookingOverlappingSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	req := f.createRequest()
	req.SessionTime = "10:30"
	_, err = f.service.Create(context.Background(), student("student-2"), req)
	require.ErrorIs(t, err, httpx.ErrConflict)
	assert.Contains(t, err.Error(), ReasonAlreadyBooked)
}

func TestCreateBookingOutsideHours(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest()
	req.SessionTime = "18:00"

	_, err := f.service.Create(context.Background(), student("student-1"), req)
	require.ErrorIs(t, err, httpx.ErrConflict)
	assert.Contains(t, err.Error(), ReasonOutsideHours)
}

func TestCreateBookingUnknownMentor(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest()
	req.MentorID = "nobody"

	_, err := f.service.Create(context.Background(), student("student-1"), req)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateBookingInactiveMentor(t *testing.T) {
	f := newFixture(t)
	f.dir.profiles["mentor-1"].IsActive = false

	_, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateBookingRequiresPermission(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), mentor("mentor-2"), f.createRequest())
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateBookingRejectsUnknownDuration(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest()
	req.Duration = "45min"

	_, err := f.service.Create(context.Background(), student("student-1"), req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateBookingRejectsPastDate(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest()
	req.SessionDate = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	_, err := f.service.Create(context.Background(), student("student-1"), req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	f.notifier.sent = nil

	confirmed, err := f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, PaymentPaid, confirmed.PaymentStatus)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, float64(50), f.dir.earnings["mentor-1"])

	// Both parties are told.
	require.Len(t, f.notifier.sent, 2)
}

func TestConfirmBookingIdempotent(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)
	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)

	// Earnings only counted once.
	assert.Equal(t, float64(50), f.dir.earnings["mentor-1"])
}

func TestConfirmCancelledBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	_, err = f.service.Cancel(context.Background(), student("student-1"), sess.ID, "")
	require.NoError(t, err)

	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestRejectPayment(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	rejected, err := f.service.RejectPayment(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rejected.Status)
	assert.Equal(t, PaymentRejected, rejected.PaymentStatus)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	f.notifier.sent = nil

	cancelled, err := f.service.Cancel(context.Background(), student("student-1"), sess.ID, "sick")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "mentor-1", f.notifier.sent[0].UserID)
}

func TestCancelBookingByMentorNotifiesStudent(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	f.notifier.sent = nil

	_, err = f.service.Cancel(context.Background(), mentor("mentor-1"), sess.ID, "")
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "student-1", f.notifier.sent[0].UserID)
}

func TestCancelBookingByStranger(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), student("student-2"), sess.ID, "")
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCancelCompletedBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)
	_, err = f.service.Complete(context.Background(), mentor("mentor-1"), sess.ID)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), admin("admin-1"), sess.ID, "")
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestCompleteBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)

	completed, err := f.service.Complete(context.Background(), mentor("mentor-1"), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
}

func TestCompleteBookingByStudent(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)

	_, err = f.service.Complete(context.Background(), student("student-1"), sess.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCompletePendingBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Complete(context.Background(), mentor("mentor-1"), sess.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

// ============================================================================
// RESCHEDULE
// ============================================================================

func TestRescheduleBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	_, err = f.service.Confirm(context.Background(), sess.ID)
	require.NoError(t, err)

	moved, err := f.service.Reschedule(context.Background(), student("student-1"), sess.ID, RescheduleRequest{
		SessionDate: f.date.Format("2006-01-02"),
		SessionTime: "14:00",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, moved.Status)
	assert.Equal(t, "14:00", moved.SessionTime)
	require.NotNil(t, moved.OriginalTime)
	assert.Equal(t, "10:00", *moved.OriginalTime)
	assert.Nil(t, moved.ConfirmedAt)
}

func TestRescheduleBookingToOwnSlot(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	// The session's current slot must not count as a conflict.
	_, err = f.service.Reschedule(context.Background(), student("student-1"), sess.ID, RescheduleRequest{
		SessionDate: f.date.Format("2006-01-02"),
		SessionTime: "10:00",
	})
	require.NoError(t, err)
}

func TestRescheduleBookingIntoTakenSlot(t *testing.T) {
	f := newFixture(t)
	first, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	req := f.createRequest()
	req.SessionTime = "14:00"
	_, err = f.service.Create(context.Background(), student("student-2"), req)
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), student("student-1"), first.ID, RescheduleRequest{
		SessionDate: f.date.Format("2006-01-02"),
		SessionTime: "14:00",
	})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestRescheduleCancelledBooking(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)
	_, err = f.service.Cancel(context.Background(), student("student-1"), sess.ID, "")
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), student("student-1"), sess.ID, RescheduleRequest{
		SessionDate: f.date.Format("2006-01-02"),
		SessionTime: "14:00",
	})
	require.ErrorIs(t, err, httpx.ErrInvalidTransition)
}

func TestRescheduleBookingByStranger(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), student("student-2"), sess.ID, RescheduleRequest{
		SessionDate: f.date.Format("2006-01-02"),
		SessionTime: "14:00",
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

// ============================================================================
// VISIBILITY
// ============================================================================

func TestGetBookingVisibility(t *testing.T) {
	f := newFixture(t)
	sess, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), student("student-1"), sess.ID)
	assert.NoError(t, err)
	_, err = f.service.Get(context.Background(), mentor("mentor-1"), sess.ID)
	assert.NoError(t, err)
	_, err = f.service.Get(context.Background(), admin("admin-1"), sess.ID)
	assert.NoError(t, err)

	_, err = f.service.Get(context.Background(), student("student-2"), sess.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListBookingsScopedByRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), student("student-1"), f.createRequest())
	require.NoError(t, err)

	req := f.createRequest()
	req.SessionTime = "14:00"
	_, err = f.service.Create(context.Background(), student("student-2"), req)
	require.NoError(t, err)

	items, _, err := f.service.List(context.Background(), student("student-1"), ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "student-1", items[0].StudentID)

	items, _, err = f.service.List(context.Background(), mentor("mentor-1"), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, page, err := f.service.List(context.Background(), admin("admin-1"), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, page.Total)

	// A student cannot widen the filter onto someone else's sessions.
	items, _, err = f.service.List(context.Background(), student("student-1"), ListFilter{StudentID: "student-2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "student-1", items[0].StudentID)
}
