package reviews

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/mentorhub/internal/booking"
	"github.com/mentorhub/mentorhub/internal/notifications"
	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
)

type mockRepo struct {
	reviews map[string]*Review
	nextID  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{reviews: make(map[string]*Review), nextID: 1}
}

func (m *mockRepo) Insert(_ context.Context, rev Review) (Review, error) {
	for _, existing := range m.reviews {
		if existing.SessionID == rev.SessionID {
			return Review{}, fmt.Errorf("%w: session already reviewed", httpx.ErrConflict)
		}
	}
	rev.ID = fmt.Sprintf("rev-%d", m.nextID)
	m.nextID++
	rev.CreatedAt = time.Now().UTC()
	rev.UpdatedAt = rev.CreatedAt
	m.reviews[rev.ID] = &rev
	return rev, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*Review, error) {
	rev, ok := m.reviews[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *rev
	return &clone, nil
}

func (m *mockRepo) GetBySession(_ context.Context, sessionID string) (*Review, error) {
	for _, rev := range m.reviews {
		if rev.SessionID == sessionID {
			clone := *rev
			return &clone, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockRepo) ListForMentor(_ context.Context, mentorID string, limit, offset int) ([]ReviewWithAuthor, int, error) {
	var out []ReviewWithAuthor
	for _, rev := range m.reviews {
		if rev.MentorID == mentorID {
			out = append(out, ReviewWithAuthor{Review: *rev})
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, id string, rating int, comment string) error {
	rev, ok := m.reviews[id]
	if !ok {
		return httpx.ErrNotFound
	}
	rev.Rating = rating
	rev.Comment = comment
	rev.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.reviews[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *mockRepo) SetResponse(_ context.Context, id, response string) error {
	rev, ok := m.reviews[id]
	if !ok {
		return httpx.ErrNotFound
	}
	now := time.Now().UTC()
	rev.MentorResponse = &response
	rev.RespondedAt = &now
	return nil
}

type mockSessions struct {
	sessions map[string]*booking.Session
}

func (m *mockSessions) Get(_ context.Context, id string) (*booking.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return sess, nil
}

type mockRatings struct {
	recorded []int
}

func (m *mockRatings) RecordRating(_ context.Context, _ string, rating int) {
	m.recorded = append(m.recorded, rating)
}

type mockNotifier struct {
	sent []notifications.Notification
}

func (m *mockNotifier) Send(_ context.Context, n notifications.Notification) error {
	m.sent = append(m.sent, n)
	return nil
}

type fixture struct {
	repo     *mockRepo
	ratings  *mockRatings
	notifier *mockNotifier
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	ratings := &mockRatings{}
	notifier := &mockNotifier{}
	sessions := &mockSessions{sessions: map[string]*booking.Session{
		"sess-done": {ID: "sess-done", StudentID: "student-1", MentorID: "mentor-1", Status: booking.StatusCompleted},
		"sess-open": {ID: "sess-open", StudentID: "student-1", MentorID: "mentor-1", Status: booking.StatusConfirmed},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, sessions, ratings, notifier, logger)
	return &fixture{repo: repo, ratings: ratings, notifier: notifier, service: svc}
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

func TestCreateReview(t *testing.T) {
	f := newFixture(t)

	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{
		SessionID: "sess-done", Rating: 5, Comment: "great",
	})
	require.NoError(t, err)
	assert.Equal(t, "mentor-1", rev.MentorID)
	assert.Equal(t, []int{5}, f.ratings.recorded)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "mentor-1", f.notifier.sent[0].UserID)
	assert.Equal(t, notifications.TypeReview, f.notifier.sent[0].Type)
}

func TestForSessionVisibility(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)

	// Both parties and review admins can read it.
	for _, actor := range []rbac.AccessContext{student("student-1"), mentor("mentor-1"), admin("admin-1")} {
		rev, err := f.service.ForSession(context.Background(), actor, "sess-done")
		require.NoError(t, err)
		assert.Equal(t, created.ID, rev.ID)
	}

	// Strangers cannot tell the session exists.
	_, err = f.service.ForSession(context.Background(), student("student-2"), "sess-done")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	// A session without a review reads as absent.
	_, err = f.service.ForSession(context.Background(), student("student-1"), "sess-open")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateReviewTwice(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)
	_, err = f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 4})
	require.ErrorIs(t, err, httpx.ErrConflict)

	// The duplicate must not feed the aggregate again.
	assert.Equal(t, []int{5}, f.ratings.recorded)
}

func TestCreateReviewForUnfinishedSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-open", Rating: 5})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateReviewForSomeoneElsesSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), student("student-2"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateReviewRatingBounds(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 6})
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 0})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateReviewWithinWindow(t *testing.T) {
	f := newFixture(t)
	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)

	updated, err := f.service.Update(context.Background(), student("student-1"), rev.ID, UpdateRequest{Rating: 3, Comment: "revised"})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)
}

func TestUpdateReviewAfterWindow(t *testing.T) {
	f := newFixture(t)
	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)

	f.service.now = func() time.Time { return time.Now().UTC().Add(EditWindow + time.Hour) }

	_, err = f.service.Update(context.Background(), student("student-1"), rev.ID, UpdateRequest{Rating: 3})
	require.ErrorIs(t, err, httpx.ErrConflict)

	// Admins bypass the window.
	_, err = f.service.Update(context.Background(), admin("admin-1"), rev.ID, UpdateRequest{Rating: 3})
	require.NoError(t, err)
}

func TestDeleteReviewWindows(t *testing.T) {
	f := newFixture(t)
	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)

	f.service.now = func() time.Time { return time.Now().UTC().Add(DeleteWindow + time.Hour) }
	err = f.service.Delete(context.Background(), student("student-1"), rev.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	err = f.service.Delete(context.Background(), admin("admin-1"), rev.ID)
	require.NoError(t, err)
}

func TestDeleteReviewByStranger(t *testing.T) {
	f := newFixture(t)
	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), student("student-2"), rev.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestRespondToReview(t *testing.T) {
	f := newFixture(t)
	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)
	f.notifier.sent = nil

	responded, err := f.service.Respond(context.Background(), mentor("mentor-1"), rev.ID, RespondRequest{Response: "thanks"})
	require.NoError(t, err)
	require.NotNil(t, responded.MentorResponse)
	assert.Equal(t, "thanks", *responded.MentorResponse)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "student-1", f.notifier.sent[0].UserID)
}

func TestRespondToReviewByOtherMentor(t *testing.T) {
	f := newFixture(t)
	rev, err := f.service.Create(context.Background(), student("student-1"), CreateRequest{SessionID: "sess-done", Rating: 5})
	require.NoError(t, err)

	_, err = f.service.Respond(context.Background(), mentor("mentor-2"), rev.ID, RespondRequest{Response: "thanks"})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}
