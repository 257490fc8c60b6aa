package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, secret string) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", secret, time.Hour, false)
}

func commitCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.CookieName() {
			return c
		}
	}
	t.Fatalf("no session cookie written")
	return nil
}

func TestSignedCookieRoundTrip(t *testing.T) {
	sm := newTestManager(t, "hush")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Authenticate("user-1", "student", "Student")

	cookie := commitCookie(t, sm, sess)
	assert.NotEqual(t, sess.ID, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.UserID())
	assert.Equal(t, "student", loaded.Role())
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	sm := newTestManager(t, "hush")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Authenticate("user-1", "student", "Student")
	cookie := commitCookie(t, sm, sess)

	cases := []struct {
		name  string
		value string
	}{
		{"padded signature", cookie.Value + "x"},
		{"bare id without signature", sess.ID},
		{"id signed with another secret", sess.ID + "." + NewSessionManager(nil, "test_session", "other", time.Hour, false).sign(sess.ID)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: tc.value})
			loaded, err := sm.Load(ctx, req)
			require.NoError(t, err)
			assert.Empty(t, loaded.UserID())
		})
	}
}

func TestUnsignedManagerKeepsBareCookie(t *testing.T) {
	sm := newTestManager(t, "")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Authenticate("user-1", "student", "Student")
	cookie := commitCookie(t, sm, sess)
	assert.Equal(t, sess.ID, cookie.Value)
}
