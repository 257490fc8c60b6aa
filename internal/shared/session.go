package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager orchestrates cookie based sessions backed by Redis. The
// cookie value carries an HMAC of the session id; a value that fails
// verification is treated as anonymous.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	secret     []byte
	ttl        time.Duration
	secure     bool
}

// Session holds the authenticated identity for one request.
type Session struct {
	ID        string
	userID    string
	role      string
	name      string
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

// NewSessionManager constructs a SessionManager. An empty secret disables
// cookie signing.
func NewSessionManager(client *redis.Client, cookieName, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		secret:     []byte(secret),
		ttl:        ttl,
		secure:     secure,
	}
}

// CookieName returns the configured session cookie name.
func (sm *SessionManager) CookieName() string { return sm.cookieName }

// TTL returns the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

func (sm *SessionManager) newSession() *Session {
	return &Session{ID: uuid.NewString(), isNew: true}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// cookieValue renders the outgoing cookie: "<id>.<hmac>" when a secret is
// configured, the bare id otherwise.
func (sm *SessionManager) cookieValue(id string) string {
	if len(sm.secret) == 0 {
		return id
	}
	return id + "." + sm.sign(id)
}

// parseCookie extracts and verifies the session id from an incoming cookie
// value. A missing or forged signature fails verification.
func (sm *SessionManager) parseCookie(value string) (string, bool) {
	if len(sm.secret) == 0 {
		return value, value != ""
	}
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sm.sign(id))) {
		return "", false
	}
	return id, true
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	id, ok := sm.parseCookie(cookie.Value)
	if !ok {
		return sm.newSession(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = id
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	return &Session{
		ID:     id,
		userID: stored.UserID,
		role:   stored.Role,
		name:   stored.Name,
	}, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	if !sess.dirty && !sess.isNew {
		// Refresh TTL on read so active sessions do not expire mid-use.
		return sm.client.Expire(ctx, sm.redisKey(sess.ID), sm.ttl).Err()
	}

	payload, err := json.Marshal(sessionPayload{UserID: sess.userID, Role: sess.role, Name: sess.name})
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), payload, sm.ttl).Err(); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sm.cookieValue(sess.ID),
		Path:     "/",
		MaxAge:   int(sm.ttl / time.Second),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Authenticate binds an identity to the session.
func (s *Session) Authenticate(userID, role, name string) {
	s.userID = userID
	s.role = role
	s.name = name
	s.dirty = true
}

// Destroy marks the session for deletion on commit.
func (s *Session) Destroy() {
	s.destroyed = true
}

// UserID returns the authenticated user id, empty when anonymous.
func (s *Session) UserID() string { return s.userID }

// Role returns the authenticated role, empty when anonymous.
func (s *Session) Role() string { return s.role }

// Name returns the display name captured at login.
func (s *Session) Name() string { return s.name }
