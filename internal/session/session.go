// Package session provides Valkey-backed HTTP session management.
// Authenticated sessions are identified by a secure cookie and stored as
// JSON in Valkey with automatic TTL expiry. A lighter anonymous visitor
// cookie backs flash messages and per-session view de-duplication.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the authenticated session cookie.
	CookieName = "sb_session"

	// VisitorCookieName identifies a browser session for flashes and
	// view counting, set for anonymous visitors as well.
	VisitorCookieName = "sb_visitor"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// viewTTL bounds how long a recorded post view suppresses recounting.
	viewTTL = 24 * time.Hour

	keyPrefix      = "session:"
	flashKeyPrefix = "flash:"
	viewKeyPrefix  = "viewed:"

	// idLength is the byte length of random IDs (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the session payload stored in Valkey.
type Data struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// Flash is a one-time notification message displayed on the next page load.
type Flash struct {
	Type    string `json:"type"` // "success", "error", "warning", "info"
	Message string `json:"message"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// When secure is true, cookies are marked HTTPS-only.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err == redis.Nil {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	s.client.Del(ctx, keyPrefix+cookie.Value)

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

// VisitorID returns the browser-session identifier, generating and setting
// the cookie if this visitor doesn't have one yet. It works for anonymous
// and authenticated visitors alike.
func (s *Store) VisitorID(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(VisitorCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("visitor id: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// AddFlash queues a one-time message for the visitor's next page load.
func (s *Store) AddFlash(ctx context.Context, visitorID, flashType, message string) {
	payload, err := json.Marshal(Flash{Type: flashType, Message: message})
	if err != nil {
		return
	}
	key := flashKeyPrefix + visitorID
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.ttl)
	pipe.Exec(ctx)
}

// PopFlashes returns and clears all queued flash messages for the visitor.
func (s *Store) PopFlashes(ctx context.Context, visitorID string) []Flash {
	key := flashKeyPrefix + visitorID

	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(items) == 0 {
		return nil
	}
	s.client.Del(ctx, key)

	flashes := make([]Flash, 0, len(items))
	for _, item := range items {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err == nil {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// MarkViewed records that this browser session viewed the given post.
// It returns true only the first time, so callers increment the view
// counter exactly once per session. The flag is last-write-wins under
// concurrent requests from the same session, which is acceptable.
func (s *Store) MarkViewed(ctx context.Context, visitorID string, postID uuid.UUID) (bool, error) {
	key := viewKeyPrefix + visitorID

	added, err := s.client.SAdd(ctx, key, postID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("mark viewed: %w", err)
	}
	s.client.Expire(ctx, key, viewTTL)

	return added == 1, nil
}

// generateID creates a cryptographically random identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
