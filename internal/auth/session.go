package auth

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie is the cookie carrying the session ID.
const SessionCookie = "pressview_session"

const cookieMaxAge = 24 * 60 * 60

// Store maps session IDs to WordPress access tokens. In-memory only:
// sessions do not survive a restart, matching the single-user deployment
// this serves.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{tokens: make(map[string]string)}
}

// Issue stores a token under a fresh session ID and returns the ID.
func (s *Store) Issue(token string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.tokens[id] = token
	s.mu.Unlock()
	return id
}

// Token looks up the access token for a session ID.
func (s *Store) Token(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	return token, ok
}

// Revoke drops a session.
func (s *Store) Revoke(id string) {
	s.mu.Lock()
	delete(s.tokens, id)
	s.mu.Unlock()
}

// TokenFromRequest resolves the caller's access token: the Authorization
// bearer header wins, then the session cookie. Returns "" when neither is
// present.
func (s *Store) TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && header[:len(prefix)] == prefix {
			return header[len(prefix):]
		}
	}
	id, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	token, _ := s.Token(id)
	return token
}

// SetSessionCookie attaches the session cookie to the response. HttpOnly
// keeps the token out of reach of injected page scripts.
func SetSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sessionID, cookieMaxAge, "/", "", false, true)
}
