package underground

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is the sliding expiry window for both admin and
// artist tokens.
const DefaultSessionTTL = time.Hour

type artistSession struct {
	artistID string
	expiry   time.Time
}

// Sessions is the in-memory token registry. Tokens live only in process
// memory; a restart invalidates everything. Every successful validation
// slides the expiry forward by the TTL, and an expired token is deleted
// on its next check.
type Sessions struct {
	mu        sync.Mutex
	adminUser string
	adminPass string
	ttl       time.Duration
	admin     map[string]time.Time
	artists   map[string]artistSession

	// Now is the time source, replaceable in tests.
	Now func() time.Time
}

func NewSessions(adminUser, adminPass string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		adminUser: adminUser,
		adminPass: adminPass,
		ttl:       ttl,
		admin:     make(map[string]time.Time),
		artists:   make(map[string]artistSession),
		Now:       time.Now,
	}
}

// Login checks the configured admin credential pair and mints an admin
// token on success.
func (s *Sessions) Login(username, password string) (string, error) {
	if username != s.adminUser || password != s.adminPass {
		return "", ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.admin[token] = s.Now().Add(s.ttl)
	return token, nil
}

// IssueArtist mints a token scoped to one artist. Credential checking
// happens before this call, against the live roster.
func (s *Sessions) IssueArtist(artistID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.artists[token] = artistSession{artistID: artistID, expiry: s.Now().Add(s.ttl)}
	return token
}

// ValidateAdmin reports whether token is a live admin session, renewing
// it when it is.
func (s *Sessions) ValidateAdmin(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.admin[token]
	if !ok {
		return false
	}
	if s.Now().After(expiry) {
		delete(s.admin, token)
		return false
	}
	s.admin[token] = s.Now().Add(s.ttl)
	return true
}

// ValidateArtist resolves token to the artist id it was issued for,
// renewing the session on success.
func (s *Sessions) ValidateArtist(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.artists[token]
	if !ok {
		return "", false
	}
	if s.Now().After(sess.expiry) {
		delete(s.artists, token)
		return "", false
	}
	sess.expiry = s.Now().Add(s.ttl)
	s.artists[token] = sess
	return sess.artistID, true
}

// matchesLogin reports whether the id/email pair matches, ignoring
// case, the way artist self-service login compares credentials.
func matchesLogin(gotID, gotEmail, wantID, wantEmail string) bool {
	return strings.EqualFold(gotID, wantID) && strings.EqualFold(gotEmail, wantEmail)
}
