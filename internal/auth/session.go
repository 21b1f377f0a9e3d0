// Package auth provides password hashing, server-side sessions and the gin
// middleware that resolves the principal of each request.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"amparo/internal/models"
)

var (
	// ErrSessionNotFound is returned when a session is not found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when trying to access an expired session.
	ErrSessionExpired = errors.New("session expired")
)

// Principal is the identity attached to an authenticated session.
type Principal struct {
	AccountID uint        `json:"account_id"`
	Role      models.Role `json:"role"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
}

// Key identifies the account across both roles, e.g. "patient:3".
func (p Principal) Key() string {
	return AccountKey(p.Role, p.AccountID)
}

// AccountKey builds the key Principal.Key returns.
func AccountKey(role models.Role, id uint) string {
	return fmt.Sprintf("%s:%d", role, id)
}

// Session is a server-side login. Its ID is the opaque token carried by the cookie.
type Session struct {
	ID        string    `json:"id"`
	Principal Principal `json:"principal"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// NewSession creates a session for p that lives for ttl.
func NewSession(p Principal, ttl time.Duration) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        id,
		Principal: p,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SessionStore defines the interface for session storage backends.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if not found and ErrSessionExpired if expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces the principal of an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session by ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByAccount removes every session of the account and returns how many were removed.
	DeleteByAccount(ctx context.Context, accountKey string) (int, error)

	Close() error
}

// MemorySessionStore is an in-memory implementation of SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *MemorySessionStore) Update(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) DeleteByAccount(_ context.Context, accountKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.Principal.Key() == accountKey {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// CleanupExpired removes all expired sessions.
func (s *MemorySessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count
}

// StartCleanupRoutine periodically removes expired sessions until ctx is done.
func (s *MemorySessionStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *MemorySessionStore) Close() error { return nil }
