package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

// SessionService is the session registry. It enforces the single-active-
// session invariant: opening a session for an identity deactivates every
// prior active session for that identity first, and concurrent opens for the
// same identity serialize on a per-identity lock so exactly one survives.
type SessionService struct {
	repo  ports.SessionRepository
	codec ports.TokenCodec
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swappable in tests.
	now func() time.Time
}

func NewSessionService(repo ports.SessionRepository, codec ports.TokenCodec, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{
		repo:  repo,
		codec: codec,
		ttl:   ttl,
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

// identityLock returns the mutex serializing session writes for one identity.
func (s *SessionService) identityLock(identityID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[identityID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identityID] = l
	}
	return l
}

// Open deactivates any active sessions of the identity, mints a fresh token
// and persists one new active session expiring at now+TTL. Deactivated rows
// persist for audit.
func (s *SessionService) Open(ctx context.Context, identity *domain.Identity) (*domain.Session, error) {
	if identity == nil || identity.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	lock := s.identityLock(identity.ID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.repo.DeactivateAll(ctx, identity.ID); err != nil {
		return nil, fmt.Errorf("deactivate prior sessions: %w", err)
	}

	now := s.now().UTC()
	token, err := s.codec.Issue(identity.ID, now, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	session := &domain.Session{
		IdentityID: identity.ID,
		Token:      token,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
		Active:     true,
	}
	return s.repo.Insert(ctx, session)
}

// LookupByToken returns the session bound to the token, or
// domain.ErrSessionNotFound.
func (s *SessionService) LookupByToken(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}
	return s.repo.FindByToken(ctx, token)
}

// Invalidate deactivates a session. Invalidating an already-inactive session
// is a no-op, not an error.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repo.Deactivate(ctx, sessionID)
}
