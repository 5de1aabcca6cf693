package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

// AuthService implements registration, credential verification and the
// login/logout/soft-delete flows. Passwords are stored only as salted bcrypt
// hashes; comparison goes through bcrypt's constant-time check.
type AuthService struct {
	identities ports.IdentityRepository
	sessions   ports.SessionService
	limiter    ports.LoginLimiter
	audit      ports.AuditSink
	cost       int
	log        zerolog.Logger

	now func() time.Time
}

func NewAuthService(identities ports.IdentityRepository, sessions ports.SessionService, limiter ports.LoginLimiter, audit ports.AuditSink, bcryptCost int, log zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		identities: identities,
		sessions:   sessions,
		limiter:    limiter,
		audit:      audit,
		cost:       bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Identity, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidInput
	}
	if input.Password == "" || input.FirstName == "" || input.LastName == "" {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := &domain.Identity{
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		MiddleName:   input.MiddleName,
		PasswordHash: string(hash),
		Active:       true,
		JoinedAt:     s.now().UTC(),
	}

	created, err := s.identities.Create(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.record(created, domain.AuditRegister)
	return created, nil
}

// Login verifies credentials and opens a session. Unknown email, wrong
// password and soft-deleted accounts all fail with ErrInvalidCredentials so
// callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		blocked, err := s.limiter.Blocked(ctx, email)
		if err != nil {
			// Fail open: a throttle outage must not lock everyone out.
			s.log.Error().Err(err).Msg("login limiter unavailable, failing open")
		} else if blocked {
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.failedAttempt(ctx, email)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !identity.Alive() {
		s.failedAttempt(ctx, email)
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		s.failedAttempt(ctx, email)
		s.record(identity, domain.AuditLoginFailed)
		return "", nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.Open(ctx, identity)
	if err != nil {
		return "", nil, err
	}

	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, email)
	}
	s.record(identity, domain.AuditLogin)
	return session.Token, identity, nil
}

func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrSessionNotFound
	}
	if err := s.sessions.Invalidate(ctx, session.ID); err != nil {
		return err
	}
	s.record(&domain.Identity{ID: session.IdentityID}, domain.AuditLogout)
	return nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, identity *domain.Identity, update ports.ProfileUpdate) (*domain.Identity, error) {
	if identity == nil {
		return nil, domain.ErrIdentityNotFound
	}
	if update.FirstName == "" || update.LastName == "" {
		return nil, domain.ErrInvalidInput
	}

	identity.FirstName = update.FirstName
	identity.LastName = update.LastName
	identity.MiddleName = update.MiddleName

	if err := s.identities.Update(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// SoftDelete deactivates the account, stamps the deletion time and
// invalidates the current session. The row is never removed.
func (s *AuthService) SoftDelete(ctx context.Context, identity *domain.Identity, session *domain.Session) error {
	if identity == nil {
		return domain.ErrIdentityNotFound
	}

	now := s.now().UTC()
	identity.Active = false
	identity.DeletedAt = &now

	if err := s.identities.Update(ctx, identity); err != nil {
		return err
	}
	if session != nil {
		if err := s.sessions.Invalidate(ctx, session.ID); err != nil {
			return err
		}
	}
	s.record(identity, domain.AuditAccountDeleted)
	return nil
}

func (s *AuthService) failedAttempt(ctx context.Context, email string) {
	if s.limiter != nil {
		_ = s.limiter.RecordFailure(ctx, email)
	}
}

func (s *AuthService) record(identity *domain.Identity, action domain.AuditAction) {
	if s.audit == nil || identity == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Action:     action,
		Timestamp:  s.now().UTC(),
	})
}
