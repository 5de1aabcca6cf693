package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

type stubIdentityRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Identity
	nextID  int
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byEmail: make(map[string]*domain.Identity)}
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[identity.Email]; ok {
		return nil, domain.ErrIdentityExists
	}
	r.nextID++
	stored := *identity
	stored.ID = fmt.Sprintf("identity-%d", r.nextID)
	r.byEmail[stored.Email] = &stored
	out := stored
	return &out, nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity, ok := r.byEmail[email]; ok {
		out := *identity
		return &out, nil
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.byEmail {
		if identity.ID == id {
			out := *identity
			return &out, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) Update(_ context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.byEmail[identity.Email]; ok && stored.ID == identity.ID {
		updated := *identity
		r.byEmail[identity.Email] = &updated
		return nil
	}
	return domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) List(_ context.Context) ([]*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Identity, 0, len(r.byEmail))
	for _, identity := range r.byEmail {
		copied := *identity
		out = append(out, &copied)
	}
	return out, nil
}

type stubLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	max      int
	err      error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), max: max}
}

func (l *stubLimiter) Blocked(_ context.Context, email string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.failures[email] >= l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[email]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, email)
	return nil
}

type stubAuditSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *stubAuditSink) Record(event domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubAuditSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func newAuthFixture(t *testing.T) (*AuthService, *stubIdentityRepo, *stubSessionRepo, *stubLimiter, *stubAuditSink) {
	t.Helper()
	identities := newStubIdentityRepo()
	sessionRepo := newStubSessionRepo()
	sessions := NewSessionService(sessionRepo, NewTokenCodec("test-secret"), time.Hour)
	limiter := newStubLimiter(3)
	audit := &stubAuditSink{}
	svc := NewAuthService(identities, sessions, limiter, audit, bcrypt.MinCost, zerolog.Nop())
	return svc, identities, sessionRepo, limiter, audit
}

func registerTestIdentity(t *testing.T, svc *AuthService, email, password string) *domain.Identity {
	t.Helper()
	identity, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return identity
}

func TestAuthService_RegisterHashesPassword(t *testing.T) {
	svc, identities, _, _, audit := newAuthFixture(t)

	identity := registerTestIdentity(t, svc, "Ada@Example.COM", "correct horse")

	if identity.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized %q", identity.Email, "ada@example.com")
	}
	if identity.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("correct horse")); err != nil {
		t.Errorf("stored hash does not verify the password: %v", err)
	}
	if !identity.Active {
		t.Error("new identity is not active")
	}

	if _, err := identities.FindByEmail(context.Background(), "ada@example.com"); err != nil {
		t.Errorf("identity not persisted: %v", err)
	}
	if got := audit.actions(); len(got) != 1 || got[0] != domain.AuditRegister {
		t.Errorf("audit actions = %v, want [register]", got)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:     "ADA@example.com",
		Password:  "another pass",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if !errors.Is(err, domain.ErrIdentityExists) {
		t.Errorf("duplicate Register error = %v, want ErrIdentityExists", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)

	cases := []struct {
		name  string
		input ports.RegisterInput
	}{
		{"missing email", ports.RegisterInput{Password: "pw", FirstName: "A", LastName: "B"}},
		{"email without at", ports.RegisterInput{Email: "nope", Password: "pw", FirstName: "A", LastName: "B"}},
		{"missing password", ports.RegisterInput{Email: "a@b.c", FirstName: "A", LastName: "B"}},
		{"missing first name", ports.RegisterInput{Email: "a@b.c", Password: "pw", LastName: "B"}},
		{"missing last name", ports.RegisterInput{Email: "a@b.c", Password: "pw", FirstName: "A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.input); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAuthService_LoginSuccess(t *testing.T) {
	svc, _, sessionRepo, _, audit := newAuthFixture(t)
	registered := registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	token, identity, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Error("Login returned an empty token")
	}
	if identity.ID != registered.ID {
		t.Errorf("identity.ID = %q, want %q", identity.ID, registered.ID)
	}

	if active := sessionRepo.activeCount(registered.ID); active != 1 {
		t.Errorf("active sessions = %d, want 1", active)
	}
	actions := audit.actions()
	if len(actions) == 0 || actions[len(actions)-1] != domain.AuditLogin {
		t.Errorf("last audit action = %v, want login", actions)
	}
}

func TestAuthService_LoginTwiceKeepsOneSession(t *testing.T) {
	svc, _, sessionRepo, _, _ := newAuthFixture(t)
	registered := registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	first, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("first Login returned error: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse"); err != nil {
		t.Fatalf("second Login returned error: %v", err)
	}

	if active := sessionRepo.activeCount(registered.ID); active != 1 {
		t.Errorf("active sessions = %d, want 1", active)
	}
	firstSession, err := sessionRepo.FindByToken(context.Background(), first)
	if err != nil {
		t.Fatalf("FindByToken(first): %v", err)
	}
	if firstSession.Active {
		t.Error("first session still active after second login")
	}
}

func TestAuthService_LoginGenericFailure(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	// Unknown account and wrong password must be indistinguishable.
	_, _, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, _, wrongErr := svc.Login(context.Background(), "ada@example.com", "wrong password")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongErr)
	}
}

func TestAuthService_LoginSoftDeletedAccount(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	identity := registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	if err := svc.SoftDelete(context.Background(), identity, nil); err != nil {
		t.Fatalf("SoftDelete returned error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login after delete error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_LoginThrottled(t *testing.T) {
	svc, _, _, limiter, _ := newAuthFixture(t)
	registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	for i := 0; i < limiter.max; i++ {
		if _, _, err := svc.Login(context.Background(), "ada@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCredentials", i, err)
		}
	}

	// Budget exhausted: even the right password is refused now.
	if _, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Errorf("throttled Login error = %v, want ErrTooManyAttempts", err)
	}
}

func TestAuthService_LoginLimiterOutageFailsOpen(t *testing.T) {
	identities := newStubIdentityRepo()
	sessions := NewSessionService(newStubSessionRepo(), NewTokenCodec("test-secret"), time.Hour)
	limiter := newStubLimiter(3)
	var logBuf bytes.Buffer
	svc := NewAuthService(identities, sessions, limiter, &stubAuditSink{}, bcrypt.MinCost, zerolog.New(&logBuf))
	registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	limiter.err = errors.New("redis: connection refused")
	token, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login during limiter outage returned error: %v", err)
	}
	if token == "" {
		t.Error("Login during limiter outage returned an empty token")
	}
	if !strings.Contains(logBuf.String(), "login limiter unavailable") {
		t.Errorf("limiter outage not logged, log output: %q", logBuf.String())
	}
}

func TestAuthService_LoginResetsLimiter(t *testing.T) {
	svc, _, _, limiter, _ := newAuthFixture(t)
	registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	for i := 0; i < limiter.max-1; i++ {
		_, _, _ = svc.Login(context.Background(), "ada@example.com", "wrong")
	}
	if _, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	blocked, _ := limiter.Blocked(context.Background(), "ada@example.com")
	if blocked {
		t.Error("limiter still counts failures after a successful login")
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, sessionRepo, _, audit := newAuthFixture(t)
	identity := registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	token, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	session, err := sessionRepo.FindByToken(context.Background(), token)
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}

	if err := svc.Logout(context.Background(), session); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if active := sessionRepo.activeCount(identity.ID); active != 0 {
		t.Errorf("active sessions after logout = %d, want 0", active)
	}
	actions := audit.actions()
	if len(actions) == 0 || actions[len(actions)-1] != domain.AuditLogout {
		t.Errorf("last audit action = %v, want logout", actions)
	}

	if err := svc.Logout(context.Background(), nil); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Logout(nil) error = %v, want ErrSessionNotFound", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, identities, _, _, _ := newAuthFixture(t)
	identity := registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	updated, err := svc.UpdateProfile(context.Background(), identity, ports.ProfileUpdate{
		FirstName:  "Augusta",
		LastName:   "King",
		MiddleName: "Ada",
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.FirstName != "Augusta" || updated.LastName != "King" || updated.MiddleName != "Ada" {
		t.Errorf("profile = %q %q %q, want Augusta King Ada", updated.FirstName, updated.MiddleName, updated.LastName)
	}

	stored, err := identities.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if stored.FirstName != "Augusta" {
		t.Errorf("persisted first name = %q, want Augusta", stored.FirstName)
	}

	if _, err := svc.UpdateProfile(context.Background(), identity, ports.ProfileUpdate{LastName: "King"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing first name error = %v, want ErrInvalidInput", err)
	}
}

func TestAuthService_SoftDeleteKeepsRow(t *testing.T) {
	svc, identities, sessionRepo, _, audit := newAuthFixture(t)
	identity := registerTestIdentity(t, svc, "ada@example.com", "correct horse")

	token, _, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	session, err := sessionRepo.FindByToken(context.Background(), token)
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}

	if err := svc.SoftDelete(context.Background(), identity, session); err != nil {
		t.Fatalf("SoftDelete returned error: %v", err)
	}

	stored, err := identities.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("row removed instead of soft-deleted: %v", err)
	}
	if stored.Active || stored.DeletedAt == nil {
		t.Errorf("stored identity active=%v deletedAt=%v, want inactive with timestamp", stored.Active, stored.DeletedAt)
	}

	if active := sessionRepo.activeCount(identity.ID); active != 0 {
		t.Errorf("active sessions after delete = %d, want 0", active)
	}
	actions := audit.actions()
	if len(actions) == 0 || actions[len(actions)-1] != domain.AuditAccountDeleted {
		t.Errorf("last audit action = %v, want account_deleted", actions)
	}
}
