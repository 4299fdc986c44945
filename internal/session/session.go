// Package session manages business accounts and their login sessions.
//
// Sessions are explicit values resolved from a bearer token and carried in
// the request context; nothing in the core reads ambient authentication
// state. The lifecycle is init-on-login, clear-on-logout.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "vendtune/internal/errors"
)

// Account is a registered business.
type Account struct {
	BusinessID    string
	BusinessName  string
	BusinessEmail string
	PasswordHash  string
	CreatedAt     time.Time
}

// Session is one authenticated login for a business.
type Session struct {
	Token      string
	BusinessID string
	ExpiresAt  time.Time
}

// AccountStore persists business accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account Account) error
	AccountByEmail(ctx context.Context, email string) (Account, error)
}

// ErrInvalidCredentials is returned when login fails; it deliberately does
// not reveal whether the email exists.
var ErrInvalidCredentials = apperrors.NewSessionError("invalid email or password", nil)

// ErrEmailTaken is returned when registering an already-registered email.
var ErrEmailTaken = apperrors.NewValidationError("business email already registered", nil)

// Manager issues and resolves sessions over an account store.
type Manager struct {
	store      AccountStore
	logger     *slog.Logger
	ttl        time.Duration
	bcryptCost int

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewManager creates a session manager.
func NewManager(store AccountStore, ttl time.Duration, bcryptCost int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Manager{
		store:      store,
		logger:     logger.With(slog.String("component", "session_manager")),
		ttl:        ttl,
		bcryptCost: bcryptCost,
		sessions:   make(map[string]Session),
	}
}

// Register creates a new business account. The password is stored only as a
// bcrypt hash.
func (m *Manager) Register(ctx context.Context, name, email, password string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := m.store.AccountByEmail(ctx, email); err == nil {
		return Account{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		BusinessID:    uuid.New().String(),
		BusinessName:  name,
		BusinessEmail: email,
		PasswordHash:  string(hash),
		CreatedAt:     time.Now(),
	}

	if err := m.store.CreateAccount(ctx, account); err != nil {
		return Account{}, apperrors.NewStorageError("creating account", err)
	}

	m.logger.InfoContext(ctx, "business registered",
		slog.String("business_id", account.BusinessID))

	return account, nil
}

// Login verifies credentials and opens a session.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := m.store.AccountByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	sess := Session{
		Token:      uuid.New().String(),
		BusinessID: account.BusinessID,
		ExpiresAt:  time.Now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[sess.Token] = sess
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session opened",
		slog.String("business_id", account.BusinessID))

	return sess, nil
}

// Resolve returns the session for a token, or false if the token is unknown
// or expired. Expired sessions are dropped on resolution.
func (m *Manager) Resolve(token string) (Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		m.Logout(token)
		return Session{}, false
	}
	return sess, true
}

// Logout discards the session for a token. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// sessionContextKey is the context key type for the resolved session.
type sessionContextKey struct{}

// WithSession returns a context carrying the resolved session.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext extracts the session placed by the auth middleware.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(Session)
	return sess, ok
}
