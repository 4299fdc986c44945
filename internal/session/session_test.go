package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAccountStore struct {
	accounts map[string]Account
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: make(map[string]Account)}
}

func (s *memoryAccountStore) CreateAccount(_ context.Context, account Account) error {
	s.accounts[account.BusinessEmail] = account
	return nil
}

func (s *memoryAccountStore) AccountByEmail(_ context.Context, email string) (Account, error) {
	account, ok := s.accounts[email]
	if !ok {
		return Account{}, fmt.Errorf("account %s not found", email)
	}
	return account, nil
}

func testManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Minimum cost keeps the bcrypt calls fast in tests.
	return NewManager(newMemoryAccountStore(), ttl, 4, logger)
}

func TestRegisterAndLogin(t *testing.T) {
	m := testManager(t, time.Hour)
	ctx := context.Background()

	account, err := m.Register(ctx, "Halal Cart Co", "Owner@Example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, account.BusinessID)
	assert.Equal(t, "owner@example.com", account.BusinessEmail)
	assert.NotEqual(t, "s3cret", account.PasswordHash)

	sess, err := m.Login(ctx, "owner@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, account.BusinessID, sess.BusinessID)

	resolved, ok := m.Resolve(sess.Token)
	require.True(t, ok)
	assert.Equal(t, sess.BusinessID, resolved.BusinessID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	m := testManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Register(ctx, "First", "owner@example.com", "pw")
	require.NoError(t, err)

	_, err = m.Register(ctx, "Second", "owner@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	m := testManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Register(ctx, "Cart", "owner@example.com", "right")
	require.NoError(t, err)

	_, err = m.Login(ctx, "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "nobody@example.com", "right")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutClearsSession(t *testing.T) {
	m := testManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Register(ctx, "Cart", "owner@example.com", "pw")
	require.NoError(t, err)
	sess, err := m.Login(ctx, "owner@example.com", "pw")
	require.NoError(t, err)

	m.Logout(sess.Token)
	_, ok := m.Resolve(sess.Token)
	assert.False(t, ok)
}

func TestResolveExpiredSession(t *testing.T) {
	m := testManager(t, -time.Minute)
	ctx := context.Background()

	_, err := m.Register(ctx, "Cart", "owner@example.com", "pw")
	require.NoError(t, err)
	sess, err := m.Login(ctx, "owner@example.com", "pw")
	require.NoError(t, err)

	_, ok := m.Resolve(sess.Token)
	assert.False(t, ok)
}

func TestSessionContextRoundTrip(t *testing.T) {
	sess := Session{Token: "tok", BusinessID: "biz-1"}
	ctx := WithSession(context.Background(), sess)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, sess, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
