package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/repository"
	memstore "neon-arcade/internal/repository/memory"
)

func newTestAuth(t *testing.T) (*authService, *memstore.Store, *time.Time) {
	t.Helper()

	store := memstore.NewStore()
	svc := NewAuthService(store.Users(), store.Sessions(), store.Locks(), AuthConfig{
		JWTSecret: []byte("test-secret"),
	}).(*authService)

	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }
	return svc, store, &now
}

func register(t *testing.T, svc *authService) *domain.User {
	t.Helper()

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "pw1",
		FullName: "Alice A",
		Email:    "a@x.com",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAssignsZeroedStats(t *testing.T) {
	svc, _, _ := newTestAuth(t)

	user := register(t, svc)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")
	assert.Equal(t, 0, user.Stats.TotalLogins)
	assert.Equal(t, domain.DifficultyEasy, user.Stats.MemoryLevel)
	assert.Equal(t, domain.DifficultyEasy, user.Stats.Simon.CurrentDiff)
	assert.Equal(t, domain.DifficultyEasy, user.Stats.Simon.UnlockedMax)
}

func TestRegisterDuplicateUsernameCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "ALICE",
		Password: "pw2",
		FullName: "Alice B",
		Email:    "b@x.com",
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuth(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "bob"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(context.Background(), RegisterInput{
		Username:        "bob",
		Password:        "pw1",
		ConfirmPassword: "pw2",
		FullName:        "Bob B",
		Email:           "b@x.com",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticateIssuesSession(t *testing.T) {
	svc, store, _ := newTestAuth(t)
	user := register(t, svc)

	session, token, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, 2*time.Hour, session.ExpiresAt.Sub(time.Unix(1700000000, 0)))

	// login stats bump
	fresh, err := store.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Stats.TotalLogins)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	register(t, svc)

	_, _, err := svc.Authenticate(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLockoutAfterThreeFailures(t *testing.T) {
	svc, _, now := newTestAuth(t)
	register(t, svc)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Authenticate(context.Background(), "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// locked regardless of credential correctness
	_, _, err := svc.Authenticate(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, ErrAccountLocked)

	// case variants share the lock
	_, _, err = svc.Authenticate(context.Background(), "ALICE", "pw1")
	assert.ErrorIs(t, err, ErrAccountLocked)

	// after the window elapses, correct credentials succeed
	*now = now.Add(61 * time.Second)
	_, _, err = svc.Authenticate(context.Background(), "alice", "pw1")
	assert.NoError(t, err)
}

func TestLockoutCounterResetsOnSuccess(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	register(t, svc)

	for i := 0; i < 2; i++ {
		_, _, _ = svc.Authenticate(context.Background(), "alice", "wrong")
	}
	_, _, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	// two more failures must not lock: the counter restarted
	for i := 0; i < 2; i++ {
		_, _, _ = svc.Authenticate(context.Background(), "alice", "wrong")
	}
	_, _, err = svc.Authenticate(context.Background(), "alice", "pw1")
	assert.NoError(t, err)
}

// failingUsers simulates a broken store behind the lookup path.
type failingUsers struct {
	repository.UserRepository
	err error
}

func (f failingUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, f.err
}

func TestStoreFailureIsNotACredentialMiss(t *testing.T) {
	store := memstore.NewStore()
	svc := NewAuthService(
		failingUsers{store.Users(), errors.New("disk unavailable")},
		store.Sessions(), store.Locks(),
		AuthConfig{JWTSecret: []byte("test-secret")},
	).(*authService)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	_, _, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	// the user is not charged a failed attempt for a broken store
	rec, err := store.GetLock(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestValidateSession(t *testing.T) {
	svc, _, now := newTestAuth(t)
	registered := register(t, svc)

	_, token, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	session, user, err := svc.ValidateSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, session.UserID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	// idempotent without intervening mutation
	again, _, err := svc.ValidateSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, again.ID)

	// expired sessions are cleared and invalid
	*now = now.Add(3 * time.Hour)
	_, _, err = svc.ValidateSession(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateSessionGarbageToken(t *testing.T) {
	svc, _, _ := newTestAuth(t)

	_, _, err := svc.ValidateSession(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogoutDestroysSession(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	register(t, svc)

	_, token, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))

	_, _, err = svc.ValidateSession(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// logout with no session is still fine
	assert.NoError(t, svc.Logout(context.Background()))
}

func TestSecondLoginReplacesSession(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	register(t, svc)

	_, first, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	_, second, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	// single active session: the earlier token no longer resolves
	_, _, err = svc.ValidateSession(context.Background(), first)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, _, err = svc.ValidateSession(context.Background(), second)
	assert.NoError(t, err)
}
