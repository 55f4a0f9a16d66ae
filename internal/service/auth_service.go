package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"neon-arcade/internal/auth"
	"neon-arcade/internal/domain"
	"neon-arcade/internal/repository"
)

var (
	// ErrValidation indicates missing or malformed form fields; the
	// caller re-prompts.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUsername is returned when registering a username that
	// already exists, compared case-insensitively.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials indicates a username/password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the username is under a temporary
	// lockout from repeated failed logins.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrInvalidSession indicates a missing or expired session.
	ErrInvalidSession = errors.New("invalid session")
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	FullName        string
	Email           string
}

// AuthService owns registration, credential checks, lockout, and the
// session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Authenticate returns the issued session and its bearer token.
	Authenticate(ctx context.Context, username, password string) (*domain.Session, string, error)
	// ValidateSession resolves a bearer token to the live session and
	// its user. An expired session is cleared and reported invalid.
	ValidateSession(ctx context.Context, token string) (*domain.Session, *domain.User, error)
	Logout(ctx context.Context) error
}

// AuthConfig tunes the identity manager.
type AuthConfig struct {
	JWTSecret        []byte
	SessionTTL       time.Duration
	LockoutThreshold int
	LockoutWindow    time.Duration
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	locks    repository.LockRepository
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, locks repository.LockRepository, cfg AuthConfig) AuthService {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.LockoutThreshold == 0 {
		cfg.LockoutThreshold = 3
	}
	if cfg.LockoutWindow == 0 {
		cfg.LockoutWindow = 60 * time.Second
	}
	return &authService{
		users:    users,
		sessions: sessions,
		locks:    locks,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || in.Password == "" || in.FullName == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if in.ConfirmPassword != "" && in.Password != in.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up username: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Email:        in.Email,
		CreatedAt:    s.now().UTC(),
		Stats:        domain.NewStats(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return sanitizeUser(user), nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*domain.Session, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	key := strings.ToLower(username)

	rec, err := s.locks.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("read lockout record: %w", err)
	}
	if rec.Locked(now) {
		return nil, "", ErrAccountLocked
	}

	// only a genuine credential mismatch counts against the lockout;
	// a store failure is the server's fault, not the user's
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.registerFailedAttempt(ctx, key, now)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.registerFailedAttempt(ctx, key, now)
		return nil, "", ErrInvalidCredentials
	}

	// successful login clears the lockout state
	if err := s.locks.Delete(ctx, key); err != nil {
		return nil, "", fmt.Errorf("clear lockout record: %w", err)
	}

	// re-read then write: the login counter must not clobber stats
	// written by another component
	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("reload user: %w", err)
	}
	fresh.Stats.TotalLogins++
	if err := s.users.UpdateStats(ctx, fresh.ID, fresh.Stats); err != nil {
		return nil, "", fmt.Errorf("record login: %w", err)
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}

	token, err := auth.GenerateToken(session.ID, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	return &session, token, nil
}

// registerFailedAttempt counts a failure; at the threshold it arms a
// lockout and resets the counter. Failures here never fail the login
// flow itself.
func (s *authService) registerFailedAttempt(ctx context.Context, key string, now time.Time) {
	rec, err := s.locks.Get(ctx, key)
	if err != nil {
		return
	}
	if rec == nil {
		rec = &domain.LockoutRecord{}
	}

	rec.FailedCount++
	if rec.FailedCount >= s.cfg.LockoutThreshold {
		rec.LockedUntil = now.Add(s.cfg.LockoutWindow)
		rec.FailedCount = 0
	}

	_ = s.locks.Upsert(ctx, key, *rec)
}

func (s *authService) ValidateSession(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	sessionID, err := auth.SessionIDFromToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, ErrInvalidSession
	}

	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read session: %w", err)
	}
	if session == nil || session.ID != sessionID {
		return nil, nil, ErrInvalidSession
	}
	if !session.Valid(s.now()) {
		_ = s.sessions.Clear(ctx)
		return nil, nil, ErrInvalidSession
	}

	// the session never carries user data; re-resolve the record
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("reload user: %w", err)
	}

	return session, sanitizeUser(user), nil
}

func (s *authService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	out := *user
	out.PasswordHash = ""
	return &out
}
