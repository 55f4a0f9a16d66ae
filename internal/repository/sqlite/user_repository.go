package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	total_logins INTEGER NOT NULL DEFAULT 0,
	points INTEGER NOT NULL DEFAULT 0,
	last_played DATETIME,
	memory_level TEXT NOT NULL DEFAULT 'easy',
	simon_current TEXT NOT NULL DEFAULT 'easy',
	simon_unlocked TEXT NOT NULL DEFAULT 'easy',
	simon_best_easy INTEGER NOT NULL DEFAULT 0,
	simon_best_medium INTEGER NOT NULL DEFAULT 0,
	simon_best_hard INTEGER NOT NULL DEFAULT 0
);
`

const userColumns = `id, username, password_hash, full_name, email, created_at,
total_logins, points, last_played, memory_level,
simon_current, simon_unlocked, simon_best_easy, simon_best_medium, simon_best_hard`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, full_name, email, created_at,
	total_logins, points, last_played, memory_level,
	simon_current, simon_unlocked, simon_best_easy, simon_best_medium, simon_best_hard)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.Email,
		user.CreatedAt,
		user.Stats.TotalLogins,
		user.Stats.Points,
		user.Stats.LastPlayed,
		string(user.Stats.MemoryLevel),
		string(user.Stats.Simon.CurrentDiff),
		string(user.Stats.Simon.UnlockedMax),
		user.Stats.Simon.BestFor(domain.DifficultyEasy),
		user.Stats.Simon.BestFor(domain.DifficultyMedium),
		user.Stats.Simon.BestFor(domain.DifficultyHard),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("%w: username %q", repository.ErrDuplicate, user.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	// username column is COLLATE NOCASE, so this match is case-insensitive
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepository) UpdateStats(ctx context.Context, id string, stats domain.Stats) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET
	total_logins = ?,
	points = ?,
	last_played = ?,
	memory_level = ?,
	simon_current = ?,
	simon_unlocked = ?,
	simon_best_easy = ?,
	simon_best_medium = ?,
	simon_best_hard = ?
WHERE id = ?`,
		stats.TotalLogins,
		stats.Points,
		stats.LastPlayed,
		string(stats.MemoryLevel),
		string(stats.Simon.CurrentDiff),
		string(stats.Simon.UnlockedMax),
		stats.Simon.BestFor(domain.DifficultyEasy),
		stats.Simon.BestFor(domain.DifficultyMedium),
		stats.Simon.BestFor(domain.DifficultyHard),
		id,
	)
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user                           domain.User
		lastPlayed                     sql.NullTime
		memoryLevel, current, unlocked string
		bestEasy, bestMedium, bestHard int
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.Email,
		&user.CreatedAt,
		&user.Stats.TotalLogins,
		&user.Stats.Points,
		&lastPlayed,
		&memoryLevel,
		&current,
		&unlocked,
		&bestEasy,
		&bestMedium,
		&bestHard,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if lastPlayed.Valid {
		t := lastPlayed.Time
		user.Stats.LastPlayed = &t
	}
	user.Stats.MemoryLevel = domain.Difficulty(memoryLevel)
	user.Stats.Simon = domain.SimonStats{
		CurrentDiff: domain.Difficulty(current),
		UnlockedMax: domain.Difficulty(unlocked),
		BestByDiff: map[domain.Difficulty]int{
			domain.DifficultyEasy:   bestEasy,
			domain.DifficultyMedium: bestMedium,
			domain.DifficultyHard:   bestHard,
		},
	}
	return &user, nil
}
