// Package admin — repository.go хранит сессии и попытки входа.
// PostgresRepository работает с таблицами admin_sessions и admin_login_attempts,
// MemoryRepository используется без базы (STORE_DRIVER=memory|sqlite) и в тестах.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSession — у пользователя нет активной сессии.
var ErrNoSession = errors.New("активная сессия не найдена")

// Repository — хранилище сессий и попыток входа.
type Repository interface {
	CreateSession(ctx context.Context, s Session) error
	ActiveSession(ctx context.Context, userID int64, now time.Time) (Session, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	TouchSession(ctx context.Context, userID int64, at time.Time) error
	LogAttempt(ctx context.Context, a LoginAttempt) error
	FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// PostgresRepository — сессии в PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository создаёт репозиторий.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, s Session) error {
	query := `
		INSERT INTO admin_sessions (user_id, session_token, authenticated_at, expires_at, last_activity, is_active)
		VALUES ($1, $2, $3, $4, $3, TRUE)
	`
	if _, err := r.db.Exec(ctx, query, s.UserID, s.Token, s.AuthenticatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ActiveSession(ctx context.Context, userID int64, now time.Time) (Session, error) {
	query := `
		SELECT user_id, session_token, authenticated_at, expires_at, last_activity
		FROM admin_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2
		ORDER BY authenticated_at DESC
		LIMIT 1
	`
	var s Session
	err := r.db.QueryRow(ctx, query, userID, now).Scan(
		&s.UserID, &s.Token, &s.AuthenticatedAt, &s.ExpiresAt, &s.LastActivity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) DeactivateSessions(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1`, userID)
	return err
}

func (r *PostgresRepository) TouchSession(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE admin_sessions SET last_activity = $2 WHERE user_id = $1 AND is_active = TRUE`, userID, at)
	return err
}

func (r *PostgresRepository) LogAttempt(ctx context.Context, a LoginAttempt) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_login_attempts (user_id, attempt_time, success) VALUES ($1, $2, $3)`,
		a.UserID, a.AttemptTime, a.Success)
	return err
}

func (r *PostgresRepository) FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&count)
	return count, err
}

// MemoryRepository — сессии в памяти процесса. После перезапуска нужно войти заново.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[int64]Session
	attempts []LoginAttempt
}

// NewMemoryRepository создаёт пустой репозиторий.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[int64]Session)}
}

func (r *MemoryRepository) CreateSession(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.LastActivity = s.AuthenticatedAt
	r.sessions[s.UserID] = s
	return nil
}

func (r *MemoryRepository) ActiveSession(_ context.Context, userID int64, now time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok || !s.ExpiresAt.After(now) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (r *MemoryRepository) DeactivateSessions(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

func (r *MemoryRepository) TouchSession(_ context.Context, userID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.LastActivity = at
		r.sessions[userID] = s
	}
	return nil
}

func (r *MemoryRepository) LogAttempt(_ context.Context, a LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	return nil
}

// FailedAttemptsSince заодно выбрасывает попытки старше since всех пользователей.
func (r *MemoryRepository) FailedAttemptsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = slices.DeleteFunc(r.attempts, func(a LoginAttempt) bool {
		return a.AttemptTime.Before(since)
	})
	count := 0
	for _, a := range r.attempts {
		if a.UserID == userID && !a.Success {
			count++
		}
	}
	return count, nil
}
