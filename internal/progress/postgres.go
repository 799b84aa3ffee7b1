package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore хранит записи в таблице user_progress (JSONB).
// Таблица создаётся миграциями приложения.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула соединений.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, userID int64) (UserProgress, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM user_progress WHERE user_id = $1`, userID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserProgress{}, ErrNotFound
	}
	if err != nil {
		return UserProgress{}, fmt.Errorf("ошибка получения прогресса %d: %w", userID, err)
	}
	return decode(data)
}

func (s *PostgresStore) Save(ctx context.Context, p UserProgress) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO user_progress (user_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, p.UserID, string(data), p.UpdatedAt); err != nil {
		return fmt.Errorf("ошибка сохранения прогресса %d: %w", p.UserID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]UserProgress, error) {
	rows, err := s.db.Query(ctx, `SELECT data FROM user_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка прогресса: %w", err)
	}
	defer rows.Close()

	var out []UserProgress
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		p, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close закрывает пул соединений.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// PostgresLedger пишет журнал в таблицу progress_ledger.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger создаёт журнал поверх пула соединений.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Append(ctx context.Context, tx Transaction) error {
	query := `
		INSERT INTO progress_ledger (user_id, tx_type, target, coins, tickets, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := l.db.Exec(ctx, query, tx.UserID, tx.Type, tx.Target, tx.Coins, tx.Tickets, tx.Description, tx.CreatedAt); err != nil {
		return fmt.Errorf("ошибка записи журнала %d: %w", tx.UserID, err)
	}
	return nil
}

func (l *PostgresLedger) History(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query := `
		SELECT id, user_id, tx_type, target, coins, tickets, description, created_at
		FROM progress_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := l.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Target, &tx.Coins, &tx.Tickets, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
