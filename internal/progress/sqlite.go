package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore хранит записи в таблице user_progress базы SQLite.
// Схему создаёт db/sqlite.Open.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore оборачивает уже открытую базу.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context, userID int64) (UserProgress, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM user_progress WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return UserProgress{}, ErrNotFound
	}
	if err != nil {
		return UserProgress{}, fmt.Errorf("sqlite: чтение прогресса %d: %w", userID, err)
	}
	return decode(data)
}

func (s *SQLiteStore) Save(ctx context.Context, p UserProgress) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, p.UserID, string(data), p.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: запись прогресса %d: %w", p.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]UserProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM user_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: список прогресса: %w", err)
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

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SQLiteLedger пишет журнал в таблицу progress_ledger.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger создаёт журнал поверх открытой базы.
func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

func (l *SQLiteLedger) Append(ctx context.Context, tx Transaction) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO progress_ledger (user_id, tx_type, target, coins, tickets, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.UserID, tx.Type, tx.Target, tx.Coins, tx.Tickets, tx.Description, tx.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: запись журнала %d: %w", tx.UserID, err)
	}
	return nil
}

func (l *SQLiteLedger) History(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, tx_type, target, coins, tickets, description, created_at
		FROM progress_ledger
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: история %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			tx      Transaction
			created string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Target, &tx.Coins, &tx.Tickets, &tx.Description, &created); err != nil {
			return nil, err
		}
		tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, tx)
	}
	return out, rows.Err()
}
