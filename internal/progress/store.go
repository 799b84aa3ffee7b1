package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound — для пользователя ещё нет сохранённой записи.
var ErrNotFound = errors.New("progress not found")

//go:generate mockgen -source=store.go -destination=mock/store.go -package=mock

// Store — хранилище записей прогресса по ключу userID.
// Реализации хранят запись как JSON-документ и взаимозаменяемы.
type Store interface {
	Load(ctx context.Context, userID int64) (UserProgress, error)
	Save(ctx context.Context, p UserProgress) error
	List(ctx context.Context) ([]UserProgress, error)
	Close() error
}

func encode(p UserProgress) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("кодирование прогресса %d: %w", p.UserID, err)
	}
	return data, nil
}

func decode(data []byte) (UserProgress, error) {
	var p UserProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return UserProgress{}, fmt.Errorf("декодирование прогресса: %w", err)
	}
	return p, nil
}
