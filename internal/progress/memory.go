package progress

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore держит сериализованные записи в памяти процесса.
// Подходит для разработки и тестов: после перезапуска всё теряется.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[int64][]byte
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[int64][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, userID int64) (UserProgress, error) {
	s.mu.RLock()
	data, ok := s.docs[userID]
	s.mu.RUnlock()
	if !ok {
		return UserProgress{}, ErrNotFound
	}
	return decode(data)
}

func (s *MemoryStore) Save(_ context.Context, p UserProgress) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[p.UserID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UserProgress, 0, len(s.docs))
	for _, data := range s.docs {
		p, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
