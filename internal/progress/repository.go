package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Repository — точка доступа к прогрессу для сервисов.
// Создаёт запись по умолчанию при первом обращении и гарантирует,
// что операции одного пользователя выполняются строго по очереди.
type Repository struct {
	store    Store
	ledger   Ledger
	defaults func(userID int64) UserProgress
	now      func() time.Time
	locks    userLocks
}

// NewRepository создаёт репозиторий. defaults строит начальную запись пользователя.
// Журнал по умолчанию в памяти, постоянный подключается через WithLedger.
func NewRepository(store Store, defaults func(userID int64) UserProgress) *Repository {
	return &Repository{
		store:    store,
		ledger:   NewMemoryLedger(),
		defaults: defaults,
		now:      time.Now,
		locks:    userLocks{m: make(map[int64]*userLock)},
	}
}

// Get возвращает прогресс пользователя, создавая и сохраняя запись по умолчанию,
// если пользователь встречается впервые.
func (r *Repository) Get(ctx context.Context, userID int64) (UserProgress, error) {
	unlock := r.locks.lock(userID)
	defer unlock()
	return r.loadOrCreate(ctx, userID)
}

// Update загружает запись, применяет fn и сохраняет результат, если состояние изменилось.
// Пока fn выполняется, другие Update и Get того же пользователя ждут.
// Ошибка fn отменяет сохранение.
func (r *Repository) Update(ctx context.Context, userID int64, fn func(UserProgress) (UserProgress, error)) (UserProgress, error) {
	unlock := r.locks.lock(userID)
	defer unlock()

	current, err := r.loadOrCreate(ctx, userID)
	if err != nil {
		return UserProgress{}, err
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if next.Equal(current) {
		return current, nil
	}

	next.UserID = userID
	next.UpdatedAt = r.now()
	if err := r.store.Save(ctx, next); err != nil {
		return current, fmt.Errorf("сохранение прогресса: %w", err)
	}
	return next, nil
}

// WithLedger подменяет журнал операций.
func (r *Repository) WithLedger(l Ledger) *Repository {
	r.ledger = l
	return r
}

// Record добавляет запись в журнал. Ошибка только логируется: прогресс уже сохранён.
func (r *Repository) Record(ctx context.Context, tx Transaction) {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.now()
	}
	if err := r.ledger.Append(ctx, tx); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": tx.UserID,
			"type":    tx.Type,
		}).Error("Не удалось записать операцию в журнал")
	}
}

// History возвращает последние операции пользователя.
func (r *Repository) History(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return r.ledger.History(ctx, userID, limit)
}

// List возвращает все сохранённые записи.
func (r *Repository) List(ctx context.Context) ([]UserProgress, error) {
	return r.store.List(ctx)
}

func (r *Repository) loadOrCreate(ctx context.Context, userID int64) (UserProgress, error) {
	p, err := r.store.Load(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return UserProgress{}, fmt.Errorf("загрузка прогресса: %w", err)
	}

	p = r.defaults(userID)
	p.UpdatedAt = r.now()
	if err := r.store.Save(ctx, p); err != nil {
		return UserProgress{}, fmt.Errorf("создание прогресса: %w", err)
	}
	log.WithField("user_id", userID).Debug("Создан прогресс по умолчанию")
	return p, nil
}

// userLocks — мьютекс на каждого пользователя. Запись удаляется,
// когда её больше никто не держит.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	ul, ok := l.m[userID]
	if !ok {
		ul = &userLock{}
		l.m[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}
