package progress

import (
	"context"
	"sync"
	"time"
)

// Transaction — запись журнала: одно применённое изменение прогресса.
// Баланс хранится в UserProgress, журнал нужен для истории и разбора жалоб.
type Transaction struct {
	ID      int64
	UserID  int64
	Type    string
	Target  string
	Coins   int64 // изменение монет, со знаком
	Tickets int   // изменение билетов, со знаком
	// Description — текст для истории
	Description string
	CreatedAt   time.Time
}

// Типы записей журнала
const (
	TxUnlockCharacter = "unlock_character"
	TxCompleteChapter = "complete_chapter"
	TxPurchaseExtra   = "purchase_extra"
	TxShopPackage     = "shop_package"
	TxAdminGrant      = "admin_grant"
	TxGachaRoll       = "gacha_roll"
	TxCheckIn         = "check_in"
	TxReset           = "reset"
)

// DefaultHistoryLimit — сколько записей показывать в истории.
const DefaultHistoryLimit = 10

// Ledger — журнал операций. Записи только добавляются.
type Ledger interface {
	Append(ctx context.Context, tx Transaction) error
	// History возвращает последние записи пользователя, новые первыми.
	History(ctx context.Context, userID int64, limit int) ([]Transaction, error)
}

// MemoryLedger держит журнал в памяти процесса.
type MemoryLedger struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[int64][]Transaction
}

// NewMemoryLedger создаёт пустой журнал.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byUser: make(map[int64][]Transaction)}
}

func (l *MemoryLedger) Append(_ context.Context, tx Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	tx.ID = l.nextID
	l.byUser[tx.UserID] = append(l.byUser[tx.UserID], tx)
	return nil
}

func (l *MemoryLedger) History(_ context.Context, userID int64, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txs := l.byUser[userID]
	if limit <= 0 || limit > len(txs) {
		limit = len(txs)
	}
	out := make([]Transaction, 0, limit)
	for i := len(txs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}
