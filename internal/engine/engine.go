// Package engine содержит правила прогресса: экономику (открытие персонажей,
// главы, экстра-главы, пакеты), гачу и ежедневные отметки.
//
// Все операции — чистые функции: принимают запись прогресса и возвращают новую
// запись плюс описание результата. Входная запись не изменяется, ввода-вывода нет.
// Если операция ничего не сделала, возвращается запись, равная входной.
package engine

import (
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/progress"
)

// Engine связывает каталог, правила и источник случайности.
// Безопасен для одновременного использования из нескольких горутин.
type Engine struct {
	catalog *catalog.Catalog
	rules   Rules
	rng     RandomSource
}

// New создаёт движок. nil rng — источник по умолчанию.
func New(cat *catalog.Catalog, rules Rules, rng RandomSource) *Engine {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Engine{catalog: cat, rules: rules, rng: rng}
}

// Catalog возвращает каталог движка.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Rules возвращает параметры экономики.
func (e *Engine) Rules() Rules { return e.rules }

// NewProgress создаёт запись по умолчанию: стартовые монеты и билеты, пустые множества.
func (e *Engine) NewProgress(userID int64) progress.UserProgress {
	return progress.New(userID, e.rules.StartingCoins, e.rules.StartingTickets)
}

// Reset возвращает свежую запись для пользователя, отбрасывая всю историю.
func (e *Engine) Reset(userID int64) progress.UserProgress {
	return e.NewProgress(userID)
}

// Outcome — итог операции экономики.
type Outcome int

const (
	Applied Outcome = iota
	// AlreadyDone — уже открыто / пройдено / куплено
	AlreadyDone
	InsufficientFunds
	// UnknownEntity — id нет в каталоге
	UnknownEntity
	// InvalidAmount — неположительная сумма или число круток
	InvalidAmount
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyDone:
		return "already_done"
	case InsufficientFunds:
		return "insufficient_funds"
	case UnknownEntity:
		return "unknown_entity"
	case InvalidAmount:
		return "invalid_amount"
	}
	return "unknown"
}

// Err переводит итог в ошибку из common для обработчиков. Для Applied — nil.
func (o Outcome) Err() error {
	switch o {
	case Applied:
		return nil
	case AlreadyDone:
		return common.ErrAlreadyDone
	case InsufficientFunds:
		return common.ErrInsufficientCoins
	case UnknownEntity:
		return common.ErrUnknownEntity
	case InvalidAmount:
		return common.ErrInvalidAmount
	}
	return nil
}

// Result описывает, что изменила операция экономики.
type Result struct {
	Outcome      Outcome
	CoinsDelta   int64
	TicketsDelta int
	// Price — цена, которой не хватило (для InsufficientFunds)
	Price int64
	// CompletedCharacter — персонаж, за полное прохождение которого выдан бонус
	CompletedCharacter string
}

// Changed сообщает, изменила ли операция запись.
func (r Result) Changed() bool { return r.Outcome == Applied }
