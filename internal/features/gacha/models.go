// Package gacha реализует крутки гачи и просмотр коллекции карточек.
package gacha

import (
	"github.com/google/uuid"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// Разрешённые размеры пакета круток
const (
	SingleRoll = 1
	TenRoll    = 10
)

// RollReceipt — итог пакета круток. ID попадает в логи и в ответ пользователю.
type RollReceipt struct {
	ID       uuid.UUID
	Result   engine.GachaResult
	Progress progress.UserProgress
}

// RarityStat — сколько карточек редкости собрано.
type RarityStat struct {
	Rarity catalog.Rarity
	Owned  []catalog.GachaCard
	Total  int
}

// Collection — коллекция пользователя по редкостям (от легендарных к обычным).
type Collection struct {
	ByRarity []RarityStat
	Owned    int
	Total    int
}

// Percent — доля собранных карточек.
func (c Collection) Percent() int {
	if c.Total == 0 {
		return 0
	}
	return c.Owned * 100 / c.Total
}
