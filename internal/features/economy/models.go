// Package economy реализует прогресс по историям: открытие персонажей,
// прохождение глав, покупку экстра-глав и пакетов монет, сброс прогресса.
package economy

import (
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// Receipt — результат операции: что сделал движок и новая запись прогресса.
type Receipt struct {
	Result   engine.Result
	Progress progress.UserProgress
}

// CharacterStatus — состояние персонажа для конкретного пользователя.
type CharacterStatus struct {
	Character     catalog.Character
	Unlocked      bool
	Completed     bool
	ChaptersDone  int
	ChaptersTotal int
	ExtrasOwned   int
	ExtrasTotal   int
}

// Percent — доля пройденного контента персонажа (главы + экстра).
func (c CharacterStatus) Percent() int {
	total := c.ChaptersTotal + c.ExtrasTotal
	if total == 0 {
		return 0
	}
	return (c.ChaptersDone + c.ExtrasOwned) * 100 / total
}

// Profile — сводка для команды !профиль.
type Profile struct {
	Progress   progress.UserProgress
	Characters []CharacterStatus
	CardsOwned int
	CardsTotal int
}

// Reading — отрезок главы или экстра-главы, открытый для чтения.
type Reading struct {
	Character catalog.Character
	Title     string
	Content   string
	Script    catalog.Script
	Passage   catalog.Passage
	// Choice — вариант, после которого начинается Passage. nil для начала главы.
	Choice *catalog.Choice
	// Completed — глава уже пройдена (для экстра-глав всегда false)
	Completed bool
	// ChapterID пуст для экстра-глав
	ChapterID string
	// Command — команда, которой читается эта глава (для подсказок к вариантам)
	Command string
}

// Finished — диалог дочитан до конца.
func (r *Reading) Finished() bool { return r.Passage.Branch == nil }

// GalleryImage — открытая картинка.
type GalleryImage struct {
	Character string
	Source    string
	Image     string
}
