// Package checkin реализует ежедневные отметки и вечерние напоминания о серии.
package checkin

import (
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// Receipt — итог отметки.
type Receipt struct {
	Result   engine.CheckInResult
	Progress progress.UserProgress
}

// Status — состояние серии для команды !чекин без отметки.
type Status struct {
	Streak       int
	CheckedToday bool
	// DaysToTicket — сколько отметок осталось до билета гачи
	DaysToTicket int
}
