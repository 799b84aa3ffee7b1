package engine

import (
	"fmt"

	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/progress"
)

// CheckInStatus — итог ежедневной отметки.
type CheckInStatus int

const (
	// AlreadyCheckedIn — сегодня уже отмечались, запись не изменена
	AlreadyCheckedIn CheckInStatus = iota
	// CheckedIn — отметка засчитана
	CheckedIn
	// CycleCompleted — отметка засчитана и цикл завершён (выдан билет, серия обнулена)
	CycleCompleted
)

// CheckInResult — итог отметки.
type CheckInResult struct {
	Status       CheckInStatus
	CoinsDelta   int64
	TicketsDelta int
	// Streak — серия после отметки (0 после завершения цикла)
	Streak  int
	Message string
}

// PerformCheckIn засчитывает ежедневную отметку за день today.
//
// Если вчера была отметка, серия продолжается, иначе начинается заново с 1.
// Каждая отметка даёт CheckInCoins. Когда серия доходит до CheckInCycle,
// выдаётся CheckInCycleTickets и серия обнуляется.
func (e *Engine) PerformCheckIn(p progress.UserProgress, today common.Day) (progress.UserProgress, CheckInResult) {
	if p.LastCheckIn == today {
		return p, CheckInResult{
			Status:  AlreadyCheckedIn,
			Streak:  p.CheckInStreak,
			Message: "Вы уже отметились сегодня!",
		}
	}

	streak := 1
	if !p.LastCheckIn.IsZero() && p.LastCheckIn == today.Prev() {
		streak = p.CheckInStreak + 1
	}

	next := p
	next.Coins += e.rules.CheckInCoins
	next.LastCheckIn = today
	res := CheckInResult{
		Status:     CheckedIn,
		CoinsDelta: e.rules.CheckInCoins,
		Message:    fmt.Sprintf("Отметка засчитана! %s", common.FormatCoinsDelta(e.rules.CheckInCoins)),
	}

	if streak >= e.rules.CheckInCycle {
		next.GachaTickets += e.rules.CheckInCycleTickets
		streak = 0
		res.Status = CycleCompleted
		res.TicketsDelta = e.rules.CheckInCycleTickets
		res.Message += fmt.Sprintf(" +%s гачи (%d %s подряд!)",
			common.FormatTickets(e.rules.CheckInCycleTickets),
			e.rules.CheckInCycle, common.PluralizeDays(e.rules.CheckInCycle))
	}

	next.CheckInStreak = streak
	res.Streak = streak
	return next, res
}
