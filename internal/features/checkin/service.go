// Package checkin — service.go засчитывает отметки и находит тех, кому пора напомнить.
package checkin

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// Service управляет ежедневными отметками.
type Service struct {
	repo   *progress.Repository
	engine *engine.Engine
	clock  common.Clock
}

// NewService создаёт сервис отметок. День отметки считается по часам clock.
func NewService(repo *progress.Repository, eng *engine.Engine, clock common.Clock) *Service {
	return &Service{repo: repo, engine: eng, clock: clock}
}

// CheckIn засчитывает отметку за сегодня. Повторная отметка в тот же день ничего не меняет.
func (s *Service) CheckIn(ctx context.Context, userID int64) (Receipt, error) {
	today := s.clock.Today()

	var res engine.CheckInResult
	next, err := s.repo.Update(ctx, userID, func(p progress.UserProgress) (progress.UserProgress, error) {
		var n progress.UserProgress
		n, res = s.engine.PerformCheckIn(p, today)
		return n, nil
	})
	if err != nil {
		return Receipt{}, err
	}

	if res.Status != engine.AlreadyCheckedIn {
		s.repo.Record(ctx, progress.Transaction{
			UserID:      userID,
			Type:        progress.TxCheckIn,
			Target:      today.String(),
			Coins:       res.CoinsDelta,
			Tickets:     res.TicketsDelta,
			Description: fmt.Sprintf("Отметка, серия %d", res.Streak),
		})
		log.WithFields(log.Fields{
			"user_id": userID,
			"day":     today,
			"streak":  res.Streak,
			"tickets": res.TicketsDelta,
		}).Info("Отметка засчитана")
	}
	return Receipt{Result: res, Progress: next}, nil
}

// Status возвращает текущую серию без отметки.
func (s *Service) Status(ctx context.Context, userID int64) (Status, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	today := s.clock.Today()
	streak := p.CheckInStreak
	// серия прервана, если последняя отметка раньше вчерашнего дня
	if p.LastCheckIn != today && p.LastCheckIn != today.Prev() {
		streak = 0
	}
	return Status{
		Streak:       streak,
		CheckedToday: p.LastCheckIn == today,
		DaysToTicket: s.engine.Rules().CheckInCycle - streak,
	}, nil
}

// SendReminders напоминает об отметке тем, у кого идёт серия, а сегодня отметки ещё нет.
// Возвращает число отправленных напоминаний.
func (s *Service) SendReminders(ctx context.Context, sendFunc func(userID int64, text string)) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("список прогресса: %w", err)
	}

	today := s.clock.Today()
	cycle := s.engine.Rules().CheckInCycle
	sent := 0
	for _, p := range all {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if p.CheckInStreak == 0 || p.LastCheckIn != today.Prev() {
			continue
		}
		left := cycle - p.CheckInStreak
		msg := fmt.Sprintf("🔥 Серия отметок: %d %s. Не забудьте !чекин сегодня, до билета гачи %d %s!",
			p.CheckInStreak, common.PluralizeDays(p.CheckInStreak), left, common.PluralizeDays(left))
		sendFunc(p.UserID, msg)
		sent++
	}

	log.WithFields(log.Fields{"total": len(all), "sent": sent}).Info("Напоминания об отметке отправлены")
	return sent, nil
}
