// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает вечерние напоминания об ежедневной отметке.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/features/checkin"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron           *cron.Cron
	checkinService *checkin.Service
	reminderSpec   string
	sendFunc       func(userID int64, text string)
}

// NewScheduler создаёт планировщик в часовом поясе loc.
// reminderSpec — расписание напоминаний в формате cron (5 полей).
func NewScheduler(checkinService *checkin.Service, loc *time.Location, reminderSpec string, sendFunc func(userID int64, text string)) *Scheduler {
	return &Scheduler{
		cron:           cron.New(cron.WithLocation(loc)),
		checkinService: checkinService,
		reminderSpec:   reminderSpec,
		sendFunc:       sendFunc,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.reminderSpec, func() { s.RunReminders(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание напоминаний %q: %w", s.reminderSpec, err)
	}

	s.cron.Start()
	log.WithField("reminders", s.reminderSpec).Info("Планировщик задач запущен")
	return nil
}

// RunReminders рассылает напоминания об отметке.
func (s *Scheduler) RunReminders(ctx context.Context) {
	log.Debug("[CRON] Напоминания об отметке")
	if _, err := s.checkinService.SendReminders(ctx, s.sendFunc); err != nil {
		log.WithError(err).Error("[CRON] Ошибка напоминаний")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
