// Package checkin — handlers.go обрабатывает команду !чекин.
package checkin

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/bot/reply"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/engine"
)

// Handler обрабатывает команды отметок.
type Handler struct {
	service *Service
	sender  reply.Sender
}

// NewHandler создаёт обработчик отметок.
func NewHandler(service *Service, sender reply.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleCheckIn обрабатывает !чекин.
//
// Формат ответа:
//
//	✅ Отметка засчитана! +10 монет
//	🔥 Серия: 3 дня (до билета: 4)
//	💰 Баланс: 240 монет
func (h *Handler) HandleCheckIn(ctx context.Context, chatID, userID int64) {
	rec, err := h.service.CheckIn(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка отметки")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка отметки, попробуйте позже")
		return
	}

	res := rec.Result
	var text string
	switch res.Status {
	case engine.AlreadyCheckedIn:
		st, err := h.service.Status(ctx, userID)
		if err != nil {
			st.Streak = res.Streak
		}
		text = fmt.Sprintf("ℹ️ %s\n🔥 Серия: %d %s", res.Message, st.Streak, common.PluralizeDays(st.Streak))
	case engine.CycleCompleted:
		text = fmt.Sprintf("🎉 %s\n🔥 Серия начинается заново\n💰 Баланс: %s · 🎟 %s",
			res.Message, common.FormatCoins(rec.Progress.Coins), common.FormatTickets(rec.Progress.GachaTickets))
	default:
		left := h.service.engine.Rules().CheckInCycle - res.Streak
		text = fmt.Sprintf("✅ %s\n🔥 Серия: %d %s (до билета: %d)\n💰 Баланс: %s",
			res.Message, res.Streak, common.PluralizeDays(res.Streak), left, common.FormatCoins(rec.Progress.Coins))
	}
	reply.Text(ctx, h.sender, chatID, text)
}
