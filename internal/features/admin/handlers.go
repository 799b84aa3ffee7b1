// Package admin — handlers.go обрабатывает команды /login, /logout, /grant,
// /inspect, /resetuser и ответы на шаги диалога (пароль, подтверждение сброса).
// Все команды принимаются только в личных сообщениях.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/bot/reply"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/features/economy"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	sender  reply.Sender
}

// NewHandler создаёт обработчик админки.
func NewHandler(service *Service, sender reply.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleLogin обрабатывает /login. Пароль можно передать сразу или следующим сообщением.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if !h.service.IsAdmin(userID) {
		reply.Text(ctx, h.sender, chatID, "⛔ Нет доступа")
		return
	}
	if len(args) == 0 {
		h.service.SetState(userID, StateAwaitingPassword, 0)
		reply.Text(ctx, h.sender, chatID, "🔐 Введите пароль (5 минут)")
		return
	}
	h.login(ctx, chatID, userID, strings.Join(args, " "))
}

func (h *Handler) login(ctx context.Context, chatID, userID int64, password string) {
	h.service.ClearState(userID)
	err := h.service.Login(ctx, userID, password)
	switch {
	case err == nil:
		reply.Text(ctx, h.sender, chatID, "✅ Вход выполнен. Сессия действует 24 часа.\n"+
			"/grant id сумма · /inspect id · /resetuser id · /logout")
	case errors.Is(err, common.ErrTooManyAttempts):
		reply.Text(ctx, h.sender, chatID, "⛔ Слишком много попыток, подождите час")
	case errors.Is(err, common.ErrWrongPassword):
		reply.Text(ctx, h.sender, chatID, "❌ Неверный пароль")
	default:
		reply.Text(ctx, h.sender, chatID, h.errorText(err))
	}
}

// HandleText обрабатывает обычное сообщение, если админ находится на шаге диалога.
// Возвращает true, если сообщение поглощено.
func (h *Handler) HandleText(ctx context.Context, chatID, userID int64, text string) bool {
	st, ok := h.service.GetState(userID)
	if !ok {
		return false
	}
	switch st.Name {
	case StateAwaitingPassword:
		h.login(ctx, chatID, userID, strings.TrimSpace(text))
		return true
	case StateConfirmReset:
		h.service.ClearState(userID)
		if strings.ToLower(strings.TrimSpace(text)) != "да" {
			reply.Text(ctx, h.sender, chatID, "↩️ Сброс отменён")
			return true
		}
		p, err := h.service.ResetUser(ctx, userID, st.TargetUserID)
		if err != nil {
			reply.Text(ctx, h.sender, chatID, h.errorText(err))
			return true
		}
		reply.Text(ctx, h.sender, chatID, fmt.Sprintf("🔄 Прогресс %d сброшен. Баланс: %s",
			st.TargetUserID, common.FormatCoins(p.Coins)))
		return true
	}
	return false
}

// HandleLogout обрабатывает /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).Error("Ошибка выхода администратора")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка выхода")
		return
	}
	reply.Text(ctx, h.sender, chatID, "👋 Сессия закрыта")
}

// HandleGrant обрабатывает /grant <userID> <сумма>.
func (h *Handler) HandleGrant(ctx context.Context, chatID, adminID int64, args []string) {
	if len(args) < 2 {
		reply.Text(ctx, h.sender, chatID, "❌ Формат: /grant user_id сумма")
		return
	}
	userID, err1 := strconv.ParseInt(args[0], 10, 64)
	amount, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		reply.Text(ctx, h.sender, chatID, "❌ user_id и сумма должны быть числами")
		return
	}

	rec, err := h.service.GrantCoins(ctx, adminID, userID, amount)
	if err != nil {
		reply.Text(ctx, h.sender, chatID, h.errorText(err))
		return
	}
	reply.Text(ctx, h.sender, chatID, fmt.Sprintf("✅ %d: %s\nБаланс: %s",
		userID, common.FormatCoinsDelta(amount), common.FormatCoins(rec.Progress.Coins)))
}

// HandleInspect обрабатывает /inspect <userID>.
func (h *Handler) HandleInspect(ctx context.Context, chatID, adminID int64, args []string) {
	userID, ok := h.parseUserID(ctx, chatID, args, "/inspect")
	if !ok {
		return
	}
	prof, err := h.service.Inspect(ctx, adminID, userID)
	if err != nil {
		reply.Text(ctx, h.sender, chatID, h.errorText(err))
		return
	}

	p := prof.Progress
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 Пользователь %d\n", userID)
	fmt.Fprintf(&sb, "💰 %s · 🎟 %s\n", common.FormatCoins(p.Coins), common.FormatTickets(p.GachaTickets))
	fmt.Fprintf(&sb, "🔥 Серия: %d, последняя отметка: %s\n", p.CheckInStreak, orDash(p.LastCheckIn.String()))
	fmt.Fprintf(&sb, "🃏 Карточки: %d/%d\n", prof.CardsOwned, prof.CardsTotal)
	for _, st := range prof.Characters {
		fmt.Fprintf(&sb, "• %s: открыт=%t, главы %d/%d, экстра %d/%d, пройден=%t\n",
			st.Character.ID, st.Unlocked, st.ChaptersDone, st.ChaptersTotal, st.ExtrasOwned, st.ExtrasTotal, st.Completed)
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "🕒 Обновлено: %s\n", common.FormatDateTime(p.UpdatedAt, nil))
	}

	txs, err := h.service.History(ctx, adminID, userID, inspectHistoryLimit)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить журнал")
	} else if len(txs) > 0 {
		fmt.Fprintf(&sb, "\n📜 Журнал:\n%s", economy.FormatHistory(txs))
	}
	reply.Text(ctx, h.sender, chatID, strings.TrimRight(sb.String(), "\n"))
}

const inspectHistoryLimit = 5

// HandleResetUser обрабатывает /resetuser <userID>: спрашивает подтверждение.
func (h *Handler) HandleResetUser(ctx context.Context, chatID, adminID int64, args []string) {
	userID, ok := h.parseUserID(ctx, chatID, args, "/resetuser")
	if !ok {
		return
	}
	if err := h.service.authorize(ctx, adminID); err != nil {
		reply.Text(ctx, h.sender, chatID, h.errorText(err))
		return
	}
	h.service.SetState(adminID, StateConfirmReset, userID)
	reply.Text(ctx, h.sender, chatID, fmt.Sprintf("⚠️ Сбросить весь прогресс пользователя %d? Ответьте «да»", userID))
}

func (h *Handler) parseUserID(ctx context.Context, chatID int64, args []string, cmd string) (int64, bool) {
	if len(args) < 1 {
		reply.Text(ctx, h.sender, chatID, fmt.Sprintf("❌ Формат: %s user_id", cmd))
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		reply.Text(ctx, h.sender, chatID, "❌ user_id должен быть числом")
		return 0, false
	}
	return id, true
}

func (h *Handler) errorText(err error) string {
	switch {
	case errors.Is(err, common.ErrNotAdmin):
		return "⛔ Нет доступа"
	case errors.Is(err, common.ErrSessionExpired):
		return "🔐 Сессия истекла, выполните /login"
	case errors.Is(err, common.ErrInvalidAmount):
		return "❌ Сумма должна быть положительной"
	}
	log.WithError(err).Error("Ошибка админ-команды")
	return "❌ Внутренняя ошибка"
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
