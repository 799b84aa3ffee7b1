// Package gacha — handlers.go обрабатывает команды !гача, !гача 10 и !коллекция.
package gacha

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/bot/reply"
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
)

// Handler обрабатывает команды гачи.
type Handler struct {
	service *Service
	sender  reply.Sender
}

// NewHandler создаёт обработчик гачи.
func NewHandler(service *Service, sender reply.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// rarityIcon — значок редкости в ответах.
var rarityIcon = map[catalog.Rarity]string{
	catalog.Common:    "⚪",
	catalog.Rare:      "🔵",
	catalog.Epic:      "🟣",
	catalog.Legendary: "🟡",
}

// HandleRoll обрабатывает !гача [10].
//
// Формат ответа:
//
//	🎴 ГАЧА ×10
//
//	🟡 Мира · легендарная ✨
//	⚪ Кай · обычная (дубликат)
//	...
//
//	Использовано 1 билет! Вы получили 3 карточки! 2 дубликата → +150 монет
//	💰 Баланс: 1 050 монет · 🎟 0 билетов
//	🧾 Крутка 1b4e28ba
func (h *Handler) HandleRoll(ctx context.Context, chatID, userID int64, args []string) {
	times := SingleRoll
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			reply.Text(ctx, h.sender, chatID, "❌ Формат: !гача или !гача 10")
			return
		}
		times = n
	}

	rec, err := h.service.Roll(ctx, userID, times)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidRollCount):
			reply.Text(ctx, h.sender, chatID, "❌ Можно крутить 1 или 10 раз")
		case errors.Is(err, common.ErrInsufficientCoins):
			reply.Text(ctx, h.sender, chatID, fmt.Sprintf("❌ %s\n💰 Баланс: %s",
				rec.Result.Message, common.FormatCoins(rec.Progress.Coins)))
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка крутки гачи")
			reply.Text(ctx, h.sender, chatID, "❌ Ошибка при крутке гачи")
		}
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎴 ГАЧА ×%d\n\n", times)
	for _, d := range rec.Result.Draws {
		fmt.Fprintf(&sb, "%s %s · %s", rarityIcon[d.Card.Rarity], d.Card.CharacterName, d.Card.Rarity.Title())
		if d.Duplicate {
			sb.WriteString(" (дубликат)")
		} else {
			sb.WriteString(" ✨")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\n%s\n", rec.Result.Message)
	fmt.Fprintf(&sb, "💰 Баланс: %s · 🎟 %s\n",
		common.FormatCoins(rec.Progress.Coins), common.FormatTickets(rec.Progress.GachaTickets))
	fmt.Fprintf(&sb, "🧾 Крутка %s", shortID(rec.ID.String()))
	reply.Text(ctx, h.sender, chatID, sb.String())
}

// HandleCollection обрабатывает !коллекция.
func (h *Handler) HandleCollection(ctx context.Context, chatID, userID int64) {
	col, err := h.service.Collection(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения коллекции")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка получения коллекции")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🃏 Коллекция: %d/%d (%d%%)\n", col.Owned, col.Total, col.Percent())
	for _, stat := range col.ByRarity {
		fmt.Fprintf(&sb, "\n%s %s: %d/%d\n", rarityIcon[stat.Rarity], stat.Rarity.Title(), len(stat.Owned), stat.Total)
		for _, card := range stat.Owned {
			fmt.Fprintf(&sb, "   • %s\n", card.CharacterName)
		}
	}
	reply.Text(ctx, h.sender, chatID, strings.TrimRight(sb.String(), "\n"))
}

// shortID — первые 8 символов id крутки, этого хватает для поиска в логах.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
