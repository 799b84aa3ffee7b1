// Package economy — handlers.go обрабатывает команды:
// !профиль, !персонажи, !открыть, !читать, !пройти, !экстра, !галерея,
// !история, !магазин, !купить, !сброс.
package economy

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/bot/reply"
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/progress"
)

// Handler обрабатывает команды историй и магазина.
type Handler struct {
	service *Service
	sender  reply.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, sender reply.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleProfile обрабатывает !профиль.
//
// Формат ответа:
//
//	👤 Профиль
//	💰 200 монет · 🎟 1 билет
//	🔥 Серия отметок: 3
//	🃏 Коллекция: 4/10
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	prof, err := h.service.Profile(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения профиля")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка получения профиля")
		return
	}

	p := prof.Progress
	var b strings.Builder
	b.WriteString("👤 <b>Профиль</b>\n")
	fmt.Fprintf(&b, "💰 %s · 🎟 %s\n", common.FormatCoins(p.Coins), common.FormatTickets(p.GachaTickets))
	fmt.Fprintf(&b, "🔥 Серия отметок: %d\n", p.CheckInStreak)
	fmt.Fprintf(&b, "🃏 Коллекция: %d/%d\n", prof.CardsOwned, prof.CardsTotal)

	var done []string
	for _, st := range prof.Characters {
		if st.Completed {
			done = append(done, html.EscapeString(st.Character.Name))
		}
	}
	if len(done) > 0 {
		fmt.Fprintf(&b, "🏆 Пройдены: %s\n", strings.Join(done, ", "))
	}
	reply.HTML(ctx, h.sender, chatID, b.String())
}

// HandleCharacters обрабатывает !персонажи: список персонажей с ценой и прогрессом.
func (h *Handler) HandleCharacters(ctx context.Context, chatID, userID int64) {
	prof, err := h.service.Profile(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения персонажей")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка получения списка персонажей")
		return
	}

	var b strings.Builder
	b.WriteString("📚 <b>Персонажи</b>\n\n")
	for _, st := range prof.Characters {
		ch := st.Character
		switch {
		case st.Completed:
			fmt.Fprintf(&b, "🏆 <b>%s</b> (%s) · пройдено\n", html.EscapeString(ch.Name), ch.ID)
		case st.Unlocked:
			fmt.Fprintf(&b, "🔓 <b>%s</b> (%s) · %d%%\n", html.EscapeString(ch.Name), ch.ID, st.Percent())
		default:
			fmt.Fprintf(&b, "🔒 <b>%s</b> (%s) · %s\n", html.EscapeString(ch.Name), ch.ID, common.FormatCoins(ch.UnlockCost))
		}
		if st.Unlocked {
			for _, chapter := range ch.Chapters {
				mark := "▫️"
				if prof.Progress.CompletedChapters.Has(chapter.ID) {
					mark = "✅"
				}
				fmt.Fprintf(&b, "   %s %s · %s\n", mark, chapter.ID, html.EscapeString(chapter.Title))
			}
			for _, extra := range ch.ExtraChapters {
				mark := "💎 " + common.FormatCoins(extra.Cost)
				if prof.Progress.PurchasedExtraChapters.Has(extra.ID) {
					mark = "✨"
				}
				fmt.Fprintf(&b, "   %s %s · %s\n", mark, extra.ID, html.EscapeString(extra.Title))
			}
		}
	}
	b.WriteString("\n!открыть &lt;id&gt; · !читать &lt;глава&gt; · !экстра &lt;id&gt;")
	reply.HTML(ctx, h.sender, chatID, b.String())
}

// HandleUnlock обрабатывает !открыть <id персонажа>.
func (h *Handler) HandleUnlock(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		reply.Text(ctx, h.sender, chatID, "❌ Формат: !открыть id_персонажа")
		return
	}
	rec, err := h.service.UnlockCharacter(ctx, userID, args[0])
	if err != nil {
		reply.Text(ctx, h.sender, chatID, errorText(err, rec.Result.Price))
		return
	}
	ch, _ := h.service.Catalog().Character(args[0])
	reply.Text(ctx, h.sender, chatID, fmt.Sprintf("🔓 %s открыт(а)! %s\nБаланс: %s",
		ch.Name, common.FormatCoinsDelta(rec.Result.CoinsDelta), common.FormatCoins(rec.Progress.Coins)))
}

// HandleRead обрабатывает !читать <id главы> [id варианта].
func (h *Handler) HandleRead(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		reply.Text(ctx, h.sender, chatID, "❌ Формат: !читать id_главы [вариант]")
		return
	}
	reading, err := h.service.ReadChapter(ctx, userID, args[0], choiceArg(args))
	if err != nil {
		reply.Text(ctx, h.sender, chatID, errorText(err, 0))
		return
	}
	text := RenderReading(reading)
	if reading.Finished() && !reading.Completed {
		text += fmt.Sprintf("\n\nДочитали? Отметьте: !пройти %s", reading.ChapterID)
	}
	reply.HTML(ctx, h.sender, chatID, text)
}

func choiceArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

// HandleComplete обрабатывает !пройти <id главы>.
func (h *Handler) HandleComplete(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		reply.Text(ctx, h.sender, chatID, "❌ Формат: !пройти id_главы")
		return
	}
	rec, err := h.service.CompleteChapter(ctx, userID, args[0])
	if err != nil {
		reply.Text(ctx, h.sender, chatID, errorText(err, 0))
		return
	}
	res := rec.Result
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Глава пройдена! %s", common.FormatCoinsDelta(res.CoinsDelta))
	if res.TicketsDelta > 0 {
		fmt.Fprintf(&b, ", +%s", common.FormatTickets(res.TicketsDelta))
	}
	if res.CompletedCharacter != "" {
		ch, _ := h.service.Catalog().Character(res.CompletedCharacter)
		fmt.Fprintf(&b, "\n🏆 История «%s» пройдена полностью! Бонус уже начислен.", ch.Name)
	}
	fmt.Fprintf(&b, "\nБаланс: %s · %s", common.FormatCoins(rec.Progress.Coins), common.FormatTickets(rec.Progress.GachaTickets))
	reply.Text(ctx, h.sender, chatID, b.String())
}

// HandleExtra обрабатывает !экстра <id>: покупает экстра-главу, если её ещё нет, и показывает её.
func (h *Handler) HandleExtra(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		reply.Text(ctx, h.sender, chatID, "❌ Формат: !экстра id_экстра_главы [вариант]")
		return
	}
	rec, err := h.service.PurchaseExtraChapter(ctx, userID, args[0])
	switch {
	case err == nil:
		reply.Text(ctx, h.sender, chatID, fmt.Sprintf("💎 Экстра-глава куплена! %s\nБаланс: %s",
			common.FormatCoinsDelta(rec.Result.CoinsDelta), common.FormatCoins(rec.Progress.Coins)))
	case errors.Is(err, common.ErrAlreadyDone):
		// уже куплена: просто показываем
	default:
		reply.Text(ctx, h.sender, chatID, errorText(err, rec.Result.Price))
		return
	}

	reading, err := h.service.ReadExtra(ctx, userID, args[0], choiceArg(args))
	if err != nil {
		reply.Text(ctx, h.sender, chatID, errorText(err, 0))
		return
	}
	reply.HTML(ctx, h.sender, chatID, RenderReading(reading))
}

// HandleGallery обрабатывает !галерея: картинки из пройденных глав и экстра-глав.
func (h *Handler) HandleGallery(ctx context.Context, chatID, userID int64) {
	images, err := h.service.Gallery(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения галереи")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка получения галереи")
		return
	}
	if len(images) == 0 {
		reply.Text(ctx, h.sender, chatID, "🖼 Галерея пуста. Картинки открываются в пройденных главах.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🖼 <b>Галерея</b> (%d)\n\n", len(images))
	for _, img := range images {
		fmt.Fprintf(&b, "• %s · %s: <i>%s</i>\n",
			html.EscapeString(img.Character), html.EscapeString(img.Source), html.EscapeString(img.Image))
	}
	reply.HTML(ctx, h.sender, chatID, strings.TrimRight(b.String(), "\n"))
}

// HandleHistory обрабатывает !история: последние операции пользователя.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	txs, err := h.service.History(ctx, userID, progress.DefaultHistoryLimit)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка получения истории")
		return
	}
	if len(txs) == 0 {
		reply.Text(ctx, h.sender, chatID, "📜 История пуста")
		return
	}
	reply.Text(ctx, h.sender, chatID, "📜 Последние операции\n\n"+FormatHistory(txs))
}

// FormatHistory печатает записи журнала по строке на операцию.
//
//	18.10 12:30 · -150 монет · Открыт персонаж Кай
func FormatHistory(txs []progress.Transaction) string {
	var b strings.Builder
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s · ", tx.CreatedAt.Format("02.01 15:04"))
		var parts []string
		if tx.Coins != 0 {
			parts = append(parts, common.FormatCoinsDelta(tx.Coins))
		}
		if tx.Tickets != 0 {
			parts = append(parts, fmt.Sprintf("%+d 🎟", tx.Tickets))
		}
		if len(parts) > 0 {
			b.WriteString(strings.Join(parts, ", ") + " · ")
		}
		b.WriteString(tx.Description)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// HandleShop обрабатывает !магазин.
func (h *Handler) HandleShop(ctx context.Context, chatID int64) {
	var b strings.Builder
	b.WriteString("🛒 <b>Магазин монет</b>\n\n")
	for _, pkg := range h.service.Catalog().Packages() {
		fmt.Fprintf(&b, "• %s — %s · %s\n", pkg.ID, common.FormatCoins(pkg.Coins), html.EscapeString(pkg.Price))
	}
	b.WriteString("\nКупить: !купить &lt;id&gt;")
	reply.HTML(ctx, h.sender, chatID, b.String())
}

// HandleBuy обрабатывает !купить <id пакета>.
func (h *Handler) HandleBuy(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		reply.Text(ctx, h.sender, chatID, "❌ Формат: !купить id_пакета")
		return
	}
	rec, err := h.service.BuyPackage(ctx, userID, args[0])
	if err != nil {
		reply.Text(ctx, h.sender, chatID, errorText(err, 0))
		return
	}
	reply.Text(ctx, h.sender, chatID, fmt.Sprintf("💰 Начислено %s\nБаланс: %s",
		common.FormatCoins(rec.Result.CoinsDelta), common.FormatCoins(rec.Progress.Coins)))
}

// HandleReset обрабатывает !сброс. Без аргумента «да» только предупреждает.
func (h *Handler) HandleReset(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 || strings.ToLower(args[0]) != "да" {
		reply.Text(ctx, h.sender, chatID, "⚠️ Весь прогресс будет удалён. Подтвердите: !сброс да")
		return
	}
	p, err := h.service.Reset(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сброса прогресса")
		reply.Text(ctx, h.sender, chatID, "❌ Ошибка сброса прогресса")
		return
	}
	reply.Text(ctx, h.sender, chatID, fmt.Sprintf("🔄 Прогресс сброшен. Баланс: %s · %s",
		common.FormatCoins(p.Coins), common.FormatTickets(p.GachaTickets)))
}

// RenderReading собирает отрезок главы в HTML. Если отрезок закончился развилкой,
// под вариантами печатаются команды для продолжения.
func RenderReading(r *Reading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 <b>%s</b> · %s\n", html.EscapeString(r.Title), html.EscapeString(r.Character.Name))
	if r.Choice == nil && r.Content != "" {
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(strings.TrimSpace(r.Content)))
	}
	b.WriteString("\n")
	if r.Choice != nil {
		fmt.Fprintf(&b, "<b>Вы:</b> %s\n", html.EscapeString(r.Choice.Text))
	}
	b.WriteString(renderLines(r.Character.Name, r.Passage.Lines))

	if br := r.Passage.Branch; br != nil {
		b.WriteString("\nВаш ответ:\n")
		for i, opt := range br.Options {
			fmt.Fprintf(&b, "  %d) %s · %s %s\n", i+1, html.EscapeString(opt.Text), r.Command, opt.ID)
		}
	}
	if imgs := r.Passage.Images(); len(imgs) > 0 {
		fmt.Fprintf(&b, "\n🎉 Новая картинка в галерее: %s\n", html.EscapeString(strings.Join(imgs, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLines(name string, lines []catalog.Line) string {
	var b strings.Builder
	for _, line := range lines {
		switch l := line.(type) {
		case catalog.CharacterLine:
			fmt.Fprintf(&b, "<b>%s:</b> %s\n", html.EscapeString(name), html.EscapeString(l.Text))
		case catalog.UserLine:
			fmt.Fprintf(&b, "<b>Вы:</b> %s\n", html.EscapeString(l.Text))
		}
	}
	return b.String()
}

// errorText переводит ошибку сервиса в ответ пользователю.
func errorText(err error, price int64) string {
	switch {
	case errors.Is(err, common.ErrUnknownEntity):
		return "❌ Не найдено. Проверьте id в !персонажи"
	case errors.Is(err, common.ErrAlreadyDone):
		return "ℹ️ Уже сделано"
	case errors.Is(err, common.ErrCharacterLocked):
		return "🔒 Сначала откройте персонажа: !открыть id"
	case errors.Is(err, common.ErrInsufficientCoins):
		if price > 0 {
			return fmt.Sprintf("❌ Недостаточно монет! Нужно %s", common.FormatCoins(price))
		}
		return "❌ Недостаточно монет"
	case errors.Is(err, common.ErrInvalidAmount):
		return "❌ Некорректная сумма"
	}
	log.WithError(err).Error("Ошибка операции экономики")
	return "❌ Внутренняя ошибка, попробуйте позже"
}
