// Package bot содержит главный модуль бота: приём апдейтов, маршрутизацию команд и остановку.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/bot/filters"
	"sensune.app/story-bot/internal/bot/middleware"
	"sensune.app/story-bot/internal/bot/reply"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/config"
	"sensune.app/story-bot/internal/features/admin"
	"sensune.app/story-bot/internal/features/checkin"
	"sensune.app/story-bot/internal/features/economy"
	"sensune.app/story-bot/internal/features/gacha"
)

const helpText = `📚 Истории персонажей

!профиль — баланс, билеты, серия
!персонажи — персонажи и главы
!открыть id — открыть персонажа
!читать глава [вариант] — читать главу и выбирать ответы
!пройти глава — отметить главу пройденной
!экстра id — купить и читать экстра-главу
!магазин, !купить id — пакеты монет
!гача, !гача 10 — крутить гачу
!коллекция — собранные карточки
!галерея — открытые картинки
!история — последние операции
!чекин — ежедневная отметка
!сброс — начать заново`

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    *telego.Bot
	sender reply.Sender
	cfg    *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	economyHandler *economy.Handler
	gachaHandler   *gacha.Handler
	checkinHandler *checkin.Handler
	adminHandler   *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота со всеми обработчиками.
func New(
	api *telego.Bot,
	cfg *config.Config,
	economyHandler *economy.Handler,
	gachaHandler *gacha.Handler,
	checkinHandler *checkin.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		sender:         api,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		economyHandler: economyHandler,
		gachaHandler:   gachaHandler,
		checkinHandler: checkinHandler,
		adminHandler:   adminHandler,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start получает апдейты long polling'ом до отмены ctx.
// Возвращается после того, как все начатые апдейты обработаны.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.drain()
	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// drain ждёт завершения обработчиков, занимая все слоты семафора.
func (b *Bot) drain() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
	for i := 0; i < cap(b.inflight); i++ {
		<-b.inflight
	}
}

// Close освобождает ресурсы бота.
func (b *Bot) Close() {
	b.rateLimiter.Close()
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	b.handleMessage(ctx, update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, message *telego.Message) {
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	private := message.Chat.Type == telego.ChatTypePrivate

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		// В личке админ может отвечать на шаг диалога (пароль, подтверждение)
		if private {
			b.adminHandler.HandleText(ctx, chatID, userID, message.Text)
		}
		return
	}

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	b.routeCommand(ctx, chatID, userID, private, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, private bool, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start", "help", "помощь":
		reply.Text(ctx, b.sender, chatID, helpText)

	case "профиль":
		b.economyHandler.HandleProfile(ctx, chatID, userID)

	case "персонажи":
		b.economyHandler.HandleCharacters(ctx, chatID, userID)

	case "открыть":
		b.economyHandler.HandleUnlock(ctx, chatID, userID, args)

	case "читать":
		b.economyHandler.HandleRead(ctx, chatID, userID, args)

	case "пройти":
		b.economyHandler.HandleComplete(ctx, chatID, userID, args)

	case "экстра":
		b.economyHandler.HandleExtra(ctx, chatID, userID, args)

	case "галерея":
		b.economyHandler.HandleGallery(ctx, chatID, userID)

	case "история":
		b.economyHandler.HandleHistory(ctx, chatID, userID)

	case "сброс":
		b.economyHandler.HandleReset(ctx, chatID, userID, args)

	case "магазин":
		if b.cfg.FeatureShopEnabled {
			b.economyHandler.HandleShop(ctx, chatID)
		} else {
			reply.Text(ctx, b.sender, chatID, "🛒 Магазин временно закрыт")
		}

	case "купить":
		if b.cfg.FeatureShopEnabled {
			b.economyHandler.HandleBuy(ctx, chatID, userID, args)
		} else {
			reply.Text(ctx, b.sender, chatID, "🛒 Магазин временно закрыт")
		}

	case "гача":
		if b.cfg.FeatureGachaEnabled {
			b.gachaHandler.HandleRoll(ctx, chatID, userID, args)
		} else {
			reply.Text(ctx, b.sender, chatID, "🎴 "+capitalize(common.ErrGachaDisabled.Error()))
		}

	case "коллекция":
		b.gachaHandler.HandleCollection(ctx, chatID, userID)

	case "чекин":
		if b.cfg.FeatureCheckInEnabled {
			b.checkinHandler.HandleCheckIn(ctx, chatID, userID)
		}

	case "login", "logout", "grant", "inspect", "resetuser":
		// пароли и управление только в личке
		if private {
			b.routeAdmin(ctx, chatID, userID, cmd, args)
		}
	}
}

func (b *Bot) routeAdmin(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)
	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)
	case "grant":
		b.adminHandler.HandleGrant(ctx, chatID, userID, args)
	case "inspect":
		b.adminHandler.HandleInspect(ctx, chatID, userID, args)
	case "resetuser":
		b.adminHandler.HandleResetUser(ctx, chatID, userID, args)
	}
}

// SendMessageToUser отправляет сообщение пользователю (для напоминаний).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reply.Text(ctx, b.sender, userID, text)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname у команд Telegram отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
