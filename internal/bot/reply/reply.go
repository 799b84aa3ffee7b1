// Package reply отправляет ответы бота в Telegram.
// Обработчики зависят от интерфейса Sender, а не от *telego.Bot напрямую.
package reply

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Sender — часть API Telegram, нужная обработчикам. *telego.Bot её реализует.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Text отправляет обычный текст. Ошибка только логируется.
func Text(ctx context.Context, s Sender, chatID int64, text string) {
	if _, err := s.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// HTML отправляет текст с HTML-разметкой. Если Telegram его не принял — шлём без разметки.
func HTML(ctx context.Context, s Sender, chatID int64, text string) {
	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if _, err := s.SendMessage(ctx, msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("HTML не принят, отправляем без разметки")
		Text(ctx, s, chatID, text)
	}
}
