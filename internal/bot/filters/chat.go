// Package filters решает, в каких чатах бот отвечает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает личные сообщения и один разрешённый групповой чат.
type ChatFilter struct {
	allowedChatID int64
}

// NewChatFilter создаёт фильтр. allowedChatID = 0 — только личные сообщения.
func NewChatFilter(allowedChatID int64) *ChatFilter {
	return &ChatFilter{allowedChatID: allowedChatID}
}

// CheckAccess сообщает, нужно ли обрабатывать сообщение.
func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})
	if message.From == nil {
		logger.Debug("deny: no sender (channel post?)")
		return false
	}
	if message.From.IsBot {
		return false
	}

	if message.Chat.Type == telego.ChatTypePrivate {
		return true
	}
	if f.allowedChatID != 0 && message.Chat.ID == f.allowedChatID {
		return true
	}

	logger.Debug("deny: not private and not allowed chat")
	return false
}
