// Package filters решает, какие сообщения бот вообще обрабатывает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает разрешённые группы и личку (там только вход админа).
type ChatFilter struct {
	allowed map[int64]struct{}
}

func NewChatFilter(allowedChatIDs []int64) *ChatFilter {
	allowed := make(map[int64]struct{}, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = struct{}{}
	}
	return &ChatFilter{allowed: allowed}
}

// IsAllowedChat сообщает, является ли чат разрешённой группой.
func (f *ChatFilter) IsAllowedChat(chatID int64) bool {
	_, ok := f.allowed[chatID]
	return ok
}

func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	// 1) Разрешённый чат
	if f.IsAllowedChat(message.Chat.ID) {
		return true
	}

	// 2) Личка: команды входа админа
	if message.Chat.Type == telego.ChatTypePrivate {
		logger.Debug("allow: private")
		return true
	}

	// 3) Остальные чаты игнорируем
	logger.Info("deny: chat not in ALLOWED_CHAT_IDS")
	return false
}
