// Package admin — handlers.go обрабатывает /login и /logout в личных сообщениях.
package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-bot/internal/common"
)

// Handler обрабатывает вход администратора.
type Handler struct {
	service *Service
	bot     *telego.Bot
}

// NewHandler создаёт обработчик админки.
func NewHandler(service *Service, bot *telego.Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLogin — /login <пароль>, только в личке.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	password := strings.TrimSpace(strings.Join(args, " "))
	if password == "" {
		h.sendMessage(ctx, chatID, "🔐 Использование: /login <пароль>")
		return
	}

	err := h.service.Login(ctx, userID, password)
	switch {
	case err == nil:
		log.WithField("user_id", userID).Info("Администратор вошёл")
		h.sendMessage(ctx, chatID, "✅ Вход выполнен. Сессия действует 24 часа.")
	case errors.Is(err, common.ErrNotAdmin),
		errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrTooManyAttempts):
		log.WithError(err).WithField("user_id", userID).Warn("Неудачный вход администратора")
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка входа администратора")
		h.sendMessage(ctx, chatID, "❌ Ошибка входа, попробуйте позже")
	}
}

// HandleLogout — /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выхода администратора")
		h.sendMessage(ctx, chatID, "❌ Ошибка выхода")
		return
	}
	h.sendMessage(ctx, chatID, "👋 Сессия закрыта")
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
