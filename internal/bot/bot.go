// Package bot содержит главный модуль бота — запуск polling и маршрутизацию.
// bot.go принимает апдейты и раздаёт их обработчикам фич.
package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-bot/internal/bot/filters"
	"serotonyl.ru/reputation-bot/internal/bot/middleware"
	"serotonyl.ru/reputation-bot/internal/config"
	"serotonyl.ru/reputation-bot/internal/features/admin"
	"serotonyl.ru/reputation-bot/internal/features/members"
	"serotonyl.ru/reputation-bot/internal/features/reputation"
)

const helpText = "⭐ Репутация:\n" +
	"!реп [@user] [категория] [причина] — дать +1 (или ответом на сообщение)\n" +
	"!репа — своя репутация (ответом — чужая)\n" +
	"!топ [категория] [N] — рейтинг\n" +
	"!статрепа — статистика чата\n" +
	"Админам: !аудит [N], !корр [@user] <категория> <±N> [причина], !настройки"

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	reputationHandler *reputation.Handler
	adminHandler      *admin.Handler
	memberService     *members.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	memberService *members.Service,
	reputationHandler *reputation.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:               api,
		cfg:               cfg,
		chatFilter:        chatFilter,
		rateLimiter:       middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		reputationHandler: reputationHandler,
		adminHandler:      adminHandler,
		memberService:     memberService,
		parser:            NewCommandParser(),
		inflight:          make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	defer b.rateLimiter.Close()

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

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

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil || message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}
	if message.From.IsBot {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	private := message.Chat.Type == telego.ChatTypePrivate

	if !private {
		if err := b.memberService.EnsureMember(ctx, userID,
			message.From.Username, message.From.FirstName, message.From.LastName,
		); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
		}
	}

	var replyToUserID int64
	if reply := message.ReplyToMessage; reply != nil && reply.From != nil && !reply.From.IsBot {
		replyToUserID = reply.From.ID
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		// «спасибо» в ответ на сообщение — +1 к помощи
		if !private && replyToUserID != 0 && reputation.IsThankYou(message.Text) {
			b.reputationHandler.HandleThankYou(ctx, chatID, userID, replyToUserID)
		}
		return
	}

	// Rate limiting только для команд: «спасибо» ограничивает сам движок
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	if private {
		b.routePrivate(ctx, chatID, userID, cmd, args)
		return
	}
	b.routeGroup(ctx, chatID, userID, replyToUserID, cmd, args)
}

// routePrivate — личка: только вход админа.
func (b *Bot) routePrivate(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)
	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)
	case "start", "help":
		b.sendMessage(ctx, chatID, "Я считаю репутацию в чатах. Админам: /login <пароль>, /logout")
	}
}

// routeGroup маршрутизирует команду чата к нужному обработчику.
func (b *Bot) routeGroup(ctx context.Context, chatID, userID, replyToUserID int64, cmd string, args []string) {
	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(ctx, chatID, helpText)

	case "реп", "rep":
		b.reputationHandler.HandleGive(ctx, chatID, userID, replyToUserID, args)

	case "репа", "репутация":
		b.reputationHandler.HandleShow(ctx, chatID, userID, replyToUserID)

	case "топ", "top":
		b.reputationHandler.HandleTop(ctx, chatID, args)

	case "статрепа":
		b.reputationHandler.HandleStats(ctx, chatID)

	case "аудит":
		b.reputationHandler.HandleAudit(ctx, chatID, userID, args)

	case "корр":
		b.reputationHandler.HandleAdjust(ctx, chatID, userID, replyToUserID, args)

	case "настройки":
		b.reputationHandler.HandleSettings(ctx, chatID, userID, args)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
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
// Суффикс @botname у /команд отбрасывается.
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
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
