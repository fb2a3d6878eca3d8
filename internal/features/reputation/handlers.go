// Package reputation — handlers.go обрабатывает команды репутации и «спасибо».
package reputation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-bot/internal/common"
	"serotonyl.ru/reputation-bot/internal/features/members"
)

// SettingsStore — настройки, которые админ может менять из чата.
type SettingsStore interface {
	SettingsProvider
	UpdateSettings(ctx context.Context, scope string, patch SettingsPatch) (Settings, error)
}

// Authorizer проверяет право на админские команды.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64) error
}

// Handler обрабатывает события репутации.
type Handler struct {
	service  *Service
	settings SettingsStore
	members  *members.Service
	admins   Authorizer
	bot      *telego.Bot
	loc      *time.Location
}

// NewHandler создаёт обработчик репутации.
func NewHandler(service *Service, settings SettingsStore, memberService *members.Service, admins Authorizer, bot *telego.Bot, loc *time.Location) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		members:  memberService,
		admins:   admins,
		bot:      bot,
		loc:      loc,
	}
}

// ScopeOf — scope репутации для чата.
func ScopeOf(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// HandleThankYou обрабатывает «спасибо» в ответе на сообщение: +1 к помощи.
// Отказы лимитера здесь молчаливые, чтобы не засорять чат.
func (h *Handler) HandleThankYou(ctx context.Context, chatID, fromUserID, toUserID int64) {
	rec, err := h.service.Transfer(ctx, TransferRequest{
		Scope:      ScopeOf(chatID),
		GiverID:    strconv.FormatInt(fromUserID, 10),
		ReceiverID: strconv.FormatInt(toUserID, 10),
		Category:   Helpfulness,
		Amount:     1,
		Reason:     "спасибо",
		Origin:     OriginThanks,
	})
	if err != nil {
		if errors.Is(err, common.ErrPersistence) {
			h.sendMessage(ctx, chatID, ErrorMessage(err))
		}
		log.WithError(err).Debug("Репутация за спасибо не дана")
		return
	}
	h.sendMessage(ctx, chatID, "⭐ +1 к репутации! Теперь "+common.FormatPoints(rec.Total))
}

// HandleGive — !реп [@user] [категория] [причина]. Получатель — автор сообщения,
// на которое ответили, или @user.
func (h *Handler) HandleGive(ctx context.Context, chatID, fromUserID, replyToUserID int64, args []string) {
	parsed, err := parseGiveArgs(args)
	if err != nil {
		h.sendMessage(ctx, chatID, ErrorMessage(err))
		return
	}
	receiver, err := h.resolveTarget(ctx, replyToUserID, parsed.Username)
	if err != nil {
		h.sendMessage(ctx, chatID, ErrorMessage(err))
		return
	}

	rec, err := h.service.Transfer(ctx, TransferRequest{
		Scope:      ScopeOf(chatID),
		GiverID:    strconv.FormatInt(fromUserID, 10),
		ReceiverID: receiver,
		Category:   parsed.Category,
		Amount:     1,
		Reason:     parsed.Reason,
		Origin:     OriginCommand,
	})
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Репутация не дана")
		h.sendMessage(ctx, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, chatID, "⭐ +1 ("+CategoryTitle(parsed.Category)+"). Теперь "+common.FormatPoints(rec.Total))
}

// HandleShow — !репа. Своя репутация или того, кому ответили.
func (h *Handler) HandleShow(ctx context.Context, chatID, userID, replyToUserID int64) {
	target := strconv.FormatInt(userID, 10)
	if replyToUserID != 0 {
		target = strconv.FormatInt(replyToUserID, 10)
	}
	rec := h.service.GetUser(ScopeOf(chatID), target)
	names := h.members.DisplayNames(ctx, []string{target})
	h.sendMessage(ctx, chatID, FormatRecord(names[target], rec))
}

// HandleTop — !топ [категория] [N].
func (h *Handler) HandleTop(ctx context.Context, chatID int64, args []string) {
	category, limit, err := parseTopArgs(args)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}
	entries, err := h.service.Leaderboard(ScopeOf(chatID), category, limit)
	if err != nil {
		h.sendMessage(ctx, chatID, ErrorMessage(err))
		return
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	h.sendMessage(ctx, chatID, FormatLeaderboard(category, entries, h.members.DisplayNames(ctx, ids)))
}

// HandleStats — !статрепа.
func (h *Handler) HandleStats(ctx context.Context, chatID int64) {
	h.sendMessage(ctx, chatID, FormatStats(h.service.ScopeStats(ScopeOf(chatID))))
}

// HandleAudit — !аудит [N], только для админов.
func (h *Handler) HandleAudit(ctx context.Context, chatID, userID int64, args []string) {
	if !h.authorize(ctx, chatID, userID) {
		return
	}
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	events := h.service.RecentAudit(ScopeOf(chatID), limit)
	ids := make([]string, 0, len(events)*2)
	for _, e := range events {
		ids = append(ids, e.ToUser)
		if e.FromUser != nil {
			ids = append(ids, *e.FromUser)
		}
	}
	h.sendMessage(ctx, chatID, FormatAudit(events, h.members.DisplayNames(ctx, ids), h.loc))
}

// HandleAdjust — !корр [@user] <категория> <±N> [причина], только для админов.
func (h *Handler) HandleAdjust(ctx context.Context, chatID, userID, replyToUserID int64, args []string) {
	if !h.authorize(ctx, chatID, userID) {
		return
	}
	parsed, err := parseAdjustArgs(args)
	if err != nil {
		h.sendMessage(ctx, chatID, errorText(err))
		return
	}
	target, err := h.resolveTarget(ctx, replyToUserID, parsed.Username)
	if err != nil {
		h.sendMessage(ctx, chatID, ErrorMessage(err))
		return
	}

	rec, err := h.service.AdminAdjust(ctx, ScopeOf(chatID), target, parsed.Category, parsed.Amount, parsed.Reason)
	if err != nil {
		log.WithError(err).WithField("admin_id", userID).Warn("Корректировка отклонена")
		h.sendMessage(ctx, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, chatID, "🛠 "+CategoryTitle(parsed.Category)+" "+common.FormatSignedPoints(parsed.Amount)+
		". Теперь "+common.FormatPoints(rec.Total))
}

// HandleSettings — !настройки (показать) или !настройки <ключ> <значение>.
func (h *Handler) HandleSettings(ctx context.Context, chatID, userID int64, args []string) {
	scope := ScopeOf(chatID)
	if len(args) == 0 {
		s, err := h.settings.GetSettings(ctx, scope)
		if err != nil {
			log.WithError(err).Error("Ошибка получения настроек")
			h.sendMessage(ctx, chatID, "❌ Ошибка получения настроек")
			return
		}
		h.sendMessage(ctx, chatID, FormatSettings(s))
		return
	}

	if !h.authorize(ctx, chatID, userID) {
		return
	}
	patch, err := parseSettingsArgs(args)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}
	s, err := h.settings.UpdateSettings(ctx, scope, patch)
	if err != nil {
		log.WithError(err).WithField("scope", scope).Error("Ошибка обновления настроек")
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}
	log.WithFields(log.Fields{"scope": scope, "admin_id": userID}).Info("Настройки репутации обновлены")
	h.sendMessage(ctx, chatID, FormatSettings(s))
}

// NewAuditNotifier отправляет строку аудита в лог-чат после каждого коммита.
// logChatID == 0 — уведомления выключены.
func NewAuditNotifier(bot *telego.Bot, logChatID int64, loc *time.Location) Notifier {
	if logChatID == 0 {
		return nil
	}
	return func(e AuditEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		text := "📝 [" + e.Scope + "] " + FormatAuditLine(e, nil, loc)
		if _, err := bot.SendMessage(ctx, tu.Message(tu.ID(logChatID), text)); err != nil {
			log.WithError(err).WithField("log_chat_id", logChatID).Warn("Не удалось отправить уведомление аудита")
		}
	}
}

func (h *Handler) authorize(ctx context.Context, chatID, userID int64) bool {
	err := h.admins.Authorize(ctx, userID)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(ctx, chatID, "🔒 "+err.Error())
	case errors.Is(err, common.ErrSessionExpired):
		h.sendMessage(ctx, chatID, "🔒 Нужна активная сессия: /login <пароль> в личке с ботом")
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки прав")
		h.sendMessage(ctx, chatID, "❌ Ошибка проверки прав")
	}
	return false
}

// resolveTarget выбирает получателя: ответ на сообщение важнее @username.
func (h *Handler) resolveTarget(ctx context.Context, replyToUserID int64, username string) (string, error) {
	if replyToUserID != 0 {
		return strconv.FormatInt(replyToUserID, 10), nil
	}
	if username == "" {
		return "", common.ErrInvalidUser
	}
	m, err := h.members.FindByUsername(ctx, username)
	if err != nil {
		log.WithError(err).WithField("username", username).Debug("Получатель не найден")
		return "", common.ErrInvalidUser
	}
	return strconv.FormatInt(m.UserID, 10), nil
}

// errorText — текст для ошибок разбора команд.
func errorText(err error) string {
	if errors.Is(err, common.ErrInvalidCategory) || errors.Is(err, common.ErrInvalidAmount) {
		return ErrorMessage(err)
	}
	return "❌ " + err.Error()
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
