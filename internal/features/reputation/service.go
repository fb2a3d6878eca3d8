// Package reputation — service.go содержит движок передач репутации.
// Проверка лимитов, изменение журнала, запись в аудит и сохранение снимка
// выполняются как одна транзакция.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-bot/internal/common"
	"serotonyl.ru/reputation-bot/internal/metrics"
)

// SettingsProvider отдаёт настройки репутации для scope.
type SettingsProvider interface {
	GetSettings(ctx context.Context, scope string) (Settings, error)
}

// SnapshotStore загружает и сохраняет снимки состояния.
// LoadSnapshot возвращает nil, nil, если снимков ещё не было.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
}

// Notifier получает событие после успешного коммита.
// Вызывается в отдельной горутине и не влияет на результат передачи.
type Notifier func(event AuditEvent)

// Options — параметры движка.
type Options struct {
	Location       *time.Location   // граница календарного дня для дневных лимитов
	Retention      time.Duration    // горизонт хранения кулдаунов и счётчиков
	AuditCapacity  int              // 0 — DefaultAuditCapacity; меньшие значения только для тестов
	PersistTimeout time.Duration    // таймаут одного сохранения снимка
	Notifier       Notifier         // может быть nil
	Now            func() time.Time // для тестов
	NewID          func() string    // для тестов
}

// Service управляет системой репутации.
//
// Все изменения идут под одной блокировкой: проверка лимитера, изменение
// журнала и сохранение снимка видны другим запросам только целиком.
// Чтения берут разделяемую блокировку и никогда не видят незакоммиченное.
type Service struct {
	mu      sync.RWMutex
	ledger  *Ledger
	limiter *Limiter
	audit   *AuditLog
	version int64

	settings       SettingsProvider
	store          SnapshotStore
	notify         Notifier
	persistTimeout time.Duration
	now            func() time.Time
	newID          func() string
}

// NewService создаёт сервис репутации.
func NewService(settings SettingsProvider, store SnapshotStore, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	return &Service{
		ledger:         NewLedger(opts.Now),
		limiter:        NewLimiter(opts.Location, opts.Retention),
		audit:          NewAuditLog(opts.AuditCapacity),
		settings:       settings,
		store:          store,
		notify:         opts.Notifier,
		persistTimeout: opts.PersistTimeout,
		now:            opts.Now,
		newID:          opts.NewID,
	}
}

// Load восстанавливает состояние из последнего снимка.
// Вызывается один раз при старте, до обработки запросов.
func (s *Service) Load(ctx context.Context) error {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return &common.PersistenceError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap == nil {
		log.Info("Снимок репутации не найден, начинаем с пустого состояния")
		return nil
	}
	if err := s.ledger.Restore(snap.Ledger); err != nil {
		return fmt.Errorf("повреждённый снимок v%d: %w", snap.Version, err)
	}
	s.limiter.Restore(snap.Limits)
	s.audit.Restore(snap.Audit)
	s.version = snap.Version

	log.WithFields(log.Fields{
		"version": snap.Version,
		"scopes":  len(snap.Ledger),
		"audit":   s.audit.Len(),
	}).Info("Состояние репутации загружено")
	return nil
}

// Transfer передаёт репутацию от отправителя получателю.
// Возвращает обновлённую запись получателя.
//
// Порядок проверок:
//  1. Репутация включена в scope
//  2. Категория из фиксированного набора
//  3. Получатель задан и это не сам отправитель
//  4. Количество положительное
//  5. Лимитер (кулдаун пары, дневной лимит)
//
// При отказе состояние не меняется. При ошибке сохранения всё откатывается.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (_ Record, err error) {
	defer func() { observeOutcome(req.Origin, err) }()

	settings, err := s.settings.GetSettings(ctx, req.Scope)
	if err != nil {
		return Record{}, fmt.Errorf("ошибка получения настроек: %w", err)
	}
	if !settings.Enabled {
		return Record{}, common.ErrSystemDisabled
	}
	if !req.Category.Valid() {
		return Record{}, common.ErrInvalidCategory
	}
	if req.ReceiverID == "" {
		return Record{}, common.ErrInvalidUser
	}
	if req.GiverID != "" && req.GiverID == req.ReceiverID {
		return Record{}, common.ErrSelfTransfer
	}
	if req.Amount <= 0 {
		return Record{}, common.ErrInvalidAmount
	}

	logger := log.WithFields(log.Fields{
		"scope":    req.Scope,
		"from":     req.GiverID,
		"to":       req.ReceiverID,
		"category": req.Category,
		"origin":   req.Origin,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	decision := s.limiter.Admit(req.Scope, req.GiverID, req.ReceiverID, req.Origin, settings, now)
	if !decision.Allowed {
		logger.WithField("reason", decision.Reason).Debug("Передача отклонена лимитером")
		return Record{}, decision.Err()
	}

	var undo journal
	undo.add(s.ledger.Checkpoint(req.Scope, req.ReceiverID))
	if req.GiverID != "" {
		undo.add(s.ledger.Checkpoint(req.Scope, req.GiverID))
	}

	if _, err := s.ledger.ApplyDelta(req.Scope, req.ReceiverID, req.Category, req.Amount); err != nil {
		undo.rollback()
		return Record{}, err
	}
	s.ledger.IncrementReceived(req.Scope, req.ReceiverID)
	if req.GiverID != "" {
		s.ledger.IncrementGiven(req.Scope, req.GiverID)
	}
	if req.Origin != OriginAdmin {
		undo.add(s.limiter.Record(req.Scope, req.GiverID, req.ReceiverID, now))
	}

	event := AuditEvent{
		ID:       s.newID(),
		Scope:    req.Scope,
		Action:   ActionTransfer,
		FromUser: optionalUser(req.GiverID),
		ToUser:   req.ReceiverID,
		Details: Details{
			Category: req.Category,
			Amount:   req.Amount,
			Reason:   req.Reason,
			Origin:   req.Origin,
		},
		Timestamp: now,
	}
	undo.add(s.appendAudit(event))

	if err := s.persistLocked(ctx, now); err != nil {
		undo.rollback()
		logger.WithError(err).Error("Не удалось сохранить снимок, передача откатана")
		return Record{}, &common.PersistenceError{Err: err}
	}

	rec := s.ledger.Get(req.Scope, req.ReceiverID)
	logger.WithField("total", rec.Total).Info("Репутация передана")
	s.notifyAsync(event)
	return rec, nil
}

// AdminAdjust меняет репутацию в обход лимитера.
// amount может быть отрицательным; уход в минус допускается только
// при AllowNegative. Выключенная система не мешает корректировке.
func (s *Service) AdminAdjust(ctx context.Context, scope, userID string, category Category, amount int64, reason string) (_ Record, err error) {
	defer func() { observeOutcome(OriginAdmin, err) }()

	if userID == "" {
		return Record{}, common.ErrInvalidUser
	}
	if !category.Valid() {
		return Record{}, common.ErrInvalidCategory
	}
	if amount == 0 {
		return Record{}, common.ErrInvalidAmount
	}
	settings, err := s.settings.GetSettings(ctx, scope)
	if err != nil {
		return Record{}, fmt.Errorf("ошибка получения настроек: %w", err)
	}

	logger := log.WithFields(log.Fields{
		"scope":    scope,
		"user":     userID,
		"category": category,
		"amount":   amount,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.ledger.Get(scope, userID)
	if !settings.AllowNegative {
		if cur.Categories[category]+amount < 0 || cur.Total+amount < 0 {
			return Record{}, common.ErrNegativeNotAllowed
		}
	}

	now := s.now()
	var undo journal
	undo.add(s.ledger.Checkpoint(scope, userID))
	if _, err := s.ledger.ApplyDelta(scope, userID, category, amount); err != nil {
		undo.rollback()
		return Record{}, err
	}

	event := AuditEvent{
		ID:     s.newID(),
		Scope:  scope,
		Action: ActionAdminAdjust,
		ToUser: userID,
		Details: Details{
			Category: category,
			Amount:   amount,
			Reason:   reason,
			Origin:   OriginAdmin,
		},
		Timestamp: now,
	}
	undo.add(s.appendAudit(event))

	if err := s.persistLocked(ctx, now); err != nil {
		undo.rollback()
		logger.WithError(err).Error("Не удалось сохранить снимок, корректировка откатана")
		return Record{}, &common.PersistenceError{Err: err}
	}

	rec := s.ledger.Get(scope, userID)
	logger.WithField("total", rec.Total).Info("Админская корректировка репутации")
	s.notifyAsync(event)
	return rec, nil
}

// GetUser возвращает запись пользователя (нулевую, если её нет).
func (s *Service) GetUser(scope, userID string) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Get(scope, userID)
}

// Leaderboard возвращает рейтинг scope по категории или по сумме ("total").
func (s *Service) Leaderboard(scope string, category Category, limit int) ([]LeaderboardEntry, error) {
	s.mu.RLock()
	users := s.ledger.Users(scope)
	s.mu.RUnlock()
	return buildLeaderboard(users, category, limit)
}

// ScopeStats возвращает сводную статистику scope.
func (s *Service) ScopeStats(scope string) ScopeStats {
	s.mu.RLock()
	users := s.ledger.Users(scope)
	s.mu.RUnlock()
	return buildScopeStats(users)
}

// RecentAudit возвращает последние события scope, от новых к старым.
func (s *Service) RecentAudit(scope string, limit int) []AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audit.Recent(scope, limit)
}

// CheckInvariant проверяет сумму категорий всех записей scope.
func (s *Service) CheckInvariant(scope string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.CheckInvariant(scope)
}

// Sweep чистит устаревшие кулдауны и дневные счётчики.
// Снимок не пишется: очищенное состояние уйдёт со следующим коммитом.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.limiter.Sweep(s.now())
	metrics.ObserveSweep(removed)
	cooldowns, daily := s.limiter.Size()
	log.WithFields(log.Fields{
		"removed":   removed,
		"cooldowns": cooldowns,
		"daily":     daily,
	}).Debug("Очистка лимитера репутации")
	return removed
}

// Version возвращает версию последней попытки сохранения снимка.
func (s *Service) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// appendAudit пишет событие и возвращает откат.
func (s *Service) appendAudit(event AuditEvent) func() {
	evicted := s.audit.Append(event)
	return func() { s.audit.undoAppend(evicted) }
}

// persistLocked сохраняет снимок. Вызывать под s.mu.Lock.
func (s *Service) persistLocked(ctx context.Context, now time.Time) error {
	snap := &Snapshot{
		Version: s.version + 1,
		SavedAt: now,
		Ledger:  s.ledger.Snapshot(),
		Limits:  s.limiter.Snapshot(),
		Audit:   s.audit.Events(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	started := time.Now()
	err := s.store.SaveSnapshot(ctx, snap)
	metrics.ObserveSnapshotSave(time.Since(started))
	// Номер расходуется и при ошибке: запись могла закоммититься в БД,
	// а клиент получить таймаут. Версии обязаны только возрастать.
	s.version = snap.Version
	return err
}

// notifyAsync отдаёт событие уведомителю, не дожидаясь его.
func (s *Service) notifyAsync(event AuditEvent) {
	if s.notify == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", fmt.Sprintf("%v", r)).Error("ПАНИКА в уведомлении аудита")
			}
		}()
		s.notify(event)
	}()
}

func observeOutcome(origin Origin, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, common.ErrRateLimited):
		outcome = metrics.OutcomeLimited
	case errors.Is(err, common.ErrPersistence):
		outcome = metrics.OutcomeFailed
	default:
		outcome = metrics.OutcomeRejected
	}
	metrics.ObserveTransfer(string(origin), outcome)
}

func optionalUser(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// journal — список откатов, выполняется в обратном порядке.
type journal []func()

func (j *journal) add(undo func()) { *j = append(*j, undo) }

func (j journal) rollback() {
	for i := len(j) - 1; i >= 0; i-- {
		j[i]()
	}
}
