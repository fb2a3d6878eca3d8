// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки репутации
var (
	// ErrSystemDisabled — репутация выключена в настройках чата
	ErrSystemDisabled = errors.New("система репутации отключена")
	// ErrInvalidCategory — категории нет в фиксированном списке
	ErrInvalidCategory = errors.New("неизвестная категория репутации")
	// ErrSelfTransfer — попытка дать репутацию самому себе
	ErrSelfTransfer = errors.New("нельзя давать репутацию самому себе")
	// ErrInvalidAmount — ноль или отрицательная сумма в обычной передаче
	ErrInvalidAmount = errors.New("некорректное количество очков")
	// ErrInvalidUser — не указан получатель
	ErrInvalidUser = errors.New("не указан пользователь")
	// ErrNegativeNotAllowed — корректировка уводит счёт в минус, а настройки это запрещают
	ErrNegativeNotAllowed = errors.New("отрицательная репутация запрещена настройками")
	// ErrRateLimited — общий признак отказа лимитера (см. RateLimitedError)
	ErrRateLimited = errors.New("лимит репутации")
	// ErrPersistence — общий признак ошибки сохранения (см. PersistenceError)
	ErrPersistence = errors.New("ошибка сохранения состояния")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)

// DenyReason — причина отказа лимитера.
type DenyReason string

const (
	DenyCooldown   DenyReason = "cooldown"
	DenyDailyLimit DenyReason = "daily_limit"
)

// RateLimitedError возвращается, когда лимитер не пропустил передачу.
// RetryAfter задан только для кулдауна (округление вверх до минут).
type RateLimitedError struct {
	Reason     DenyReason
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	switch e.Reason {
	case DenyCooldown:
		return fmt.Sprintf("кулдаун: повторить через %d мин", int(e.RetryAfter/time.Minute))
	case DenyDailyLimit:
		return "лимит репутации на сегодня исчерпан"
	}
	return ErrRateLimited.Error()
}

// Is позволяет писать errors.Is(err, common.ErrRateLimited).
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// PersistenceError — сохранение снимка не удалось, транзакция откатана.
// Ошибка временная: запрос можно повторить.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPersistence.Error(), e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
