// Package reputation — ledger.go хранит текущие записи репутации по scope.
package reputation

import (
	"fmt"
	"time"

	"serotonyl.ru/reputation-bot/internal/common"
)

// Ledger хранит записи репутации: scope → пользователь → Record.
// Не потокобезопасен: доступ сериализует Service.
type Ledger struct {
	scopes map[string]*scopeLedger
	now    func() time.Time
}

type scopeLedger struct {
	records map[string]*Record
	order   []string // порядок создания записей, он же tiebreak рейтинга
}

// NewLedger создаёт пустой журнал.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{scopes: make(map[string]*scopeLedger), now: now}
}

// Get возвращает запись пользователя или нулевую, если её ещё нет.
// Чтение не создаёт запись.
func (l *Ledger) Get(scope, userID string) Record {
	if rec := l.lookup(scope, userID); rec != nil {
		return rec.clone()
	}
	return newRecord(time.Time{})
}

// Exists сообщает, есть ли запись пользователя.
func (l *Ledger) Exists(scope, userID string) bool {
	return l.lookup(scope, userID) != nil
}

// ApplyDelta прибавляет amount к категории и к сумме.
// Счётчики Given/Received не трогает.
func (l *Ledger) ApplyDelta(scope, userID string, category Category, amount int64) (Record, error) {
	if !category.Valid() {
		return Record{}, common.ErrInvalidCategory
	}
	rec := l.ensure(scope, userID)
	rec.Categories[category] += amount
	rec.Total += amount
	return rec.clone(), nil
}

// IncrementGiven увеличивает счётчик отданных передач.
func (l *Ledger) IncrementGiven(scope, userID string) Record {
	rec := l.ensure(scope, userID)
	rec.Given++
	return rec.clone()
}

// IncrementReceived увеличивает счётчик полученных передач.
func (l *Ledger) IncrementReceived(scope, userID string) Record {
	rec := l.ensure(scope, userID)
	rec.Received++
	return rec.clone()
}

// Checkpoint запоминает текущее состояние записи и возвращает функцию отката.
// Если записи не было, откат удаляет её целиком.
func (l *Ledger) Checkpoint(scope, userID string) func() {
	prev := l.lookup(scope, userID)
	if prev == nil {
		return func() { l.remove(scope, userID) }
	}
	saved := prev.clone()
	return func() {
		if rec := l.lookup(scope, userID); rec != nil {
			*rec = saved
		}
	}
}

// Users возвращает копии всех записей scope в порядке создания.
func (l *Ledger) Users(scope string) []UserRecord {
	sl, ok := l.scopes[scope]
	if !ok {
		return nil
	}
	out := make([]UserRecord, 0, len(sl.order))
	for _, id := range sl.order {
		out = append(out, UserRecord{UserID: id, Record: sl.records[id].clone()})
	}
	return out
}

// CheckInvariant проверяет Total == сумма категорий для всех записей scope.
func (l *Ledger) CheckInvariant(scope string) error {
	sl, ok := l.scopes[scope]
	if !ok {
		return nil
	}
	for _, id := range sl.order {
		rec := sl.records[id]
		if s := rec.sum(); s != rec.Total {
			return fmt.Errorf("нарушен инвариант для %s/%s: total=%d, сумма категорий=%d", scope, id, rec.Total, s)
		}
	}
	return nil
}

// Snapshot копирует все scope для сохранения.
func (l *Ledger) Snapshot() map[string][]UserRecord {
	out := make(map[string][]UserRecord, len(l.scopes))
	for scope := range l.scopes {
		out[scope] = l.Users(scope)
	}
	return out
}

// Restore заменяет содержимое журнала данными снимка.
// Записи с неизвестными категориями или сломанной суммой отклоняются.
func (l *Ledger) Restore(data map[string][]UserRecord) error {
	scopes := make(map[string]*scopeLedger, len(data))
	for scope, users := range data {
		sl := &scopeLedger{records: make(map[string]*Record, len(users))}
		for _, u := range users {
			if _, dup := sl.records[u.UserID]; dup {
				return fmt.Errorf("дубликат пользователя %s в scope %s", u.UserID, scope)
			}
			rec := newRecord(u.Record.LastReset)
			for c, v := range u.Record.Categories {
				if !c.Valid() {
					return fmt.Errorf("scope %s, пользователь %s: %w %q", scope, u.UserID, common.ErrInvalidCategory, c)
				}
				rec.Categories[c] = v
			}
			rec.Total = u.Record.Total
			rec.Given = u.Record.Given
			rec.Received = u.Record.Received
			if rec.sum() != rec.Total {
				return fmt.Errorf("scope %s, пользователь %s: total не совпадает с суммой категорий", scope, u.UserID)
			}
			sl.records[u.UserID] = &rec
			sl.order = append(sl.order, u.UserID)
		}
		scopes[scope] = sl
	}
	l.scopes = scopes
	return nil
}

func (l *Ledger) lookup(scope, userID string) *Record {
	sl, ok := l.scopes[scope]
	if !ok {
		return nil
	}
	return sl.records[userID]
}

func (l *Ledger) ensure(scope, userID string) *Record {
	sl, ok := l.scopes[scope]
	if !ok {
		sl = &scopeLedger{records: make(map[string]*Record)}
		l.scopes[scope] = sl
	}
	rec, ok := sl.records[userID]
	if !ok {
		r := newRecord(l.now())
		rec = &r
		sl.records[userID] = rec
		sl.order = append(sl.order, userID)
	}
	return rec
}

func (l *Ledger) remove(scope, userID string) {
	sl, ok := l.scopes[scope]
	if !ok {
		return
	}
	if _, ok := sl.records[userID]; !ok {
		return
	}
	delete(sl.records, userID)
	// откаты идут в обратном порядке, поэтому запись обычно последняя
	for i := len(sl.order) - 1; i >= 0; i-- {
		if sl.order[i] == userID {
			sl.order = append(sl.order[:i], sl.order[i+1:]...)
			break
		}
	}
	if len(sl.records) == 0 {
		delete(l.scopes, scope)
	}
}
