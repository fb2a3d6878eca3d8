// Package reputation — audit.go хранит ограниченный журнал событий.
package reputation

// DefaultAuditCapacity — сколько событий держит журнал (на все scope вместе).
const DefaultAuditCapacity = 1000

// AuditLog — кольцевой буфер событий фиксированной ёмкости.
// При переполнении вытесняется самое старое событие. Append и вытеснение — O(1).
// Не потокобезопасен: доступ сериализует Service.
type AuditLog struct {
	buf   []AuditEvent
	start int // индекс самого старого события
	n     int
}

// NewAuditLog создаёт журнал ёмкостью capacity (<= 0 — DefaultAuditCapacity).
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{buf: make([]AuditEvent, capacity)}
}

// Append добавляет событие как самое новое.
// Если журнал был полон, возвращает вытесненное событие.
func (a *AuditLog) Append(e AuditEvent) *AuditEvent {
	c := len(a.buf)
	if a.n < c {
		a.buf[(a.start+a.n)%c] = e
		a.n++
		return nil
	}
	evicted := a.buf[a.start]
	a.buf[a.start] = e
	a.start = (a.start + 1) % c
	return &evicted
}

// undoAppend откатывает последний Append.
// evicted — то, что вернул Append.
func (a *AuditLog) undoAppend(evicted *AuditEvent) {
	c := len(a.buf)
	if a.n == 0 {
		return
	}
	if evicted == nil {
		a.n--
		a.buf[(a.start+a.n)%c] = AuditEvent{}
		return
	}
	a.start = (a.start - 1 + c) % c
	a.buf[a.start] = *evicted
}

// Len возвращает текущее число событий.
func (a *AuditLog) Len() int { return a.n }

// Cap возвращает ёмкость журнала.
func (a *AuditLog) Cap() int { return len(a.buf) }

// Recent возвращает до limit последних событий scope, от новых к старым.
// limit <= 0 — без ограничения.
func (a *AuditLog) Recent(scope string, limit int) []AuditEvent {
	out := make([]AuditEvent, 0)
	c := len(a.buf)
	for i := a.n - 1; i >= 0; i-- {
		e := a.buf[(a.start+i)%c]
		if e.Scope != scope {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Events возвращает все события от новых к старым.
func (a *AuditLog) Events() []AuditEvent {
	out := make([]AuditEvent, 0, a.n)
	c := len(a.buf)
	for i := a.n - 1; i >= 0; i-- {
		out = append(out, a.buf[(a.start+i)%c])
	}
	return out
}

// Restore загружает события (от новых к старым), лишние старые отбрасываются.
func (a *AuditLog) Restore(events []AuditEvent) {
	for i := range a.buf {
		a.buf[i] = AuditEvent{}
	}
	a.start, a.n = 0, 0
	if len(events) > len(a.buf) {
		events = events[:len(a.buf)]
	}
	for i := len(events) - 1; i >= 0; i-- {
		a.Append(events[i])
	}
}
