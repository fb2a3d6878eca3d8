package reputation

import (
	"context"
	"sync"
	"time"
)

// StaticSettings — настройки в памяти: общие значения плюс переопределения по scope.
type StaticSettings struct {
	mu        sync.RWMutex
	defaults  Settings
	scopes    map[string]Settings
	retention time.Duration
}

func NewStaticSettings(defaults Settings) *StaticSettings {
	return &StaticSettings{defaults: defaults, scopes: make(map[string]Settings)}
}

// withRetention включает ту же проверку кулдауна, что и Repository.
func (p *StaticSettings) withRetention(retention time.Duration) *StaticSettings {
	p.retention = retention
	return p
}

// GetSettings возвращает настройки scope.
func (p *StaticSettings) GetSettings(_ context.Context, scope string) (Settings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.scopes[scope]; ok {
		return s, nil
	}
	return p.defaults, nil
}

// UpdateSettings частично обновляет настройки scope.
func (p *StaticSettings) UpdateSettings(_ context.Context, scope string, patch SettingsPatch) (Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	current, ok := p.scopes[scope]
	if !ok {
		current = p.defaults
	}
	next := patch.Apply(current)
	if err := ValidateSettings(next, p.retention); err != nil {
		return Settings{}, err
	}
	p.scopes[scope] = next
	return next, nil
}

// MemoryStore хранит последний снимок в памяти.
// FailWith заставляет SaveSnapshot возвращать ошибку (недоступная БД).
type MemoryStore struct {
	mu    sync.Mutex
	last  *Snapshot
	saves int
	fail  error
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadSnapshot возвращает последний снимок или nil.
func (m *MemoryStore) LoadSnapshot(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

// SaveSnapshot сохраняет снимок, если не задан отказ.
func (m *MemoryStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.last = snap
	m.saves++
	return nil
}

// FailWith включает (err != nil) или выключает отказ сохранения.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Saves возвращает число успешных сохранений.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Last возвращает последний сохранённый снимок.
func (m *MemoryStore) Last() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
