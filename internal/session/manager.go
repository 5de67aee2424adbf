package session

import (
	"context"
	"sync"

	"github.com/zhaowei/shopmate/internal/model/chat"
)

// Manager serializes mutation per session key: a session is touched by
// exactly one in-flight request at a time, while distinct keys proceed in
// parallel. Nothing in the orchestration logic prevents lost updates on its
// own, so the exclusion lives here.
type Manager struct {
	store Store
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager wraps a store with per-key exclusion.
func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// Update loads the session for key, runs fn under the key's lock, and
// persists the mutated session when fn succeeds.
func (m *Manager) Update(ctx context.Context, key string, fn func(sess *chat.Session) error) error {
	lock := m.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return m.store.Put(ctx, sess)
}
