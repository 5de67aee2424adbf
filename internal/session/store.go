// Package session persists per-conversation state and serializes access to it.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/zhaowei/shopmate/internal/model/chat"
)

// Store is the persistence collaborator. Get creates an empty session with
// current UTC timestamps when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (*chat.Session, error)
	Put(ctx context.Context, sess *chat.Session) error
}

// MemoryStore keeps sessions in process memory, suitable for development and
// tests. Values are deep-copied on the way in and out so callers can mutate
// freely between Get and Put.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// NewMemoryStore bootstraps the in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*chat.Session)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*chat.Session, error) {
	s.mu.RLock()
	existing, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return copySession(existing), nil
	}

	fresh := chat.NewSession(key)
	s.mu.Lock()
	s.sessions[key] = copySession(fresh)
	s.mu.Unlock()
	return fresh, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *chat.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.sessions[sess.Key] = copySession(sess)
	s.mu.Unlock()
	return nil
}

func copySession(sess *chat.Session) *chat.Session {
	copied := *sess
	copied.History = make([]chat.Turn, len(sess.History))
	copy(copied.History, sess.History)
	return &copied
}

// encodeSession/decodeSession are the wire format shared by blob-backed stores.
func encodeSession(sess *chat.Session) ([]byte, error) {
	return json.Marshal(sess)
}

func decodeSession(data []byte) (*chat.Session, error) {
	var sess chat.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
