package chat

import "time"

// Session captures the multi-turn memory for one conversation key.
// History is append-only; insertion order feeds recency-bounded context windows.
type Session struct {
	Key                string    `json:"key"`
	History            []Turn    `json:"history"`
	LastOrderID        string    `json:"lastOrderId,omitempty"`
	LastProductContext string    `json:"lastProductContext,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewSession provisions an empty session for the given key.
func NewSession(key string) *Session {
	now := time.Now().UTC()
	return &Session{
		Key:       key,
		History:   make([]Turn, 0, 16),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records one turn at the end of the history.
func (s *Session) Append(turn Turn) {
	s.History = append(s.History, turn)
}

// RecentHistory returns up to the last n turns, oldest first.
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.History)-start)
	copy(out, s.History[start:])
	return out
}
