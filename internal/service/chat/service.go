// Package chat runs complete conversation turns: it serializes access to the
// session, records both sides of the exchange, and delegates the pass to the
// orchestrator.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/zhaowei/shopmate/internal/agent"
	chatmodel "github.com/zhaowei/shopmate/internal/model/chat"
	"github.com/zhaowei/shopmate/internal/session"
)

var (
	// ErrEmptySessionKey rejects turns without a session identity.
	ErrEmptySessionKey = errors.New("session key is required")
	// ErrEmptyMessage rejects blank user messages.
	ErrEmptyMessage = errors.New("message is required")
)

// Service owns the turn lifecycle for every inbound surface (REST, SSE,
// WebSocket all funnel through RunTurn).
type Service struct {
	sessions     *session.Manager
	orchestrator *agent.Orchestrator
}

// NewService wires the turn service.
func NewService(sessions *session.Manager, orchestrator *agent.Orchestrator) *Service {
	return &Service{sessions: sessions, orchestrator: orchestrator}
}

// RunTurn executes one user turn against the named session. Turns for the
// same key are serialized by the session manager; concurrent turns for
// different keys proceed independently.
func (s *Service) RunTurn(ctx context.Context, sessionKey, message string) (chatmodel.Response, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	message = strings.TrimSpace(message)
	if sessionKey == "" {
		return chatmodel.Response{}, ErrEmptySessionKey
	}
	if message == "" {
		return chatmodel.Response{}, ErrEmptyMessage
	}

	requestID := uuid.NewString()
	log.Printf("[chat] request=%s session=%s turn started", requestID, sessionKey)

	var resp chatmodel.Response
	err := s.sessions.Update(ctx, sessionKey, func(sess *chatmodel.Session) error {
		sess.Append(chatmodel.Turn{Role: chatmodel.RoleUser, Content: message})
		resp = s.orchestrator.Handle(ctx, requestID, sess, message)
		sess.Append(chatmodel.Turn{
			Role:    chatmodel.RoleAssistant,
			Content: resp.Response,
			Agent:   resp.Agent,
		})
		return nil
	})
	if err != nil {
		log.Printf("[chat] request=%s session=%s turn failed: %v", requestID, sessionKey, err)
		return chatmodel.Response{}, err
	}

	log.Printf("[chat] request=%s session=%s handled by %s", requestID, sessionKey, resp.Agent)
	return resp, nil
}

// History returns the stored conversation for a session key.
func (s *Service) History(ctx context.Context, sessionKey string) ([]chatmodel.Turn, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}

	var history []chatmodel.Turn
	err := s.sessions.Update(ctx, sessionKey, func(sess *chatmodel.Session) error {
		history = append([]chatmodel.Turn(nil), sess.History...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
