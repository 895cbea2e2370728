package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"legalklarity-backend/models"

	"go.uber.org/zap"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrChatUnavailable = errors.New("chat is unavailable")
)

// MaxChatMessageRunes bounds a single chat message.
const MaxChatMessageRunes = 4000

// ChatInference answers one chat message
type ChatInference interface {
	Ask(ctx context.Context, text string) (models.ChatReply, error)
}

// ChatService proxies single-turn legal questions to the inference collaborator
type ChatService struct {
	inference ChatInference
	logger    *zap.Logger
	timeout   time.Duration
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithInference sets the inference collaborator
func ChatWithInference(inf ChatInference) ChatServiceOption {
	return func(s *ChatService) {
		s.inference = inf
	}
}

// ChatWithLogger sets the logger
func ChatWithLogger(logger *zap.Logger) ChatServiceOption {
	return func(s *ChatService) {
		s.logger = logger
	}
}

// ChatWithTimeout bounds each inference call
func ChatWithTimeout(d time.Duration) ChatServiceOption {
	return func(s *ChatService) {
		s.timeout = d
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		logger:  zap.NewNop(),
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a user's message. Only the message itself is sent; earlier
// turns are not carried.
func (s *ChatService) Ask(ctx context.Context, userID, message string) (models.ChatReply, error) {
	if s.inference == nil {
		return models.ChatReply{}, ErrChatUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatReply{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxChatMessageRunes {
		return models.ChatReply{}, ErrMessageTooLong
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.inference.Ask(ctx, message)
	if err != nil {
		s.logger.Warn("Chat inference failed", zap.String("user_id", userID), zap.Error(err))
		return models.ChatReply{}, err
	}
	if reply.Citations == nil {
		reply.Citations = []models.Citation{}
	}

	s.logger.Debug("Chat answered",
		zap.String("user_id", userID),
		zap.Int("citations", len(reply.Citations)),
		zap.Duration("latency", time.Since(start)),
	)
	return reply, nil
}
