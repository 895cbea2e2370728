// Package chat holds the conversational assistant: a transcript plus the
// send/await/render cycle around one inference call per user message.
//
// Each call carries only the latest user text. Earlier turns are kept in the
// transcript for display but are not sent to the model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"legalklarity-backend/models"

	"go.uber.org/zap"
)

const (
	DefaultGreeting = "Hello! I am Klarity, your AI legal assistant. How can I help you with your legal questions today?"

	// ErrorReplyText replaces the typing placeholder when the inference call fails.
	ErrorReplyText = "An error occurred. Please try again."
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a message is already awaiting a response")
)

// State is the assistant's position in the send cycle
type State string

const (
	StateIdle             State = "idle"
	StateSending          State = "sending"
	StateAwaitingResponse State = "awaiting_response"
	StateRendered         State = "rendered"
)

// Inference answers a single user message
type Inference interface {
	Ask(ctx context.Context, text string) (models.ChatReply, error)
}

// Assistant is safe for concurrent use. While a message is awaiting its
// response further sends are rejected with ErrBusy.
type Assistant struct {
	inference Inference
	logger    *zap.Logger
	timeout   time.Duration
	greeting  string

	mu         sync.Mutex
	state      State
	transcript []models.ChatMessage
}

// Option is a functional option for Assistant
type Option func(*Assistant)

// WithGreeting replaces the opening bot message. An empty greeting starts
// with an empty transcript.
func WithGreeting(text string) Option {
	return func(a *Assistant) {
		a.greeting = text
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithTimeout bounds each inference call
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		a.timeout = d
	}
}

// NewAssistant creates an assistant whose transcript starts with the greeting.
func NewAssistant(inference Inference, opts ...Option) *Assistant {
	a := &Assistant{
		inference: inference,
		logger:    zap.NewNop(),
		greeting:  DefaultGreeting,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.greeting != "" {
		a.transcript = append(a.transcript, models.ChatMessage{Text: a.greeting, Sender: models.SenderBot})
	}
	return a
}

// Send appends the user message and a typing placeholder, calls the inference
// collaborator and swaps the placeholder for the reply. On failure the
// placeholder becomes ErrorReplyText and the error is returned alongside it.
func (a *Assistant) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	placeholder, err := a.begin(text)
	if err != nil {
		return models.ChatMessage{}, err
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	reply, askErr := a.inference.Ask(callCtx, text)

	var msg models.ChatMessage
	if askErr != nil {
		a.logger.Warn("Chat inference failed", zap.Error(askErr))
		msg = models.ChatMessage{Text: ErrorReplyText, Sender: models.SenderBot}
		askErr = fmt.Errorf("chat inference: %w", askErr)
	} else {
		msg = models.ChatMessage{Text: reply.Text, Sender: models.SenderBot, Citations: completeCitations(reply.Citations)}
	}

	a.finish(placeholder, msg)
	return msg, askErr
}

func (a *Assistant) begin(text string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateSending || a.state == StateAwaitingResponse {
		return 0, ErrBusy
	}

	a.state = StateSending
	a.transcript = append(a.transcript,
		models.ChatMessage{Text: text, Sender: models.SenderUser},
		models.ChatMessage{Sender: models.SenderBot, IsTyping: true},
	)
	a.state = StateAwaitingResponse
	return len(a.transcript) - 1, nil
}

func (a *Assistant) finish(placeholder int, msg models.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.transcript[placeholder] = msg
	a.state = StateRendered
}

// Transcript returns a copy of the conversation so far
func (a *Assistant) Transcript() []models.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]models.ChatMessage, len(a.transcript))
	copy(out, a.transcript)
	return out
}

// State returns the current state
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func completeCitations(in []models.Citation) []models.Citation {
	var out []models.Citation
	for _, c := range in {
		if c.URI != "" && c.Title != "" {
			out = append(out, c)
		}
	}
	return out
}
