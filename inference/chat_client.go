package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"legalklarity-backend/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultChatModel = "gemini-2.5-flash"

	// NoAnswerText is used when the model returns a candidate without text.
	NoAnswerText = "Sorry, I couldn't generate a response. Please try again."
)

var ErrMissingAPIKey = errors.New("chat API key or credentials not set")

// ChatConfig configures the REST chat client. TokenSource is used when
// APIKey is empty.
type ChatConfig struct {
	BaseURL      string
	APIKey       string
	TokenSource  oauth2.TokenSource
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// ChatClient sends single-turn questions to Gemini over REST with web search
// grounding enabled. Each call carries only the latest user text and the
// fixed system prompt.
type ChatClient struct {
	http         *resty.Client
	apiKey       string
	tokenSource  oauth2.TokenSource
	model        string
	systemPrompt string
	logger       *zap.Logger
}

// NewChatClient creates a chat client
func NewChatClient(cfg ChatConfig, logger *zap.Logger) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultChatSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChatClient{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		apiKey:       cfg.APIKey,
		tokenSource:  cfg.TokenSource,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger,
	}
}

type textPart struct {
	Text string `json:"text"`
}

type content struct {
	Parts []textPart `json:"parts"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	Tools             []map[string]any `json:"tools"`
	SystemInstruction content          `json:"systemInstruction"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []textPart `json:"parts"`
		} `json:"content"`
		FinishReason      string `json:"finishReason,omitempty"`
		GroundingMetadata *struct {
			GroundingAttributions []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingAttributions"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Ask sends one question and returns the answer text with its citations.
func (c *ChatClient) Ask(ctx context.Context, text string) (models.ChatReply, error) {
	if c.apiKey == "" && c.tokenSource == nil {
		return models.ChatReply{}, ErrMissingAPIKey
	}

	body := generateRequest{
		Contents:          []content{{Parts: []textPart{{Text: text}}}},
		Tools:             []map[string]any{{"google_search": map[string]any{}}},
		SystemInstruction: content{Parts: []textPart{{Text: c.systemPrompt}}},
	}

	req := c.http.R().SetContext(ctx).SetBody(body)
	if c.apiKey != "" {
		req.SetHeader("x-goog-api-key", c.apiKey)
	} else {
		token, err := c.tokenSource.Token()
		if err != nil {
			return models.ChatReply{}, fmt.Errorf("failed to get access token: %w", err)
		}
		req.SetAuthToken(token.AccessToken)
	}

	resp, err := req.Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.IsError() {
		c.logger.Warn("Gemini chat error",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncateRunes(resp.String(), 500)),
		)
		return models.ChatReply{}, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var apiResp generateResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return models.ChatReply{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Error != nil && apiResp.Error.Message != "" {
		return models.ChatReply{}, fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}

	return replyFromResponse(apiResp), nil
}

func replyFromResponse(apiResp generateResponse) models.ChatReply {
	reply := models.ChatReply{Text: NoAnswerText, Citations: []models.Citation{}}
	if len(apiResp.Candidates) == 0 {
		return reply
	}

	candidate := apiResp.Candidates[0]
	if len(candidate.Content.Parts) > 0 && candidate.Content.Parts[0].Text != "" {
		reply.Text = candidate.Content.Parts[0].Text
	}

	if candidate.GroundingMetadata != nil {
		for _, attribution := range candidate.GroundingMetadata.GroundingAttributions {
			if attribution.Web == nil || attribution.Web.URI == "" || attribution.Web.Title == "" {
				continue
			}
			reply.Citations = append(reply.Citations, models.Citation{
				URI:   attribution.Web.URI,
				Title: attribution.Web.Title,
			})
		}
	}
	return reply
}
