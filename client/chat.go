package client

import (
	"context"
	"encoding/json"
	"fmt"

	"legalklarity-backend/models"

	"github.com/go-resty/resty/v2"
)

// ChatAPI answers chat messages through the backend. It satisfies
// chat.Inference.
type ChatAPI struct {
	transport *Transport
}

// NewChatAPI creates a chat client
func NewChatAPI(transport *Transport) *ChatAPI {
	return &ChatAPI{transport: transport}
}

func (c *ChatAPI) Ask(ctx context.Context, text string) (models.ChatReply, error) {
	resp, err := c.transport.Do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Content-Type", "application/json").
			SetBody(models.ChatRequest{Message: text}).
			Post("/api/v1/chat")
	})
	if err != nil {
		return models.ChatReply{}, err
	}

	var envelope struct {
		Success bool             `json:"success"`
		Data    models.ChatReply `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return models.ChatReply{}, fmt.Errorf("invalid chat response: %w", err)
	}
	if !envelope.Success {
		return models.ChatReply{}, fmt.Errorf("chat request was not successful")
	}
	return envelope.Data, nil
}
