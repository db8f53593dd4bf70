package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// generateTimeout bounds a single completion request.
const generateTimeout = 60 * time.Second

// ChatGenerator adapts an eino ChatModel to the two-string Generate shape the
// answer service consumes.
type ChatGenerator struct {
	model model.ToolCallingChatModel
}

// NewChatGenerator wraps the given chat model.
func NewChatGenerator(m model.ToolCallingChatModel) (*ChatGenerator, error) {
	if m == nil {
		return nil, fmt.Errorf("provider: chat model must not be nil")
	}
	return &ChatGenerator{model: m}, nil
}

// Generate sends the system and user messages to the model and returns the
// completion text. The request is bounded by generateTimeout.
func (g *ChatGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	resp, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("provider: generate failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("provider: model returned no message")
	}
	return resp.Content, nil
}
