package support

import (
	"context"
	"errors"
	"strings"

	"teamsync-server/pkg/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNotConfigured is returned when no API key was provided at startup.
var ErrNotConfigured = errors.New("support: assistant not configured")

const systemPrompt = `You are a friendly support assistant for TeamSync, a team collaboration platform.
Your role is to help users with general questions about the platform.
Some key points:
- Be concise but helpful
- If users mention account access issues, those are handled separately
- Focus on helping with navigation, features, and general usage
- If unsure, guide users to contact admin`

// Client produces a support reply for a user message.
type Client interface {
	Reply(ctx context.Context, message string) (string, error)
}

var client Client

// Initialize sets up the OpenAI-backed client. With an empty API key the
// assistant stays unconfigured and Reply returns ErrNotConfigured.
func Initialize(c *config.SupportConfig) {
	if c.OpenAIAPIKey == "" {
		client = nil
		return
	}
	client = &openAIClient{
		api:   openai.NewClient(option.WithAPIKey(c.OpenAIAPIKey)),
		model: c.Model,
	}
}

// SetClient swaps the completion backend. Used by tests.
func SetClient(c Client) {
	client = c
}

// Reply forwards the message to the configured completion backend.
func Reply(ctx context.Context, message string) (string, error) {
	if client == nil {
		return "", ErrNotConfigured
	}
	return client.Reply(ctx, message)
}

type openAIClient struct {
	api   openai.Client
	model string
}

func (c *openAIClient) Reply(ctx context.Context, message string) (string, error) {
	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(message),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(150),
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("support: no response from model")
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("support: empty response from model")
	}
	return reply, nil
}
