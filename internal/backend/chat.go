package backend

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// chatSystemPrompt keeps replies short: they are spoken back over a tiny
// 8 kHz mono speaker, so brevity beats completeness.
const chatSystemPrompt = "Eres un asistente de voz para un dispositivo embebido. " +
	"Responde en una o dos frases cortas, en el idioma del usuario."

// ChatReplier generates replies through an OpenAI-compatible chat API.
type ChatReplier struct {
	Client *openai.Client
	Model  string
}

// NewChatReplier returns a replier backed by the chat API, or nil if apiKey
// is empty. A nil *ChatReplier reports ErrUnavailable.
func NewChatReplier(apiKey, model string) *ChatReplier {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &ChatReplier{Client: openai.NewClient(apiKey), Model: model}
}

func (c *ChatReplier) Generate(ctx context.Context, transcript string) (string, error) {
	if c == nil || c.Client == nil {
		return "", fmt.Errorf("chat: %w", ErrUnavailable)
	}
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
