package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrGenerationUnavailable wraps every completion failure, including empty
// responses, so the caller can move on to the next candidate model.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// OpenAIChat generates answers through the OpenAI chat completions API or any
// compatible endpoint. The model is chosen per call.
type OpenAIChat struct {
	client      *openai.Client
	temperature float32
	timeout     time.Duration
}

func NewOpenAIChat(apiKeyEnv, baseURL string, temperature float32, timeoutSecs int) (*OpenAIChat, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}

	return &OpenAIChat{
		client:      openai.NewClientWithConfig(cfg),
		temperature: temperature,
		timeout:     time.Duration(timeoutSecs) * time.Second,
	}, nil
}

func (c *OpenAIChat) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: model %s: %v", ErrGenerationUnavailable, model, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: model %s returned no content", ErrGenerationUnavailable, model)
	}

	return resp.Choices[0].Message.Content, nil
}
