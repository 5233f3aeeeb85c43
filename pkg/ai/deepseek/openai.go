package deepseek

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
)

const (
	NAME = "DeepSeek"

	DEFAULT_ENDPOINT = "https://api.deepseek.com/v1"
)

// Driver speaks the openai wire protocol against the deepseek endpoint.
// It has no embedding models, so it only serves chat and enhance usage.
type Driver struct {
	client *openai.Client
	model  ai.ModelName
}

func New(token, proxy string, model ai.ModelName) *Driver {
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = DEFAULT_ENDPOINT
	if proxy != "" {
		cfg.BaseURL = proxy
	}

	if model.ChatModel == "" {
		model.ChatModel = "deepseek-chat"
	}

	return &Driver{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Lang reflects the deployment this driver fronts, which answers
// russian speaking players.
func (s *Driver) Lang() string {
	return ai.MODEL_BASE_LANGUAGE_RU
}

func (s *Driver) NewEnhance(ctx context.Context) *ai.EnhanceOptions {
	return ai.NewEnhance(ctx, s)
}

func (s *Driver) EnhanceQuery(ctx context.Context, messages []openai.ChatCompletionMessage) (ai.EnhanceQueryResult, error) {
	slog.Debug("EnhanceQuery", slog.String("driver", NAME))

	req := openai.ChatCompletionRequest{
		Model:       s.model.ChatModel,
		Messages:    messages,
		Temperature: 0.1,
		MaxTokens:   100,
	}

	var (
		result ai.EnhanceQueryResult
	)

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil || len(resp.Choices) != 1 {
		return result, fmt.Errorf("Completion error: err:%v len(choices):%v", err,
			len(resp.Choices))
	}

	result = ai.ParseEnhanceContent(resp.Choices[0].Message.Content)
	result.Model = resp.Model
	result.Usage = &resp.Usage
	return result, nil
}

func (s *Driver) Generate(ctx context.Context, prompt string, maxResponseTokens int) (*ai.GenerateResponse, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: maxResponseTokens,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("Completion error: response has no choices")
	}

	slog.Debug("Generate", slog.String("driver", NAME), slog.String("model", s.model.ChatModel))

	result := ai.GenerateResponse{
		Model: resp.Model,
		Usage: &resp.Usage,
	}
	result.Received = append(result.Received, resp.Choices[0].Message.Content)

	return &result, nil
}
