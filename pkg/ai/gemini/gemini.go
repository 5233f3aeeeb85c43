package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
)

const (
	NAME = "gemini"
)

// Driver serves chat and embedding usage. It has no enhance support,
// query rewriting has to run on one of the openai protocol drivers.
type Driver struct {
	client *genai.Client
	model  ai.ModelName
}

func New(token string, model ai.ModelName) *Driver {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(token))
	if err != nil {
		panic(err)
	}

	if model.ChatModel == "" {
		model.ChatModel = "gemini-1.5-flash"
	}
	if model.EmbeddingModel == "" {
		model.EmbeddingModel = "embedding-001"
	}

	return &Driver{
		client: client,
		model:  model,
	}
}

func (s *Driver) Lang() string {
	return ai.MODEL_BASE_LANGUAGE_EN
}

// embedding runs one request per item, the genai api takes a single
// content per call. It reports no token usage.
func (s *Driver) embedding(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	slog.Debug("Embedding", slog.String("driver", NAME))
	em := s.client.EmbeddingModel(s.model.EmbeddingModel)
	if title != "" {
		em.TaskType = genai.TaskTypeRetrievalDocument
	} else {
		em.TaskType = genai.TaskTypeRetrievalQuery
	}

	r := ai.EmbeddingResult{
		Model: s.model.EmbeddingModel,
		Usage: &openai.Usage{},
	}
	for _, v := range content {
		res, err := em.EmbedContentWithTitle(ctx, title, genai.Text(v))
		if err != nil {
			return r, fmt.Errorf("Error creating embedding: %w", err)
		}
		r.Data = append(r.Data, res.Embedding.Values)
	}

	return r, nil
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, "", content)
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, title, content)
}

func (s *Driver) Generate(ctx context.Context, prompt string, maxResponseTokens int) (*ai.GenerateResponse, error) {
	model := s.client.GenerativeModel(s.model.ChatModel)
	if maxResponseTokens > 0 {
		model.SetMaxOutputTokens(int32(maxResponseTokens))
	}

	slog.Debug("Generate", slog.String("driver", NAME), slog.String("model", s.model.ChatModel))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty response content")
	}

	var result ai.GenerateResponse
	for _, part := range resp.Candidates[0].Content.Parts {
		if resp.Candidates[0].FinishReason != genai.FinishReasonStop {
			slog.Warn("Generate, ai finished without stop", slog.String("reason", resp.Candidates[0].FinishReason.String()))
		}
		if txt, ok := part.(genai.Text); ok {
			result.Received = append(result.Received, string(txt))
		}
	}

	result.Model = s.model.ChatModel
	if resp.UsageMetadata != nil {
		result.Usage = &openai.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &result, nil
}
