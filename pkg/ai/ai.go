package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"

	"github.com/trellis-ai/trellis-ai/pkg/types"
)

type ModelName struct {
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
}

type Lang interface {
	Lang() string
}

// Generate is the single blocking model call of the pipeline. The
// assembled prompt goes in as one string, drivers decide how to frame
// it for their API.
type Generate interface {
	Generate(ctx context.Context, prompt string, maxResponseTokens int) (*GenerateResponse, error)
	Lang
}

type Enhance interface {
	EnhanceQuery(ctx context.Context, messages []openai.ChatCompletionMessage) (EnhanceQueryResult, error)
	Lang() string
}

type Embedding interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
}

const (
	MODEL_BASE_LANGUAGE_EN = "EN"
	MODEL_BASE_LANGUAGE_RU = "RU"
)

type GenerateResponse struct {
	Received []string      `json:"received"`
	Usage    *openai.Usage `json:"-"`
	Model    string        `json:"model"`
}

func (r GenerateResponse) Message() string {
	b := strings.Builder{}
	for i, item := range r.Received {
		if i != 0 {
			b.WriteString("\n")
		}
		b.WriteString(item)
	}
	return b.String()
}

type EmbeddingResult struct {
	Model string
	Usage *openai.Usage
	Data  [][]float32
}

// EnhanceQueryResult is the outcome of the query-enhance pass: the
// query rewritten in english for retrieval, plus an intent signal.
// Casual small talk skips retrieval entirely.
type EnhanceQueryResult struct {
	Original string        `json:"original"`
	Rewrite  string        `json:"rewrite"`
	Casual   bool          `json:"casual"`
	Model    string        `json:"model"`
	Usage    *openai.Usage `json:"-"`
}

// RetrievalQuery is the text that gets embedded for the index lookup.
func (e EnhanceQueryResult) RetrievalQuery() string {
	if e.Rewrite != "" {
		return e.Rewrite
	}
	return e.Original
}

// ENHANCE_CASUAL_CHAT is the sentinel the enhance prompt instructs the
// model to answer with when the message is small talk.
const ENHANCE_CASUAL_CHAT = "CASUAL_CHAT"

// ParseEnhanceContent turns the raw enhance completion into a result.
// Shared by every openai compatible driver.
func ParseEnhanceContent(content string) EnhanceQueryResult {
	content = strings.TrimSpace(content)
	if strings.EqualFold(strings.Trim(content, `"`), ENHANCE_CASUAL_CHAT) {
		return EnhanceQueryResult{Casual: true}
	}
	return EnhanceQueryResult{Rewrite: content}
}

const PROMPT_ENHANCE_QUERY_EN = `You are a query translator for a support knowledge base. Your task is to translate user queries to English for vector search purposes.

Rules:
1. Translate the query to English while preserving the meaning
2. Keep domain-specific terms (deposit, withdrawal, bonus, registration, etc.)
3. If the query is casual chat with no support intent, return "CASUAL_CHAT"
4. If already in English, improve the query for better search results
5. Keep the translation concise and search-friendly
6. Focus on extracting the main question/intent

Examples:
- "как зарегистрироваться?" → "how to register account"
- "привет красавчик, как дела?" → "CASUAL_CHAT"
- "минимальный депозит" → "minimum deposit amount"
- "где мои бонусы?" → "where are my bonuses"
- "how to withdraw money" → "how to withdraw money"

Recent conversation:
"""
${histories}
"""

Translate this query: ${query}`

type EnhanceOptions struct {
	ctx     context.Context
	prompt  string
	_driver Enhance
	vars    map[string]string
}

func NewEnhance(ctx context.Context, driver Enhance) *EnhanceOptions {
	opt := &EnhanceOptions{
		ctx:     ctx,
		_driver: driver,
		vars:    make(map[string]string),
	}

	opt.vars[PROMPT_VAR_HISTORIES] = "null"
	return opt
}

func (s *EnhanceOptions) WithPrompt(prompt string) *EnhanceOptions {
	s.prompt = strings.TrimSpace(prompt)
	return s
}

func (s *EnhanceOptions) WithHistories(messages []*types.ChatMessage) *EnhanceOptions {
	if len(messages) == 0 {
		return s
	}

	str := strings.Builder{}
	for _, v := range messages {
		str.WriteString(v.Role.String())
		str.WriteString(":")
		if v.Role == types.USER_ROLE_ASSISTANT && len([]rune(v.Message)) > 40 {
			str.WriteString(string([]rune(v.Message)[:40]))
			str.WriteString("......")
		} else {
			str.WriteString(v.Message)
		}
		str.WriteString("\n")
	}

	s.vars[PROMPT_VAR_HISTORIES] = str.String()
	return s
}

func (s *EnhanceOptions) EnhanceQuery(query string) (EnhanceQueryResult, error) {
	if s.prompt == "" {
		s.prompt = PROMPT_ENHANCE_QUERY_EN
	}

	for k, v := range s.vars {
		s.prompt = strings.ReplaceAll(s.prompt, k, v)
	}

	s.prompt = strings.ReplaceAll(s.prompt, PROMPT_VAR_QUERY, query)

	res, err := s._driver.EnhanceQuery(s.ctx, []openai.ChatCompletionMessage{
		{
			Role:    types.USER_ROLE_USER.String(),
			Content: s.prompt,
		},
	})
	if err != nil {
		return res, err
	}

	res.Original = query
	return res, nil
}

// TokenCounter reports how many tokens a text costs inside the prompt
// window. Implementations must be deterministic for identical input.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// estimateCounter approximates one token per four runes, the ratio
// that held for the russian support corpus this engine started on.
type estimateCounter struct{}

func (estimateCounter) Count(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

func NewEstimateCounter() TokenCounter {
	return estimateCounter{}
}

// NewTokenCounter returns a tiktoken counter for the model, falling
// back to cl100k and then to the rune estimator when the encoding is
// unavailable on this host.
func NewTokenCounter(model string) TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		slog.Warn("Token encoding unavailable, counting by rune estimate",
			slog.String("model", model), slog.String("error", err.Error()))
		return estimateCounter{}
	}
	return &tiktokenCounter{enc: enc}
}
