package srv

import (
	"context"
	"fmt"
	"strings"

	oai "github.com/sashabaranov/go-openai"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/ai/deepseek"
	"github.com/trellis-ai/trellis-ai/pkg/ai/gemini"
	"github.com/trellis-ai/trellis-ai/pkg/ai/ollama"
	"github.com/trellis-ai/trellis-ai/pkg/ai/openai"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

type ChatAI interface {
	Generate(ctx context.Context, prompt string, maxResponseTokens int) (*ai.GenerateResponse, error)
	Lang() string
}

type EnhanceAI interface {
	EnhanceQuery(ctx context.Context, messages []oai.ChatCompletionMessage) (ai.EnhanceQueryResult, error)
	Lang() string
}

type EmbeddingAI interface {
	EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error)
}

// AIDriver is what the logic layer sees. One driver instance can sit
// behind several usages.
type AIDriver interface {
	ChatAI
	EmbeddingAI
	EnhanceUsable() bool
	NewEnhance(ctx context.Context) *ai.EnhanceOptions
	TokenCounter() ai.TokenCounter
}

// ENHANCE_DISABLED turns the rewrite stage off entirely, queries then
// go to embedding as the user typed them.
const ENHANCE_DISABLED = "none"

type AIConfig struct {
	// Usage maps chat, embedding and enhance onto a driver name.
	// Unset chat falls back to deepseek, unset embedding to openai,
	// unset enhance to the chat driver.
	Usage    map[string]string `toml:"usage"`
	OpenAI   DriverConfig      `toml:"openai"`
	DeepSeek DriverConfig      `toml:"deepseek"`
	Ollama   DriverConfig      `toml:"ollama"`
	Gemini   DriverConfig      `toml:"gemini"`
}

type DriverConfig struct {
	Token    string       `toml:"token"`
	Endpoint string       `toml:"endpoint"`
	Model    ai.ModelName `toml:"model"`
}

type AI struct {
	chatDriver    ChatAI
	enhanceDriver EnhanceAI
	embedDriver   EmbeddingAI

	counter ai.TokenCounter
}

func (s *AI) Generate(ctx context.Context, prompt string, maxResponseTokens int) (*ai.GenerateResponse, error) {
	return s.chatDriver.Generate(ctx, prompt, maxResponseTokens)
}

func (s *AI) Lang() string {
	return s.chatDriver.Lang()
}

func (s *AI) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedDriver.EmbeddingForQuery(ctx, content)
}

func (s *AI) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return s.embedDriver.EmbeddingForDocument(ctx, title, content)
}

func (s *AI) EnhanceUsable() bool {
	return s.enhanceDriver != nil
}

// NewEnhance panics without an enhance driver, callers gate on
// EnhanceUsable first.
func (s *AI) NewEnhance(ctx context.Context) *ai.EnhanceOptions {
	return ai.NewEnhance(ctx, s.enhanceDriver)
}

func (s *AI) TokenCounter() ai.TokenCounter {
	return s.counter
}

// NewAI assembles the service from prebuilt drivers. SetupAI is the
// config path, this one serves callers that bring their own. A nil
// enhance driver disables query enhancement.
func NewAI(chat ChatAI, enhance EnhanceAI, embed EmbeddingAI, counter ai.TokenCounter) *AI {
	return &AI{
		chatDriver:    chat,
		enhanceDriver: enhance,
		embedDriver:   embed,
		counter:       counter,
	}
}

func SetupAI(cfg AIConfig) (*AI, error) {
	built := make(map[string]any)
	build := func(name string) (any, error) {
		key := strings.ToLower(name)
		if d, ok := built[key]; ok {
			return d, nil
		}

		var d any
		switch key {
		case strings.ToLower(openai.NAME):
			d = openai.New(cfg.OpenAI.Token, cfg.OpenAI.Endpoint, cfg.OpenAI.Model)
		case strings.ToLower(deepseek.NAME):
			d = deepseek.New(cfg.DeepSeek.Token, cfg.DeepSeek.Endpoint, cfg.DeepSeek.Model)
		case strings.ToLower(ollama.NAME):
			d = ollama.New(cfg.Ollama.Token, cfg.Ollama.Endpoint, cfg.Ollama.Model)
		case strings.ToLower(gemini.NAME):
			d = gemini.New(cfg.Gemini.Token, cfg.Gemini.Model)
		default:
			return nil, fmt.Errorf("unknown ai driver %q", name)
		}
		built[key] = d
		return d, nil
	}

	usageOf := func(usage, fallback string) string {
		if v := cfg.Usage[usage]; v != "" {
			return v
		}
		return fallback
	}

	a := &AI{}

	chatName := usageOf(types.MODEL_TYPE_CHAT, deepseek.NAME)
	d, err := build(chatName)
	if err != nil {
		return nil, err
	}
	chat, ok := d.(ChatAI)
	if !ok {
		return nil, fmt.Errorf("ai driver %q cannot serve chat usage", chatName)
	}
	a.chatDriver = chat

	embedName := usageOf(types.MODEL_TYPE_EMBEDDING, openai.NAME)
	d, err = build(embedName)
	if err != nil {
		return nil, err
	}
	embed, ok := d.(EmbeddingAI)
	if !ok {
		return nil, fmt.Errorf("ai driver %q cannot serve embedding usage", embedName)
	}
	a.embedDriver = embed

	enhanceName := usageOf(types.MODEL_TYPE_ENHANCE, chatName)
	if !strings.EqualFold(enhanceName, ENHANCE_DISABLED) {
		d, err = build(enhanceName)
		if err != nil {
			return nil, err
		}
		enhance, ok := d.(EnhanceAI)
		if !ok {
			return nil, fmt.Errorf("ai driver %q cannot serve enhance usage", enhanceName)
		}
		a.enhanceDriver = enhance
	}

	a.counter = ai.NewTokenCounter(chatModelOf(cfg, chatName))

	return a, nil
}

// chatModelOf reports the configured chat model for the driver serving
// chat usage. Empty means the driver default, the token counter then
// falls back to the rune estimate.
func chatModelOf(cfg AIConfig, chatName string) string {
	switch strings.ToLower(chatName) {
	case strings.ToLower(openai.NAME):
		return cfg.OpenAI.Model.ChatModel
	case strings.ToLower(deepseek.NAME):
		return cfg.DeepSeek.Model.ChatModel
	case strings.ToLower(ollama.NAME):
		return cfg.Ollama.Model.ChatModel
	case strings.ToLower(gemini.NAME):
		return cfg.Gemini.Model.ChatModel
	}
	return ""
}

type ApplyFunc func(s *Srv)

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		var err error
		if s.ai, err = SetupAI(cfg); err != nil {
			panic(err)
		}
	}
}

// ApplyAIService installs a prebuilt AI service instead of building
// drivers from config.
func ApplyAIService(a *AI) ApplyFunc {
	return func(s *Srv) {
		s.ai = a
	}
}
