package openai_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/ai/openai"
	"github.com/trellis-ai/trellis-ai/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.LoadEnvOrPanic()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	m.Run()
}

func newDriver(t *testing.T) *openai.Driver {
	token := os.Getenv("TRELLIS_API_AI_OPENAI_TOKEN")
	if token == "" {
		t.Skip("TRELLIS_API_AI_OPENAI_TOKEN not set")
	}
	return openai.New(token, os.Getenv("TRELLIS_API_AI_OPENAI_ENDPOINT"), ai.ModelName{})
}

func Test_Generate(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	res, err := d.Generate(ctx, "Reply with the single word pong.", 50)
	if err != nil {
		t.Fatal(err)
	}

	assert.NotEmpty(t, res.Message())
	t.Log(res.Message())
}

func Test_Embedding(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	res, err := d.EmbeddingForDocument(ctx, "test", []string{
		"minimum deposit is 10 euro",
		"withdrawals take up to 24 hours",
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 2, len(res.Data))
	assert.Greater(t, len(res.Data[0]), 0)
}

func Test_EnhanceQuery(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	res, err := d.NewEnhance(ctx).EnhanceQuery("привет, как дела?")
	if err != nil {
		t.Fatal(err)
	}

	t.Log(res.Casual, res.Rewrite)
	assert.Equal(t, "привет, как дела?", res.Original)
}
