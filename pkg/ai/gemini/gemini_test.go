package gemini_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/ai/gemini"
	"github.com/trellis-ai/trellis-ai/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.LoadEnvOrPanic()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	m.Run()
}

func newDriver(t *testing.T) *gemini.Driver {
	token := os.Getenv("TRELLIS_API_AI_GEMINI_TOKEN")
	if token == "" {
		t.Skip("TRELLIS_API_AI_GEMINI_TOKEN not set")
	}
	return gemini.New(token, ai.ModelName{})
}

func Test_Embedding(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	res, err := d.EmbeddingForDocument(ctx, "test", []string{"this is test content for test embedding"})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 1, len(res.Data))
	assert.Greater(t, len(res.Data[0]), 0)
}

func Test_Generate(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	res, err := d.Generate(ctx, "Reply with the single word pong.", 50)
	if err != nil {
		t.Fatal(err)
	}

	assert.NotEmpty(t, res.Message())
	t.Log(res.Message())
}
