package ollama_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/ai/ollama"
	"github.com/trellis-ai/trellis-ai/pkg/testutils"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
)

func TestMain(m *testing.M) {
	testutils.LoadEnvOrPanic()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	m.Run()
}

func newDriver(t *testing.T) *ollama.Driver {
	endpoint := os.Getenv("TRELLIS_API_AI_OLLAMA_ENDPOINT")
	if endpoint == "" {
		t.Skip("TRELLIS_API_AI_OLLAMA_ENDPOINT not set")
	}
	return ollama.New(os.Getenv("TRELLIS_API_AI_OLLAMA_TOKEN"), endpoint, ai.ModelName{
		EmbeddingModel: os.Getenv("TRELLIS_API_AI_OLLAMA_EMBEDDING_MODEL"),
	})
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
	t.Log(utils.Cosine32(res.Data[0], res.Data[1]))
}

func Test_Generate(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()
	res, err := d.Generate(ctx, "Reply with the single word pong.", 50)
	if err != nil {
		t.Fatal(err)
	}

	assert.NotEmpty(t, res.Message())
	t.Log(res.Message())
}
