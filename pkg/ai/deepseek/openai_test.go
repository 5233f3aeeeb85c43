package deepseek_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/ai/deepseek"
	"github.com/trellis-ai/trellis-ai/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.LoadEnvOrPanic()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	m.Run()
}

func newDriver(t *testing.T) *deepseek.Driver {
	token := os.Getenv("TRELLIS_API_AI_DEEPSEEK_TOKEN")
	if token == "" {
		t.Skip("TRELLIS_API_AI_DEEPSEEK_TOKEN not set")
	}
	return deepseek.New(token, os.Getenv("TRELLIS_API_AI_DEEPSEEK_ENDPOINT"), ai.ModelName{
		ChatModel: os.Getenv("TRELLIS_API_AI_DEEPSEEK_CHAT_MODEL"),
	})
}

func Test_Generate(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	res, err := d.Generate(ctx, "Ответь одним словом: понг.", 50)
	if err != nil {
		t.Fatal(err)
	}

	assert.NotEmpty(t, res.Message())
	t.Log(res.Message())
}

func Test_EnhanceQuery(t *testing.T) {
	d := newDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	res, err := d.NewEnhance(ctx).EnhanceQuery("какой минимальный депозит?")
	if err != nil {
		t.Fatal(err)
	}

	t.Log(res.Casual, res.Rewrite)
	assert.False(t, res.Casual)
	assert.NotEmpty(t, res.RetrievalQuery())
}
