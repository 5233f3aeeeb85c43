package v1

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	oai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/app/core/srv"
	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

// flakyDriver fails a fixed number of Generate calls, then succeeds.
type flakyDriver struct {
	calls    int
	failures int
}

func (d *flakyDriver) Generate(ctx context.Context, prompt string, maxResponseTokens int) (*ai.GenerateResponse, error) {
	d.calls++
	if d.calls <= d.failures {
		return nil, fmt.Errorf("connection refused")
	}
	return &ai.GenerateResponse{Received: []string{"ok"}, Model: "flaky"}, nil
}

func (d *flakyDriver) Lang() string { return "en" }

func (d *flakyDriver) EnhanceQuery(ctx context.Context, messages []oai.ChatCompletionMessage) (ai.EnhanceQueryResult, error) {
	return ai.EnhanceQueryResult{}, nil
}

func (d *flakyDriver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return ai.EmbeddingResult{}, nil
}

func (d *flakyDriver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return ai.EmbeddingResult{}, nil
}

func retryCore(t *testing.T, d *flakyDriver, maxRetries int) *core.Core {
	t.Helper()
	cfg := core.CoreConfig{}
	cfg.Log.Level = "error"
	cfg.Sqlite.DSN = filepath.Join(t.TempDir(), "trellis.db")
	cfg.Chat.MaxRetries = maxRetries
	return core.MustSetupCore(cfg, core.WithAI(srv.NewAI(d, d, d, ai.NewTokenCounter(""))))
}

func Test_callModel_BackoffSchedule(t *testing.T) {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = time.Sleep }()

	driver := &flakyDriver{failures: 2}
	logic := NewChatLogic(context.Background(), retryCore(t, driver, 3))

	out := logic.callModel("prompt")

	assert.NotNil(t, out.resp)
	assert.Equal(t, types.FAILURE_NONE, out.reason)
	assert.Equal(t, 3, driver.calls)
	assert.Equal(t, []time.Duration{RETRY_BASE_BACKOFF, RETRY_BASE_BACKOFF * 2}, slept)
}

func Test_callModel_ExhaustsRetries(t *testing.T) {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = time.Sleep }()

	driver := &flakyDriver{failures: 99}
	logic := NewChatLogic(context.Background(), retryCore(t, driver, 3))

	out := logic.callModel("prompt")

	assert.Nil(t, out.resp)
	assert.Equal(t, types.FAILURE_MODEL_UNAVAILABLE, out.reason)
	assert.Error(t, out.callErr)
	assert.Equal(t, 3, driver.calls)
	assert.Len(t, slept, 2)
}
