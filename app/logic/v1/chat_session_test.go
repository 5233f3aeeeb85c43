package v1_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trellis-ai/trellis-ai/app/core"
	v1 "github.com/trellis-ai/trellis-ai/app/logic/v1"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

func Test_GetOrCreateSession(t *testing.T) {
	app := NewTestCore(t, newFakeDriver(), func(cfg *core.CoreConfig) {
		cfg.Chat.DefaultPersona = "support"
	})
	logic := v1.NewChatSessionLogic(context.Background(), app)

	session, err := logic.GetOrCreateSession("sess-new", "")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "sess-new", session.ID)
	assert.Equal(t, "support", session.Persona)
	assert.NotZero(t, session.CreatedAt)

	// same id comes back unchanged
	again, err := logic.GetOrCreateSession("sess-new", "")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, session.CreatedAt, again.CreatedAt)
	assert.Equal(t, "support", again.Persona)

	// a non-empty persona switches the template in place
	switched, err := logic.GetOrCreateSession("sess-new", "concierge")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "concierge", switched.Persona)

	stored, err := logic.GetSession("sess-new")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "concierge", stored.Persona)
}

func Test_GetSession_NotFound(t *testing.T) {
	app := NewTestCore(t, newFakeDriver())
	logic := v1.NewChatSessionLogic(context.Background(), app)

	_, err := logic.GetSession("sess-missing")
	assert.Error(t, err)
	assert.Equal(t, 404, errCode(err))
}

func Test_History_Suffix(t *testing.T) {
	app := NewTestCore(t, newFakeDriver())
	ctx := context.Background()
	logic := v1.NewChatSessionLogic(ctx, app)

	if _, err := logic.GetOrCreateSession("sess-suffix", ""); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 6; i++ {
		role := types.USER_ROLE_USER
		if i%2 == 0 {
			role = types.USER_ROLE_ASSISTANT
		}
		err := app.Store().ChatMessageStore().Create(ctx, &types.ChatMessage{
			ID:        fmt.Sprintf("m-%d", i),
			SessionID: "sess-suffix",
			Sequence:  int64(i),
			Role:      role,
			Message:   fmt.Sprintf("turn %d", i),
			Complete:  types.MESSAGE_PROGRESS_COMPLETE,
			SendTime:  time.Now().Unix(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	history, err := logic.History("sess-suffix", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !assert.Len(t, history, 4) {
		return
	}
	// the most recent turns, in chronological order
	assert.Equal(t, int64(3), history[0].Sequence)
	assert.Equal(t, int64(6), history[3].Sequence)

	all, err := logic.History("sess-suffix", 0)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, all, 6)
}

func Test_ResetSession(t *testing.T) {
	driver := newFakeDriver()
	app := NewTestCore(t, driver)

	chat := v1.NewChatLogic(context.Background(), app)
	if _, err := chat.HandleMessage("sess-reset", "remember this"); err != nil {
		t.Fatal(err)
	}

	logic := v1.NewChatSessionLogic(context.Background(), app)
	if err := logic.ResetSession("sess-reset"); err != nil {
		t.Fatal(err)
	}

	history, err := logic.History("sess-reset", 0)
	if err != nil {
		t.Fatal(err)
	}
	assert.Empty(t, history)

	// the session row and its persona survive the reset
	session, err := logic.GetSession("sess-reset")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "sess-reset", session.ID)

	// resetting a session that never existed is an error
	err = logic.ResetSession("sess-never")
	assert.Error(t, err)
	assert.Equal(t, 404, errCode(err))
}

func Test_EvictIdle(t *testing.T) {
	driver := newFakeDriver()
	app := NewTestCore(t, driver)
	ctx := context.Background()
	logic := v1.NewChatSessionLogic(ctx, app)

	// an idle session with one stale exchange
	old := time.Now().Add(-48 * time.Hour).Unix()
	err := app.Store().ChatSessionStore().Create(ctx, types.ChatSession{
		ID:               "sess-idle",
		Persona:          "support",
		CreatedAt:        old,
		LatestAccessTime: old,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = app.Store().ChatMessageStore().Create(ctx, &types.ChatMessage{
		ID:        "m-idle",
		SessionID: "sess-idle",
		Sequence:  1,
		Role:      types.USER_ROLE_USER,
		Message:   "hello?",
		Complete:  types.MESSAGE_PROGRESS_COMPLETE,
		SendTime:  old,
	})
	if err != nil {
		t.Fatal(err)
	}

	// and a fresh one that must survive
	chat := v1.NewChatLogic(ctx, app)
	if _, err := chat.HandleMessage("sess-active", "still here"); err != nil {
		t.Fatal(err)
	}

	evicted, err := logic.EvictIdle(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1, evicted)

	_, err = logic.GetSession("sess-idle")
	assert.Equal(t, 404, errCode(err))
	total, err := app.Store().ChatMessageStore().TotalSessionMessage(ctx, "sess-idle")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, int64(0), total)

	if _, err := logic.GetSession("sess-active"); err != nil {
		t.Fatal(err)
	}

	// nothing left to evict on the second sweep
	evicted, err = logic.EvictIdle(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 0, evicted)
}
