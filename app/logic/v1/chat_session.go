package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/pkg/errors"
	"github.com/trellis-ai/trellis-ai/pkg/i18n"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

type ChatSessionLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewChatSessionLogic(ctx context.Context, core *core.Core) *ChatSessionLogic {
	return &ChatSessionLogic{
		ctx:  ctx,
		core: core,
	}
}

// GetOrCreateSession returns the session, creating it on first use.
// A non-empty persona switches an existing session's template.
func (l *ChatSessionLogic) GetOrCreateSession(sessionID, persona string) (*types.ChatSession, error) {
	session, err := l.core.Store().ChatSessionStore().GetChatSession(l.ctx, sessionID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.GetOrCreateSession.ChatSessionStore.GetChatSession", i18n.ERROR_INTERNAL, err)
	}

	if session == nil {
		if persona == "" {
			persona = l.core.Cfg().Chat.DefaultPersona
		}
		session = &types.ChatSession{
			ID:               sessionID,
			Persona:          persona,
			CreatedAt:        time.Now().Unix(),
			LatestAccessTime: time.Now().Unix(),
		}
		if err := l.core.Store().ChatSessionStore().Create(l.ctx, *session); err != nil {
			return nil, errors.New("ChatSessionLogic.GetOrCreateSession.ChatSessionStore.Create", i18n.ERROR_INTERNAL, err)
		}
		return session, nil
	}

	if persona != "" && persona != session.Persona {
		if err := l.core.Store().ChatSessionStore().UpdateSessionPersona(l.ctx, sessionID, persona); err != nil {
			return nil, errors.New("ChatSessionLogic.GetOrCreateSession.ChatSessionStore.UpdateSessionPersona", i18n.ERROR_INTERNAL, err)
		}
		session.Persona = persona
	}

	return session, nil
}

func (l *ChatSessionLogic) GetSession(sessionID string) (*types.ChatSession, error) {
	session, err := l.core.Store().ChatSessionStore().GetChatSession(l.ctx, sessionID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.GetSession.ChatSessionStore.GetChatSession", i18n.ERROR_INTERNAL, err)
	}
	if session == nil {
		return nil, errors.New("ChatSessionLogic.GetSession.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return session, nil
}

// History returns the most recent turns in chronological order, a
// suffix of the full sequence. maxTurns 0 means all.
func (l *ChatSessionLogic) History(sessionID string, maxTurns int) ([]*types.ChatMessage, error) {
	list, err := l.core.Store().ChatMessageStore().ListSessionMessageDesc(l.ctx, sessionID, uint64(maxTurns))
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.History.ChatMessageStore.ListSessionMessageDesc", i18n.ERROR_INTERNAL, err)
	}

	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// ResetSession drops the session's turns. The session row and its
// persona survive, the corpus is untouched.
func (l *ChatSessionLogic) ResetSession(sessionID string) error {
	if _, err := l.GetSession(sessionID); err != nil {
		return errors.Trace("ChatSessionLogic.ResetSession", err)
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().ChatMessageStore().DeleteSessionMessage(ctx, sessionID); err != nil {
			return errors.New("ChatSessionLogic.ResetSession.ChatMessageStore.DeleteSessionMessage", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChatSessionStore().UpdateChatSessionLatestAccessTime(ctx, sessionID); err != nil {
			return errors.New("ChatSessionLogic.ResetSession.ChatSessionStore.UpdateChatSessionLatestAccessTime", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}

// TrimTurns enforces the per-session turn cap by dropping the oldest
// rows. Runs after a commit, never inside the commit transaction.
func (l *ChatSessionLogic) TrimTurns(sessionID string, cap int) error {
	if cap <= 0 {
		return nil
	}

	maxSeq, err := l.core.Store().ChatMessageStore().MaxSessionSeq(l.ctx, sessionID)
	if err != nil {
		return errors.New("ChatSessionLogic.TrimTurns.ChatMessageStore.MaxSessionSeq", i18n.ERROR_INTERNAL, err)
	}

	cutoff := maxSeq - int64(cap) + 1
	if cutoff <= 1 {
		return nil
	}

	if err := l.core.Store().ChatMessageStore().DeleteBeforeSeq(l.ctx, sessionID, cutoff); err != nil {
		return errors.New("ChatSessionLogic.TrimTurns.ChatMessageStore.DeleteBeforeSeq", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// EvictIdle removes sessions idle for longer than olderThan, with their
// turns. It walks the store in batches until nothing qualifies.
func (l *ChatSessionLogic) EvictIdle(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	evicted := 0

	for {
		list, err := l.core.Store().ChatSessionStore().ListBeforeTime(l.ctx, cutoff, 1, 50)
		if err != nil && err != sql.ErrNoRows {
			return evicted, errors.New("ChatSessionLogic.EvictIdle.ChatSessionStore.ListBeforeTime", i18n.ERROR_INTERNAL, err)
		}
		if len(list) == 0 {
			return evicted, nil
		}

		for _, session := range list {
			err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
				if err := l.core.Store().ChatSessionStore().Delete(ctx, session.ID); err != nil {
					return err
				}
				return l.core.Store().ChatMessageStore().DeleteSessionMessage(ctx, session.ID)
			})
			if err != nil {
				return evicted, errors.New("ChatSessionLogic.EvictIdle.Transaction", i18n.ERROR_INTERNAL, err)
			}

			l.core.Semaphore().DropSession(session.ID)
			l.core.Srv().Audit().SessionEvicted(session.ID, "idle")
			evicted++
			slog.Debug("session evicted", slog.String("session_id", session.ID))
		}
	}
}
