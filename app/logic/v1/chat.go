package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/errors"
	"github.com/trellis-ai/trellis-ai/pkg/i18n"
	"github.com/trellis-ai/trellis-ai/pkg/safe"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

const RETRY_BASE_BACKOFF = time.Millisecond * 500

var sleep = time.Sleep

// COMMIT_TIMEOUT bounds the background commit that finishes an exchange
// after the caller has gone away.
const COMMIT_TIMEOUT = time.Minute * 5

var localizer = i18n.NewLocalizer(lo.Keys(i18n.ALLOW_LANG)...)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:  ctx,
		core: core,
	}
}

// HandleMessage runs one user message through the pipeline and blocks
// until the exchange is committed. Messages for the same session queue
// on the session lock, so turn order matches arrival order. Admission
// rejections never mutate the session and are safe to retry.
func (l *ChatLogic) HandleMessage(sessionID, userMessage string) (*types.HandleResult, error) {
	if strings.TrimSpace(userMessage) == "" {
		l.core.Metrics().MessageOutcomeInc("rejected")
		return nil, errors.New("ChatLogic.HandleMessage.EmptyInput", i18n.ERROR_EMPTY_INPUT, nil).Code(http.StatusBadRequest)
	}

	if !l.core.Semaphore().Chat().TryAcquire() {
		l.core.Metrics().MessageOutcomeInc("busy")
		return nil, errors.New("ChatLogic.HandleMessage.Semaphore", i18n.ERROR_BUSY, nil).Code(http.StatusTooManyRequests)
	}
	detached := false
	defer func() {
		if !detached {
			l.core.Semaphore().Chat().Release()
		}
	}()

	if !l.core.Semaphore().SessionLimiter(sessionID).Allow() {
		l.core.Metrics().MessageOutcomeInc("busy")
		return nil, errors.New("ChatLogic.HandleMessage.SessionLimiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests)
	}

	l.core.SessionLock().Lock(sessionID)
	defer func() {
		if !detached {
			l.core.SessionLock().Unlock(sessionID)
		}
	}()

	return l.process(sessionID, userMessage, &detached)
}

func (l *ChatLogic) process(sessionID, userMessage string, detached *bool) (*types.HandleResult, error) {
	sessions := NewChatSessionLogic(l.ctx, l.core)
	session, err := sessions.GetOrCreateSession(sessionID, "")
	if err != nil {
		return nil, errors.Trace("ChatLogic.process", err)
	}

	msgID := l.core.Srv().Seq().GenMessageID()
	chatCfg := l.core.Cfg().Chat
	slog.Debug("chat message received",
		slog.String("session_id", session.ID),
		slog.String("message_id", msgID))

	history, err := sessions.History(session.ID, chatCfg.Turns())
	if err != nil {
		return nil, errors.Trace("ChatLogic.process", err)
	}
	history = recentWindow(history, chatCfg.HistoryWindow(), time.Now())

	timer := l.core.Metrics().StageTimer(types.STAGE_RETRIEVING.String())
	retrieval, err := NewRetrieverLogic(l.ctx, l.core).Retrieve(userMessage, history, nil)
	timer.ObserveDuration()
	if err != nil {
		// The persona and history still carry the conversation, so a
		// broken retriever degrades the answer instead of failing it.
		slog.Error("retrieval failed, continuing without corpus context",
			slog.String("session_id", session.ID),
			slog.String("message_id", msgID),
			slog.String("error", err.Error()))
		retrieval = types.RetrievalResult{Query: userMessage}
	}

	timer = l.core.Metrics().StageTimer(types.STAGE_ASSEMBLING.String())
	counter := l.core.Srv().AI().TokenCounter()
	tpl := l.core.Prompt().GetPersonaTemplate(session.Persona, l.core.Srv().AI().Lang())
	prompt, err := ai.NewAssembler(counter).Assemble(tpl, retrieval, history, l.core.Cfg().PromptBudget())
	timer.ObserveDuration()
	if err != nil {
		slog.Error("prompt assembly failed",
			slog.String("session_id", session.ID),
			slog.String("message_id", msgID),
			slog.String("persona", session.Persona),
			slog.String("error", err.Error()))
		return l.commit(l.ctx, session, msgID, userMessage, modelOutcome{reason: types.FAILURE_TEMPLATE_ERROR, callErr: err})
	}
	l.core.Metrics().PromptTokensObserve(counter.Count(prompt))

	timer = l.core.Metrics().StageTimer(types.STAGE_AWAITING_MODEL.String())
	outcome := make(chan modelOutcome, 1)
	go safe.Run(func() {
		outcome <- l.callModel(prompt)
	})

	select {
	case out := <-outcome:
		timer.ObserveDuration()
		return l.commit(l.ctx, session, msgID, userMessage, out)
	case <-l.ctx.Done():
		timer.ObserveDuration()
		// The caller is gone but the model call owns its own context.
		// Wait it out in the background so the exchange still lands in
		// the session, then let the next request find it in history.
		// The session lock and the admission permit ride along, a
		// follow-up message cannot commit ahead of this one and the
		// straggler still counts against max in-flight.
		*detached = true
		go safe.Run(func() {
			defer l.core.Semaphore().Chat().Release()
			defer l.core.SessionLock().Unlock(sessionID)
			out := <-outcome
			ctx, cancel := context.WithTimeout(context.Background(), COMMIT_TIMEOUT)
			defer cancel()
			if _, err := l.commit(ctx, session, msgID, userMessage, out); err != nil {
				slog.Error("commit after caller cancel failed",
					slog.String("session_id", session.ID),
					slog.String("message_id", msgID),
					slog.String("error", err.Error()))
			}
		})
		return nil, errors.New("ChatLogic.process.ctx", i18n.ERROR_INTERNAL, l.ctx.Err()).Code(http.StatusInternalServerError)
	}
}

type modelOutcome struct {
	resp    *ai.GenerateResponse
	reason  types.FailureReason
	callErr error
}

// callModel runs the generate call with a per-attempt timeout and a
// doubling backoff between attempts. Each attempt gets a fresh detached
// context, a canceled caller never truncates an attempt midway.
func (l *ChatLogic) callModel(prompt string) modelOutcome {
	var (
		chatCfg  = l.core.Cfg().Chat
		budget   = l.core.Cfg().PromptBudget()
		lastErr  error
		timedOut bool
	)

	for attempt := 0; attempt < chatCfg.Retries(); attempt++ {
		if attempt > 0 {
			l.core.Metrics().ModelRetryInc("chat")
			sleep(RETRY_BASE_BACKOFF << (attempt - 1))
		}

		ctx, cancel := context.WithTimeout(context.Background(), chatCfg.ModelTimeout())
		timer := l.core.Metrics().ModelRequestTimer("chat")
		resp, err := l.core.Srv().AI().Generate(ctx, prompt, budget.ReservedForResponse)
		timer.ObserveDuration()
		timedOut = ctx.Err() == context.DeadlineExceeded
		cancel()
		if err == nil {
			return modelOutcome{resp: resp}
		}

		lastErr = err
		l.core.Metrics().ModelErrorInc("chat")
		slog.Error("model call failed",
			slog.Int("attempt", attempt+1),
			slog.Bool("timeout", timedOut),
			slog.String("error", err.Error()))
	}

	reason := types.FAILURE_MODEL_UNAVAILABLE
	if timedOut {
		reason = types.FAILURE_MODEL_TIMEOUT
	}
	return modelOutcome{reason: reason, callErr: lastErr}
}

// commit writes the user turn and the assistant turn in one transaction.
// A failed exchange commits a failure marker with the fallback text, the
// user message is never dropped once admitted.
func (l *ChatLogic) commit(ctx context.Context, session *types.ChatSession, msgID, userMessage string, out modelOutcome) (*types.HandleResult, error) {
	var (
		reply    string
		progress = types.MESSAGE_PROGRESS_COMPLETE
		stage    = types.STAGE_DONE
	)

	if out.resp != nil {
		reply = out.resp.Message()
	} else {
		reply = localizer.Get(strings.ToLower(l.core.Srv().AI().Lang()), i18n.MESSAGE_MODEL_OFFLINE_FALLBACK)
		progress = types.MESSAGE_PROGRESS_FAILED
		stage = types.STAGE_FAILED
	}

	timer := l.core.Metrics().StageTimer(types.STAGE_RESPONDING.String())
	now := time.Now().Unix()
	store := l.core.Store()
	err := store.Transaction(ctx, func(ctx context.Context) error {
		seq, err := l.core.Srv().Seq().NextSessionSeq(ctx, session.ID)
		if err != nil {
			return err
		}

		if err = store.ChatMessageStore().Create(ctx, &types.ChatMessage{
			ID:        msgID,
			SessionID: session.ID,
			Sequence:  seq,
			Role:      types.USER_ROLE_USER,
			Message:   userMessage,
			Complete:  types.MESSAGE_PROGRESS_COMPLETE,
			SendTime:  now,
		}); err != nil {
			return err
		}

		return store.ChatMessageStore().Create(ctx, &types.ChatMessage{
			ID:        l.core.Srv().Seq().GenMessageID(),
			SessionID: session.ID,
			Sequence:  seq + 1,
			Role:      types.USER_ROLE_ASSISTANT,
			Message:   reply,
			Complete:  progress,
			SendTime:  now,
		})
	})
	timer.ObserveDuration()
	if err != nil {
		l.core.Metrics().MessageOutcomeInc("error")
		return nil, errors.New("ChatLogic.commit.Transaction", i18n.ERROR_INTERNAL, err)
	}

	go safe.Run(func() {
		if err := store.ChatSessionStore().UpdateChatSessionLatestAccessTime(context.Background(), session.ID); err != nil {
			slog.Error("failed to update session access time",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()))
		}
	})

	if err := NewChatSessionLogic(ctx, l.core).TrimTurns(session.ID, l.core.Cfg().Chat.Turns()); err != nil {
		slog.Error("failed to trim session turns",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
	}

	l.core.Srv().Audit().MessageHandled(session.ID, msgID, stage, out.reason)
	switch {
	case out.resp != nil:
		tokens := 0
		if out.resp.Usage != nil {
			tokens = out.resp.Usage.TotalTokens
		}
		l.core.Srv().Audit().ModelCall(session.ID, msgID, out.resp.Model, tokens, nil)
	case out.reason == types.FAILURE_MODEL_TIMEOUT || out.reason == types.FAILURE_MODEL_UNAVAILABLE:
		l.core.Srv().Audit().ModelCall(session.ID, msgID, "", 0, out.callErr)
	}
	l.core.Metrics().MessageOutcomeInc(stage.String())

	return &types.HandleResult{
		SessionID: session.ID,
		MessageID: msgID,
		Reply:     reply,
		Stage:     stage,
		Reason:    out.reason,
	}, nil
}

// recentWindow keeps the chronological suffix younger than the window.
func recentWindow(history []*types.ChatMessage, window time.Duration, now time.Time) []*types.ChatMessage {
	cutoff := now.Add(-window).Unix()
	for i, msg := range history {
		if msg.SendTime >= cutoff {
			return history[i:]
		}
	}
	return nil
}
