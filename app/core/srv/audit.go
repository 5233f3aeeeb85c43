package srv

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/trellis-ai/trellis-ai/pkg/types"
)

const AUDIT_TOPIC = "audit"

// Audit fans handling events out over an in-process bus. Publishing is
// fire and forget, a slow sink never holds up the chat pipeline.
type Audit struct {
	bus *gochannel.GoChannel
}

func SetupAudit() *Audit {
	return &Audit{
		bus: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, watermill.NewStdLogger(false, false)),
	}
}

func ApplyAudit() ApplyFunc {
	return func(s *Srv) {
		s.audit = SetupAudit()
	}
}

func (a *Audit) publish(evt types.AuditEvent) {
	evt.Time = time.Now().Unix()
	raw, err := json.Marshal(evt)
	if err != nil {
		slog.Error("failed to marshal audit event", slog.String("error", err.Error()), slog.String("kind", evt.Kind))
		return
	}
	if err := a.bus.Publish(AUDIT_TOPIC, message.NewMessage(watermill.NewUUID(), raw)); err != nil {
		slog.Error("failed to publish audit event", slog.String("error", err.Error()), slog.String("kind", evt.Kind))
	}
}

func (a *Audit) MessageHandled(sessionID, messageID string, stage types.HandleStage, reason types.FailureReason) {
	a.publish(types.AuditEvent{
		Kind:      types.AUDIT_KIND_MESSAGE_HANDLED,
		SessionID: sessionID,
		MessageID: messageID,
		Stage:     stage.String(),
		Reason:    string(reason),
	})
}

func (a *Audit) ModelCall(sessionID, messageID, model string, tokens int, callErr error) {
	evt := types.AuditEvent{
		Kind:      types.AUDIT_KIND_MODEL_CALL,
		SessionID: sessionID,
		MessageID: messageID,
		Model:     model,
		Tokens:    tokens,
	}
	if callErr != nil {
		evt.Detail = callErr.Error()
	}
	a.publish(evt)
}

func (a *Audit) CorpusChange(source, detail string) {
	a.publish(types.AuditEvent{
		Kind:   types.AUDIT_KIND_CORPUS_CHANGE,
		Source: source,
		Detail: detail,
	})
}

func (a *Audit) SessionEvicted(sessionID, detail string) {
	a.publish(types.AuditEvent{
		Kind:      types.AUDIT_KIND_SESSION_EVICTED,
		SessionID: sessionID,
		Detail:    detail,
	})
}

// Run drains the bus into sink, one json line per event, until ctx
// ends. Call it once at boot, events published without a running sink
// are dropped.
func (a *Audit) Run(ctx context.Context, sink io.Writer) error {
	messages, err := a.bus.Subscribe(ctx, AUDIT_TOPIC)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			if _, err := sink.Write(append(msg.Payload, '\n')); err != nil {
				slog.Error("failed to write audit event", slog.String("error", err.Error()))
			}
			msg.Ack()
		}
	}()
	return nil
}

func (a *Audit) Close() error {
	return a.bus.Close()
}
