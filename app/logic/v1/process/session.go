package process

import (
	"context"
	"log/slog"

	"github.com/trellis-ai/trellis-ai/app/core"
	v1 "github.com/trellis-ai/trellis-ai/app/logic/v1"
	"github.com/trellis-ai/trellis-ai/pkg/register"
)

type SessionProcess struct {
	core *core.Core
}

func NewSessionProcess(core *core.Core) *SessionProcess {
	return &SessionProcess{core: core}
}

// EvictIdleSessions clears sessions whose latest access predates the
// configured idle window.
func (p *SessionProcess) EvictIdleSessions(ctx context.Context) (int, error) {
	n, err := v1.NewChatSessionLogic(ctx, p.core).EvictIdle(p.core.Cfg().Chat.SessionIdle())
	if n > 0 {
		p.core.Metrics().SessionEvictedAdd("idle", n)
	}
	return n, err
}

func init() {
	register.RegisterFunc(ProcessKey{}, func(provider *Process) {
		provider.Cron().AddFunc(provider.Core().Cfg().Chat.CronSpec(), func() {
			n, err := NewSessionProcess(provider.Core()).EvictIdleSessions(context.Background())
			if err != nil {
				slog.Error("Failed to evict idle sessions", slog.String("error", err.Error()))
			} else if n > 0 {
				slog.Info("Successfully evicted idle sessions", slog.Int("count", n))
			}
		})
	})
}
