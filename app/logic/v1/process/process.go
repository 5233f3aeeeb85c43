package process

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/pkg/register"
	"github.com/trellis-ai/trellis-ai/pkg/safe"
)

type Process struct {
	cron *cron.Cron
	core *core.Core

	watcher *CorpusWatcher
}

var p *Process

type ProcessKey struct{}

func NewProcess(core *core.Core) *Process {
	p = &Process{
		cron: cron.New(),
		core: core,
	}

	for _, h := range register.ResolveFuncHandlers[*Process](ProcessKey{}) {
		h(p)
	}

	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Core() *core.Core {
	return p.core
}

func (p *Process) Start() {
	if cfg := p.core.Cfg().Corpus; cfg.Dir != "" {
		// Catch up on files that changed while the service was down,
		// off the boot path.
		go safe.Run(func() {
			stats, err := NewCorpusProcess(p.core).Rescan(context.Background())
			if err != nil {
				slog.Error("Failed to import corpus directory on start",
					slog.String("dir", cfg.Dir), slog.String("error", err.Error()))
				return
			}
			slog.Info("Corpus directory imported on start",
				slog.Int("files", stats.Files),
				slog.Int("skipped", stats.Skipped),
				slog.Int("chunks", stats.Chunks),
				slog.Int("pruned", stats.Pruned))
		})

		if cfg.Watch {
			watcher, err := NewCorpusWatcher(p.core, cfg.Dir)
			if err != nil {
				slog.Error("Failed to start corpus watcher",
					slog.String("dir", cfg.Dir), slog.String("error", err.Error()))
			} else {
				p.watcher = watcher
			}
		}
	}

	p.cron.Start()
}

func (p *Process) Stop() {
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}

	if p.watcher != nil {
		p.watcher.Stop()
	}
}
