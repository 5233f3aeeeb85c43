package process

import (
	"context"
	"log/slog"

	"github.com/trellis-ai/trellis-ai/app/core"
	v1 "github.com/trellis-ai/trellis-ai/app/logic/v1"
	"github.com/trellis-ai/trellis-ai/pkg/register"
)

type CorpusProcess struct {
	core *core.Core
}

func NewCorpusProcess(core *core.Core) *CorpusProcess {
	return &CorpusProcess{core: core}
}

// Rescan re-imports the corpus directory. Unchanged files are skipped by
// checksum inside the importer, so an idle rescan costs a few stat calls.
func (p *CorpusProcess) Rescan(ctx context.Context) (v1.ImportStats, error) {
	return v1.NewCorpusLogic(ctx, p.core).ImportDir(p.core.Cfg().Corpus.Dir)
}

func init() {
	register.RegisterFunc(ProcessKey{}, func(provider *Process) {
		cfg := provider.Core().Cfg().Corpus
		if cfg.Dir == "" {
			return
		}

		provider.Cron().AddFunc(cfg.CronSpec(), func() {
			stats, err := NewCorpusProcess(provider.Core()).Rescan(context.Background())
			if err != nil {
				slog.Error("Failed to rescan corpus directory",
					slog.String("dir", cfg.Dir), slog.String("error", err.Error()))
				return
			}
			if stats.Chunks > 0 || stats.Pruned > 0 {
				slog.Info("Corpus rescan applied changes",
					slog.Int("files", stats.Files),
					slog.Int("chunks", stats.Chunks),
					slog.Int("pruned", stats.Pruned))
			}
		})
	})
}
