package process

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/pkg/safe"
)

// WATCH_DEBOUNCE coalesces event bursts into one rescan. Editors fire
// several write events per save.
const WATCH_DEBOUNCE = time.Second * 2

// CorpusWatcher triggers a debounced directory rescan whenever a corpus
// text file changes on disk.
type CorpusWatcher struct {
	core    *core.Core
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewCorpusWatcher(core *core.Core, dir string) (*CorpusWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err = w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	cw := &CorpusWatcher{
		core:    core,
		watcher: w,
		done:    make(chan struct{}),
	}

	go safe.Run(cw.loop)

	slog.Info("corpus watcher started", slog.String("dir", dir))
	return cw, nil
}

func (w *CorpusWatcher) loop() {
	var rescan <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isCorpusFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			rescan = time.After(WATCH_DEBOUNCE)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("corpus watcher error", slog.String("error", err.Error()))
		case <-rescan:
			rescan = nil
			stats, err := NewCorpusProcess(w.core).Rescan(context.Background())
			if err != nil {
				slog.Error("Failed to rescan corpus after file change", slog.String("error", err.Error()))
				continue
			}
			slog.Info("Corpus rescanned after file change",
				slog.Int("files", stats.Files),
				slog.Int("chunks", stats.Chunks),
				slog.Int("pruned", stats.Pruned))
		}
	}
}

func (w *CorpusWatcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

func isCorpusFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}
