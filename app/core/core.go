package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trellis-ai/trellis-ai/app/core/srv"
	"github.com/trellis-ai/trellis-ai/app/store/sqlstore"
	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/types"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
	"github.com/trellis-ai/trellis-ai/pkg/vectorindex"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	prompt *ai.PromptManager
	index  *vectorindex.Index

	stores     func() *sqlstore.Provider
	httpEngine *gin.Engine

	metrics     *Metrics
	semaphore   *SemaphoreManager
	sessionLock *SessionLock
}

// SetupOpt adjusts a Core after the default wiring ran. Options apply
// in order, last write wins.
type SetupOpt func(*Core)

// WithAI swaps the configured model drivers for a prebuilt AI service.
func WithAI(a *srv.AI) SetupOpt {
	return func(c *Core) {
		c.srv = srv.SetupSrvs(
			srv.ApplyAIService(a),
			srv.ApplyAudit(),
			srv.ApplySeq(c.Store().ChatMessageStore()),
		)
	}
}

func MustSetupCore(cfg CoreConfig, opts ...SetupOpt) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	core := &Core{
		cfg:         cfg,
		metrics:     NewMetrics("trellis", "core"),
		httpEngine:  gin.New(),
		index:       vectorindex.New(),
		sessionLock: NewSessionLock(),
	}
	core.semaphore = NewSemaphoreManager(core)

	utils.SetupIDWorker(1)
	ai.RegisterConstants(cfg.Site.Title, cfg.Site.Description)

	prompt, err := ai.NewPromptManager(cfg.PromptConfig())
	if err != nil {
		panic(err)
	}
	core.prompt = prompt

	// setup store
	setupSqlStore(core)

	// the ranking index lives in memory, rebuild it from sqlite before
	// any request can hit the retriever
	if err := core.ReloadIndex(context.Background()); err != nil {
		panic(err)
	}

	core.srv = srv.SetupSrvs(
		srv.ApplyAI(cfg.AI),
		srv.ApplyAudit(),
		srv.ApplySeq(core.Store().ChatMessageStore()),
	)

	for _, opt := range opts {
		opt(core)
	}

	// opts may swap the srv set, attach the audit sink to whichever
	// instance survived
	if cfg.Audit.File != "" {
		sink := &lumberjack.Logger{
			Filename:   cfg.Audit.File,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		if err := core.srv.Audit().Run(context.Background(), sink); err != nil {
			panic(err)
		}
	}

	return core
}

// Close stops the audit bus and releases the database handle. The
// vector index is derived state, the next boot rebuilds it from sqlite.
func (s *Core) Close() error {
	if err := s.srv.Audit().Close(); err != nil {
		slog.Error("failed to close audit bus", slog.String("error", err.Error()))
	}
	return s.stores().Close()
}

// ReloadIndex loads every persisted chunk into the in-memory vector
// index. Chunks come back ordered by seq so the index scan order
// matches insertion order from the first request on. Runs at boot and
// on explicit corpus reload.
func (s *Core) ReloadIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	chunks, err := s.Store().KnowledgeChunkStore().List(ctx, types.GetKnowledgeChunkOptions{}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return err
	}

	entries := make([]vectorindex.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		entries = append(entries, vectorindex.Entry{
			ID:      chunk.ID,
			Source:  chunk.Source,
			Content: chunk.Content,
			Tags:    chunk.Tags,
			Vector:  chunk.Embedding.Slice(),
			Seq:     chunk.Seq,
		})
	}
	s.index.Rebuild(entries)

	slog.Info("vector index rebuilt", slog.Int("chunks", len(entries)))
	return nil
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Prompt() *ai.PromptManager {
	return s.prompt
}

func (s *Core) Index() *vectorindex.Index {
	return s.index
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Semaphore() *SemaphoreManager {
	return s.semaphore
}

func (s *Core) SessionLock() *SessionLock {
	return s.sessionLock
}

func setupSqlStore(core *Core) {
	dsn := core.cfg.Sqlite.FormatDSN()
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
	}
	core.stores = sqlstore.MustSetup(core.cfg.Sqlite)
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}
