package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/trellis-ai/trellis-ai/app/core/srv"
	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr string `toml:"addr"`
	Log  Log    `toml:"log"`

	Sqlite SqliteConfig `toml:"sqlite"`
	Site   Site         `toml:"site"`

	AI srv.AIConfig `toml:"ai"`

	Prompt ai.PromptConfig `toml:"prompt"`
	Budget ai.PromptBudget `toml:"budget"`

	Retrieve RetrieveConfig `toml:"retrieve"`
	Chat     ChatConfig     `toml:"chat"`
	Corpus   CorpusConfig   `toml:"corpus"`
	Audit    AuditConfig    `toml:"audit"`

	Semaphore SemaphoreConfig `toml:"semaphore"`
}

func (c CoreConfig) PromptBudget() ai.PromptBudget {
	b := c.Budget
	if b.MaxTokens <= 0 {
		b.MaxTokens = 4000
	}
	if b.ReservedForResponse <= 0 {
		b.ReservedForResponse = 800
	}
	return b
}

// PromptConfig fills in the conventional layout, a prompts/ dir next to
// the binary is picked up without any config.
func (c CoreConfig) PromptConfig() ai.PromptConfig {
	p := c.Prompt
	if p.Dir == "" {
		p.Dir = "prompts"
	}
	if p.PromotionsFile == "" {
		p.PromotionsFile = filepath.Join(p.Dir, "promotions.txt")
	}
	return p
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("TRELLIS_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Sqlite.FromENV()
}

type Site struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

type SqliteConfig struct {
	DSN string `toml:"dsn"`
}

func (m *SqliteConfig) FromENV() {
	m.DSN = os.Getenv("TRELLIS_SQLITE_DSN")
}

func (c SqliteConfig) FormatDSN() string {
	if c.DSN == "" {
		return "data/trellis.db"
	}
	return c.DSN
}

// RetrieveConfig tunes ranking. Zero values mean defaults, a negative
// min_score disables the relevance floor and a negative max_per_source
// lifts the per source cap.
type RetrieveConfig struct {
	K            int     `toml:"k"`
	MinScore     float64 `toml:"min_score"`
	MaxPerSource int     `toml:"max_per_source"`
}

func (c RetrieveConfig) Options() types.RetrieveOptions {
	opts := types.RetrieveOptions{
		K:            c.K,
		MinScore:     float32(c.MinScore),
		MaxPerSource: c.MaxPerSource,
	}
	if opts.K <= 0 {
		opts.K = 8
	}
	switch {
	case c.MinScore == 0:
		opts.MinScore = 0.6
	case c.MinScore < 0:
		opts.MinScore = 0
	}
	switch {
	case c.MaxPerSource == 0:
		opts.MaxPerSource = 3
	case c.MaxPerSource < 0:
		opts.MaxPerSource = 0
	}
	return opts
}

type ChatConfig struct {
	MaxSessionTurns      int    `toml:"max_session_turns"`
	HistoryWindowSeconds int    `toml:"history_window_seconds"`
	SessionIdleSeconds   int    `toml:"session_idle_seconds"`
	ModelTimeoutSeconds  int    `toml:"model_timeout_seconds"`
	MaxRetries           int    `toml:"max_retries"`
	DefaultPersona       string `toml:"default_persona"`
	EvictCron            string `toml:"evict_cron"`
}

func (c ChatConfig) Turns() int {
	if c.MaxSessionTurns <= 0 {
		return 20
	}
	return c.MaxSessionTurns
}

func (c ChatConfig) HistoryWindow() time.Duration {
	if c.HistoryWindowSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.HistoryWindowSeconds) * time.Second
}

func (c ChatConfig) SessionIdle() time.Duration {
	if c.SessionIdleSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SessionIdleSeconds) * time.Second
}

func (c ChatConfig) ModelTimeout() time.Duration {
	if c.ModelTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ModelTimeoutSeconds) * time.Second
}

func (c ChatConfig) Retries() int {
	if c.MaxRetries <= 0 {
		return 3
	}
	return c.MaxRetries
}

func (c ChatConfig) CronSpec() string {
	if c.EvictCron == "" {
		return "@every 10m"
	}
	return c.EvictCron
}

type CorpusConfig struct {
	Dir        string `toml:"dir"`
	RescanCron string `toml:"rescan_cron"`
	Watch      bool   `toml:"watch"`
}

func (c CorpusConfig) CronSpec() string {
	if c.RescanCron == "" {
		return "@every 10m"
	}
	return c.RescanCron
}

type AuditConfig struct {
	// File is the jsonl audit sink, empty leaves the trail off.
	File string `toml:"file"`
}

type SemaphoreConfig struct {
	Chat ChatSemaphoreConfig `toml:"chat"`
}

type ChatSemaphoreConfig struct {
	MaxConcurrency   int     `toml:"max_concurrency"`
	SessionPerMinute float64 `toml:"session_per_minute"`
	SessionBurst     int     `toml:"session_burst"`
}

func (c ChatSemaphoreConfig) Concurrency() int {
	if c.MaxConcurrency <= 0 {
		return 64
	}
	return c.MaxConcurrency
}

func (c ChatSemaphoreConfig) PerMinute() float64 {
	if c.SessionPerMinute <= 0 {
		return 30
	}
	return c.SessionPerMinute
}

func (c ChatSemaphoreConfig) Burst() int {
	if c.SessionBurst <= 0 {
		return 5
	}
	return c.SessionBurst
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("TRELLIS_LOG_LEVEL")
	l.Path = os.Getenv("TRELLIS_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
