package store

import (
	"context"
	"time"

	"github.com/trellis-ai/trellis-ai/pkg/sqlstore"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

// KnowledgeChunkStore is the persisted form of the corpus. The
// in-memory ranking index is rebuilt from it on startup, so every write
// here must leave the table consistent on its own.
type KnowledgeChunkStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.KnowledgeChunk) error
	BatchCreate(ctx context.Context, datas []*types.KnowledgeChunk) error
	Get(ctx context.Context, id string) (*types.KnowledgeChunk, error)
	Exist(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, data types.KnowledgeChunk) error
	Delete(ctx context.Context, id string) error
	DeleteBySource(ctx context.Context, source string) error
	List(ctx context.Context, opts types.GetKnowledgeChunkOptions, page, pageSize uint64) ([]*types.KnowledgeChunk, error)
	Total(ctx context.Context, opts types.GetKnowledgeChunkOptions) (int64, error)
	MaxSeq(ctx context.Context) (int64, error)
}

type CorpusFileStore interface {
	sqlstore.SqlCommons
	Upsert(ctx context.Context, data types.CorpusFile) error
	Get(ctx context.Context, source string) (*types.CorpusFile, error)
	Delete(ctx context.Context, source string) error
	List(ctx context.Context) ([]types.CorpusFile, error)
}

type ChatSessionStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ChatSession) error
	GetChatSession(ctx context.Context, sessionID string) (*types.ChatSession, error)
	UpdateSessionPersona(ctx context.Context, sessionID, persona string) error
	UpdateChatSessionLatestAccessTime(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context, page, pageSize uint64) ([]types.ChatSession, error)
	ListBeforeTime(ctx context.Context, t time.Time, page, pageSize uint64) ([]types.ChatSession, error)
	Total(ctx context.Context) (int64, error)
}

type ChatMessageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.ChatMessage) error
	GetOne(ctx context.Context, id string) (*types.ChatMessage, error)
	Exist(ctx context.Context, sessionID, msgID string) (bool, error)
	DeleteSessionMessage(ctx context.Context, sessionID string) error
	DeleteBeforeSeq(ctx context.Context, sessionID string, seq int64) error
	ListSessionMessage(ctx context.Context, sessionID string, page, pageSize uint64) ([]*types.ChatMessage, error)
	ListSessionMessageDesc(ctx context.Context, sessionID string, limit uint64) ([]*types.ChatMessage, error)
	TotalSessionMessage(ctx context.Context, sessionID string) (int64, error)
	MaxSessionSeq(ctx context.Context, sessionID string) (int64, error)
	GetSessionLatestMessage(ctx context.Context, sessionID string) (*types.ChatMessage, error)
}
