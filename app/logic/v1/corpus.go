package v1

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/pkg/errors"
	"github.com/trellis-ai/trellis-ai/pkg/i18n"
	"github.com/trellis-ai/trellis-ai/pkg/types"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
	"github.com/trellis-ai/trellis-ai/pkg/vectorindex"
)

type CorpusLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewCorpusLogic(ctx context.Context, core *core.Core) *CorpusLogic {
	return &CorpusLogic{
		ctx:  ctx,
		core: core,
	}
}

// PutChunk inserts or replaces a chunk by id. A replace keeps the
// original Seq and CreatedAt so ranking ties stay stable across
// re-imports. The row commits first, then the index swaps; the index
// never references a chunk the store does not hold.
func (l *CorpusLogic) PutChunk(args types.PutChunkArgs) (*types.KnowledgeChunk, error) {
	if args.ID == "" || strings.TrimSpace(args.Content) == "" {
		return nil, errors.New("CorpusLogic.PutChunk.args", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if args.Source == "" {
		args.Source = "manual"
	}

	embed, err := l.core.Srv().AI().EmbeddingForDocument(l.ctx, args.Source, []string{args.Content})
	if err != nil {
		return nil, errors.New("CorpusLogic.PutChunk.EmbeddingForDocument", i18n.ERROR_EMBEDDING_UNAVAILABLE, err)
	}
	if len(embed.Data) == 0 {
		return nil, errors.New("CorpusLogic.PutChunk.EmbeddingForDocument.empty", i18n.ERROR_EMBEDDING_UNAVAILABLE, nil)
	}

	old, err := l.core.Store().KnowledgeChunkStore().Get(l.ctx, args.ID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CorpusLogic.PutChunk.KnowledgeChunkStore.Get", i18n.ERROR_INTERNAL, err)
	}

	now := time.Now().Unix()
	chunk := types.KnowledgeChunk{
		ID:        args.ID,
		Source:    args.Source,
		Content:   args.Content,
		Tags:      args.Tags,
		Embedding: pgvector.NewVector(embed.Data[0]),
		UpdatedAt: now,
	}

	if old != nil {
		chunk.Seq = old.Seq
		chunk.CreatedAt = old.CreatedAt
		err = l.core.Store().KnowledgeChunkStore().Update(l.ctx, chunk)
	} else {
		chunk.Seq = utils.GenUniqID()
		chunk.CreatedAt = now
		err = l.core.Store().KnowledgeChunkStore().Create(l.ctx, chunk)
	}
	if err != nil {
		return nil, errors.New("CorpusLogic.PutChunk.KnowledgeChunkStore.Write", i18n.ERROR_INTERNAL, err)
	}

	l.core.Index().Upsert(vectorindex.Entry{
		ID:      chunk.ID,
		Source:  chunk.Source,
		Content: chunk.Content,
		Tags:    chunk.Tags,
		Vector:  embed.Data[0],
		Seq:     chunk.Seq,
	})

	l.core.Srv().Audit().CorpusChange(chunk.Source, "put "+chunk.ID)
	return &chunk, nil
}

func (l *CorpusLogic) GetChunk(id string) (*types.KnowledgeChunk, error) {
	chunk, err := l.core.Store().KnowledgeChunkStore().Get(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CorpusLogic.GetChunk.KnowledgeChunkStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if chunk == nil {
		return nil, errors.New("CorpusLogic.GetChunk.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return chunk, nil
}

// RemoveChunk drops the index entry, then deletes the row. The index
// swaps first so no query can return a chunk the store no longer holds;
// a failed row delete puts the entry back.
func (l *CorpusLogic) RemoveChunk(id string) error {
	chunk, err := l.core.Store().KnowledgeChunkStore().Get(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("CorpusLogic.RemoveChunk.KnowledgeChunkStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if chunk == nil {
		return nil
	}

	l.core.Index().Remove(id)
	if err := l.core.Store().KnowledgeChunkStore().Delete(l.ctx, id); err != nil {
		l.core.Index().Upsert(vectorindex.Entry{
			ID:      chunk.ID,
			Source:  chunk.Source,
			Content: chunk.Content,
			Tags:    chunk.Tags,
			Vector:  chunk.Embedding.Slice(),
			Seq:     chunk.Seq,
		})
		return errors.New("CorpusLogic.RemoveChunk.KnowledgeChunkStore.Delete", i18n.ERROR_INTERNAL, err)
	}

	l.core.Srv().Audit().CorpusChange(chunk.Source, "remove "+id)
	return nil
}

// QueryChunks embeds the query text and ranks it against the index.
// k overrides the configured result count when positive.
func (l *CorpusLogic) QueryChunks(query string, tagFilter []string, k int) (types.RetrievalResult, error) {
	result := types.RetrievalResult{Query: query}
	if strings.TrimSpace(query) == "" {
		return result, errors.New("CorpusLogic.QueryChunks.empty", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	embed, err := l.core.Srv().AI().EmbeddingForQuery(l.ctx, []string{query})
	if err != nil {
		return result, errors.New("CorpusLogic.QueryChunks.EmbeddingForQuery", i18n.ERROR_EMBEDDING_UNAVAILABLE, err)
	}
	if len(embed.Data) == 0 {
		return result, errors.New("CorpusLogic.QueryChunks.EmbeddingForQuery.empty", i18n.ERROR_EMBEDDING_UNAVAILABLE, nil)
	}

	opts := l.core.Cfg().Retrieve.Options()
	if len(tagFilter) > 0 {
		opts.TagFilter = tagFilter
	}
	if k > 0 {
		opts.K = k
	}

	result.Chunks = l.core.Index().Search(embed.Data[0], opts)
	return result, nil
}

func (l *CorpusLogic) ListChunks(source string, page, pageSize uint64) ([]*types.KnowledgeChunk, int64, error) {
	opts := types.GetKnowledgeChunkOptions{Source: source}

	list, err := l.core.Store().KnowledgeChunkStore().List(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("CorpusLogic.ListChunks.KnowledgeChunkStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().KnowledgeChunkStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("CorpusLogic.ListChunks.KnowledgeChunkStore.Total", i18n.ERROR_INTERNAL, err)
	}

	return list, total, nil
}

// Reload rebuilds the in-memory index from the store in one swap.
func (l *CorpusLogic) Reload() error {
	if err := l.core.ReloadIndex(l.ctx); err != nil {
		return errors.New("CorpusLogic.Reload.ReloadIndex", i18n.ERROR_INTERNAL, err)
	}
	return nil
}
