package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/trellis-ai/trellis-ai/pkg/register"
	"github.com/trellis-ai/trellis-ai/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KnowledgeChunkStore = NewKnowledgeChunkStore(provider)
	})
}

type KnowledgeChunkStore struct {
	CommonFields
}

func NewKnowledgeChunkStore(provider SqlProviderAchieve) *KnowledgeChunkStore {
	repo := &KnowledgeChunkStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_KNOWLEDGE_CHUNK)
	repo.SetAllColumns("id", "source", "content", "tags", "embedding", "seq", "created_at", "updated_at")
	return repo
}

func (s *KnowledgeChunkStore) Create(ctx context.Context, data types.KnowledgeChunk) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("id", "source", "content", "tags", "embedding", "seq", "created_at", "updated_at").
		Values(data.ID, data.Source, data.Content, data.Tags.String(), data.Embedding, data.Seq, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = s.GetMaster(ctx).Exec(queryString, args...); err != nil {
		return err
	}
	return nil
}

func (s *KnowledgeChunkStore) BatchCreate(ctx context.Context, datas []*types.KnowledgeChunk) error {
	if len(datas) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "source", "content", "tags", "embedding", "seq", "created_at", "updated_at")

	for _, item := range datas {
		if item.CreatedAt == 0 {
			item.CreatedAt = time.Now().Unix()
		}
		if item.UpdatedAt == 0 {
			item.UpdatedAt = time.Now().Unix()
		}
		query = query.Values(item.ID, item.Source, item.Content, item.Tags.String(), item.Embedding, item.Seq, item.CreatedAt, item.UpdatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *KnowledgeChunkStore) Get(ctx context.Context, id string) (*types.KnowledgeChunk, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.KnowledgeChunk
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *KnowledgeChunkStore) Exist(ctx context.Context, id string) (bool, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	var count int64
	if err = s.GetReplica(ctx).Get(&count, queryString, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update replaces the chunk payload in place. Seq is deliberately left
// alone so a replaced chunk keeps its original position in tie ranking.
func (s *KnowledgeChunkStore) Update(ctx context.Context, data types.KnowledgeChunk) error {
	query := sq.Update(s.GetTable()).
		Set("source", data.Source).
		Set("content", data.Content).
		Set("tags", data.Tags.String()).
		Set("embedding", data.Embedding).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": data.ID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *KnowledgeChunkStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *KnowledgeChunkStore) DeleteBySource(ctx context.Context, source string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"source": source})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// List returns chunks in insertion order so index rebuilds see the same
// ranking ties as the original inserts.
func (s *KnowledgeChunkStore) List(ctx context.Context, opts types.GetKnowledgeChunkOptions, page, pageSize uint64) ([]*types.KnowledgeChunk, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("seq ASC")
	opts.Apply(&query)

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []*types.KnowledgeChunk
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *KnowledgeChunkStore) Total(ctx context.Context, opts types.GetKnowledgeChunkOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *KnowledgeChunkStore) MaxSeq(ctx context.Context) (int64, error) {
	query := sq.Select("COALESCE(MAX(seq), 0)").From(s.GetTable())

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var max int64
	if err = s.GetReplica(ctx).Get(&max, queryString, args...); err != nil {
		return 0, err
	}
	return max, nil
}
