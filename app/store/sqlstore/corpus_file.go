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
		provider.stores.CorpusFileStore = NewCorpusFileStore(provider)
	})
}

type CorpusFileStore struct {
	CommonFields
}

func NewCorpusFileStore(provider SqlProviderAchieve) *CorpusFileStore {
	repo := &CorpusFileStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CORPUS_FILE)
	repo.SetAllColumns("source", "path", "sha256", "chunk_count", "created_at", "updated_at")
	return repo
}

func (s *CorpusFileStore) Upsert(ctx context.Context, data types.CorpusFile) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("source", "path", "sha256", "chunk_count", "created_at", "updated_at").
		Values(data.Source, data.Path, data.SHA256, data.ChunkCount, data.CreatedAt, data.UpdatedAt).
		Suffix("ON CONFLICT(source) DO UPDATE SET path = excluded.path, sha256 = excluded.sha256, chunk_count = excluded.chunk_count, updated_at = excluded.updated_at")

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *CorpusFileStore) Get(ctx context.Context, source string) (*types.CorpusFile, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"source": source})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.CorpusFile
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CorpusFileStore) Delete(ctx context.Context, source string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"source": source})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *CorpusFileStore) List(ctx context.Context) ([]types.CorpusFile, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("source ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.CorpusFile
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
