package types

import (
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeChunk is one retrievable passage of the corpus.
type KnowledgeChunk struct {
	ID        string          `json:"id" db:"id"`                 // caller-supplied chunk id
	Source    string          `json:"source" db:"source"`         // source document identifier
	Content   string          `json:"content" db:"content"`       // chunk text
	Tags      ChunkTags       `json:"tags" db:"tags"`             // optional labels, JSON encoded
	Embedding pgvector.Vector `json:"embedding" db:"embedding"`   // text vector
	Seq       int64           `json:"seq" db:"seq"`               // insertion order, stable across replace
	CreatedAt int64           `json:"created_at" db:"created_at"` // UNIX timestamp
	UpdatedAt int64           `json:"updated_at" db:"updated_at"` // UNIX timestamp
}

type ChunkTags []string

func (s ChunkTags) String() string {
	if len(s) == 0 {
		return "[]"
	}
	raw, _ := json.Marshal(s)
	return string(raw)
}

func (s ChunkTags) Has(tag string) bool {
	for _, v := range s {
		if v == tag {
			return true
		}
	}
	return false
}

func (s *ChunkTags) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = nil
		return nil
	}

	return fmt.Errorf("sqlite: cannot convert %T to ChunkTags", src)
}

func (s *ChunkTags) scanBytes(src []byte) error {
	if len(src) == 0 {
		*s = ChunkTags{}
		return nil
	}
	return json.Unmarshal(src, s)
}

type PutChunkArgs struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Source  string    `json:"source"`
	Tags    ChunkTags `json:"tags"`
}

type GetKnowledgeChunkOptions struct {
	ID     string
	IDs    []string
	Source string
}

func (opts GetKnowledgeChunkOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.Source != "" {
		*query = query.Where(sq.Eq{"source": opts.Source})
	}
}
