package types

// CorpusFile tracks one imported source document and its content hash.
// The importer skips files whose hash has not changed since the last run.
type CorpusFile struct {
	Source     string `json:"source" db:"source"` // source identifier, derived from the file name
	Path       string `json:"path" db:"path"`
	SHA256     string `json:"sha256" db:"sha256"`
	ChunkCount int    `json:"chunk_count" db:"chunk_count"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}
