package types

// QueryResult is one scored chunk returned by the retriever.
type QueryResult struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float32 `json:"score"` // cosine similarity against the query embedding
	Seq     int64   `json:"seq"`
}

// RetrievalResult carries the ranked chunks for one query. An empty
// Chunks slice is a valid result, not an error.
type RetrievalResult struct {
	Query  string        `json:"query"`
	Chunks []QueryResult `json:"chunks"`
}

type RetrieveOptions struct {
	K            int      // max chunks to return
	TagFilter    []string // applied before ranking; empty means no filter
	MinScore     float32  // chunks below this similarity are discarded
	MaxPerSource int      // per-source cap, 0 means unlimited
}
