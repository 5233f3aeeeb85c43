// Package vectorindex keeps the retrievable corpus in memory and ranks
// chunks by cosine similarity against a query vector. The durable copy
// lives in sqlite; the index is rebuilt from it on startup and every
// write swaps a fresh snapshot in atomically, so readers take no lock.
package vectorindex

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/trellis-ai/trellis-ai/pkg/types"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
)

// Entry is one indexed chunk. Seq is the insertion order and decides
// ties, a replaced chunk keeps the seq it was first inserted with.
type Entry struct {
	ID      string
	Source  string
	Content string
	Tags    types.ChunkTags
	Vector  []float32
	Seq     int64
}

type snapshot struct {
	// entries stay sorted by seq ascending so the scan order is the
	// insertion order and stable sort keeps it for equal scores.
	entries []Entry
	byID    map[string]int
}

func newSnapshot(entries []Entry) *snapshot {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = i
	}
	return &snapshot{entries: entries, byID: byID}
}

// Index is a bruteforce cosine index. Writes rebuild the snapshot under
// a mutex, reads only load the current pointer.
type Index struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

func New() *Index {
	idx := &Index{}
	idx.snap.Store(newSnapshot(nil))
	return idx
}

// Rebuild replaces the whole snapshot, used on startup and after a
// corpus rescan.
func (idx *Index) Rebuild(entries []Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.snap.Store(newSnapshot(entries))
}

// Upsert inserts or replaces one entry. A replace keeps the position
// the id already holds.
func (idx *Index) Upsert(entry Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := make([]Entry, 0, len(cur.entries)+1)

	if pos, ok := cur.byID[entry.ID]; ok {
		entry.Seq = cur.entries[pos].Seq
		next = append(next, cur.entries...)
		next[pos] = entry
	} else {
		next = append(next, cur.entries...)
		next = append(next, entry)
	}
	idx.snap.Store(newSnapshot(next))
}

func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	if _, ok := cur.byID[id]; !ok {
		return
	}
	next := make([]Entry, 0, len(cur.entries)-1)
	for _, e := range cur.entries {
		if e.ID == id {
			continue
		}
		next = append(next, e)
	}
	idx.snap.Store(newSnapshot(next))
}

func (idx *Index) RemoveBySource(source string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := make([]Entry, 0, len(cur.entries))
	for _, e := range cur.entries {
		if e.Source == source {
			continue
		}
		next = append(next, e)
	}
	if len(next) == len(cur.entries) {
		return
	}
	idx.snap.Store(newSnapshot(next))
}

func (idx *Index) Get(id string) (Entry, bool) {
	cur := idx.snap.Load()
	pos, ok := cur.byID[id]
	if !ok {
		return Entry{}, false
	}
	return cur.entries[pos], true
}

func (idx *Index) Len() int {
	return len(idx.snap.Load().entries)
}

// Search ranks the corpus against the query vector. Tag filtering
// happens before ranking, an entry must carry every requested tag.
// Results are sorted by score descending, equal scores keep the
// earlier inserted chunk first. MaxPerSource caps how many results one
// source may contribute. An empty result is a valid answer.
func (idx *Index) Search(vector []float32, opts types.RetrieveOptions) []types.QueryResult {
	cur := idx.snap.Load()

	candidates := make([]types.QueryResult, 0, len(cur.entries))
	for _, e := range cur.entries {
		if !matchTags(e.Tags, opts.TagFilter) {
			continue
		}
		score := utils.Cosine32(vector, e.Vector)
		if score < opts.MinScore {
			continue
		}
		candidates = append(candidates, types.QueryResult{
			ID:      e.ID,
			Source:  e.Source,
			Content: e.Content,
			Score:   score,
			Seq:     e.Seq,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	results := make([]types.QueryResult, 0, len(candidates))
	perSource := make(map[string]int)
	for _, c := range candidates {
		if opts.MaxPerSource > 0 && perSource[c.Source] >= opts.MaxPerSource {
			continue
		}
		perSource[c.Source]++
		results = append(results, c)
		if opts.K > 0 && len(results) >= opts.K {
			break
		}
	}
	return results
}

func matchTags(tags types.ChunkTags, filter []string) bool {
	for _, want := range filter {
		if !tags.Has(want) {
			return false
		}
	}
	return true
}
