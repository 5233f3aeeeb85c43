package vectorindex

import (
	"fmt"
	"sync"
	"testing"

	"github.com/trellis-ai/trellis-ai/pkg/types"
)

func TestSearchOrdering(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{
		{ID: "far", Source: "a.md", Content: "far", Vector: []float32{0, 1}, Seq: 1},
		{ID: "near", Source: "a.md", Content: "near", Vector: []float32{1, 0}, Seq: 2},
		{ID: "mid", Source: "b.md", Content: "mid", Vector: []float32{0.5, 0.5}, Seq: 3},
	})

	results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 2})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "near" || results[1].ID != "mid" {
		t.Fatalf("wrong order: %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Fatal("scores not descending")
	}
}

func TestSearchTieBreak(t *testing.T) {
	idx := New()
	// Identical vectors score identically, the earlier inserted chunk
	// must come first.
	idx.Rebuild([]Entry{
		{ID: "second", Source: "a.md", Vector: []float32{1, 0}, Seq: 20},
		{ID: "first", Source: "a.md", Vector: []float32{1, 0}, Seq: 10},
	})

	for i := 0; i < 10; i++ {
		results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 2})
		if results[0].ID != "first" || results[1].ID != "second" {
			t.Fatalf("run %d: tie not broken by insertion order: %s, %s", i, results[0].ID, results[1].ID)
		}
	}

	// Replacing a chunk keeps its original position in the tie.
	idx.Upsert(Entry{ID: "first", Source: "a.md", Content: "rewritten", Vector: []float32{1, 0}, Seq: 999})
	results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 2})
	if results[0].ID != "first" {
		t.Fatalf("replaced chunk lost its position: %s", results[0].ID)
	}
	if results[0].Content != "rewritten" {
		t.Fatalf("replaced chunk kept stale content: %s", results[0].Content)
	}
}

func TestSearchTagFilter(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{
		{ID: "untagged", Source: "a.md", Vector: []float32{1, 0}, Seq: 1},
		{ID: "vip", Source: "a.md", Tags: types.ChunkTags{"vip"}, Vector: []float32{0.5, 0.5}, Seq: 2},
		{ID: "vip-refund", Source: "a.md", Tags: types.ChunkTags{"vip", "refund"}, Vector: []float32{0.4, 0.6}, Seq: 3},
	})

	// The best scoring chunk is filtered out before ranking.
	results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 10, TagFilter: []string{"vip"}})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.ID == "untagged" {
			t.Fatal("untagged chunk passed the filter")
		}
	}

	// Every requested tag must be present.
	results = idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 10, TagFilter: []string{"vip", "refund"}})
	if len(results) != 1 || results[0].ID != "vip-refund" {
		t.Fatalf("expected only vip-refund, got %+v", results)
	}
}

func TestSearchMinScore(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{
		{ID: "close", Source: "a.md", Vector: []float32{0.9, 0.1}, Seq: 1},
		{ID: "weak", Source: "a.md", Vector: []float32{0.5, 0.5}, Seq: 2},
	})

	results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 10, MinScore: 0.8})
	if len(results) != 1 || results[0].ID != "close" {
		t.Fatalf("threshold not applied: %+v", results)
	}

	// Nothing above the floor is a valid, empty answer.
	results = idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 10, MinScore: 0.999999})
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}

func TestSearchPerSourceCap(t *testing.T) {
	idx := New()
	entries := []Entry{
		{ID: "other", Source: "b.md", Vector: []float32{0.5, 0.5}, Seq: 100},
	}
	for i := 0; i < 5; i++ {
		entries = append(entries, Entry{
			ID:     fmt.Sprintf("dom-%d", i),
			Source: "a.md",
			Vector: []float32{1, 0},
			Seq:    int64(i),
		})
	}
	idx.Rebuild(entries)

	results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 10, MaxPerSource: 2})
	perSource := make(map[string]int)
	for _, r := range results {
		perSource[r.Source]++
	}
	if perSource["a.md"] != 2 {
		t.Fatalf("source cap not applied: %d", perSource["a.md"])
	}
	if perSource["b.md"] != 1 {
		t.Fatal("capped source crowded out the other one")
	}
}

func TestRemoveBySource(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{
		{ID: "a1", Source: "a.md", Vector: []float32{1, 0}, Seq: 1},
		{ID: "a2", Source: "a.md", Vector: []float32{1, 0}, Seq: 2},
		{ID: "b1", Source: "b.md", Vector: []float32{1, 0}, Seq: 3},
	})

	idx.RemoveBySource("a.md")
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", idx.Len())
	}
	if _, ok := idx.Get("b1"); !ok {
		t.Fatal("unrelated entry removed")
	}
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	idx := New()
	for i := 0; i < 50; i++ {
		idx.Upsert(Entry{ID: fmt.Sprintf("c-%d", i), Source: "a.md", Vector: []float32{1, 0}, Seq: int64(i)})
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results := idx.Search([]float32{1, 0}, types.RetrieveOptions{K: 10})
				// A snapshot is never observed half written.
				for i := 1; i < len(results); i++ {
					if results[i].Score > results[i-1].Score {
						t.Error("snapshot order violated under concurrent writes")
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		idx.Upsert(Entry{ID: fmt.Sprintf("w-%d", i%20), Source: "b.md", Vector: []float32{0.5, 0.5}, Seq: int64(1000 + i)})
		if i%3 == 0 {
			idx.Remove(fmt.Sprintf("c-%d", i%50))
		}
	}
	close(stop)
	wg.Wait()
}
