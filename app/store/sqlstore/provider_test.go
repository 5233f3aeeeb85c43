package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/trellis-ai/trellis-ai/pkg/types"
)

type TestConfig struct {
	DSN string `toml:"dsn"`
}

func (m TestConfig) FormatDSN() string {
	return m.DSN
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	provider := MustSetup(TestConfig{DSN: ":memory:"})()
	if err := provider.Install(); err != nil {
		t.Fatal(err)
	}
	return provider
}

func TestKnowledgeChunkStore(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	chunk := types.KnowledgeChunk{
		ID:        "doc_1",
		Source:    "guide.md",
		Content:   "Refunds are processed within five business days.",
		Tags:      types.ChunkTags{"refund", "policy"},
		Embedding: pgvector.NewVector([]float32{0.1, 0.2, 0.3}),
		Seq:       1,
	}
	if err := provider.KnowledgeChunkStore().Create(ctx, chunk); err != nil {
		t.Fatal(err)
	}

	got, err := provider.KnowledgeChunkStore().Get(ctx, "doc_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != chunk.Content {
		t.Fatalf("unexpected content %q", got.Content)
	}
	if !got.Tags.Has("refund") {
		t.Fatalf("tags not restored: %v", got.Tags)
	}
	if len(got.Embedding.Slice()) != 3 {
		t.Fatalf("embedding not restored: %v", got.Embedding.Slice())
	}
	if got.CreatedAt == 0 || got.UpdatedAt == 0 {
		t.Fatal("timestamps not defaulted")
	}

	exist, err := provider.KnowledgeChunkStore().Exist(ctx, "doc_1")
	if err != nil {
		t.Fatal(err)
	}
	if !exist {
		t.Fatal("expected chunk to exist")
	}

	// Replacing content must keep the original seq.
	chunk.Content = "Refunds are processed within three business days."
	chunk.Tags = types.ChunkTags{"refund"}
	if err = provider.KnowledgeChunkStore().Update(ctx, chunk); err != nil {
		t.Fatal(err)
	}
	got, err = provider.KnowledgeChunkStore().Get(ctx, "doc_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 1 {
		t.Fatalf("seq changed on update: %d", got.Seq)
	}
	if got.Tags.Has("policy") {
		t.Fatalf("tags not replaced: %v", got.Tags)
	}

	for i := 2; i <= 4; i++ {
		err = provider.KnowledgeChunkStore().Create(ctx, types.KnowledgeChunk{
			ID:        fmt.Sprintf("doc_%d", i),
			Source:    "faq.md",
			Content:   fmt.Sprintf("entry %d", i),
			Embedding: pgvector.NewVector([]float32{0.1, 0.2, 0.3}),
			Seq:       int64(i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	maxSeq, err := provider.KnowledgeChunkStore().MaxSeq(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if maxSeq != 4 {
		t.Fatalf("expected max seq 4, got %d", maxSeq)
	}

	list, err := provider.KnowledgeChunkStore().List(ctx, types.GetKnowledgeChunkOptions{Source: "faq.md"}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(list))
	}
	if list[0].Seq > list[1].Seq {
		t.Fatal("list not ordered by seq")
	}

	if err = provider.KnowledgeChunkStore().DeleteBySource(ctx, "faq.md"); err != nil {
		t.Fatal(err)
	}
	total, err := provider.KnowledgeChunkStore().Total(ctx, types.GetKnowledgeChunkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected 1 chunk left, got %d", total)
	}
}

func TestCorpusFileStore(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	file := types.CorpusFile{
		Source:     "guide.md",
		Path:       "/corpus/guide.md",
		SHA256:     "aaa",
		ChunkCount: 3,
	}
	if err := provider.CorpusFileStore().Upsert(ctx, file); err != nil {
		t.Fatal(err)
	}

	// Second upsert with the same source must update in place.
	file.SHA256 = "bbb"
	file.ChunkCount = 5
	if err := provider.CorpusFileStore().Upsert(ctx, file); err != nil {
		t.Fatal(err)
	}

	got, err := provider.CorpusFileStore().Get(ctx, "guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.SHA256 != "bbb" || got.ChunkCount != 5 {
		t.Fatalf("upsert did not replace: %+v", got)
	}

	list, err := provider.CorpusFileStore().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 file, got %d", len(list))
	}

	if err = provider.CorpusFileStore().Delete(ctx, "guide.md"); err != nil {
		t.Fatal(err)
	}
	if _, err = provider.CorpusFileStore().Get(ctx, "guide.md"); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestChatHistory(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	session := types.ChatSession{
		ID:      "sess-1",
		Persona: "support",
	}
	if err := provider.ChatSessionStore().Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 6; i++ {
		role := types.USER_ROLE_USER
		if i%2 == 0 {
			role = types.USER_ROLE_ASSISTANT
		}
		err := provider.ChatMessageStore().Create(ctx, &types.ChatMessage{
			ID:        fmt.Sprintf("msg-%d", i),
			SessionID: "sess-1",
			Sequence:  int64(i),
			Role:      role,
			Message:   fmt.Sprintf("turn %d", i),
			Complete:  types.MESSAGE_PROGRESS_COMPLETE,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	// History reads take the most recent suffix.
	latest, err := provider.ChatMessageStore().ListSessionMessageDesc(ctx, "sess-1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(latest))
	}
	if latest[0].Sequence != 6 || latest[3].Sequence != 3 {
		t.Fatalf("wrong suffix window: %d..%d", latest[0].Sequence, latest[3].Sequence)
	}

	maxSeq, err := provider.ChatMessageStore().MaxSessionSeq(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if maxSeq != 6 {
		t.Fatalf("expected max sequence 6, got %d", maxSeq)
	}

	if err = provider.ChatMessageStore().DeleteBeforeSeq(ctx, "sess-1", 3); err != nil {
		t.Fatal(err)
	}
	total, err := provider.ChatMessageStore().TotalSessionMessage(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Fatalf("expected 4 messages after trim, got %d", total)
	}

	last, err := provider.ChatMessageStore().GetSessionLatestMessage(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if last.ID != "msg-6" {
		t.Fatalf("unexpected latest message %s", last.ID)
	}
}

func TestSessionEvictionWindow(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	if err := provider.ChatSessionStore().Create(ctx, types.ChatSession{ID: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := provider.ChatSessionStore().Create(ctx, types.ChatSession{ID: "fresh"}); err != nil {
		t.Fatal(err)
	}

	// Only sessions idle past the cutoff are candidates.
	stale, err := provider.ChatSessionStore().ListBeforeTime(ctx, time.Now().Add(-time.Hour), types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 0 {
		t.Fatalf("expected no stale sessions, got %d", len(stale))
	}

	stale, err = provider.ChatSessionStore().ListBeforeTime(ctx, time.Now().Add(time.Hour), types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected both sessions stale, got %d", len(stale))
	}

	if err = provider.ChatSessionStore().Delete(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	total, err := provider.ChatSessionStore().Total(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected 1 session, got %d", total)
	}
}

func TestTransactionRollback(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	err := provider.Transaction(ctx, func(ctx context.Context) error {
		if err := provider.ChatSessionStore().Create(ctx, types.ChatSession{ID: "tx-sess"}); err != nil {
			return err
		}
		return fmt.Errorf("forced failure")
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	if _, err = provider.ChatSessionStore().GetChatSession(ctx, "tx-sess"); err == nil {
		t.Fatal("expected rollback to discard the session")
	}
}
