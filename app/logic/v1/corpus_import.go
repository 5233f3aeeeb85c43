package v1

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/trellis-ai/trellis-ai/pkg/errors"
	"github.com/trellis-ai/trellis-ai/pkg/i18n"
	"github.com/trellis-ai/trellis-ai/pkg/types"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
	"github.com/trellis-ai/trellis-ai/pkg/vectorindex"
)

// MIN_CHUNK_RUNES drops kb lines too short to carry an answer.
const MIN_CHUNK_RUNES = 10

type ImportStats struct {
	Files   int `json:"files"`
	Skipped int `json:"skipped"`
	Chunks  int `json:"chunks"`
	Pruned  int `json:"pruned"`
}

// ImportDir ingests every *.txt file in dir as corpus chunks, one
// chunk per usable line. Unchanged files are skipped by content hash,
// sources whose file is gone are pruned. A failing file is logged and
// skipped, it never aborts the rest of the scan.
func (l *CorpusLogic) ImportDir(dir string) (ImportStats, error) {
	var stats ImportStats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, errors.New("CorpusLogic.ImportDir.ReadDir", i18n.ERROR_INTERNAL, err)
	}

	// the promotions text feeds the prompt directly, it must not be
	// embedded even when it lives inside the kb dir
	skipName := ""
	if f := l.core.Cfg().PromptConfig().PromotionsFile; f != "" {
		skipName = strings.ToLower(filepath.Base(f))
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if skipName != "" && strings.ToLower(entry.Name()) == skipName {
			continue
		}

		source := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		seen[source] = true

		n, skipped, err := l.ImportFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Error("corpus file import failed", slog.String("file", entry.Name()), slog.String("error", err.Error()))
			continue
		}
		if skipped {
			stats.Skipped++
		} else {
			stats.Files++
			stats.Chunks += n
		}
	}

	files, err := l.core.Store().CorpusFileStore().List(l.ctx)
	if err != nil && err != sql.ErrNoRows {
		return stats, errors.New("CorpusLogic.ImportDir.CorpusFileStore.List", i18n.ERROR_INTERNAL, err)
	}
	for _, f := range files {
		if seen[f.Source] {
			continue
		}
		if err := l.RemoveSource(f.Source); err != nil {
			slog.Error("corpus source prune failed", slog.String("source", f.Source), slog.String("error", err.Error()))
			continue
		}
		stats.Pruned++
	}

	return stats, nil
}

// ImportFile replaces one source's chunks wholesale from the file.
// Returns the chunk count and whether the file was skipped unchanged.
// Chunk ids are <source>_doc_<n>; an id that survives the reimport
// keeps its Seq, so re-importing an unchanged line does not move it in
// tie-break order.
func (l *CorpusLogic) ImportFile(path string) (int, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false, errors.New("CorpusLogic.ImportFile.ReadFile", i18n.ERROR_INTERNAL, err)
	}

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sum := utils.SHA256(raw)

	existing, err := l.core.Store().CorpusFileStore().Get(l.ctx, source)
	if err != nil && err != sql.ErrNoRows {
		return 0, false, errors.New("CorpusLogic.ImportFile.CorpusFileStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if existing != nil && existing.SHA256 == sum {
		return 0, true, nil
	}

	contents := corpusLines(string(raw))
	if len(contents) == 0 {
		slog.Warn("corpus file has no usable lines", slog.String("file", path))
	}

	var vectors [][]float32
	if len(contents) > 0 {
		embed, err := l.core.Srv().AI().EmbeddingForDocument(l.ctx, source, contents)
		if err != nil {
			return 0, false, errors.New("CorpusLogic.ImportFile.EmbeddingForDocument", i18n.ERROR_EMBEDDING_UNAVAILABLE, err)
		}
		if len(embed.Data) != len(contents) {
			return 0, false, errors.New("CorpusLogic.ImportFile.EmbeddingForDocument.short", i18n.ERROR_INTERNAL,
				fmt.Errorf("embedded %d of %d lines", len(embed.Data), len(contents)))
		}
		vectors = embed.Data
	}

	oldChunks, err := l.core.Store().KnowledgeChunkStore().List(l.ctx, types.GetKnowledgeChunkOptions{Source: source}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil && err != sql.ErrNoRows {
		return 0, false, errors.New("CorpusLogic.ImportFile.KnowledgeChunkStore.List", i18n.ERROR_INTERNAL, err)
	}
	oldByID := lo.SliceToMap(oldChunks, func(c *types.KnowledgeChunk) (string, *types.KnowledgeChunk) {
		return c.ID, c
	})

	now := time.Now().Unix()
	chunks := make([]*types.KnowledgeChunk, 0, len(contents))
	for i, content := range contents {
		chunk := &types.KnowledgeChunk{
			ID:        fmt.Sprintf("%s_doc_%d", source, i+1),
			Source:    source,
			Content:   content,
			Tags:      types.ChunkTags{source},
			Embedding: pgvector.NewVector(vectors[i]),
			Seq:       utils.GenUniqID(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if old, ok := oldByID[chunk.ID]; ok {
			chunk.Seq = old.Seq
			chunk.CreatedAt = old.CreatedAt
		}
		chunks = append(chunks, chunk)
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().KnowledgeChunkStore().DeleteBySource(ctx, source); err != nil {
			return err
		}
		if err := l.core.Store().KnowledgeChunkStore().BatchCreate(ctx, chunks); err != nil {
			return err
		}
		return l.core.Store().CorpusFileStore().Upsert(ctx, types.CorpusFile{
			Source:     source,
			Path:       path,
			SHA256:     sum,
			ChunkCount: len(chunks),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return 0, false, errors.New("CorpusLogic.ImportFile.Transaction", i18n.ERROR_INTERNAL, err)
	}

	l.core.Index().RemoveBySource(source)
	for _, chunk := range chunks {
		l.core.Index().Upsert(vectorindex.Entry{
			ID:      chunk.ID,
			Source:  chunk.Source,
			Content: chunk.Content,
			Tags:    chunk.Tags,
			Vector:  chunk.Embedding.Slice(),
			Seq:     chunk.Seq,
		})
	}

	l.core.Srv().Audit().CorpusChange(source, fmt.Sprintf("import %d chunks", len(chunks)))
	slog.Info("corpus file imported", slog.String("source", source), slog.Int("chunks", len(chunks)))
	return len(chunks), false, nil
}

// RemoveSource drops a source's chunks from the index, then the store.
// A failed transaction leaves the rows unreachable until the next
// rescan retries the prune.
func (l *CorpusLogic) RemoveSource(source string) error {
	l.core.Index().RemoveBySource(source)

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().KnowledgeChunkStore().DeleteBySource(ctx, source); err != nil {
			return err
		}
		return l.core.Store().CorpusFileStore().Delete(ctx, source)
	})
	if err != nil {
		return errors.New("CorpusLogic.RemoveSource.Transaction", i18n.ERROR_INTERNAL, err)
	}

	l.core.Srv().Audit().CorpusChange(source, "pruned")
	return nil
}

func corpusLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < MIN_CHUNK_RUNES {
			continue
		}
		out = append(out, line)
	}
	return out
}
