package v1

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trellis-ai/trellis-ai/app/core"
	"github.com/trellis-ai/trellis-ai/pkg/ai"
	"github.com/trellis-ai/trellis-ai/pkg/errors"
	"github.com/trellis-ai/trellis-ai/pkg/i18n"
	"github.com/trellis-ai/trellis-ai/pkg/types"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
)

// enhanceCache keeps recent query rewrites. The same question arrives
// over and over across sessions, one model call per phrasing is enough.
var enhanceCache = cache.New(10*time.Minute, 15*time.Minute)

const ENHANCE_TIMEOUT = time.Second * 15

// enhance history context stays short, the rewrite only needs the
// immediately preceding exchange for pronoun resolution.
const ENHANCE_HISTORY_TURNS = 6

type RetrieverLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewRetrieverLogic(ctx context.Context, core *core.Core) *RetrieverLogic {
	return &RetrieverLogic{
		ctx:  ctx,
		core: core,
	}
}

// Retrieve runs the retrieval stage for one user message: optional
// query enhancement, query embedding, index search. Result.Query is
// always the original user text, the rewrite only steers the search.
// Casual small talk returns an empty result without touching the index.
func (l *RetrieverLogic) Retrieve(query string, history []*types.ChatMessage, tagFilter []string) (types.RetrievalResult, error) {
	result := types.RetrievalResult{Query: query}

	searchText := query
	if l.core.Srv().AI().EnhanceUsable() {
		enhanced := l.enhanceQuery(query, history)
		if enhanced.Casual {
			slog.Debug("casual chat, retrieval skipped", slog.String("query", query))
			return result, nil
		}
		searchText = enhanced.RetrievalQuery()
	}

	embed, err := l.core.Srv().AI().EmbeddingForQuery(l.ctx, []string{searchText})
	if err != nil {
		return result, errors.New("RetrieverLogic.Retrieve.EmbeddingForQuery", i18n.ERROR_EMBEDDING_UNAVAILABLE, err)
	}
	if len(embed.Data) == 0 {
		return result, errors.New("RetrieverLogic.Retrieve.EmbeddingForQuery.empty", i18n.ERROR_EMBEDDING_UNAVAILABLE, nil)
	}

	opts := l.core.Cfg().Retrieve.Options()
	if len(tagFilter) > 0 {
		opts.TagFilter = tagFilter
	}

	result.Chunks = l.core.Index().Search(embed.Data[0], opts)
	return result, nil
}

// enhanceQuery rewrites the query in english for the embedding lookup.
// Failures fall back to the original text, enhancement never blocks a
// message.
func (l *RetrieverLogic) enhanceQuery(query string, history []*types.ChatMessage) ai.EnhanceQueryResult {
	if utils.IsEnglish(query) {
		return ai.EnhanceQueryResult{Original: query}
	}

	key := normalizeQuery(query)
	if cached, ok := enhanceCache.Get(key); ok {
		res := cached.(ai.EnhanceQueryResult)
		res.Original = query
		return res
	}

	ctx, cancel := context.WithTimeout(l.ctx, ENHANCE_TIMEOUT)
	defer cancel()

	if len(history) > ENHANCE_HISTORY_TURNS {
		history = history[len(history)-ENHANCE_HISTORY_TURNS:]
	}

	res, err := l.core.Srv().AI().NewEnhance(ctx).WithHistories(history).EnhanceQuery(query)
	if err != nil {
		slog.Error("query enhance failed, using the original query", slog.String("query", query), slog.String("error", err.Error()))
		return ai.EnhanceQueryResult{Original: query}
	}

	enhanceCache.Set(key, res, cache.DefaultExpiration)
	return res
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
