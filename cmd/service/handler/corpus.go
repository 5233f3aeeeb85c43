package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/trellis-ai/trellis-ai/app/logic/v1"
	"github.com/trellis-ai/trellis-ai/app/response"
	"github.com/trellis-ai/trellis-ai/pkg/errors"
	"github.com/trellis-ai/trellis-ai/pkg/i18n"
	"github.com/trellis-ai/trellis-ai/pkg/types"
	"github.com/trellis-ai/trellis-ai/pkg/utils"
)

func (s *HttpSrv) PutCorpusChunk(c *gin.Context) {
	var req types.PutChunkArgs
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	chunk, err := v1.NewCorpusLogic(c, s.Core).PutChunk(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, chunk)
}

func (s *HttpSrv) GetCorpusChunk(c *gin.Context) {
	id, _ := c.Params.Get("id")
	if id == "" {
		response.APIError(c, errors.New("api.GetCorpusChunk", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	chunk, err := v1.NewCorpusLogic(c, s.Core).GetChunk(id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, chunk)
}

func (s *HttpSrv) DeleteCorpusChunk(c *gin.Context) {
	id, _ := c.Params.Get("id")
	if id == "" {
		response.APIError(c, errors.New("api.DeleteCorpusChunk", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	if err := v1.NewCorpusLogic(c, s.Core).RemoveChunk(id); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.EmptyStruct{})
}

type ListCorpusChunksRequest struct {
	Page     uint64 `json:"page" form:"page" binding:"required"`
	PageSize uint64 `json:"pagesize" form:"pagesize" binding:"required"`
	Source   string `json:"source" form:"source"`
}

type ListCorpusChunksResponse struct {
	List  []*types.KnowledgeChunk `json:"list"`
	Total int64                   `json:"total"`
}

func (s *HttpSrv) ListCorpusChunks(c *gin.Context) {
	var req ListCorpusChunksRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewCorpusLogic(c, s.Core).ListChunks(req.Source, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, ListCorpusChunksResponse{
		List:  list,
		Total: total,
	})
}

type QueryCorpusRequest struct {
	Query     string   `json:"query" binding:"required"`
	TagFilter []string `json:"tag_filter"`
	K         int      `json:"k"`
}

func (s *HttpSrv) QueryCorpus(c *gin.Context) {
	var req QueryCorpusRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewCorpusLogic(c, s.Core).QueryChunks(req.Query, req.TagFilter, req.K)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, result)
}

type ImportCorpusRequest struct {
	// Dir falls back to the configured corpus directory.
	Dir string `json:"dir"`
}

func (s *HttpSrv) ImportCorpus(c *gin.Context) {
	var req ImportCorpusRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	dir := req.Dir
	if dir == "" {
		dir = s.Core.Cfg().Corpus.Dir
	}
	if dir == "" {
		response.APIError(c, errors.New("api.ImportCorpus.dir", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	stats, err := v1.NewCorpusLogic(c, s.Core).ImportDir(dir)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, stats)
}

// ReloadCorpus rebuilds the in-memory index from the store in one swap.
func (s *HttpSrv) ReloadCorpus(c *gin.Context) {
	if err := v1.NewCorpusLogic(c, s.Core).Reload(); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.EmptyStruct{})
}
