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

type CreateChatMessageRequest struct {
	// Message is validated by the chat pipeline so empty input maps to
	// its own error, not a generic binding failure.
	Message string `json:"message"`
}

func (s *HttpSrv) CreateChatMessage(c *gin.Context) {
	sessionID, _ := c.Params.Get("session")
	if sessionID == "" {
		response.APIError(c, errors.New("api.CreateChatMessage", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	var req CreateChatMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewChatLogic(c, s.Core).HandleMessage(sessionID, req.Message)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, result)
}

type UpdateChatSessionPersonaRequest struct {
	Persona string `json:"persona" binding:"required"`
}

// UpdateChatSessionPersona switches the template the session answers
// with, creating the session when it does not exist yet.
func (s *HttpSrv) UpdateChatSessionPersona(c *gin.Context) {
	sessionID, _ := c.Params.Get("session")
	if sessionID == "" {
		response.APIError(c, errors.New("api.UpdateChatSessionPersona", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	var req UpdateChatSessionPersonaRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	session, err := v1.NewChatSessionLogic(c, s.Core).GetOrCreateSession(sessionID, req.Persona)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, session)
}

func (s *HttpSrv) GetChatSession(c *gin.Context) {
	sessionID, _ := c.Params.Get("session")
	if sessionID == "" {
		response.APIError(c, errors.New("api.GetChatSession", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	session, err := v1.NewChatSessionLogic(c, s.Core).GetSession(sessionID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, session)
}

type GetChatSessionHistoryRequest struct {
	Turns int `json:"turns" form:"turns"`
}

type GetChatSessionHistoryResponse struct {
	List []*types.ChatMessage `json:"list"`
}

func (s *HttpSrv) GetChatSessionHistory(c *gin.Context) {
	sessionID, _ := c.Params.Get("session")
	if sessionID == "" {
		response.APIError(c, errors.New("api.GetChatSessionHistory", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	var req GetChatSessionHistoryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewChatSessionLogic(c, s.Core)
	if _, err := logic.GetSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}

	turns := req.Turns
	if turns <= 0 {
		turns = s.Core.Cfg().Chat.Turns()
	}

	list, err := logic.History(sessionID, turns)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, GetChatSessionHistoryResponse{
		List: list,
	})
}

func (s *HttpSrv) ResetChatSession(c *gin.Context) {
	sessionID, _ := c.Params.Get("session")
	if sessionID == "" {
		response.APIError(c, errors.New("api.ResetChatSession", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	if err := v1.NewChatSessionLogic(c, s.Core).ResetSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.EmptyStruct{})
}
