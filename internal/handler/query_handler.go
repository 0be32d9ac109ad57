package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/eventkb/internal/model"
	"github.com/xxxsen/eventkb/internal/pkg/errcode"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/pkg/response"
	"github.com/xxxsen/eventkb/internal/service"
)

type QueryHandler struct {
	queries *service.QueryService
}

func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	resp, err := h.queries.Handle(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, appErr.ErrKnowledgeBaseNotFound) {
			response.KnowledgeBaseNotFound(c, req.EventID)
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
