package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/eventkb/internal/pkg/errcode"
	"github.com/xxxsen/eventkb/internal/pkg/response"
	"github.com/xxxsen/eventkb/internal/service"
)

type SourceHandler struct {
	sources *service.SourceService
}

func NewSourceHandler(sources *service.SourceService) *SourceHandler {
	return &SourceHandler{sources: sources}
}

type createSourceRequest struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *SourceHandler) Create(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	src, err := h.sources.Create(c.Request.Context(), c.Param("event_id"), service.CreateSourceInput{
		Title:   req.Title,
		Type:    req.Type,
		Content: req.Content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, src)
}

func (h *SourceHandler) List(c *gin.Context) {
	sources, err := h.sources.List(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sources)
}

func (h *SourceHandler) Get(c *gin.Context) {
	src, err := h.sources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, src)
}
