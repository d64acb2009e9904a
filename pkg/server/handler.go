package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikeboe/tradewise/pkg/product"
	"github.com/mikeboe/tradewise/pkg/search"
)

type Handler struct {
	Service *Service
	MCP     http.Handler
	Logger  *zap.Logger
}

func NewHandler(s *Service, mcpHandler http.Handler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: s, MCP: mcpHandler, Logger: logger}
}

type SearchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.index)
	r.GET("/health", h.health)

	if h.MCP != nil {
		r.Any("/mcp", gin.WrapH(h.MCP))
	}

	api := r.Group("/api")
	{
		api.POST("/workspaces", h.createWorkspace)
		api.GET("/workspaces", h.listWorkspaces)
		api.GET("/workspaces/:id", h.getWorkspace)
		api.DELETE("/workspaces/:id", h.deleteWorkspace)
		api.POST("/workspaces/:id/search", h.search)
		api.GET("/workspaces/:id/events", h.events)
	}
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"ValidationMessage": product.ValidationMessage,
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) createWorkspace(c *gin.Context) {
	ws := h.Service.CreateWorkspace()
	c.JSON(http.StatusCreated, ws)
}

func (h *Handler) listWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.ListWorkspaces())
}

func (h *Handler) getWorkspace(c *gin.Context) {
	ws, ok := h.lookupWorkspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Orchestrator().Snapshot())
}

func (h *Handler) deleteWorkspace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}
	if err := h.Service.DeleteWorkspace(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) search(c *gin.Context) {
	ws, ok := h.lookupWorkspace(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := ws.Orchestrator().Search(c.Request.Context(), req.Query)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, snap)
	case errors.Is(err, product.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": product.ValidationMessage})
	case errors.Is(err, search.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": search.GenericFailureMessage})
	}
}

// events streams every published snapshot of a workspace as server-sent events.
func (h *Handler) events(c *gin.Context) {
	ws, ok := h.lookupWorkspace(c)
	if !ok {
		return
	}

	updates, cancel := ws.Orchestrator().Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			data, err := json.Marshal(snap)
			if err != nil {
				h.Logger.Error("Failed to encode snapshot", zap.Error(err))
				return
			}
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Handler) lookupWorkspace(c *gin.Context) (*Workspace, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return nil, false
	}

	ws, err := h.Service.GetWorkspace(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return ws, true
}
