package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

type GraphHandler struct {
	log    *logger.Logger
	graphs *knowledge.Store
}

func NewGraphHandler(log *logger.Logger, graphs *knowledge.Store) *GraphHandler {
	return &GraphHandler{
		log:    log.With("handler", "GraphHandler"),
		graphs: graphs,
	}
}

// GET /api/graph/search?q=...
func (h *GraphHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("q is required"))
		return
	}
	g := h.graphs.Graph()
	results := g.Search(q)
	RespondOK(c, gin.H{
		"query":   q,
		"results": results,
	})
}

// GET /api/graph/stats
func (h *GraphHandler) Stats(c *gin.Context) {
	g := h.graphs.Graph()
	RespondOK(c, gin.H{
		"nodes":    g.NodeCount(),
		"edges":    g.EdgeCount(),
		"clusters": g.ClusterCount(),
	})
}

// POST /api/graph/reload
// Rebuilds the graph off to the side and swaps it in atomically. The
// previous graph keeps serving if the rebuild fails.
func (h *GraphHandler) Reload(c *gin.Context) {
	if err := h.graphs.Reload(c.Request.Context()); err != nil {
		RespondError(c, http.StatusInternalServerError, "reload_failed", err)
		return
	}
	g := h.graphs.Graph()
	RespondOK(c, gin.H{
		"reloaded": true,
		"nodes":    g.NodeCount(),
		"edges":    g.EdgeCount(),
	})
}
