package handlers

import (
	"net/http"

	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	store *store.TaskStore
}

func NewStatsHandler(st *store.TaskStore) *StatsHandler {
	return &StatsHandler{store: st}
}

// GetStats recomputes the summary from current state on every request.
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}
