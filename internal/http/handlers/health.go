package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aptscope/aptscope-backend/internal/services"
)

type HealthHandler struct {
	engine services.EngineService
}

func NewHealthHandler(engine services.EngineService) *HealthHandler {
	return &HealthHandler{engine: engine}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.engine == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"engine": h.engine.Health(),
	})
}
