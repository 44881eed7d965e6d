package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/http/response"
	"github.com/aptscope/aptscope-backend/internal/services"
)

type AdminHandler struct {
	engine services.EngineService
	ingest services.IngestService
}

func NewAdminHandler(engine services.EngineService, ingest services.IngestService) *AdminHandler {
	return &AdminHandler{engine: engine, ingest: ingest}
}

// Rebuild reloads the whole engine snapshot from the store. The swap is
// all or nothing, so a failed rebuild leaves the serving state untouched.
func (h *AdminHandler) Rebuild(c *gin.Context) {
	if err := h.engine.Rebuild(c.Request.Context()); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "engine": h.engine.Health()})
}

type importRequest struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Import ingests a MOLIT portal workbook already present on the server's
// filesystem. Kind selects the sale or rent sheet layout.
func (h *AdminHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Path == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("path is required"))
		return
	}
	kind, ok := types.ParseTradeKind(req.Kind)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("unknown trade kind %q", req.Kind))
		return
	}

	var (
		run *types.CollectionRun
		err error
	)
	switch kind {
	case types.TradeSale:
		run, err = h.ingest.ImportSalesWorkbook(c.Request.Context(), req.Path)
	default:
		run, err = h.ingest.ImportRentsWorkbook(c.Request.Context(), req.Path)
	}
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "run": run})
}

// Runs lists recent collection and import passes, newest first.
func (h *AdminHandler) Runs(c *gin.Context) {
	limit, err := queryIntDefault(c, "limit", 20)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	runs, err := h.ingest.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs, "count": len(runs)})
}
