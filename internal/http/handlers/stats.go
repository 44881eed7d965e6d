package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/engine"
	"github.com/aptscope/aptscope-backend/internal/http/response"
	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
	"github.com/aptscope/aptscope-backend/internal/services"
)

const (
	defaultStatsMonths   = 3
	defaultRVOLMonths    = 6
	defaultRVOLLookback  = 3
	defaultQuadrantSpan  = 6
	defaultVolumesMonths = 12
)

type StatsHandler struct {
	trades services.TradeService
	stats  services.StatsService
}

func NewStatsHandler(trades services.TradeService, stats services.StatsService) *StatsHandler {
	return &StatsHandler{trades: trades, stats: stats}
}

// ApartmentStats answers GET /api/apartments/:id/stats with the trailing
// window average price and area. An apartment nobody traded in reports
// zero samples rather than 404.
func (h *StatsHandler) ApartmentStats(c *gin.Context) {
	aptID, err := pathInt64(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	kind, err := queryKind(c, types.TradeSale)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	months, err := queryIntDefault(c, "months", defaultStatsMonths)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	end, err := queryDate(c, "end")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	windowEnd := time.Now()
	if end != nil {
		windowEnd = *end
	}
	stats, err := h.trades.ApartmentStats(c.Request.Context(), aptID, kind, windowEnd, months)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"apt_id": aptID,
		"kind":   kind.String(),
		"months": months,
		"end":    windowEnd.Format("2006-01-02"),
		"stats":  stats,
	})
}

// RegionVolumes answers GET /api/regions/:id/volumes with the month by
// month transaction count. Absent bounds cover the trailing year.
func (h *StatsHandler) RegionVolumes(c *gin.Context) {
	regionID, err := pathInt64(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	kind, err := queryKind(c, types.TradeSale)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	fromYM := c.Query("from")
	toYM := c.Query("to")
	if toYM == "" {
		toYM = time.Now().Format("200601")
	}
	if fromYM == "" {
		end, perr := time.ParseInLocation("200601", toYM, time.UTC)
		if perr != nil {
			response.RespondServiceError(c, fmt.Errorf("to=%q is not a YYYYMM month: %w", toYM, apperrors.ErrInvalidFilter))
			return
		}
		fromYM = end.AddDate(0, -(defaultVolumesMonths - 1), 0).Format("200601")
	}
	points, err := h.stats.Volumes(c.Request.Context(), regionID, kind, fromYM, toYM)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if points == nil {
		points = []engine.VolumePoint{}
	}
	response.RespondOK(c, gin.H{
		"region_id": regionID,
		"kind":      kind.String(),
		"data":      points,
	})
}

// RegionRVOL answers GET /api/regions/:id/rvol with each month's volume
// relative to its trailing average.
func (h *StatsHandler) RegionRVOL(c *gin.Context) {
	regionID, err := pathInt64(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	kind, err := queryKind(c, types.TradeSale)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	months, err := queryIntDefault(c, "months", defaultRVOLMonths)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	lookback, err := queryIntDefault(c, "lookback", defaultRVOLLookback)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	series, err := h.stats.RVOL(c.Request.Context(), regionID, kind, months, lookback, c.Query("end"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, series)
}

// RegionQuadrant answers GET /api/regions/:id/quadrant, classifying each
// month by the direction of its sale and rent volume change.
func (h *StatsHandler) RegionQuadrant(c *gin.Context) {
	regionID, err := pathInt64(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	months, err := queryIntDefault(c, "months", defaultQuadrantSpan)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	series, err := h.stats.Quadrant(c.Request.Context(), regionID, months, c.Query("end"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, series)
}

func pathInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer: %w", name, raw, apperrors.ErrInvalidFilter)
	}
	return v, nil
}

func queryKind(c *gin.Context, def types.TradeKind) (types.TradeKind, error) {
	raw := c.Query("kind")
	if raw == "" {
		return def, nil
	}
	kind, ok := types.ParseTradeKind(raw)
	if !ok {
		return def, fmt.Errorf("unknown trade kind %q: %w", raw, apperrors.ErrInvalidFilter)
	}
	return kind, nil
}

func queryIntDefault(c *gin.Context, name string, def int) (int, error) {
	v, err := queryInt(c, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}
