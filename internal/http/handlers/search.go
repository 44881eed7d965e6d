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

type SearchHandler struct {
	trades services.TradeService
}

func NewSearchHandler(trades services.TradeService) *SearchHandler {
	return &SearchHandler{trades: trades}
}

// Search answers GET /api/search. Every predicate is optional and ANDed;
// unknown region or apartment ids produce an empty result set, not an
// error. Malformed parameters come back as 400 invalid_filter.
func (h *SearchHandler) Search(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	recs, err := h.trades.Search(c.Request.Context(), f)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if recs == nil {
		recs = []types.TradeRecord{}
	}
	response.RespondOK(c, gin.H{"data": recs, "count": len(recs)})
}

func filterFromQuery(c *gin.Context) (engine.Filter, error) {
	var f engine.Filter
	var err error

	if f.RegionID, err = queryInt64(c, "region_id"); err != nil {
		return f, err
	}
	if f.AptID, err = queryInt64(c, "apt_id"); err != nil {
		return f, err
	}
	if raw := c.Query("kind"); raw != "" {
		kind, ok := types.ParseTradeKind(raw)
		if !ok {
			return f, fmt.Errorf("unknown trade kind %q: %w", raw, apperrors.ErrInvalidFilter)
		}
		f.Kind = &kind
	}
	if f.DateFrom, err = queryDate(c, "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDate(c, "date_to"); err != nil {
		return f, err
	}
	if f.PriceMin, err = queryInt64(c, "price_min"); err != nil {
		return f, err
	}
	if f.PriceMax, err = queryInt64(c, "price_max"); err != nil {
		return f, err
	}
	if f.AreaMin, err = queryFloat(c, "area_min"); err != nil {
		return f, err
	}
	if f.AreaMax, err = queryFloat(c, "area_max"); err != nil {
		return f, err
	}
	if f.MaxTransitMinutes, err = queryInt(c, "max_transit_minutes"); err != nil {
		return f, err
	}
	if f.MinHouseholds, err = queryInt(c, "min_households"); err != nil {
		return f, err
	}
	if raw := c.Query("education"); raw != "" {
		want, perr := strconv.ParseBool(raw)
		if perr != nil {
			return f, fmt.Errorf("education flag %q: %w", raw, apperrors.ErrInvalidFilter)
		}
		f.RequireEducation = want
	}
	switch raw := c.Query("sort"); raw {
	case "", "date":
		f.Sort = engine.SortByDate
	case "price":
		f.Sort = engine.SortByPrice
	default:
		return f, fmt.Errorf("unknown sort %q: %w", raw, apperrors.ErrInvalidFilter)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return f, err
	}
	if limit != nil {
		if *limit < 0 {
			return f, fmt.Errorf("limit %d negative: %w", *limit, apperrors.ErrInvalidFilter)
		}
		f.Limit = *limit
	}
	return f, nil
}

func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not an integer: %w", name, raw, apperrors.ErrInvalidFilter)
	}
	return &v, nil
}

func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not an integer: %w", name, raw, apperrors.ErrInvalidFilter)
	}
	return &v, nil
}

func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not a number: %w", name, raw, apperrors.ErrInvalidFilter)
	}
	return &v, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	// Contract dates are stored as UTC midnights; parse the bound the
	// same way so the day comparison never straddles a zone boundary.
	v, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not a YYYY-MM-DD date: %w", name, raw, apperrors.ErrInvalidFilter)
	}
	return &v, nil
}
