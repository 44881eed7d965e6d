package engine

import (
	"fmt"
	"time"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
)

// WindowStats is the trailing-window aggregate for one apartment. Nil
// averages mean no samples; zero samples never report as zero-valued
// averages.
type WindowStats struct {
	SampleCount int      `json:"sample_count"`
	AvgPrice    *float64 `json:"avg_price,omitempty"`
	AvgArea     *float64 `json:"avg_area,omitempty"`
}

// Aggregate computes the arithmetic mean of price and exclusive area over
// valid transactions of one apartment with contract dates inside
// [windowEnd - months, windowEnd], inclusive on both ends. Price means the
// sale price for sales and the deposit for rents, so the kind is explicit.
// An unknown apartment yields zero samples, not an error.
func (e *Engine) Aggregate(aptID int64, kind market.TradeKind, windowEnd time.Time, months int) (WindowStats, error) {
	if months <= 0 {
		return WindowStats{}, fmt.Errorf("window length %d months: %w", months, apperrors.ErrInvalidFilter)
	}
	windowStart := windowEnd.AddDate(0, -months, 0)

	e.mu.RLock()
	defer e.mu.RUnlock()

	var sumPrice, sumArea float64
	n := 0
	take := func(rec market.TradeRecord) {
		if rec.Kind != kind {
			return
		}
		if !e.visibleLocked(rec) {
			return
		}
		sumPrice += float64(rec.Price)
		sumArea += rec.ExclusiveArea
		n++
	}

	served := false
	if !e.byApt.corrupt.Load() {
		healthy := true
		e.byApt.tree.AscendRange(
			aptPivotLow(aptID, negDay(windowEnd)),
			aptPivotHigh(aptID, negDay(windowStart)),
			func(it tradeItem) bool {
				rec, found := e.trades[market.TradeID{Kind: it.Kind, TransID: it.TransID}]
				if !found {
					e.byApt.corrupt.Store(true)
					healthy = false
					return false
				}
				take(*rec)
				return true
			})
		served = healthy
		if !healthy {
			sumPrice, sumArea, n = 0, 0, 0
		}
	}
	if !served {
		loDay, hiDay := dayNumber(windowStart), dayNumber(windowEnd)
		for id := range e.aptTrades[aptID] {
			rec := e.trades[id]
			if rec == nil {
				continue
			}
			day := dayNumber(rec.ContractDate)
			if day < loDay || day > hiDay {
				continue
			}
			take(*rec)
		}
	}

	stats := WindowStats{SampleCount: n}
	if n > 0 {
		avgPrice := sumPrice / float64(n)
		avgArea := sumArea / float64(n)
		stats.AvgPrice = &avgPrice
		stats.AvgArea = &avgArea
	}
	return stats, nil
}

// VolumePoint is one month's count of valid transactions.
type VolumePoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthlyVolume counts visible transactions of one kind per YYYYMM bucket
// across a region, zero-filling months with no trades. It rides on Search,
// so index selection, validity and corruption fallback behave exactly as
// they do for queries.
func (e *Engine) MonthlyVolume(regionID int64, kind market.TradeKind, fromYM, toYM string) ([]VolumePoint, error) {
	from, err := parseYM(fromYM)
	if err != nil {
		return nil, err
	}
	to, err := parseYM(toYM)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("month range %s..%s inverted: %w", fromYM, toYM, apperrors.ErrInvalidFilter)
	}

	first := from
	last := to.AddDate(0, 1, -1)
	recs, err := e.Search(Filter{
		RegionID: &regionID,
		Kind:     &kind,
		DateFrom: &first,
		DateTo:   &last,
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, rec := range recs {
		counts[rec.ContractDate.UTC().Format("200601")]++
	}

	var points []VolumePoint
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 1, 0) {
		key := cur.Format("200601")
		points = append(points, VolumePoint{Month: key, Count: counts[key]})
	}
	return points, nil
}

func parseYM(s string) (time.Time, error) {
	if len(s) != 6 {
		return time.Time{}, fmt.Errorf("month %q not in YYYYMM form: %w", s, apperrors.ErrInvalidFilter)
	}
	t, err := time.ParseInLocation("200601", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q not in YYYYMM form: %w", s, apperrors.ErrInvalidFilter)
	}
	return t, nil
}
