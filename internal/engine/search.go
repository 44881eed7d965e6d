package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
)

// SortKey selects the stable output order. The default is contract date
// descending with transaction id ascending as tie-break (sales before
// rents on a full collision); SortByPrice orders by price ascending with
// the same tie-break chain behind it.
type SortKey uint8

const (
	SortByDate SortKey = iota
	SortByPrice
)

// Filter enumerates the optional predicates of one search. Nil pointers
// impose no constraint; supplied predicates are ANDed. Date bounds are
// inclusive at day granularity, price applies to the sale price or rent
// deposit, and a transit bound only ever matches apartments whose detail
// row yielded a parsed minute value.
type Filter struct {
	RegionID          *int64
	AptID             *int64
	Kind              *market.TradeKind
	DateFrom          *time.Time
	DateTo            *time.Time
	PriceMin          *int64
	PriceMax          *int64
	AreaMin           *float64
	AreaMax           *float64
	MaxTransitMinutes *int
	MinHouseholds     *int
	RequireEducation  bool
	Sort              SortKey
	Limit             int
}

func (f Filter) validate() error {
	if f.DateFrom != nil && f.DateTo != nil && dayNumber(*f.DateFrom) > dayNumber(*f.DateTo) {
		return fmt.Errorf("date range %s..%s inverted: %w",
			f.DateFrom.Format("2006-01-02"), f.DateTo.Format("2006-01-02"), apperrors.ErrInvalidFilter)
	}
	if f.PriceMin != nil && *f.PriceMin < 0 {
		return fmt.Errorf("price lower bound %d negative: %w", *f.PriceMin, apperrors.ErrInvalidFilter)
	}
	if f.PriceMax != nil && *f.PriceMax < 0 {
		return fmt.Errorf("price upper bound %d negative: %w", *f.PriceMax, apperrors.ErrInvalidFilter)
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return fmt.Errorf("price range [%d, %d] inverted: %w", *f.PriceMin, *f.PriceMax, apperrors.ErrInvalidFilter)
	}
	if f.AreaMin != nil && *f.AreaMin < 0 {
		return fmt.Errorf("area lower bound %g negative: %w", *f.AreaMin, apperrors.ErrInvalidFilter)
	}
	if f.AreaMax != nil && *f.AreaMax < 0 {
		return fmt.Errorf("area upper bound %g negative: %w", *f.AreaMax, apperrors.ErrInvalidFilter)
	}
	if f.AreaMin != nil && f.AreaMax != nil && *f.AreaMin > *f.AreaMax {
		return fmt.Errorf("area range [%g, %g] inverted: %w", *f.AreaMin, *f.AreaMax, apperrors.ErrInvalidFilter)
	}
	if f.MaxTransitMinutes != nil && *f.MaxTransitMinutes < 0 {
		return fmt.Errorf("transit bound %d negative: %w", *f.MaxTransitMinutes, apperrors.ErrInvalidFilter)
	}
	if f.MinHouseholds != nil && *f.MinHouseholds < 0 {
		return fmt.Errorf("household bound %d negative: %w", *f.MinHouseholds, apperrors.ErrInvalidFilter)
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit %d negative: %w", f.Limit, apperrors.ErrInvalidFilter)
	}
	return nil
}

// matchesLocked re-checks validity and the full predicate set for one
// candidate. Every execution path runs it on every emitted record, so a
// planner change can never alter result membership.
func (e *Engine) matchesLocked(f Filter, rec market.TradeRecord) bool {
	if !e.validity.IsValid(rec) {
		return false
	}
	a := e.apts[rec.AptID]
	if a == nil || a.deleted {
		return false
	}
	if f.AptID != nil && rec.AptID != *f.AptID {
		return false
	}
	if f.RegionID != nil && a.regionID != *f.RegionID {
		return false
	}
	if f.Kind != nil && rec.Kind != *f.Kind {
		return false
	}
	day := dayNumber(rec.ContractDate)
	if f.DateFrom != nil && day < dayNumber(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && day > dayNumber(*f.DateTo) {
		return false
	}
	if f.PriceMin != nil && rec.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && rec.Price > *f.PriceMax {
		return false
	}
	if f.AreaMin != nil && rec.ExclusiveArea < *f.AreaMin {
		return false
	}
	if f.AreaMax != nil && rec.ExclusiveArea > *f.AreaMax {
		return false
	}
	d := e.details[rec.AptID]
	if f.MaxTransitMinutes != nil {
		if d == nil || !d.hasMinutes || d.minutes > *f.MaxTransitMinutes {
			return false
		}
	}
	if f.MinHouseholds != nil {
		if d == nil || d.households < *f.MinHouseholds {
			return false
		}
	}
	if f.RequireEducation {
		if d == nil || !d.hasEducation {
			return false
		}
	}
	return true
}

type planKind uint8

const (
	planScan planKind = iota
	planApt
	planTransit
	planRegion
	planDate
)

// choosePlanLocked scores each healthy index by how many of its leading
// key fields the filter constrains; the highest score wins and ties go to
// the index whose emission order already matches the requested sort. Score
// zero means no index applies and the query takes the full scan.
func (e *Engine) choosePlanLocked(f Filter) (planKind, bool) {
	type cand struct {
		kind   planKind
		score  int
		sorted bool
	}
	var cands []cand

	hasDate := f.DateFrom != nil || f.DateTo != nil
	if f.AptID != nil && !e.byApt.corrupt.Load() {
		score := 1
		if hasDate {
			score++
		}
		cands = append(cands, cand{planApt, score, f.Sort == SortByDate})
	}
	if f.MaxTransitMinutes != nil && !e.byTransit.corrupt.Load() {
		score := 1
		sorted := false
		if f.AptID != nil {
			score++
			if hasDate {
				score++
			}
			sorted = f.Sort == SortByDate
		}
		cands = append(cands, cand{planTransit, score, sorted})
	}
	if f.AptID == nil && f.RegionID != nil && !e.byRegion.corrupt.Load() && !e.byApt.corrupt.Load() {
		cands = append(cands, cand{planRegion, 1, false})
	}
	if hasDate && !e.byDate.corrupt.Load() {
		score := 1
		if f.PriceMin != nil || f.PriceMax != nil {
			score++
			if f.AreaMin != nil || f.AreaMax != nil {
				score++
			}
		}
		cands = append(cands, cand{planDate, score, false})
	}

	best := cand{planScan, 0, false}
	for _, c := range cands {
		if c.score > best.score || (c.score == best.score && c.sorted && !best.sorted) {
			best = c
		}
	}
	return best.kind, best.sorted
}

// Search returns every visible record satisfying the filter, in the
// requested stable order. Malformed ranges fail with ErrInvalidFilter
// before any index is consulted; unknown region or apartment ids yield an
// empty result. If an index turns out to violate its base-store invariant
// mid-walk it is flagged corrupt and the query is re-served from the scan
// path.
func (e *Engine) Search(f Filter) ([]market.TradeRecord, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	kind, presorted := e.choosePlanLocked(f)
	recs, ok := e.collectLocked(kind, f, presorted)
	if !ok {
		recs = e.scanLocked(f)
		presorted = false
	}
	if !presorted {
		sortRecords(recs, f.Sort)
	}
	if f.Limit > 0 && len(recs) > f.Limit {
		recs = recs[:f.Limit]
	}
	return recs, nil
}

func (e *Engine) collectLocked(kind planKind, f Filter, presorted bool) ([]market.TradeRecord, bool) {
	switch kind {
	case planApt:
		return e.collectAptLocked(e.byApt, *f.AptID, f, presorted)
	case planTransit:
		if f.AptID != nil {
			return e.collectAptLocked(e.byTransit, *f.AptID, f, presorted)
		}
		return e.collectTransitLocked(f)
	case planRegion:
		return e.collectRegionLocked(f)
	case planDate:
		return e.collectDateLocked(f)
	default:
		return e.scanLocked(f), true
	}
}

func negDayBounds(f Filter) (int32, int32) {
	lo := int32(math.MinInt32 + 1)
	hi := int32(math.MaxInt32 - 1)
	if f.DateTo != nil {
		lo = negDay(*f.DateTo)
	}
	if f.DateFrom != nil {
		hi = negDay(*f.DateFrom)
	}
	return lo, hi
}

func (e *Engine) collectAptLocked(tt *tradeTree, aptID int64, f Filter, presorted bool) ([]market.TradeRecord, bool) {
	ndLo, ndHi := negDayBounds(f)
	out := make([]market.TradeRecord, 0, 16)
	healthy := true
	tt.tree.AscendRange(aptPivotLow(aptID, ndLo), aptPivotHigh(aptID, ndHi), func(it tradeItem) bool {
		rec, found := e.trades[market.TradeID{Kind: it.Kind, TransID: it.TransID}]
		if !found {
			tt.corrupt.Store(true)
			healthy = false
			return false
		}
		if e.matchesLocked(f, *rec) {
			out = append(out, *rec)
			if presorted && f.Limit > 0 && len(out) >= f.Limit {
				return false
			}
		}
		return true
	})
	if !healthy {
		return nil, false
	}
	return out, true
}

func (e *Engine) collectTransitLocked(f Filter) ([]market.TradeRecord, bool) {
	out := make([]market.TradeRecord, 0, 16)
	healthy := true
	e.byTransit.tree.Ascend(func(it tradeItem) bool {
		rec, found := e.trades[market.TradeID{Kind: it.Kind, TransID: it.TransID}]
		if !found {
			e.byTransit.corrupt.Store(true)
			healthy = false
			return false
		}
		if e.matchesLocked(f, *rec) {
			out = append(out, *rec)
		}
		return true
	})
	if !healthy {
		return nil, false
	}
	return out, true
}

func (e *Engine) collectRegionLocked(f Filter) ([]market.TradeRecord, bool) {
	out := make([]market.TradeRecord, 0, 16)
	healthy := true
	e.byRegion.tree.AscendRange(regionPivotLow(*f.RegionID), regionPivotHigh(*f.RegionID), func(ri regionItem) bool {
		a := e.apts[ri.AptID]
		if a == nil || a.deleted || a.regionID != ri.RegionID {
			e.byRegion.corrupt.Store(true)
			healthy = false
			return false
		}
		sub, ok := e.collectAptLocked(e.byApt, ri.AptID, f, false)
		if !ok {
			healthy = false
			return false
		}
		out = append(out, sub...)
		return true
	})
	if !healthy {
		return nil, false
	}
	return out, true
}

func (e *Engine) collectDateLocked(f Filter) ([]market.TradeRecord, bool) {
	ndLo, ndHi := negDayBounds(f)
	out := make([]market.TradeRecord, 0, 16)
	healthy := true
	e.byDate.tree.AscendRange(datePivotLow(ndLo), datePivotHigh(ndHi), func(it dateItem) bool {
		rec, found := e.trades[market.TradeID{Kind: it.Kind, TransID: it.TransID}]
		if !found {
			e.byDate.corrupt.Store(true)
			healthy = false
			return false
		}
		if e.matchesLocked(f, *rec) {
			out = append(out, *rec)
		}
		return true
	})
	if !healthy {
		return nil, false
	}
	return out, true
}

// scanLocked is the index-free path: it walks the base store directly, so
// it stays correct when every index is corrupt. Output order comes from
// the sort pass that always follows it.
func (e *Engine) scanLocked(f Filter) []market.TradeRecord {
	out := make([]market.TradeRecord, 0, 16)
	for _, rec := range e.trades {
		if e.matchesLocked(f, *rec) {
			out = append(out, *rec)
		}
	}
	return out
}

func defaultLess(a, b market.TradeRecord) bool {
	ad, bd := dayNumber(a.ContractDate), dayNumber(b.ContractDate)
	if ad != bd {
		return ad > bd
	}
	if a.TransID != b.TransID {
		return a.TransID < b.TransID
	}
	return a.Kind < b.Kind
}

func sortRecords(recs []market.TradeRecord, key SortKey) {
	switch key {
	case SortByPrice:
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].Price != recs[j].Price {
				return recs[i].Price < recs[j].Price
			}
			return defaultLess(recs[i], recs[j])
		})
	default:
		sort.Slice(recs, func(i, j int) bool {
			return defaultLess(recs[i], recs[j])
		})
	}
}
