package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/google/btree"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
)

const btreeDegree = 32

// dayNumber converts a timestamp to its UTC calendar day counted from the
// Unix epoch, flooring so pre-1970 dates (use-approval dates reach back to
// the 60s) stay ordered.
func dayNumber(t time.Time) int32 {
	u := t.Unix()
	d := u / 86400
	if u < 0 && u%86400 != 0 {
		d--
	}
	return int32(d)
}

// negDay stores the day negated so ascending tree order walks newest
// contracts first, which is the engine's default output order.
func negDay(t time.Time) int32 {
	return -dayNumber(t)
}

// tradeItem keys the per-apartment indexes: (apartment, contract date
// descending, transaction id, kind). Within one apartment the ascending
// walk already matches the default result order.
type tradeItem struct {
	AptID   int64
	NegDay  int32
	TransID int64
	Kind    market.TradeKind
}

func lessTradeItem(a, b tradeItem) bool {
	if a.AptID != b.AptID {
		return a.AptID < b.AptID
	}
	if a.NegDay != b.NegDay {
		return a.NegDay < b.NegDay
	}
	if a.TransID != b.TransID {
		return a.TransID < b.TransID
	}
	return a.Kind < b.Kind
}

func tradeItemOf(rec market.TradeRecord) tradeItem {
	return tradeItem{
		AptID:   rec.AptID,
		NegDay:  negDay(rec.ContractDate),
		TransID: rec.TransID,
		Kind:    rec.Kind,
	}
}

// dateItem keys the global index: (contract date descending, price, area,
// transaction id, kind). It serves date-bracketed queries across all
// apartments and doubles as the preferred enumeration order for scans.
type dateItem struct {
	NegDay  int32
	Price   int64
	Area    float64
	TransID int64
	Kind    market.TradeKind
	AptID   int64
}

func lessDateItem(a, b dateItem) bool {
	if a.NegDay != b.NegDay {
		return a.NegDay < b.NegDay
	}
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if a.Area != b.Area {
		return a.Area < b.Area
	}
	if a.TransID != b.TransID {
		return a.TransID < b.TransID
	}
	return a.Kind < b.Kind
}

func dateItemOf(rec market.TradeRecord) dateItem {
	return dateItem{
		NegDay:  negDay(rec.ContractDate),
		Price:   rec.Price,
		Area:    rec.ExclusiveArea,
		TransID: rec.TransID,
		Kind:    rec.Kind,
		AptID:   rec.AptID,
	}
}

// regionItem keys the dimension index (region id, apartment id) over live
// apartments; the name rides along for callers that list a region.
type regionItem struct {
	RegionID int64
	AptID    int64
	Name     string
}

func lessRegionItem(a, b regionItem) bool {
	if a.RegionID != b.RegionID {
		return a.RegionID < b.RegionID
	}
	return a.AptID < b.AptID
}

// Index names reported by Health and used in scan-fallback logging.
const (
	indexByApt     = "by_apt"
	indexByDate    = "by_date"
	indexByRegion  = "by_region"
	indexByTransit = "by_transit"
)

// tradeTree wraps a btree with the corruption flag from the invariant
// check: when a lookup finds an indexed id missing from the base store the
// flag trips, the planner stops considering the index and queries take the
// scan path until the next rebuild.
type tradeTree struct {
	name    string
	tree    *btree.BTreeG[tradeItem]
	corrupt atomic.Bool
}

func newTradeTree(name string) *tradeTree {
	return &tradeTree{name: name, tree: btree.NewG(btreeDegree, lessTradeItem)}
}

type dateTree struct {
	name    string
	tree    *btree.BTreeG[dateItem]
	corrupt atomic.Bool
}

func newDateTree() *dateTree {
	return &dateTree{name: indexByDate, tree: btree.NewG(btreeDegree, lessDateItem)}
}

type regionTree struct {
	name    string
	tree    *btree.BTreeG[regionItem]
	corrupt atomic.Bool
}

func newRegionTree() *regionTree {
	return &regionTree{name: indexByRegion, tree: btree.NewG(btreeDegree, lessRegionItem)}
}

// Range pivots. Suffix fields get min/max sentinels so [ge, lt) covers
// every item inside the leading-field bounds.
func aptPivotLow(aptID int64, nd int32) tradeItem {
	return tradeItem{AptID: aptID, NegDay: nd, TransID: math.MinInt64, Kind: 0}
}

func aptPivotHigh(aptID int64, nd int32) tradeItem {
	return tradeItem{AptID: aptID, NegDay: nd, TransID: math.MaxInt64, Kind: math.MaxUint8}
}

func datePivotLow(nd int32) dateItem {
	return dateItem{NegDay: nd, Price: math.MinInt64, Area: math.Inf(-1), TransID: math.MinInt64}
}

func datePivotHigh(nd int32) dateItem {
	return dateItem{NegDay: nd, Price: math.MaxInt64, Area: math.Inf(1), TransID: math.MaxInt64, Kind: math.MaxUint8}
}

func regionPivotLow(regionID int64) regionItem {
	return regionItem{RegionID: regionID, AptID: math.MinInt64}
}

func regionPivotHigh(regionID int64) regionItem {
	return regionItem{RegionID: regionID, AptID: math.MaxInt64}
}
