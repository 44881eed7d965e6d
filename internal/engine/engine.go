package engine

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
)

// Options configures a fresh engine. DummyMarkers overrides the remarks
// literals treated as synthetic test rows; empty means DefaultDummyMarker.
type Options struct {
	DummyMarkers []string
}

// Health is a point-in-time snapshot of the engine's data quality state.
type Health struct {
	Trades           int      `json:"trades"`
	Apartments       int      `json:"apartments"`
	DuplicateDetails int64    `json:"duplicate_details"`
	CorruptIndexes   []string `json:"corrupt_indexes,omitempty"`
}

type aptInfo struct {
	aptID    int64
	regionID int64
	name     string
	deleted  bool
}

// detailInfo is the slice of ApartDetail the query paths read. The transit
// bound is derived from the free-text column once, on upsert, never per
// query.
type detailInfo struct {
	detailID     int64
	households   int
	hasEducation bool
	minutes      int
	hasMinutes   bool
}

// Engine is the in-memory search and aggregation core. It holds every
// ingested transaction in a base store and maintains ordered indexes over
// the visible subset: records that pass the validity filter and belong to
// an apartment that exists and is not soft-deleted.
//
// Reads run concurrently under the read lock; mutations and the snapshot
// swap in Rebuild serialize under the write lock. The engine performs no
// I/O of its own.
type Engine struct {
	mu       sync.RWMutex
	validity Validity

	trades    map[market.TradeID]*market.TradeRecord
	aptTrades map[int64]map[market.TradeID]struct{}
	apts      map[int64]*aptInfo
	details   map[int64]*detailInfo

	byApt     *tradeTree
	byDate    *dateTree
	byRegion  *regionTree
	byTransit *tradeTree

	dupDetails atomic.Int64
}

func New(opts Options) *Engine {
	return &Engine{
		validity:  NewValidity(opts.DummyMarkers...),
		trades:    make(map[market.TradeID]*market.TradeRecord),
		aptTrades: make(map[int64]map[market.TradeID]struct{}),
		apts:      make(map[int64]*aptInfo),
		details:   make(map[int64]*detailInfo),
		byApt:     newTradeTree(indexByApt),
		byDate:    newDateTree(),
		byRegion:  newRegionTree(),
		byTransit: newTradeTree(indexByTransit),
	}
}

// Validity exposes the shared filter so ingestion pipelines can reuse the
// exact rule instead of restating it.
func (e *Engine) Validity() Validity { return e.validity }

func (e *Engine) visibleLocked(rec market.TradeRecord) bool {
	if !e.validity.IsValid(rec) {
		return false
	}
	a := e.apts[rec.AptID]
	return a != nil && !a.deleted
}

func (e *Engine) indexInsertLocked(rec market.TradeRecord) {
	it := tradeItemOf(rec)
	e.byApt.tree.ReplaceOrInsert(it)
	e.byDate.tree.ReplaceOrInsert(dateItemOf(rec))
	if d := e.details[rec.AptID]; d != nil && d.hasMinutes {
		e.byTransit.tree.ReplaceOrInsert(it)
	}
}

func (e *Engine) indexRemoveLocked(rec market.TradeRecord) {
	it := tradeItemOf(rec)
	e.byApt.tree.Delete(it)
	e.byDate.tree.Delete(dateItemOf(rec))
	e.byTransit.tree.Delete(it)
}

// UpsertTrade inserts or replaces one record and updates every applicable
// index, O(log n) per index. Stale keys from a previous version of the
// record are removed first.
func (e *Engine) UpsertTrade(rec market.TradeRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.upsertTradeLocked(rec)
}

func (e *Engine) UpsertSale(s *market.Sale) { e.UpsertTrade(market.SaleRecord(s)) }
func (e *Engine) UpsertRent(r *market.Rent) { e.UpsertTrade(market.RentRecord(r)) }

func (e *Engine) upsertTradeLocked(rec market.TradeRecord) {
	id := rec.ID()
	if old, ok := e.trades[id]; ok {
		e.indexRemoveLocked(*old)
		if old.AptID != rec.AptID {
			if set := e.aptTrades[old.AptID]; set != nil {
				delete(set, id)
			}
		}
		*old = rec
	} else {
		cp := rec
		e.trades[id] = &cp
	}
	set := e.aptTrades[rec.AptID]
	if set == nil {
		set = make(map[market.TradeID]struct{})
		e.aptTrades[rec.AptID] = set
	}
	set[id] = struct{}{}
	if e.visibleLocked(rec) {
		e.indexInsertLocked(rec)
	}
}

// MarkSaleCanceled flips the cancellation flag and logically removes the
// sale from every index. The base row stays; cancellation is one-way.
// Returns false when the sale is unknown to the engine.
func (e *Engine) MarkSaleCanceled(transID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := market.TradeID{Kind: market.TradeSale, TransID: transID}
	rec, ok := e.trades[id]
	if !ok {
		return false
	}
	if rec.Canceled {
		return true
	}
	e.indexRemoveLocked(*rec)
	rec.Canceled = true
	return true
}

// SetTradeDeleted flips the soft-delete flag in place. The change is
// visible to the immediately following search or aggregate without any
// rebuild.
func (e *Engine) SetTradeDeleted(id market.TradeID, deleted bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.trades[id]
	if !ok {
		return false
	}
	if rec.Deleted == deleted {
		return true
	}
	e.indexRemoveLocked(*rec)
	rec.Deleted = deleted
	if e.visibleLocked(*rec) {
		e.indexInsertLocked(*rec)
	}
	return true
}

// UpsertApartment registers or updates a dimension row. Its transactions
// are (re)indexed according to the apartment's live state.
func (e *Engine) UpsertApartment(a *market.Apartment) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deleted := a.IsDeleted != nil && *a.IsDeleted
	info := e.apts[a.AptID]
	if info != nil && !info.deleted {
		e.detachAptLocked(info)
	}
	if info == nil {
		info = &aptInfo{aptID: a.AptID}
		e.apts[a.AptID] = info
	}
	info.regionID = a.RegionID
	info.name = a.AptName
	info.deleted = deleted
	if !deleted {
		e.attachAptLocked(info)
	}
}

// SetApartmentDeleted soft-deletes or restores an apartment. Deleting one
// logically removes all of its transactions from the indexes; the base
// store keeps them and a restore brings the valid ones back.
func (e *Engine) SetApartmentDeleted(aptID int64, deleted bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	info := e.apts[aptID]
	if info == nil {
		return false
	}
	if info.deleted == deleted {
		return true
	}
	if deleted {
		e.detachAptLocked(info)
		info.deleted = true
	} else {
		info.deleted = false
		e.attachAptLocked(info)
	}
	return true
}

func (e *Engine) detachAptLocked(info *aptInfo) {
	e.byRegion.tree.Delete(regionItem{RegionID: info.regionID, AptID: info.aptID})
	for id := range e.aptTrades[info.aptID] {
		if rec := e.trades[id]; rec != nil {
			e.indexRemoveLocked(*rec)
		}
	}
}

func (e *Engine) attachAptLocked(info *aptInfo) {
	e.byRegion.tree.ReplaceOrInsert(regionItem{RegionID: info.regionID, AptID: info.aptID, Name: info.name})
	for id := range e.aptTrades[info.aptID] {
		if rec := e.trades[id]; rec != nil && e.visibleLocked(*rec) {
			e.indexInsertLocked(*rec)
		}
	}
}

// UpsertDetail attaches facility attributes to an apartment. The intended
// cardinality is one detail per apartment; when the feed delivers a second
// row the engine keeps the lowest detail id, counts the anomaly and keeps
// serving. The transit bound is recomputed here, from the source text.
func (e *Engine) UpsertDetail(d *market.ApartDetail) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.details[d.AptID]
	if cur != nil && cur.detailID != d.DetailID {
		e.dupDetails.Add(1)
		if d.DetailID > cur.detailID {
			return
		}
	}

	next := &detailInfo{detailID: d.DetailID, households: d.TotalHouseholdCnt}
	if d.EducationFacility != nil && strings.TrimSpace(*d.EducationFacility) != "" {
		next.hasEducation = true
	}
	if d.SubwayTime != nil {
		if m, ok := ParseMaxMinutes(*d.SubwayTime); ok {
			next.minutes, next.hasMinutes = m, true
		}
	} else if d.SubwayMinutes != nil {
		next.minutes, next.hasMinutes = *d.SubwayMinutes, true
	}

	hadMinutes := cur != nil && cur.hasMinutes
	e.details[d.AptID] = next

	if hadMinutes == next.hasMinutes {
		return
	}
	for id := range e.aptTrades[d.AptID] {
		rec := e.trades[id]
		if rec == nil {
			continue
		}
		if next.hasMinutes {
			if e.visibleLocked(*rec) {
				e.byTransit.tree.ReplaceOrInsert(tradeItemOf(*rec))
			}
		} else {
			e.byTransit.tree.Delete(tradeItemOf(*rec))
		}
	}
}

// Snapshot is the bulk-load input for Rebuild.
type Snapshot struct {
	Sales      []*market.Sale
	Rents      []*market.Rent
	Apartments []*market.Apartment
	Details    []*market.ApartDetail
}

// Rebuild constructs fresh indexes from the snapshot off-lock and swaps
// them in as one unit. Readers observe either the old state or the new
// one, never a mix, and corruption flags reset with the swap.
func (e *Engine) Rebuild(snap Snapshot) {
	trades := make(map[market.TradeID]*market.TradeRecord, len(snap.Sales)+len(snap.Rents))
	aptTrades := make(map[int64]map[market.TradeID]struct{}, len(snap.Apartments))
	apts := make(map[int64]*aptInfo, len(snap.Apartments))
	details := make(map[int64]*detailInfo, len(snap.Details))
	byApt := newTradeTree(indexByApt)
	byDate := newDateTree()
	byRegion := newRegionTree()
	byTransit := newTradeTree(indexByTransit)
	var dup int64

	for _, a := range snap.Apartments {
		info := &aptInfo{aptID: a.AptID, regionID: a.RegionID, name: a.AptName}
		if a.IsDeleted != nil {
			info.deleted = *a.IsDeleted
		}
		apts[a.AptID] = info
		if !info.deleted {
			byRegion.tree.ReplaceOrInsert(regionItem{RegionID: info.regionID, AptID: info.aptID, Name: info.name})
		}
	}

	for _, d := range snap.Details {
		cur := details[d.AptID]
		if cur != nil && cur.detailID != d.DetailID {
			dup++
			if d.DetailID > cur.detailID {
				continue
			}
		}
		next := &detailInfo{detailID: d.DetailID, households: d.TotalHouseholdCnt}
		if d.EducationFacility != nil && strings.TrimSpace(*d.EducationFacility) != "" {
			next.hasEducation = true
		}
		if d.SubwayTime != nil {
			if m, ok := ParseMaxMinutes(*d.SubwayTime); ok {
				next.minutes, next.hasMinutes = m, true
			}
		} else if d.SubwayMinutes != nil {
			next.minutes, next.hasMinutes = *d.SubwayMinutes, true
		}
		details[d.AptID] = next
	}

	add := func(rec market.TradeRecord) {
		cp := rec
		trades[cp.ID()] = &cp
		set := aptTrades[cp.AptID]
		if set == nil {
			set = make(map[market.TradeID]struct{})
			aptTrades[cp.AptID] = set
		}
		set[cp.ID()] = struct{}{}

		if !e.validity.IsValid(cp) {
			return
		}
		a := apts[cp.AptID]
		if a == nil || a.deleted {
			return
		}
		it := tradeItemOf(cp)
		byApt.tree.ReplaceOrInsert(it)
		byDate.tree.ReplaceOrInsert(dateItemOf(cp))
		if det := details[cp.AptID]; det != nil && det.hasMinutes {
			byTransit.tree.ReplaceOrInsert(it)
		}
	}
	for _, s := range snap.Sales {
		add(market.SaleRecord(s))
	}
	for _, r := range snap.Rents {
		add(market.RentRecord(r))
	}

	e.mu.Lock()
	e.trades = trades
	e.aptTrades = aptTrades
	e.apts = apts
	e.details = details
	e.byApt = byApt
	e.byDate = byDate
	e.byRegion = byRegion
	e.byTransit = byTransit
	e.dupDetails.Store(dup)
	e.mu.Unlock()
}

func (e *Engine) Health() Health {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h := Health{
		Trades:           len(e.trades),
		Apartments:       len(e.apts),
		DuplicateDetails: e.dupDetails.Load(),
	}
	if e.byApt.corrupt.Load() {
		h.CorruptIndexes = append(h.CorruptIndexes, e.byApt.name)
	}
	if e.byDate.corrupt.Load() {
		h.CorruptIndexes = append(h.CorruptIndexes, e.byDate.name)
	}
	if e.byRegion.corrupt.Load() {
		h.CorruptIndexes = append(h.CorruptIndexes, e.byRegion.name)
	}
	if e.byTransit.corrupt.Load() {
		h.CorruptIndexes = append(h.CorruptIndexes, e.byTransit.name)
	}
	return h
}
