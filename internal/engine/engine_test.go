package engine

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func iptr(v int) *int                            { return &v }
func i64ptr(v int64) *int64                      { return &v }
func f64ptr(v float64) *float64                  { return &v }
func sptr(s string) *string                      { return &s }
func bptr(b bool) *bool                          { return &b }
func tptr(t time.Time) *time.Time                { return &t }
func kindPtr(k market.TradeKind) *market.TradeKind { return &k }

// tags compacts results into "S<id>"/"R<id>" for order assertions.
func tags(recs []market.TradeRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		prefix := "S"
		if r.Kind == market.TradeRent {
			prefix = "R"
		}
		out = append(out, fmt.Sprintf("%s%d", prefix, r.TransID))
	}
	return out
}

func wantTags(t *testing.T, recs []market.TradeRecord, want ...string) {
	t.Helper()
	got := tags(recs)
	if len(want) == 0 {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("result order = %v, want %v", got, want)
	}
}

// marketFixture is a small but complete data set: two regions, one deleted
// apartment, one apartment without a detail row, transactions in every
// validity state, and overlapping sale/rent transaction ids.
func marketFixture() Snapshot {
	return Snapshot{
		Apartments: []*market.Apartment{
			{AptID: 1, RegionID: 101, AptName: "래미안"},
			{AptID: 2, RegionID: 101, AptName: "아크로"},
			{AptID: 3, RegionID: 102, AptName: "마포자이"},
			{AptID: 4, RegionID: 102, AptName: "한강뷰"},
			{AptID: 5, RegionID: 101, AptName: "철거예정", IsDeleted: bptr(true)},
		},
		Details: []*market.ApartDetail{
			{DetailID: 11, AptID: 1, TotalHouseholdCnt: 500, EducationFacility: sptr("초등학교 인접"), SubwayTime: sptr("5~10분이내")},
			{DetailID: 21, AptID: 2, TotalHouseholdCnt: 120, SubwayTime: sptr("역세권")},
			{DetailID: 31, AptID: 3, TotalHouseholdCnt: 800, EducationFacility: sptr("중학교"), SubwayTime: sptr("15분이내")},
		},
		Sales: []*market.Sale{
			{TransID: 1, AptID: 1, TransPrice: 90000, ExclusiveArea: 84.9, Floor: 12, ContractDate: day(2024, 5, 10)},
			{TransID: 2, AptID: 1, TransPrice: 85000, ExclusiveArea: 59.8, Floor: 7, ContractDate: day(2024, 5, 10)},
			{TransID: 3, AptID: 1, TransPrice: 80000, ExclusiveArea: 84.9, Floor: 3, ContractDate: day(2024, 3, 2), IsCanceled: true},
			{TransID: 4, AptID: 2, TransPrice: 150000, ExclusiveArea: 112.4, Floor: 20, ContractDate: day(2024, 4, 20)},
			{TransID: 5, AptID: 3, TransPrice: 60000, ExclusiveArea: 74.1, Floor: 9, ContractDate: day(2024, 5, 1)},
			{TransID: 6, AptID: 3, TransPrice: 55000, ExclusiveArea: 74.1, Floor: 2, ContractDate: day(2023, 12, 15), IsDeleted: bptr(true)},
			{TransID: 7, AptID: 1, TransPrice: 70000, ExclusiveArea: 59.8, Floor: 5, ContractDate: day(2024, 2, 29), Remarks: sptr(DefaultDummyMarker)},
			{TransID: 8, AptID: 5, TransPrice: 40000, ExclusiveArea: 49.5, Floor: 1, ContractDate: day(2024, 5, 5)},
			{TransID: 9, AptID: 99, TransPrice: 10000, ExclusiveArea: 33.1, Floor: 1, ContractDate: day(2024, 5, 6)},
		},
		Rents: []*market.Rent{
			{TransID: 1, AptID: 1, Deposit: 50000, MonthlyRent: 0, ExclusiveArea: 84.9, Floor: 10, ContractDate: day(2024, 5, 10)},
			{TransID: 2, AptID: 3, Deposit: 30000, MonthlyRent: 120, ExclusiveArea: 59.9, Floor: 4, ContractDate: day(2024, 4, 25)},
			{TransID: 3, AptID: 2, Deposit: 45000, MonthlyRent: 0, ExclusiveArea: 84.9, Floor: 15, ContractDate: day(2024, 1, 15)},
		},
	}
}

// newMarketEngine feeds the fixture through the incremental path so tests
// exercise the same code ingestion uses.
func newMarketEngine() *Engine {
	e := New(Options{})
	snap := marketFixture()
	for _, a := range snap.Apartments {
		e.UpsertApartment(a)
	}
	for _, d := range snap.Details {
		e.UpsertDetail(d)
	}
	for _, s := range snap.Sales {
		e.UpsertSale(s)
	}
	for _, r := range snap.Rents {
		e.UpsertRent(r)
	}
	return e
}

func TestRebuildMatchesIncremental(t *testing.T) {
	incremental := newMarketEngine()

	rebuilt := New(Options{})
	rebuilt.Rebuild(marketFixture())

	a, err := incremental.Search(Filter{})
	if err != nil {
		t.Fatalf("Search (incremental): %v", err)
	}
	b, err := rebuilt.Search(Filter{})
	if err != nil {
		t.Fatalf("Search (rebuilt): %v", err)
	}
	if !reflect.DeepEqual(tags(a), tags(b)) {
		t.Fatalf("incremental and rebuilt engines disagree: %v vs %v", tags(a), tags(b))
	}

	ha, hb := incremental.Health(), rebuilt.Health()
	if ha.Trades != hb.Trades || ha.Apartments != hb.Apartments {
		t.Fatalf("health mismatch: %+v vs %+v", ha, hb)
	}
}

func TestUpsertTradeReplacesOldKeys(t *testing.T) {
	e := newMarketEngine()

	// Move S1 to an older date and a new price; the stale index entry
	// must disappear with it.
	e.UpsertSale(&market.Sale{
		TransID: 1, AptID: 1, TransPrice: 91000, ExclusiveArea: 84.9,
		Floor: 12, ContractDate: day(2024, 1, 2),
	})

	recs, err := e.Search(Filter{AptID: i64ptr(1)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantTags(t, recs, "R1", "S2", "S1")

	for _, r := range recs {
		if r.Kind == market.TradeSale && r.TransID == 1 && r.Price != 91000 {
			t.Fatalf("S1 price = %d after upsert, want 91000", r.Price)
		}
	}
}

func TestApartmentSoftDeleteHidesTrades(t *testing.T) {
	e := newMarketEngine()

	if ok := e.SetApartmentDeleted(3, true); !ok {
		t.Fatalf("SetApartmentDeleted: apartment 3 should be known")
	}

	recs, err := e.Search(Filter{RegionID: i64ptr(102)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantTags(t, recs)

	stats, err := e.Aggregate(3, market.TradeSale, day(2024, 6, 1), 12)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.SampleCount != 0 || stats.AvgPrice != nil {
		t.Fatalf("aggregate of soft-deleted apartment = %+v, want zero samples", stats)
	}

	if ok := e.SetApartmentDeleted(3, false); !ok {
		t.Fatalf("SetApartmentDeleted (restore): apartment 3 should be known")
	}
	recs, err = e.Search(Filter{RegionID: i64ptr(102)})
	if err != nil {
		t.Fatalf("Search (restored): %v", err)
	}
	wantTags(t, recs, "S5", "R2")
}

func TestSetApartmentDeletedUnknown(t *testing.T) {
	e := newMarketEngine()
	if ok := e.SetApartmentDeleted(404, true); ok {
		t.Fatalf("SetApartmentDeleted(404) = true, want false")
	}
}

func TestDuplicateDetailKeepsLowestID(t *testing.T) {
	e := newMarketEngine()

	// Higher detail id for apartment 1 arrives later: ignored, counted.
	e.UpsertDetail(&market.ApartDetail{DetailID: 99, AptID: 1, TotalHouseholdCnt: 1, SubwayTime: sptr("30분이내")})

	recs, err := e.Search(Filter{MaxTransitMinutes: iptr(10)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantTags(t, recs, "S1", "R1", "S2")

	if h := e.Health(); h.DuplicateDetails != 1 {
		t.Fatalf("Health.DuplicateDetails = %d, want 1", h.DuplicateDetails)
	}

	// Lower detail id wins and replaces the attributes.
	e.UpsertDetail(&market.ApartDetail{DetailID: 5, AptID: 1, TotalHouseholdCnt: 500, SubwayTime: sptr("역세권")})

	recs, err = e.Search(Filter{MaxTransitMinutes: iptr(10)})
	if err != nil {
		t.Fatalf("Search (after replace): %v", err)
	}
	wantTags(t, recs)

	if h := e.Health(); h.DuplicateDetails != 2 {
		t.Fatalf("Health.DuplicateDetails = %d, want 2", h.DuplicateDetails)
	}
}

func TestDetailUpsertRecomputesTransitBound(t *testing.T) {
	e := New(Options{})
	e.UpsertApartment(&market.Apartment{AptID: 7, RegionID: 103, AptName: "신축"})
	e.UpsertSale(&market.Sale{TransID: 70, AptID: 7, TransPrice: 42000, ExclusiveArea: 59.9, ContractDate: day(2024, 4, 1)})

	// No detail yet: a transit filter cannot match.
	recs, err := e.Search(Filter{MaxTransitMinutes: iptr(60)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantTags(t, recs)

	e.UpsertDetail(&market.ApartDetail{DetailID: 71, AptID: 7, SubwayTime: sptr("5~10분이내")})
	recs, err = e.Search(Filter{MaxTransitMinutes: iptr(10)})
	if err != nil {
		t.Fatalf("Search (detail added): %v", err)
	}
	wantTags(t, recs, "S70")

	// Text change to something unparseable drops the apartment from the
	// transit-bearing set.
	e.UpsertDetail(&market.ApartDetail{DetailID: 71, AptID: 7, SubwayTime: sptr("역세권")})
	recs, err = e.Search(Filter{MaxTransitMinutes: iptr(60)})
	if err != nil {
		t.Fatalf("Search (text changed): %v", err)
	}
	wantTags(t, recs)
}

func TestDetailBeforeApartment(t *testing.T) {
	e := New(Options{})
	e.UpsertDetail(&market.ApartDetail{DetailID: 81, AptID: 8, SubwayTime: sptr("3분이내")})
	e.UpsertSale(&market.Sale{TransID: 80, AptID: 8, TransPrice: 39000, ExclusiveArea: 45.2, ContractDate: day(2024, 3, 10)})

	// The apartment row has not arrived: nothing is visible yet.
	recs, err := e.Search(Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantTags(t, recs)

	e.UpsertApartment(&market.Apartment{AptID: 8, RegionID: 104, AptName: "선등록"})
	recs, err = e.Search(Filter{MaxTransitMinutes: iptr(5)})
	if err != nil {
		t.Fatalf("Search (apartment arrived): %v", err)
	}
	wantTags(t, recs, "S80")
}

func TestHealthReportsCorruptIndex(t *testing.T) {
	e := newMarketEngine()

	// Inject an index entry whose id is absent from the base store.
	e.byApt.tree.ReplaceOrInsert(tradeItem{AptID: 1, NegDay: negDay(day(2024, 5, 9)), TransID: 424242, Kind: market.TradeSale})

	recs, err := e.Search(Filter{AptID: i64ptr(1)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Served from the scan path, so results are still right.
	wantTags(t, recs, "S1", "R1", "S2")

	h := e.Health()
	if len(h.CorruptIndexes) != 1 || h.CorruptIndexes[0] != indexByApt {
		t.Fatalf("Health.CorruptIndexes = %v, want [%s]", h.CorruptIndexes, indexByApt)
	}

	// Subsequent queries keep working without re-tripping.
	recs, err = e.Search(Filter{AptID: i64ptr(1)})
	if err != nil {
		t.Fatalf("Search (after flag): %v", err)
	}
	wantTags(t, recs, "S1", "R1", "S2")
}

func TestRebuildClearsCorruptionFlag(t *testing.T) {
	e := newMarketEngine()
	e.byApt.corrupt.Store(true)

	e.Rebuild(marketFixture())

	if h := e.Health(); len(h.CorruptIndexes) != 0 {
		t.Fatalf("Health.CorruptIndexes = %v after rebuild, want none", h.CorruptIndexes)
	}
	recs, err := e.Search(Filter{AptID: i64ptr(1)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantTags(t, recs, "S1", "R1", "S2")
}
