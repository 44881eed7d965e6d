package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
)

func TestAggregateAveragesWindow(t *testing.T) {
	e := New(Options{})
	e.UpsertApartment(&market.Apartment{AptID: 1, RegionID: 101, AptName: "래미안"})
	e.UpsertSale(&market.Sale{TransID: 1, AptID: 1, TransPrice: 500, ExclusiveArea: 59.5, ContractDate: day(2024, 5, 10)})
	e.UpsertSale(&market.Sale{TransID: 2, AptID: 1, TransPrice: 700, ExclusiveArea: 84.5, ContractDate: day(2024, 4, 15)})

	stats, err := e.Aggregate(1, market.TradeSale, day(2024, 6, 30), 6)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.SampleCount != 2 {
		t.Fatalf("SampleCount = %d, want 2", stats.SampleCount)
	}
	if stats.AvgPrice == nil || *stats.AvgPrice != 600 {
		t.Fatalf("AvgPrice = %v, want 600", stats.AvgPrice)
	}
	if stats.AvgArea == nil || *stats.AvgArea != 72 {
		t.Fatalf("AvgArea = %v, want 72", stats.AvgArea)
	}
}

func TestAggregateZeroSamplesReportAbsent(t *testing.T) {
	e := newMarketEngine()

	cases := []struct {
		name  string
		aptID int64
		end   time.Time
	}{
		{"unknown_apartment", 999, day(2024, 6, 30)},
		{"window_before_any_trade", 1, day(2020, 1, 31)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats, err := e.Aggregate(tc.aptID, market.TradeSale, tc.end, 3)
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if stats.SampleCount != 0 {
				t.Fatalf("SampleCount = %d, want 0", stats.SampleCount)
			}
			if stats.AvgPrice != nil || stats.AvgArea != nil {
				t.Fatalf("averages = (%v, %v), want absent", stats.AvgPrice, stats.AvgArea)
			}
		})
	}
}

func TestAggregateWindowBoundsInclusive(t *testing.T) {
	e := New(Options{})
	e.UpsertApartment(&market.Apartment{AptID: 1, RegionID: 101, AptName: "래미안"})
	// Window: 3 months back from 2024-06-30 is [2024-03-30, 2024-06-30].
	e.UpsertSale(&market.Sale{TransID: 1, AptID: 1, TransPrice: 100, ExclusiveArea: 60, ContractDate: day(2024, 3, 29)})
	e.UpsertSale(&market.Sale{TransID: 2, AptID: 1, TransPrice: 200, ExclusiveArea: 60, ContractDate: day(2024, 3, 30)})
	e.UpsertSale(&market.Sale{TransID: 3, AptID: 1, TransPrice: 400, ExclusiveArea: 60, ContractDate: day(2024, 6, 30)})
	e.UpsertSale(&market.Sale{TransID: 4, AptID: 1, TransPrice: 800, ExclusiveArea: 60, ContractDate: day(2024, 7, 1)})

	stats, err := e.Aggregate(1, market.TradeSale, day(2024, 6, 30), 3)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.SampleCount != 2 {
		t.Fatalf("SampleCount = %d, want 2 (both window edges included)", stats.SampleCount)
	}
	if stats.AvgPrice == nil || *stats.AvgPrice != 300 {
		t.Fatalf("AvgPrice = %v, want 300", stats.AvgPrice)
	}
}

func TestAggregateSeparatesKinds(t *testing.T) {
	e := New(Options{})
	e.UpsertApartment(&market.Apartment{AptID: 1, RegionID: 101, AptName: "래미안"})
	e.UpsertSale(&market.Sale{TransID: 1, AptID: 1, TransPrice: 500, ExclusiveArea: 60, ContractDate: day(2024, 5, 1)})
	e.UpsertSale(&market.Sale{TransID: 2, AptID: 1, TransPrice: 700, ExclusiveArea: 60, ContractDate: day(2024, 5, 2)})
	e.UpsertRent(&market.Rent{TransID: 1, AptID: 1, Deposit: 30000, MonthlyRent: 50, ExclusiveArea: 60, ContractDate: day(2024, 5, 3)})

	sale, err := e.Aggregate(1, market.TradeSale, day(2024, 5, 31), 1)
	if err != nil {
		t.Fatalf("Aggregate (sale): %v", err)
	}
	if sale.SampleCount != 2 || sale.AvgPrice == nil || *sale.AvgPrice != 600 {
		t.Fatalf("sale stats = %+v, want 2 samples averaging 600", sale)
	}

	rent, err := e.Aggregate(1, market.TradeRent, day(2024, 5, 31), 1)
	if err != nil {
		t.Fatalf("Aggregate (rent): %v", err)
	}
	if rent.SampleCount != 1 || rent.AvgPrice == nil || *rent.AvgPrice != 30000 {
		t.Fatalf("rent stats = %+v, want 1 sample averaging the deposit", rent)
	}
}

func TestAggregateSkipsInvalidRows(t *testing.T) {
	e := New(Options{})
	e.UpsertApartment(&market.Apartment{AptID: 1, RegionID: 101, AptName: "래미안"})
	e.UpsertSale(&market.Sale{TransID: 1, AptID: 1, TransPrice: 500, ExclusiveArea: 60, ContractDate: day(2024, 5, 1)})
	e.UpsertSale(&market.Sale{TransID: 2, AptID: 1, TransPrice: 9000, ExclusiveArea: 60, ContractDate: day(2024, 5, 2), IsCanceled: true})
	e.UpsertSale(&market.Sale{TransID: 3, AptID: 1, TransPrice: 9000, ExclusiveArea: 60, ContractDate: day(2024, 5, 3), IsDeleted: bptr(true)})
	e.UpsertSale(&market.Sale{TransID: 4, AptID: 1, TransPrice: 9000, ExclusiveArea: 60, ContractDate: day(2024, 5, 4), Remarks: sptr(DefaultDummyMarker)})
	e.UpsertSale(&market.Sale{TransID: 5, AptID: 1, TransPrice: 700, ExclusiveArea: 60, ContractDate: day(2024, 5, 5)})

	stats, err := e.Aggregate(1, market.TradeSale, day(2024, 5, 31), 1)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if stats.SampleCount != 2 {
		t.Fatalf("SampleCount = %d, want 2 (invalid rows excluded)", stats.SampleCount)
	}
	if stats.AvgPrice == nil || *stats.AvgPrice != 600 {
		t.Fatalf("AvgPrice = %v, want 600", stats.AvgPrice)
	}
}

func TestAggregateRejectsNonPositiveWindow(t *testing.T) {
	e := newMarketEngine()

	for _, months := range []int{0, -2} {
		if _, err := e.Aggregate(1, market.TradeSale, day(2024, 6, 30), months); !errors.Is(err, apperrors.ErrInvalidFilter) {
			t.Fatalf("Aggregate(months=%d) error = %v, want ErrInvalidFilter", months, err)
		}
	}
}

func TestAggregateScanFallbackMatchesIndex(t *testing.T) {
	e := newMarketEngine()

	viaIndex, err := e.Aggregate(1, market.TradeSale, day(2024, 6, 30), 6)
	if err != nil {
		t.Fatalf("Aggregate (indexed): %v", err)
	}

	e.byApt.corrupt.Store(true)
	viaScan, err := e.Aggregate(1, market.TradeSale, day(2024, 6, 30), 6)
	if err != nil {
		t.Fatalf("Aggregate (scan): %v", err)
	}

	if viaIndex.SampleCount != viaScan.SampleCount {
		t.Fatalf("SampleCount differs: %d vs %d", viaIndex.SampleCount, viaScan.SampleCount)
	}
	if *viaIndex.AvgPrice != *viaScan.AvgPrice || *viaIndex.AvgArea != *viaScan.AvgArea {
		t.Fatalf("averages differ: (%g, %g) vs (%g, %g)",
			*viaIndex.AvgPrice, *viaIndex.AvgArea, *viaScan.AvgPrice, *viaScan.AvgArea)
	}
}

func TestMonthlyVolumeZeroFills(t *testing.T) {
	e := newMarketEngine()

	points, err := e.MonthlyVolume(101, market.TradeSale, "202401", "202405")
	if err != nil {
		t.Fatalf("MonthlyVolume: %v", err)
	}
	want := []VolumePoint{
		{Month: "202401", Count: 0},
		{Month: "202402", Count: 0},
		{Month: "202403", Count: 0},
		{Month: "202404", Count: 1},
		{Month: "202405", Count: 2},
	}
	if len(points) != len(want) {
		t.Fatalf("MonthlyVolume returned %d points, want %d", len(points), len(want))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Fatalf("points[%d] = %+v, want %+v", i, points[i], want[i])
		}
	}

	rents, err := e.MonthlyVolume(101, market.TradeRent, "202401", "202405")
	if err != nil {
		t.Fatalf("MonthlyVolume (rent): %v", err)
	}
	if rents[0].Count != 1 || rents[4].Count != 1 {
		t.Fatalf("rent volumes = %+v, want counts at 202401 and 202405", rents)
	}
}

func TestMonthlyVolumeRejectsBadMonths(t *testing.T) {
	e := newMarketEngine()

	cases := []struct {
		name     string
		from, to string
	}{
		{"dashed_form", "2024-01", "202405"},
		{"too_short", "20241", "202405"},
		{"not_numeric", "abcdef", "202405"},
		{"month_thirteen", "202413", "202414"},
		{"inverted", "202405", "202401"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.MonthlyVolume(101, market.TradeSale, tc.from, tc.to); !errors.Is(err, apperrors.ErrInvalidFilter) {
				t.Fatalf("MonthlyVolume(%q, %q) error = %v, want ErrInvalidFilter", tc.from, tc.to, err)
			}
		})
	}
}
