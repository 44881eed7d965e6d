package services

import (
	"context"
	"errors"
	"testing"
	"time"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/engine"
	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// One region, one complex, volumes per month:
// sales 1,2,0,4,2 and rents 2,1,3,0,2 over 2024-01..2024-05.
func newStatsEngine() *engine.Engine {
	e := engine.New(engine.Options{})
	e.UpsertApartment(&types.Apartment{AptID: 1, RegionID: 101, AptName: "래미안"})

	saleDates := []time.Time{
		day(2024, 1, 10),
		day(2024, 2, 5), day(2024, 2, 20),
		day(2024, 4, 2), day(2024, 4, 9), day(2024, 4, 16), day(2024, 4, 23),
		day(2024, 5, 7), day(2024, 5, 21),
	}
	for i, when := range saleDates {
		e.UpsertSale(&types.Sale{
			TransID:       int64(i + 1),
			AptID:         1,
			TransPrice:    90000,
			ExclusiveArea: 84.9,
			ContractDate:  when,
		})
	}

	rentDates := []time.Time{
		day(2024, 1, 8), day(2024, 1, 25),
		day(2024, 2, 14),
		day(2024, 3, 3), day(2024, 3, 12), day(2024, 3, 28),
		day(2024, 5, 2), day(2024, 5, 30),
	}
	for i, when := range rentDates {
		e.UpsertRent(&types.Rent{
			TransID:       int64(i + 1),
			AptID:         1,
			Deposit:       50000,
			ExclusiveArea: 84.9,
			ContractDate:  when,
		})
	}
	return e
}

func TestStatsVolumes(t *testing.T) {
	svc := NewStatsService(testLogger(t), newStatsEngine(), nil)

	points, err := svc.Volumes(context.Background(), 101, types.TradeSale, "202401", "202405")
	if err != nil {
		t.Fatalf("Volumes: %v", err)
	}
	want := []int{1, 2, 0, 4, 2}
	if len(points) != len(want) {
		t.Fatalf("got %d points, want %d", len(points), len(want))
	}
	for i, p := range points {
		if p.Count != want[i] {
			t.Fatalf("month %s count = %d, want %d", p.Month, p.Count, want[i])
		}
	}

	if _, err := svc.Volumes(context.Background(), 101, types.TradeSale, "202405", "202401"); !errors.Is(err, apperrors.ErrInvalidFilter) {
		t.Fatalf("inverted range error = %v", err)
	}
}

func TestStatsRVOL(t *testing.T) {
	svc := NewStatsService(testLogger(t), newStatsEngine(), nil)

	series, err := svc.RVOL(context.Background(), 101, types.TradeSale, 2, 3, "202405")
	if err != nil {
		t.Fatalf("RVOL: %v", err)
	}
	if series.Period != "최근 2개월 vs 직전 3개월" {
		t.Fatalf("period = %q", series.Period)
	}
	if len(series.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(series.Points))
	}

	apr := series.Points[0]
	if apr.Date != "2024-04-01" || apr.CurrentVolume != 4 || apr.AverageVolume != 1 || apr.RVOL != 4 {
		t.Fatalf("april point = %+v", apr)
	}
	may := series.Points[1]
	if may.Date != "2024-05-01" || may.CurrentVolume != 2 || may.AverageVolume != 2 || may.RVOL != 1 {
		t.Fatalf("may point = %+v", may)
	}
}

func TestStatsRVOLQuietRegion(t *testing.T) {
	svc := NewStatsService(testLogger(t), newStatsEngine(), nil)

	// Region 999 has no trades at all; every point divides by a zero
	// average and must come back 0, not NaN.
	series, err := svc.RVOL(context.Background(), 999, types.TradeSale, 3, 2, "202405")
	if err != nil {
		t.Fatalf("RVOL: %v", err)
	}
	if len(series.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(series.Points))
	}
	for _, p := range series.Points {
		if p.RVOL != 0 || p.AverageVolume != 0 || p.CurrentVolume != 0 {
			t.Fatalf("quiet point = %+v", p)
		}
	}
}

func TestStatsRVOLValidation(t *testing.T) {
	svc := NewStatsService(testLogger(t), newStatsEngine(), nil)

	cases := []struct {
		name     string
		months   int
		lookback int
		endYM    string
	}{
		{"zero_months", 0, 3, "202405"},
		{"negative_lookback", 3, -1, "202405"},
		{"dashed_end", 3, 3, "2024-05"},
		{"short_end", 3, 3, "2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RVOL(context.Background(), 101, types.TradeSale, tc.months, tc.lookback, tc.endYM); !errors.Is(err, apperrors.ErrInvalidFilter) {
				t.Fatalf("error = %v, want ErrInvalidFilter", err)
			}
		})
	}
}

func TestStatsQuadrant(t *testing.T) {
	svc := NewStatsService(testLogger(t), newStatsEngine(), nil)

	series, err := svc.Quadrant(context.Background(), 101, 4, "202405")
	if err != nil {
		t.Fatalf("Quadrant: %v", err)
	}
	if len(series.Points) != 4 {
		t.Fatalf("got %d points, want 4", len(series.Points))
	}

	want := []struct {
		date     string
		sale     float64
		rent     float64
		quadrant int
	}{
		{"2024-02", 100, -50, 1},
		{"2024-03", -100, 200, 2},
		{"2024-04", 100, -100, 1},
		{"2024-05", -50, 100, 2},
	}
	for i, w := range want {
		p := series.Points[i]
		if p.Date != w.date || p.SaleChangeRate != w.sale || p.RentChangeRate != w.rent || p.Quadrant != w.quadrant {
			t.Fatalf("point %d = %+v, want %+v", i, p, w)
		}
		if p.QuadrantLabel != quadrantLabels[w.quadrant] {
			t.Fatalf("point %d label = %q", i, p.QuadrantLabel)
		}
	}

	if series.Summary.Counts["매수 전환"] != 2 || series.Summary.Counts["임대 선호"] != 2 {
		t.Fatalf("summary counts = %v", series.Summary.Counts)
	}
	if series.Summary.Latest != "임대 선호" {
		t.Fatalf("summary latest = %q", series.Summary.Latest)
	}

	if _, err := svc.Quadrant(context.Background(), 101, 0, "202405"); !errors.Is(err, apperrors.ErrInvalidFilter) {
		t.Fatalf("zero months error = %v", err)
	}
}

func TestChangeRate(t *testing.T) {
	cases := []struct {
		name string
		prev int
		cur  int
		want float64
	}{
		{"both_zero", 0, 0, 0},
		{"from_zero", 0, 5, 100},
		{"halved", 4, 2, -50},
		{"third_up", 3, 4, 33.33},
		{"flat", 7, 7, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := changeRate(tc.prev, tc.cur); got != tc.want {
				t.Fatalf("changeRate(%d, %d) = %v, want %v", tc.prev, tc.cur, got, tc.want)
			}
		})
	}
}

func TestQuadrantOf(t *testing.T) {
	cases := []struct {
		name string
		sale float64
		rent float64
		want int
	}{
		{"sale_up_rent_down", 10, -5, 1},
		{"sale_down_rent_up", -10, 5, 2},
		{"both_down", -10, -5, 3},
		{"both_up", 10, 5, 4},
		{"both_flat", 0, 0, 3},
		{"sale_up_rent_flat", 10, 0, 1},
		{"sale_flat_rent_up", 0, 5, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := quadrantOf(tc.sale, tc.rent); got != tc.want {
				t.Fatalf("quadrantOf(%v, %v) = %d, want %d", tc.sale, tc.rent, got, tc.want)
			}
		})
	}
}
