package market

import (
	"context"
	"testing"
	"time"

	"github.com/aptscope/aptscope-backend/internal/data/repos/testutil"
)

// TestMarketRepoFlow walks the dimension chain the engine rebuild loads:
// region, apartment, detail, then both trade tables for that apartment.
func TestMarketRepoFlow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	log := testutil.Logger(t)
	apartments := NewApartmentRepo(db, log)
	details := NewApartDetailRepo(db, log)
	sales := NewSaleRepo(db, log)
	rents := NewRentRepo(db, log)

	region := testutil.SeedRegion(t, ctx, tx, "1168010300", "서울특별시 강남구 개포동")
	apt := testutil.SeedApartment(t, ctx, tx, region.RegionID, "개포 플로우")
	detail := testutil.SeedApartDetail(t, ctx, tx, apt.AptID, "5~10분이내")

	contract := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	sale := testutil.SeedSale(t, ctx, tx, apt.AptID, 90000, contract)
	rent := testutil.SeedRent(t, ctx, tx, apt.AptID, 50000, 0, contract)

	byRegion, err := apartments.GetByRegionIDs(ctx, tx, []int64{region.RegionID})
	if err != nil {
		t.Fatalf("GetByRegionIDs: %v", err)
	}
	if len(byRegion) != 1 || byRegion[0].AptID != apt.AptID {
		t.Fatalf("GetByRegionIDs: unexpected result: %+v", byRegion)
	}

	byApt, err := details.GetByAptIDs(ctx, tx, []int64{apt.AptID})
	if err != nil {
		t.Fatalf("GetByAptIDs: %v", err)
	}
	if len(byApt) != 1 || byApt[0].DetailID != detail.DetailID {
		t.Fatalf("GetByAptIDs: unexpected result: %+v", byApt)
	}

	gotSales, err := sales.GetByIDs(ctx, tx, []int64{sale.TransID})
	if err != nil {
		t.Fatalf("sales GetByIDs: %v", err)
	}
	if len(gotSales) != 1 || gotSales[0].AptID != apt.AptID {
		t.Fatalf("sales GetByIDs: unexpected result: %+v", gotSales)
	}

	gotRents, err := rents.GetByIDs(ctx, tx, []int64{rent.TransID})
	if err != nil {
		t.Fatalf("rents GetByIDs: %v", err)
	}
	if len(gotRents) != 1 || gotRents[0].MonthlyRent != 0 {
		t.Fatalf("rents GetByIDs: expected jeonse row, got %+v", gotRents)
	}
}
