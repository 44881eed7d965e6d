package market

import (
	"context"
	"testing"
	"time"

	"github.com/aptscope/aptscope-backend/internal/data/repos/testutil"
	types "github.com/aptscope/aptscope-backend/internal/domain"
)

func TestRentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewRentRepo(db, testutil.Logger(t))
	ctx := context.Background()

	contract := time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, tx, []*types.Rent{
		{
			AptID:         3,
			Deposit:       30000,
			MonthlyRent:   120,
			ExclusiveArea: 59.92,
			Floor:         4,
			ContractDate:  contract,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].TransID == 0 {
		t.Fatalf("Create: expected 1 rent with assigned id, got %+v", created)
	}

	exists, err := repo.ExistsExact(ctx, tx, &types.Rent{
		AptID:         3,
		Deposit:       30000,
		MonthlyRent:   120,
		ExclusiveArea: 59.92,
		Floor:         4,
		ContractDate:  contract,
	})
	if err != nil {
		t.Fatalf("ExistsExact: %v", err)
	}
	if !exists {
		t.Fatalf("ExistsExact: expected true for identical row")
	}

	// Same unit, same day, converted to pure jeonse: a different deal.
	exists, err = repo.ExistsExact(ctx, tx, &types.Rent{
		AptID:         3,
		Deposit:       30000,
		MonthlyRent:   0,
		ExclusiveArea: 59.92,
		Floor:         4,
		ContractDate:  contract,
	})
	if err != nil {
		t.Fatalf("ExistsExact (jeonse): %v", err)
	}
	if exists {
		t.Fatalf("ExistsExact (jeonse): expected false")
	}

	if err := repo.SetDeleted(ctx, tx, created[0].TransID, true); err != nil {
		t.Fatalf("SetDeleted: %v", err)
	}

	got, err := repo.GetByIDs(ctx, tx, []int64{created[0].TransID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 || got[0].IsDeleted == nil || !*got[0].IsDeleted {
		t.Fatalf("GetByIDs: expected soft-deleted rent, got %+v", got)
	}
}
