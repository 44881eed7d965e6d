package market

import (
	"context"
	"testing"

	"github.com/aptscope/aptscope-backend/internal/data/repos/testutil"
	types "github.com/aptscope/aptscope-backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestApartmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewApartmentRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, tx, []*types.Apartment{
		{RegionID: 101, AptName: "래미안 테스트"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].AptID == 0 {
		t.Fatalf("Create: expected 1 apartment with assigned id, got %+v", created)
	}

	upserted, err := repo.UpsertByKaptCode(ctx, tx, []*types.Apartment{
		{RegionID: 101, AptName: "아크로 테스트", KaptCode: strPtr("A10027875")},
	})
	if err != nil {
		t.Fatalf("UpsertByKaptCode: %v", err)
	}
	if len(upserted) != 1 {
		t.Fatalf("UpsertByKaptCode: expected 1 apartment, got %d", len(upserted))
	}

	// Re-collecting the same complex refreshes the row in place.
	if _, err := repo.UpsertByKaptCode(ctx, tx, []*types.Apartment{
		{RegionID: 102, AptName: "아크로 테스트 2차", KaptCode: strPtr("A10027875")},
	}); err != nil {
		t.Fatalf("UpsertByKaptCode (again): %v", err)
	}

	byCode, err := repo.GetByKaptCodes(ctx, tx, []string{"A10027875"})
	if err != nil {
		t.Fatalf("GetByKaptCodes: %v", err)
	}
	if len(byCode) != 1 {
		t.Fatalf("GetByKaptCodes: expected 1 apartment after repeat upsert, got %d", len(byCode))
	}
	if byCode[0].AptName != "아크로 테스트 2차" || byCode[0].RegionID != 102 {
		t.Fatalf("GetByKaptCodes: expected refreshed fields, got %+v", byCode[0])
	}

	byRegion, err := repo.GetByRegionIDs(ctx, tx, []int64{101})
	if err != nil {
		t.Fatalf("GetByRegionIDs: %v", err)
	}
	if len(byRegion) != 1 || byRegion[0].AptID != created[0].AptID {
		t.Fatalf("GetByRegionIDs: unexpected result: %+v", byRegion)
	}

	if err := repo.SetDeleted(ctx, tx, created[0].AptID, true); err != nil {
		t.Fatalf("SetDeleted: %v", err)
	}
	got, err := repo.GetByIDs(ctx, tx, []int64{created[0].AptID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 || got[0].IsDeleted == nil || !*got[0].IsDeleted {
		t.Fatalf("GetByIDs: expected soft-deleted apartment, got %+v", got)
	}
}
