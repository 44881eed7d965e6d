package market

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/aptscope/aptscope-backend/internal/data/repos/testutil"
	types "github.com/aptscope/aptscope-backend/internal/domain"
)

func TestCollectionRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCollectionRunRepo(db, testutil.Logger(t))
	ctx := context.Background()

	run, err := repo.Create(ctx, tx, &types.CollectionRun{
		Kind:       types.CollectionKindSale,
		Period:     "202405",
		RegionCode: "11680",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("Create: expected assigned run id")
	}
	if run.StartedAt.IsZero() {
		t.Fatalf("Create: expected started_at set")
	}

	errs := datatypes.JSON([]byte(`["apartment not matched: 은마"]`))
	if err := repo.Finish(ctx, tx, run.ID, 120, 97, 23, errs); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	recent, err := repo.ListRecent(ctx, tx, 5)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) == 0 {
		t.Fatalf("ListRecent: expected at least one run")
	}

	var found *types.CollectionRun
	for _, r := range recent {
		if r.ID == run.ID {
			found = r
			break
		}
	}
	if found == nil {
		t.Fatalf("ListRecent: created run missing from results")
	}
	if found.Fetched != 120 || found.Saved != 97 || found.Skipped != 23 {
		t.Fatalf("ListRecent: unexpected counts: %+v", found)
	}
	if found.FinishedAt == nil {
		t.Fatalf("ListRecent: expected finished_at set")
	}
}
