package market

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type CollectionRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.CollectionRun) (*types.CollectionRun, error)
	Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, fetched, saved, skipped int, errs datatypes.JSON) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CollectionRun, error)
}

type collectionRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRunRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRunRepo {
	repoLog := baseLog.With("repo", "CollectionRunRepo")
	return &collectionRunRepo{db: db, log: repoLog}
}

func (cr *collectionRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.CollectionRun) (*types.CollectionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	// SQLite has no uuid_generate_v4, so the id is set app-side when the
	// database default did not.
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}

	return run, nil
}

func (cr *collectionRunRepo) Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, fetched, saved, skipped int, errs datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"fetched":     fetched,
		"saved":       saved,
		"skipped":     skipped,
		"finished_at": now,
	}
	if len(errs) > 0 {
		updates["errors"] = errs
	}

	return transaction.WithContext(ctx).
		Model(&types.CollectionRun{}).
		Where("id = ?", runID).
		Updates(updates).Error
}

func (cr *collectionRunRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CollectionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if limit <= 0 {
		limit = 20
	}

	var results []*types.CollectionRun
	if err := transaction.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
