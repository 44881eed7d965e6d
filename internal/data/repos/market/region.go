package market

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type RegionRepo interface {
	UpsertByCode(ctx context.Context, tx *gorm.DB, regions []*types.Region) ([]*types.Region, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, regionIDs []int64) ([]*types.Region, error)
	GetByCodes(ctx context.Context, tx *gorm.DB, regionCodes []string) ([]*types.Region, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Region, error)
}

type regionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRegionRepo(db *gorm.DB, baseLog *logger.Logger) RegionRepo {
	repoLog := baseLog.With("repo", "RegionRepo")
	return &regionRepo{db: db, log: repoLog}
}

func (rr *regionRepo) UpsertByCode(ctx context.Context, tx *gorm.DB, regions []*types.Region) ([]*types.Region, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(regions) == 0 {
		return []*types.Region{}, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "region_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"region_name", "city_name", "updated_at"}),
		}).
		Create(&regions).Error; err != nil {
		return nil, err
	}

	return regions, nil
}

func (rr *regionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, regionIDs []int64) ([]*types.Region, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Region

	if len(regionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("region_id IN ?", regionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *regionRepo) GetByCodes(ctx context.Context, tx *gorm.DB, regionCodes []string) ([]*types.Region, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Region

	if len(regionCodes) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("region_code IN ?", regionCodes).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListAll loads the whole district table; it tops out around twenty
// thousand rows, small enough to hold.
func (rr *regionRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Region, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Region
	if err := transaction.WithContext(ctx).
		Order("region_code").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
