package market

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type ApartmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, apts []*types.Apartment) ([]*types.Apartment, error)
	UpsertByKaptCode(ctx context.Context, tx *gorm.DB, apts []*types.Apartment) ([]*types.Apartment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, aptIDs []int64) ([]*types.Apartment, error)
	GetByRegionIDs(ctx context.Context, tx *gorm.DB, regionIDs []int64) ([]*types.Apartment, error)
	GetByKaptCodes(ctx context.Context, tx *gorm.DB, kaptCodes []string) ([]*types.Apartment, error)
	SetDeleted(ctx context.Context, tx *gorm.DB, aptID int64, deleted bool) error
	ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(apts []*types.Apartment) error) error
}

type apartmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApartmentRepo(db *gorm.DB, baseLog *logger.Logger) ApartmentRepo {
	repoLog := baseLog.With("repo", "ApartmentRepo")
	return &apartmentRepo{db: db, log: repoLog}
}

func (ar *apartmentRepo) Create(ctx context.Context, tx *gorm.DB, apts []*types.Apartment) ([]*types.Apartment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(apts) == 0 {
		return []*types.Apartment{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&apts).Error; err != nil {
		return nil, err
	}

	return apts, nil
}

// UpsertByKaptCode keys on the government complex code, so re-running the
// management-info collector refreshes names and regions instead of piling
// up duplicate rows. Rows without a code fall through to plain inserts.
func (ar *apartmentRepo) UpsertByKaptCode(ctx context.Context, tx *gorm.DB, apts []*types.Apartment) ([]*types.Apartment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(apts) == 0 {
		return []*types.Apartment{}, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kapt_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"region_id", "apt_name", "is_available", "updated_at"}),
		}).
		Create(&apts).Error; err != nil {
		return nil, err
	}

	return apts, nil
}

func (ar *apartmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, aptIDs []int64) ([]*types.Apartment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Apartment

	if len(aptIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("apt_id IN ?", aptIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *apartmentRepo) GetByRegionIDs(ctx context.Context, tx *gorm.DB, regionIDs []int64) ([]*types.Apartment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Apartment

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

func (ar *apartmentRepo) GetByKaptCodes(ctx context.Context, tx *gorm.DB, kaptCodes []string) ([]*types.Apartment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Apartment

	if len(kaptCodes) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("kapt_code IN ?", kaptCodes).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *apartmentRepo) SetDeleted(ctx context.Context, tx *gorm.DB, aptID int64, deleted bool) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Apartment{}).
		Where("apt_id = ?", aptID).
		Update("is_deleted", deleted).Error
}

func (ar *apartmentRepo) ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(apts []*types.Apartment) error) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var batch []*types.Apartment
	return transaction.WithContext(ctx).
		Order("apt_id").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
