package market

import (
	"context"

	"gorm.io/gorm"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type ApartDetailRepo interface {
	Create(ctx context.Context, tx *gorm.DB, details []*types.ApartDetail) ([]*types.ApartDetail, error)
	Update(ctx context.Context, tx *gorm.DB, detail *types.ApartDetail) error
	GetByAptIDs(ctx context.Context, tx *gorm.DB, aptIDs []int64) ([]*types.ApartDetail, error)
	ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(details []*types.ApartDetail) error) error
}

type apartDetailRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApartDetailRepo(db *gorm.DB, baseLog *logger.Logger) ApartDetailRepo {
	repoLog := baseLog.With("repo", "ApartDetailRepo")
	return &apartDetailRepo{db: db, log: repoLog}
}

func (dr *apartDetailRepo) Create(ctx context.Context, tx *gorm.DB, details []*types.ApartDetail) ([]*types.ApartDetail, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(details) == 0 {
		return []*types.ApartDetail{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&details).Error; err != nil {
		return nil, err
	}

	return details, nil
}

func (dr *apartDetailRepo) Update(ctx context.Context, tx *gorm.DB, detail *types.ApartDetail) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).Save(detail).Error
}

func (dr *apartDetailRepo) GetByAptIDs(ctx context.Context, tx *gorm.DB, aptIDs []int64) ([]*types.ApartDetail, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.ApartDetail

	if len(aptIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("apt_id IN ?", aptIDs).
		Order("detail_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *apartDetailRepo) ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(details []*types.ApartDetail) error) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var batch []*types.ApartDetail
	return transaction.WithContext(ctx).
		Order("detail_id").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
