package market

import (
	"context"

	"gorm.io/gorm"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type RentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rents []*types.Rent) ([]*types.Rent, error)
	ExistsExact(ctx context.Context, tx *gorm.DB, rent *types.Rent) (bool, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, transIDs []int64) ([]*types.Rent, error)
	SetDeleted(ctx context.Context, tx *gorm.DB, transID int64, deleted bool) error
	ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rents []*types.Rent) error) error
}

type rentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRentRepo(db *gorm.DB, baseLog *logger.Logger) RentRepo {
	repoLog := baseLog.With("repo", "RentRepo")
	return &rentRepo{db: db, log: repoLog}
}

func (rr *rentRepo) Create(ctx context.Context, tx *gorm.DB, rents []*types.Rent) ([]*types.Rent, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(rents) == 0 {
		return []*types.Rent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rents).Error; err != nil {
		return nil, err
	}

	return rents, nil
}

// ExistsExact mirrors the sale probe; the monthly rent takes part because
// a jeonse conversion of the same unit on the same day is a distinct deal.
func (rr *rentRepo) ExistsExact(ctx context.Context, tx *gorm.DB, rent *types.Rent) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64

	if err := transaction.WithContext(ctx).
		Model(&types.Rent{}).
		Where("apt_id = ? AND contract_date = ? AND deposit = ? AND monthly_rent = ? AND floor = ? AND exclusive_area = ?",
			rent.AptID, rent.ContractDate, rent.Deposit, rent.MonthlyRent, rent.Floor, rent.ExclusiveArea).
		Count(&count).Error; err != nil {
		return false, err
	}
	exists := count > 0
	return exists, nil
}

func (rr *rentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, transIDs []int64) ([]*types.Rent, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Rent

	if len(transIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("trans_id IN ?", transIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *rentRepo) SetDeleted(ctx context.Context, tx *gorm.DB, transID int64, deleted bool) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Rent{}).
		Where("trans_id = ?", transID).
		Update("is_deleted", deleted).Error
}

func (rr *rentRepo) ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rents []*types.Rent) error) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var batch []*types.Rent
	return transaction.WithContext(ctx).
		Order("trans_id").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
