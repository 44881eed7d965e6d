package market

import (
	"context"

	"gorm.io/gorm"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type SaleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sales []*types.Sale) ([]*types.Sale, error)
	ExistsExact(ctx context.Context, tx *gorm.DB, sale *types.Sale) (bool, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, transIDs []int64) ([]*types.Sale, error)
	MarkCanceled(ctx context.Context, tx *gorm.DB, transID int64) error
	SetDeleted(ctx context.Context, tx *gorm.DB, transID int64, deleted bool) error
	ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(sales []*types.Sale) error) error
}

type saleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSaleRepo(db *gorm.DB, baseLog *logger.Logger) SaleRepo {
	repoLog := baseLog.With("repo", "SaleRepo")
	return &saleRepo{db: db, log: repoLog}
}

func (sr *saleRepo) Create(ctx context.Context, tx *gorm.DB, sales []*types.Sale) ([]*types.Sale, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(sales) == 0 {
		return []*types.Sale{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&sales).Error; err != nil {
		return nil, err
	}

	return sales, nil
}

// ExistsExact is the create-or-skip probe: the ministry feed carries no
// stable transaction id, so a row counts as already ingested when every
// identifying column matches.
func (sr *saleRepo) ExistsExact(ctx context.Context, tx *gorm.DB, sale *types.Sale) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var count int64

	if err := transaction.WithContext(ctx).
		Model(&types.Sale{}).
		Where("apt_id = ? AND contract_date = ? AND trans_price = ? AND floor = ? AND exclusive_area = ?",
			sale.AptID, sale.ContractDate, sale.TransPrice, sale.Floor, sale.ExclusiveArea).
		Count(&count).Error; err != nil {
		return false, err
	}
	exists := count > 0
	return exists, nil
}

func (sr *saleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, transIDs []int64) ([]*types.Sale, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Sale

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

func (sr *saleRepo) MarkCanceled(ctx context.Context, tx *gorm.DB, transID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Sale{}).
		Where("trans_id = ?", transID).
		Update("is_canceled", true).Error
}

func (sr *saleRepo) SetDeleted(ctx context.Context, tx *gorm.DB, transID int64, deleted bool) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Sale{}).
		Where("trans_id = ?", transID).
		Update("is_deleted", deleted).Error
}

// ListAll streams every row in primary-key batches; the engine rebuild
// walks millions of rows without holding them all at once.
func (sr *saleRepo) ListAll(ctx context.Context, tx *gorm.DB, batchSize int, fn func(sales []*types.Sale) error) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var batch []*types.Sale
	return transaction.WithContext(ctx).
		Order("trans_id").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
