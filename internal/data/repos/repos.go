package repos

import (
	"gorm.io/gorm"

	"github.com/aptscope/aptscope-backend/internal/data/repos/market"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type SaleRepo = market.SaleRepo
type RentRepo = market.RentRepo
type ApartmentRepo = market.ApartmentRepo
type ApartDetailRepo = market.ApartDetailRepo
type RegionRepo = market.RegionRepo
type CollectionRunRepo = market.CollectionRunRepo

func NewSaleRepo(db *gorm.DB, baseLog *logger.Logger) SaleRepo { return market.NewSaleRepo(db, baseLog) }
func NewRentRepo(db *gorm.DB, baseLog *logger.Logger) RentRepo { return market.NewRentRepo(db, baseLog) }
func NewApartmentRepo(db *gorm.DB, baseLog *logger.Logger) ApartmentRepo {
	return market.NewApartmentRepo(db, baseLog)
}
func NewApartDetailRepo(db *gorm.DB, baseLog *logger.Logger) ApartDetailRepo {
	return market.NewApartDetailRepo(db, baseLog)
}
func NewRegionRepo(db *gorm.DB, baseLog *logger.Logger) RegionRepo {
	return market.NewRegionRepo(db, baseLog)
}
func NewCollectionRunRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRunRepo {
	return market.NewCollectionRunRepo(db, baseLog)
}
