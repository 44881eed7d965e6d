package app

import (
	"gorm.io/gorm"

	"github.com/aptscope/aptscope-backend/internal/data/repos"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type Repos struct {
	Sale          repos.SaleRepo
	Rent          repos.RentRepo
	Apartment     repos.ApartmentRepo
	ApartDetail   repos.ApartDetailRepo
	Region        repos.RegionRepo
	CollectionRun repos.CollectionRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Sale:          repos.NewSaleRepo(db, log),
		Rent:          repos.NewRentRepo(db, log),
		Apartment:     repos.NewApartmentRepo(db, log),
		ApartDetail:   repos.NewApartDetailRepo(db, log),
		Region:        repos.NewRegionRepo(db, log),
		CollectionRun: repos.NewCollectionRunRepo(db, log),
	}
}
