package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/aptscope/aptscope-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Dimensions
		&types.Region{},
		&types.Apartment{},
		&types.ApartDetail{},

		// Transactions
		&types.Sale{},
		&types.Rent{},

		// Collector bookkeeping
		&types.CollectionRun{},
	)
}

// EnsureMarketIndexes creates the composite indexes the hot queries lean
// on. Plain btree DDL only, so the statements run under both postgres and
// sqlite.
func EnsureMarketIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_sales_apt_date", `CREATE INDEX IF NOT EXISTS idx_sales_apt_date ON sales (apt_id, contract_date DESC);`},
		{"idx_sales_date_price_area", `CREATE INDEX IF NOT EXISTS idx_sales_date_price_area ON sales (contract_date DESC, trans_price, exclusive_area);`},
		{"idx_sales_dedup", `CREATE INDEX IF NOT EXISTS idx_sales_dedup ON sales (apt_id, contract_date, trans_price, floor, exclusive_area);`},
		{"idx_rents_apt_date", `CREATE INDEX IF NOT EXISTS idx_rents_apt_date ON rents (apt_id, contract_date DESC);`},
		{"idx_rents_date_price_area", `CREATE INDEX IF NOT EXISTS idx_rents_date_price_area ON rents (contract_date DESC, deposit, exclusive_area);`},
		{"idx_rents_dedup", `CREATE INDEX IF NOT EXISTS idx_rents_dedup ON rents (apt_id, contract_date, deposit, monthly_rent, floor, exclusive_area);`},
		{"idx_apartments_region_apt", `CREATE INDEX IF NOT EXISTS idx_apartments_region_apt ON apartments (region_id, apt_id);`},
		{"idx_apart_details_apt", `CREATE INDEX IF NOT EXISTS idx_apart_details_apt ON apart_details (apt_id);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating database tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureMarketIndexes(s.db); err != nil {
		s.log.Error("Market index migration failed", "error", err)
		return err
	}
	return nil
}
