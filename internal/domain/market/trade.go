package market

import (
	"time"
)

// Sale is one apartment sale contract as reported by the ministry feed.
// Prices are in 10,000 KRW units. Rows are never physically removed: a
// cancelled contract keeps its row with is_canceled set, and takedowns
// flip is_deleted instead of deleting.
type Sale struct {
	TransID       int64     `gorm:"column:trans_id;primaryKey;autoIncrement" json:"trans_id"`
	AptID         int64     `gorm:"column:apt_id;not null;index" json:"apt_id"`
	BuildYear     *int      `gorm:"column:build_year" json:"build_year,omitempty"`
	TransType     string    `gorm:"column:trans_type;not null;default:'매매'" json:"trans_type"`
	TransPrice    int64     `gorm:"column:trans_price;not null" json:"trans_price"`
	ExclusiveArea float64   `gorm:"column:exclusive_area;not null" json:"exclusive_area"`
	Floor         int       `gorm:"column:floor;not null" json:"floor"`
	ContractDate  time.Time `gorm:"column:contract_date;type:date;not null;index" json:"contract_date"`
	IsCanceled    bool      `gorm:"column:is_canceled;not null;default:false" json:"is_canceled"`
	IsDeleted     *bool     `gorm:"column:is_deleted" json:"is_deleted,omitempty"`
	Remarks       *string   `gorm:"column:remarks" json:"remarks,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Sale) TableName() string { return "sales" }

// Rent is one lease contract. MonthlyRent == 0 means a deposit-only
// (jeonse) lease. Leases cannot be cancelled after the fact, so there is
// no is_canceled column here.
type Rent struct {
	TransID       int64     `gorm:"column:trans_id;primaryKey;autoIncrement" json:"trans_id"`
	AptID         int64     `gorm:"column:apt_id;not null;index" json:"apt_id"`
	Deposit       int64     `gorm:"column:deposit;not null" json:"deposit"`
	MonthlyRent   int64     `gorm:"column:monthly_rent;not null;default:0" json:"monthly_rent"`
	ExclusiveArea float64   `gorm:"column:exclusive_area;not null" json:"exclusive_area"`
	Floor         int       `gorm:"column:floor;not null" json:"floor"`
	ContractDate  time.Time `gorm:"column:contract_date;type:date;not null;index" json:"contract_date"`
	IsDeleted     *bool     `gorm:"column:is_deleted" json:"is_deleted,omitempty"`
	Remarks       *string   `gorm:"column:remarks" json:"remarks,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Rent) TableName() string { return "rents" }
