package market

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CollectionKindSale      = "sale"
	CollectionKindRent      = "rent"
	CollectionKindRegion    = "region"
	CollectionKindApartment = "apartment"
	CollectionKindDetail    = "detail"
	CollectionKindImport    = "import"
)

// CollectionRun is the audit row written once per ingestion batch, whether
// the batch came from the ministry API or a workbook import.
type CollectionRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind       string         `gorm:"column:kind;not null;index" json:"kind"`
	Period     string         `gorm:"column:period" json:"period,omitempty"`
	RegionCode string         `gorm:"column:region_code" json:"region_code,omitempty"`
	Fetched    int            `gorm:"column:fetched;not null;default:0" json:"fetched"`
	Saved      int            `gorm:"column:saved;not null;default:0" json:"saved"`
	Skipped    int            `gorm:"column:skipped;not null;default:0" json:"skipped"`
	Errors     datatypes.JSON `gorm:"column:errors;type:jsonb" json:"errors,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (CollectionRun) TableName() string { return "collection_runs" }
