package market

import (
	"time"

	"gorm.io/datatypes"
)

// Apartment is the complex dimension. KaptCode is the government complex
// code when the row came from the management-info API; rows created from
// workbook imports have none, so the column is nullable under its unique
// index.
type Apartment struct {
	AptID       int64     `gorm:"column:apt_id;primaryKey;autoIncrement" json:"apt_id"`
	RegionID    int64     `gorm:"column:region_id;not null;index" json:"region_id"`
	AptName     string    `gorm:"column:apt_name;not null;index" json:"apt_name"`
	KaptCode    *string   `gorm:"column:kapt_code;uniqueIndex;size:20" json:"kapt_code,omitempty"`
	IsAvailable bool      `gorm:"column:is_available;not null;default:true" json:"is_available"`
	IsDeleted   *bool     `gorm:"column:is_deleted" json:"is_deleted,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Apartment) TableName() string { return "apartments" }

// ApartDetail carries the facility attributes of one apartment complex.
// apt_id is intended to be 1:1 but the feed occasionally delivers the same
// complex twice, so the column is indexed without a unique constraint and
// readers resolve duplicates deterministically (lowest detail_id wins).
type ApartDetail struct {
	DetailID          int64          `gorm:"column:detail_id;primaryKey;autoIncrement" json:"detail_id"`
	AptID             int64          `gorm:"column:apt_id;not null;index" json:"apt_id"`
	RoadAddress       *string        `gorm:"column:road_address" json:"road_address,omitempty"`
	JibunAddress      *string        `gorm:"column:jibun_address" json:"jibun_address,omitempty"`
	ZipCode           *string        `gorm:"column:zip_code" json:"zip_code,omitempty"`
	TotalHouseholdCnt int            `gorm:"column:total_household_cnt;not null;default:0" json:"total_household_cnt"`
	TotalBuildingCnt  *int           `gorm:"column:total_building_cnt" json:"total_building_cnt,omitempty"`
	HighestFloor      *int           `gorm:"column:highest_floor" json:"highest_floor,omitempty"`
	UseApprovalDate   *time.Time     `gorm:"column:use_approval_date;type:date" json:"use_approval_date,omitempty"`
	TotalParkingCnt   *int           `gorm:"column:total_parking_cnt" json:"total_parking_cnt,omitempty"`
	Builder           *string        `gorm:"column:builder" json:"builder,omitempty"`
	Developer         *string        `gorm:"column:developer" json:"developer,omitempty"`
	ManageType        *string        `gorm:"column:manage_type" json:"manage_type,omitempty"`
	HallwayType       *string        `gorm:"column:hallway_type" json:"hallway_type,omitempty"`
	SubwayLine        *string        `gorm:"column:subway_line" json:"subway_line,omitempty"`
	SubwayStation     *string        `gorm:"column:subway_station" json:"subway_station,omitempty"`
	SubwayTime        *string        `gorm:"column:subway_time" json:"subway_time,omitempty"`
	SubwayMinutes     *int           `gorm:"column:subway_minutes" json:"subway_minutes,omitempty"`
	EducationFacility *string        `gorm:"column:education_facility;size:200" json:"education_facility,omitempty"`
	Geometry          datatypes.JSON `gorm:"column:geometry;type:jsonb" json:"geometry,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ApartDetail) TableName() string { return "apart_details" }
