package market

import "time"

// Region is one entry of the statutory district (법정동) code table.
// RegionCode is the full 10-digit code; the leading five digits identify
// the city/gu (시군구) and the trailing five the neighborhood.
type Region struct {
	RegionID   int64     `gorm:"column:region_id;primaryKey;autoIncrement" json:"region_id"`
	RegionName string    `gorm:"column:region_name;not null" json:"region_name"`
	RegionCode string    `gorm:"column:region_code;not null;uniqueIndex;size:10" json:"region_code"`
	CityName   string    `gorm:"column:city_name;not null;index" json:"city_name"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Region) TableName() string { return "regions" }

// SggCode returns the 5-digit city/gu prefix used by the ministry trade
// endpoints, or "" if the code is malformed.
func (r Region) SggCode() string {
	if len(r.RegionCode) < 5 {
		return ""
	}
	return r.RegionCode[:5]
}
