package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/aptscope/aptscope-backend/internal/domain"
)

func SeedRegion(tb testing.TB, ctx context.Context, tx *gorm.DB, code, name string) *types.Region {
	tb.Helper()
	r := &types.Region{
		RegionName: name,
		RegionCode: code,
		CityName:   "서울특별시",
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed region: %v", err)
	}
	return r
}

func SeedApartment(tb testing.TB, ctx context.Context, tx *gorm.DB, regionID int64, name string) *types.Apartment {
	tb.Helper()
	a := &types.Apartment{
		RegionID:    regionID,
		AptName:     name,
		IsAvailable: true,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed apartment: %v", err)
	}
	return a
}

func SeedApartDetail(tb testing.TB, ctx context.Context, tx *gorm.DB, aptID int64, subwayTime string) *types.ApartDetail {
	tb.Helper()
	d := &types.ApartDetail{
		AptID:             aptID,
		TotalHouseholdCnt: 500,
	}
	if subwayTime != "" {
		d.SubwayTime = &subwayTime
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed apart detail: %v", err)
	}
	return d
}

func SeedSale(tb testing.TB, ctx context.Context, tx *gorm.DB, aptID int64, price int64, contract time.Time) *types.Sale {
	tb.Helper()
	s := &types.Sale{
		AptID:         aptID,
		TransType:     "매매",
		TransPrice:    price,
		ExclusiveArea: 84.97,
		Floor:         10,
		ContractDate:  contract,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed sale: %v", err)
	}
	return s
}

func SeedRent(tb testing.TB, ctx context.Context, tx *gorm.DB, aptID int64, deposit, monthly int64, contract time.Time) *types.Rent {
	tb.Helper()
	r := &types.Rent{
		AptID:         aptID,
		Deposit:       deposit,
		MonthlyRent:   monthly,
		ExclusiveArea: 59.92,
		Floor:         4,
		ContractDate:  contract,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rent: %v", err)
	}
	return r
}

func PtrStr(v string) *string { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
