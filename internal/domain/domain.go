package domain

import (
	"github.com/aptscope/aptscope-backend/internal/domain/market"
)

type Sale = market.Sale
type Rent = market.Rent
type Apartment = market.Apartment
type ApartDetail = market.ApartDetail
type Region = market.Region
type CollectionRun = market.CollectionRun

type TradeKind = market.TradeKind
type TradeID = market.TradeID
type TradeRecord = market.TradeRecord

const (
	TradeSale = market.TradeSale
	TradeRent = market.TradeRent
)

const (
	CollectionKindSale      = market.CollectionKindSale
	CollectionKindRent      = market.CollectionKindRent
	CollectionKindRegion    = market.CollectionKindRegion
	CollectionKindApartment = market.CollectionKindApartment
	CollectionKindDetail    = market.CollectionKindDetail
	CollectionKindImport    = market.CollectionKindImport
)

var (
	SaleRecord     = market.SaleRecord
	RentRecord     = market.RentRecord
	ParseTradeKind = market.ParseTradeKind
)
