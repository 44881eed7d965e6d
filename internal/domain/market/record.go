package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// TradeKind discriminates the two transaction variants. Sale and rent ids
// come from separate sequences, so a bare TransID is ambiguous; TradeID is
// the unambiguous identity used everywhere outside the two tables.
type TradeKind uint8

const (
	TradeSale TradeKind = iota
	TradeRent
)

func (k TradeKind) String() string {
	switch k {
	case TradeSale:
		return "sale"
	case TradeRent:
		return "rent"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the kind by name so API payloads and cache entries
// stay readable.
func (k TradeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *TradeKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, ok := ParseTradeKind(s)
	if !ok {
		return fmt.Errorf("unknown trade kind %q", s)
	}
	*k = parsed
	return nil
}

// ParseTradeKind maps the wire spelling back to a kind.
func ParseTradeKind(s string) (TradeKind, bool) {
	switch s {
	case "sale", "SALE", "매매":
		return TradeSale, true
	case "rent", "RENT", "전월세":
		return TradeRent, true
	default:
		return TradeSale, false
	}
}

type TradeID struct {
	Kind    TradeKind
	TransID int64
}

// TradeRecord is the flattened view of a sale or rent row that the query
// engine operates on. Shared fields are hoisted; Price carries the sale
// price for sales and the deposit for rents, MonthlyRent is rent-only and
// Canceled is sale-only.
type TradeRecord struct {
	Kind          TradeKind `json:"kind"`
	TransID       int64     `json:"trans_id"`
	AptID         int64     `json:"apt_id"`
	ContractDate  time.Time `json:"contract_date"`
	Price         int64     `json:"price"`
	MonthlyRent   int64     `json:"monthly_rent,omitempty"`
	ExclusiveArea float64   `json:"exclusive_area"`
	Floor         int       `json:"floor"`
	Canceled      bool      `json:"canceled,omitempty"`
	Deleted       bool      `json:"deleted,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
}

func (r TradeRecord) ID() TradeID {
	return TradeID{Kind: r.Kind, TransID: r.TransID}
}

// SaleRecord flattens a sale row. A nil is_deleted means the row was never
// marked, which reads as false.
func SaleRecord(s *Sale) TradeRecord {
	rec := TradeRecord{
		Kind:          TradeSale,
		TransID:       s.TransID,
		AptID:         s.AptID,
		ContractDate:  s.ContractDate,
		Price:         s.TransPrice,
		ExclusiveArea: s.ExclusiveArea,
		Floor:         s.Floor,
		Canceled:      s.IsCanceled,
	}
	if s.IsDeleted != nil {
		rec.Deleted = *s.IsDeleted
	}
	if s.Remarks != nil {
		rec.Remarks = *s.Remarks
	}
	return rec
}

func RentRecord(r *Rent) TradeRecord {
	rec := TradeRecord{
		Kind:          TradeRent,
		TransID:       r.TransID,
		AptID:         r.AptID,
		ContractDate:  r.ContractDate,
		Price:         r.Deposit,
		MonthlyRent:   r.MonthlyRent,
		ExclusiveArea: r.ExclusiveArea,
		Floor:         r.Floor,
	}
	if r.IsDeleted != nil {
		rec.Deleted = *r.IsDeleted
	}
	if r.Remarks != nil {
		rec.Remarks = *r.Remarks
	}
	return rec
}
