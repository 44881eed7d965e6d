package engine

import (
	"testing"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
)

func TestValidityTruthTable(t *testing.T) {
	v := NewValidity()

	cases := []struct {
		name string
		rec  market.TradeRecord
		want bool
	}{
		{
			name: "clean_sale",
			rec:  market.TradeRecord{Kind: market.TradeSale},
			want: true,
		},
		{
			name: "clean_rent",
			rec:  market.TradeRecord{Kind: market.TradeRent},
			want: true,
		},
		{
			name: "deleted_sale",
			rec:  market.TradeRecord{Kind: market.TradeSale, Deleted: true},
			want: false,
		},
		{
			name: "deleted_rent",
			rec:  market.TradeRecord{Kind: market.TradeRent, Deleted: true},
			want: false,
		},
		{
			name: "cancelled_sale",
			rec:  market.TradeRecord{Kind: market.TradeSale, Canceled: true},
			want: false,
		},
		{
			name: "cancelled_flag_ignored_on_rent",
			rec:  market.TradeRecord{Kind: market.TradeRent, Canceled: true},
			want: true,
		},
		{
			name: "dummy_remarks",
			rec:  market.TradeRecord{Kind: market.TradeSale, Remarks: DefaultDummyMarker},
			want: false,
		},
		{
			name: "ordinary_remarks",
			rec:  market.TradeRecord{Kind: market.TradeSale, Remarks: "중개거래"},
			want: true,
		},
		{
			name: "deleted_and_cancelled",
			rec:  market.TradeRecord{Kind: market.TradeSale, Deleted: true, Canceled: true},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.IsValid(tc.rec); got != tc.want {
				t.Fatalf("IsValid(%+v) = %v, want %v", tc.rec, got, tc.want)
			}
		})
	}
}

func TestValidityCustomMarkers(t *testing.T) {
	v := NewValidity("TEST ROW", "dummy")

	if v.IsValid(market.TradeRecord{Kind: market.TradeRent, Remarks: "TEST ROW"}) {
		t.Fatalf("configured marker should invalidate the record")
	}
	if v.IsValid(market.TradeRecord{Kind: market.TradeRent, Remarks: "dummy"}) {
		t.Fatalf("second configured marker should invalidate the record")
	}
	if !v.IsValid(market.TradeRecord{Kind: market.TradeRent, Remarks: DefaultDummyMarker}) {
		t.Fatalf("default marker should not apply once markers are configured")
	}
	if !v.IsValid(market.TradeRecord{Kind: market.TradeRent, Remarks: "TEST ROW "}) {
		t.Fatalf("marker comparison must be exact, not substring or trimmed")
	}
}

func TestValidityBlankMarkerNeverMatchesEmptyRemarks(t *testing.T) {
	v := NewValidity("", "  ")

	// Blank markers are dropped, so the set falls back to the default and
	// records with empty remarks stay valid.
	if !v.IsValid(market.TradeRecord{Kind: market.TradeSale}) {
		t.Fatalf("record with empty remarks should be valid")
	}
	if v.IsValid(market.TradeRecord{Kind: market.TradeSale, Remarks: DefaultDummyMarker}) {
		t.Fatalf("default marker should apply when only blank markers were configured")
	}
}
