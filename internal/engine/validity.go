package engine

import (
	"strings"

	"github.com/aptscope/aptscope-backend/internal/domain/market"
)

// DefaultDummyMarker is the remarks literal the collector writes on rows it
// inserts for pipeline smoke tests. Deployments can override or extend the
// marker set through Options.
const DefaultDummyMarker = "테스트용 더미 데이터"

// Validity is the one exclusion rule every read path shares. A record is
// valid iff it is not soft-deleted, not a cancelled sale, and its remarks
// text is not a configured dummy marker. Index maintenance, search, scan
// fallback and aggregation all route through IsValid; duplicating the rule
// anywhere else is a defect.
type Validity struct {
	markers map[string]struct{}
}

// NewValidity builds the filter from the configured marker literals. Blank
// markers are dropped so empty remarks never match. No markers at all
// falls back to DefaultDummyMarker.
func NewValidity(markers ...string) Validity {
	set := make(map[string]struct{}, len(markers)+1)
	for _, m := range markers {
		if strings.TrimSpace(m) == "" {
			continue
		}
		set[m] = struct{}{}
	}
	if len(set) == 0 {
		set[DefaultDummyMarker] = struct{}{}
	}
	return Validity{markers: set}
}

// IsValid is pure and total. Absent flags read as false: a record is valid
// unless explicitly marked otherwise.
func (v Validity) IsValid(rec market.TradeRecord) bool {
	if rec.Deleted {
		return false
	}
	if rec.Kind == market.TradeSale && rec.Canceled {
		return false
	}
	if _, dummy := v.markers[rec.Remarks]; dummy {
		return false
	}
	return true
}
