package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Readers for the trade workbooks published on the ministry's download
// portal. The dumps open with a block of disclaimer rows, so the header row
// is located by its 단지명 column and every field is resolved by header name,
// never by position. Rows that fail to parse are collected, not fatal.

const maxPreambleRows = 40

// RowError records one unparseable workbook row by its 1-based row number.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// SaleRow is one parsed row of a sale dump. Price stays in the portal's
// 10,000 KRW units.
type SaleRow struct {
	AptName      string
	Address      string
	Area         float64
	ContractDate time.Time
	Price        int64
	Floor        int
	BuildYear    *int
	Canceled     bool
}

// Dong returns the legal-dong token of the 시군구 address, used to narrow
// apartment matching the same way the live feed's umdNm does.
func (r SaleRow) Dong() string { return lastToken(r.Address) }

// RentRow is one parsed row of a lease dump. A blank 월세 column is a
// deposit-only lease.
type RentRow struct {
	AptName      string
	Address      string
	Area         float64
	ContractDate time.Time
	Deposit      int64
	MonthlyRent  int64
	Floor        int
	BuildYear    *int
}

func (r RentRow) Dong() string { return lastToken(r.Address) }

// The portal has renamed a few headers across revisions; each field keeps
// its known aliases.
var (
	colApt     = []string{"단지명"}
	colAddr    = []string{"시군구"}
	colArea    = []string{"전용면적(㎡)", "전용면적"}
	colYM      = []string{"계약년월"}
	colDay     = []string{"계약일"}
	colPrice   = []string{"거래금액(만원)", "거래금액"}
	colFloor   = []string{"층"}
	colBuilt   = []string{"건축년도"}
	colCancel  = []string{"해제사유발생일"}
	colDeposit = []string{"보증금(만원)", "보증금"}
	colMonthly = []string{"월세금(만원)", "월세(만원)", "월세"}
)

// ReadSales parses a sale workbook. It returns the rows that parsed, the
// per-row failures, and an error only when the workbook itself is unusable.
func ReadSales(r io.Reader) ([]SaleRow, []RowError, error) {
	rows, headerAt, header, err := openSheet(r)
	if err != nil {
		return nil, nil, err
	}

	aptIdx := locate(header, colApt)
	addrIdx := locate(header, colAddr)
	areaIdx := locate(header, colArea)
	ymIdx := locate(header, colYM)
	dayIdx := locate(header, colDay)
	priceIdx := locate(header, colPrice)
	floorIdx := locate(header, colFloor)
	builtIdx := locate(header, colBuilt)
	cancelIdx := locate(header, colCancel)
	for name, idx := range map[string]int{"단지명": aptIdx, "전용면적": areaIdx, "계약년월": ymIdx, "계약일": dayIdx, "거래금액": priceIdx} {
		if idx < 0 {
			return nil, nil, fmt.Errorf("workbook missing %s column", name)
		}
	}

	var (
		parsed []SaleRow
		bad    []RowError
	)
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		rowNo := i + 1
		if blankRow(row) {
			continue
		}

		name := strings.TrimSpace(cell(row, aptIdx))
		if name == "" {
			bad = append(bad, RowError{rowNo, fmt.Errorf("blank 단지명")})
			continue
		}
		area, err := parseArea(cell(row, areaIdx))
		if err != nil {
			bad = append(bad, RowError{rowNo, err})
			continue
		}
		date, err := parseContractDate(cell(row, ymIdx), cell(row, dayIdx))
		if err != nil {
			bad = append(bad, RowError{rowNo, err})
			continue
		}
		price, err := parseManwon(cell(row, priceIdx))
		if err != nil {
			bad = append(bad, RowError{rowNo, err})
			continue
		}
		if price <= 0 {
			bad = append(bad, RowError{rowNo, fmt.Errorf("non-positive 거래금액 %d", price)})
			continue
		}

		parsed = append(parsed, SaleRow{
			AptName:      name,
			Address:      strings.TrimSpace(cell(row, addrIdx)),
			Area:         area,
			ContractDate: date,
			Price:        price,
			Floor:        parseFloorCell(cell(row, floorIdx)),
			BuildYear:    parseYearCell(cell(row, builtIdx)),
			Canceled:     cancelMarked(cell(row, cancelIdx)),
		})
	}
	return parsed, bad, nil
}

// ReadRents parses a lease workbook.
func ReadRents(r io.Reader) ([]RentRow, []RowError, error) {
	rows, headerAt, header, err := openSheet(r)
	if err != nil {
		return nil, nil, err
	}

	aptIdx := locate(header, colApt)
	addrIdx := locate(header, colAddr)
	areaIdx := locate(header, colArea)
	ymIdx := locate(header, colYM)
	dayIdx := locate(header, colDay)
	depositIdx := locate(header, colDeposit)
	monthlyIdx := locate(header, colMonthly)
	floorIdx := locate(header, colFloor)
	builtIdx := locate(header, colBuilt)
	for name, idx := range map[string]int{"단지명": aptIdx, "전용면적": areaIdx, "계약년월": ymIdx, "계약일": dayIdx, "보증금": depositIdx} {
		if idx < 0 {
			return nil, nil, fmt.Errorf("workbook missing %s column", name)
		}
	}

	var (
		parsed []RentRow
		bad    []RowError
	)
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		rowNo := i + 1
		if blankRow(row) {
			continue
		}

		name := strings.TrimSpace(cell(row, aptIdx))
		if name == "" {
			bad = append(bad, RowError{rowNo, fmt.Errorf("blank 단지명")})
			continue
		}
		area, err := parseArea(cell(row, areaIdx))
		if err != nil {
			bad = append(bad, RowError{rowNo, err})
			continue
		}
		date, err := parseContractDate(cell(row, ymIdx), cell(row, dayIdx))
		if err != nil {
			bad = append(bad, RowError{rowNo, err})
			continue
		}
		deposit, err := parseManwon(cell(row, depositIdx))
		if err != nil {
			bad = append(bad, RowError{rowNo, err})
			continue
		}
		if deposit < 0 {
			bad = append(bad, RowError{rowNo, fmt.Errorf("negative 보증금 %d", deposit)})
			continue
		}
		monthly := int64(0)
		if raw := strings.TrimSpace(cell(row, monthlyIdx)); raw != "" && raw != "-" {
			monthly, err = parseManwon(raw)
			if err != nil {
				bad = append(bad, RowError{rowNo, err})
				continue
			}
		}

		parsed = append(parsed, RentRow{
			AptName:      name,
			Address:      strings.TrimSpace(cell(row, addrIdx)),
			Area:         area,
			ContractDate: date,
			Deposit:      deposit,
			MonthlyRent:  monthly,
			Floor:        parseFloorCell(cell(row, floorIdx)),
			BuildYear:    parseYearCell(cell(row, builtIdx)),
		})
	}
	return parsed, bad, nil
}

func openSheet(r io.Reader) (rows [][]string, headerAt int, header []string, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, 0, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err = f.GetRows(sheet)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	headerAt = -1
	for i, row := range rows {
		if i >= maxPreambleRows {
			break
		}
		if locate(row, colApt) >= 0 {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, 0, nil, fmt.Errorf("no header row within the first %d rows", maxPreambleRows)
	}
	return rows, headerAt, rows[headerAt], nil
}

func locate(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, alias := range aliases {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

// GetRows trims trailing empty cells per row, so every access is bounded.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseManwon(s string) (int64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return 0, fmt.Errorf("blank amount")
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

func parseArea(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("blank 전용면적")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("전용면적 %q unusable", s)
	}
	return v, nil
}

func parseContractDate(ym, day string) (time.Time, error) {
	ym = strings.TrimSpace(ym)
	if len(ym) != 6 {
		return time.Time{}, fmt.Errorf("계약년월 %q not YYYYMM", ym)
	}
	base, err := time.ParseInLocation("200601", ym, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("계약년월 %q not YYYYMM", ym)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("계약일 %q unusable", day)
	}
	date := base.AddDate(0, 0, d-1)
	if date.Day() != d {
		return time.Time{}, fmt.Errorf("계약일 %d outside %s", d, ym)
	}
	return date, nil
}

func parseFloorCell(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parseYearCell(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1900 {
		return nil
	}
	return &v
}

func cancelMarked(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != "-"
}

func lastToken(addr string) string {
	fields := strings.Fields(addr)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
