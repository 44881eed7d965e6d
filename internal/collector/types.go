package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The open-data gateway serializes numbers inconsistently, bare in some
// payloads and quoted in others. flexInt accepts both and treats anything
// unparseable as absent, the same tolerance the feed demands everywhere.
type flexInt struct {
	Value int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		f.Valid = false
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f.Valid = false
		return nil
	}
	f.Value, f.Valid = n, true
	return nil
}

func (f flexInt) Ptr() *int {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Region code table (StanReginCd). The endpoint wraps head and row in a
// two-element array of single-key objects.
type regionCodePage struct {
	StanReginCd []regionSection `json:"StanReginCd"`
}

type regionSection struct {
	Head []regionHead `json:"head"`
	Row  []RegionRow  `json:"row"`
}

type regionHead struct {
	TotalCount flexInt `json:"totalCount"`
}

type RegionRow struct {
	RegionCd   string `json:"region_cd"`
	SidoCd     string `json:"sido_cd"`
	SggCd      string `json:"sgg_cd"`
	UmdCd      string `json:"umd_cd"`
	LocataddNm string `json:"locatadd_nm"`
	LocallowNm string `json:"locallow_nm"`
}

// Complex list (AptListService3).
type aptListPage struct {
	Response struct {
		Body struct {
			Items      []AptListItem `json:"items"`
			TotalCount flexInt       `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type AptListItem struct {
	KaptCode string `json:"kaptCode"`
	KaptName string `json:"kaptName"`
	BjdCode  string `json:"bjdCode"`
	As1      string `json:"as1"`
	As2      string `json:"as2"`
	As3      string `json:"as3"`
	As4      string `json:"as4"`
}

// Complex basic info (AptBasisInfoServiceV4, 기본정보).
type basicInfoPage struct {
	Response struct {
		Body struct {
			Item BasicInfo `json:"item"`
		} `json:"body"`
	} `json:"response"`
}

type BasicInfo struct {
	DoroJuso     string  `json:"doroJuso"`
	KaptAddr     string  `json:"kaptAddr"`
	Zipcode      string  `json:"zipcode"`
	KaptUsedate  string  `json:"kaptUsedate"`
	KaptdaCnt    flexInt `json:"kaptdaCnt"`
	KaptDongCnt  flexInt `json:"kaptDongCnt"`
	KaptTopFloor flexInt `json:"kaptTopFloor"`
	KaptBcompany string  `json:"kaptBcompany"`
	KaptAcompany string  `json:"kaptAcompany"`
	CodeMgrNm    string  `json:"codeMgrNm"`
	CodeHallNm   string  `json:"codeHallNm"`
	CodeSaleNm   string  `json:"codeSaleNm"`
	CodeHeatNm   string  `json:"codeHeatNm"`
}

// UseApprovalDate parses kaptUsedate (YYYYMMDD).
func (b BasicInfo) UseApprovalDate() *time.Time {
	s := strings.TrimSpace(b.KaptUsedate)
	if len(s) != 8 {
		return nil
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// Complex facility info (AptBasisInfoServiceV4, 상세정보).
type facilityInfoPage struct {
	Response struct {
		Body struct {
			Item FacilityInfo `json:"item"`
		} `json:"body"`
	} `json:"response"`
}

type FacilityInfo struct {
	CodeMgr           string  `json:"codeMgr"`
	KaptdPcntu        flexInt `json:"kaptdPcntu"`
	SubwayLine        string  `json:"subwayLine"`
	SubwayStation     string  `json:"subwayStation"`
	KaptdWtimesub     string  `json:"kaptdWtimesub"`
	EducationFacility string  `json:"educationFacility"`
}

// Trade endpoints answer in XML.
type tradeHeader struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

type saleEnvelope struct {
	Header tradeHeader `xml:"header"`
	Body   struct {
		Items struct {
			Item []SaleItem `xml:"item"`
		} `xml:"items"`
		TotalCount int `xml:"totalCount"`
	} `xml:"body"`
}

type rentEnvelope struct {
	Header tradeHeader `xml:"header"`
	Body   struct {
		Items struct {
			Item []RentItem `xml:"item"`
		} `xml:"items"`
		TotalCount int `xml:"totalCount"`
	} `xml:"body"`
}

// SaleItem is one row of the sale feed. Amounts arrive as comma-grouped
// strings in 10,000 KRW units; cdealType carries "O" when the contract
// was cancelled after reporting.
type SaleItem struct {
	AptNm      string `xml:"aptNm"`
	UmdNm      string `xml:"umdNm"`
	DealAmount string `xml:"dealAmount"`
	BuildYear  string `xml:"buildYear"`
	DealYear   string `xml:"dealYear"`
	DealMonth  string `xml:"dealMonth"`
	DealDay    string `xml:"dealDay"`
	ExcluUseAr string `xml:"excluUseAr"`
	Floor      string `xml:"floor"`
	CdealType  string `xml:"cdealType"`
	CdealDay   string `xml:"cdealDay"`
}

func (it SaleItem) Price() (int64, bool)          { return parseWon(it.DealAmount) }
func (it SaleItem) Area() (float64, bool)         { return parseArea(it.ExcluUseAr) }
func (it SaleItem) FloorNo() int                  { return parseFloor(it.Floor) }
func (it SaleItem) Canceled() bool                { return strings.TrimSpace(it.CdealType) == "O" }
func (it SaleItem) ContractDate() (time.Time, bool) {
	return parseDealDate(it.DealYear, it.DealMonth, it.DealDay)
}
func (it SaleItem) BuildYearNo() *int { return parseOptionalInt(it.BuildYear) }

// RentItem is one row of the lease feed. A blank or zero monthlyRent is a
// deposit-only (jeonse) lease.
type RentItem struct {
	AptNm        string `xml:"aptNm"`
	UmdNm        string `xml:"umdNm"`
	Deposit      string `xml:"deposit"`
	MonthlyRent  string `xml:"monthlyRent"`
	BuildYear    string `xml:"buildYear"`
	DealYear     string `xml:"dealYear"`
	DealMonth    string `xml:"dealMonth"`
	DealDay      string `xml:"dealDay"`
	ExcluUseAr   string `xml:"excluUseAr"`
	Floor        string `xml:"floor"`
	ContractType string `xml:"contractType"`
}

func (it RentItem) DepositWon() (int64, bool) { return parseWon(it.Deposit) }
func (it RentItem) MonthlyWon() int64 {
	if v, ok := parseWon(it.MonthlyRent); ok {
		return v
	}
	return 0
}
func (it RentItem) Area() (float64, bool) { return parseArea(it.ExcluUseAr) }
func (it RentItem) FloorNo() int          { return parseFloor(it.Floor) }
func (it RentItem) ContractDate() (time.Time, bool) {
	return parseDealDate(it.DealYear, it.DealMonth, it.DealDay)
}

func parseWon(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseArea(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloor(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parseOptionalInt(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

func parseDealDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes impossible days (Feb 30) into the next month.
	if t.Day() != d || t.Month() != time.Month(m) {
		return time.Time{}, false
	}
	return t, true
}

// MonthRange expands an inclusive YYYYMM range into its month keys.
func MonthRange(startYM, endYM string) ([]string, error) {
	start, err := parseMonth(startYM)
	if err != nil {
		return nil, err
	}
	end, err := parseMonth(endYM)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, fmt.Errorf("month range %s..%s inverted", startYM, endYM)
	}

	var months []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		months = append(months, cur.Format("200601"))
	}
	return months, nil
}

func parseMonth(s string) (time.Time, error) {
	if len(s) != 6 {
		return time.Time{}, fmt.Errorf("month %q not in YYYYMM form", s)
	}
	t, err := time.ParseInLocation("200601", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q not in YYYYMM form", s)
	}
	return t, nil
}
