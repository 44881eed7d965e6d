package collector

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

// Public data portal endpoints. Region codes come from the MOIS standard
// region table, everything else from the MOLIT apartment services.
const (
	regionCodeURL = "https://apis.data.go.kr/1741000/StanReginCd/getStanReginCdList"
	aptListURL    = "https://apis.data.go.kr/1613000/AptListService3/getTotalAptList3"
	aptBasicURL   = "https://apis.data.go.kr/1613000/AptBasisInfoServiceV4/getAphusBassInfoV4"
	aptDetailURL  = "https://apis.data.go.kr/1613000/AptBasisInfoServiceV4/getAphusDtlInfoV4"
	saleTradeURL  = "https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade"
	rentTradeURL  = "https://apis.data.go.kr/1613000/RTMSDataSvcAptRent/getRTMSDataSvcAptRent"
)

// Client talks to the public data portal. All endpoints share one service
// key; JSON endpoints are decoded by resty, the trade endpoints answer XML
// regardless of the requested type and are decoded by hand.
type Client struct {
	http       *resty.Client
	serviceKey string
	log        *logger.Logger
}

func NewClient(serviceKey string, baseLog *logger.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{
		http:       httpClient,
		serviceKey: serviceKey,
		log:        baseLog.With("client", "MolitClient"),
	}
}

// RegionPage fetches one page of the standard region code table filtered to
// one city prefix ("서울특별시", "경기도", ...). Returns the rows plus the
// total row count so callers can page.
func (c *Client) RegionPage(ctx context.Context, cityName string, pageNo, numOfRows int) ([]RegionRow, int, error) {
	var page regionCodePage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey":  c.serviceKey,
			"pageNo":      strconv.Itoa(pageNo),
			"numOfRows":   strconv.Itoa(numOfRows),
			"type":        "json",
			"locatadd_nm": cityName,
		}).
		SetResult(&page).
		ForceContentType("application/json").
		Get(regionCodeURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch region codes page %d: %w", pageNo, err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("fetch region codes page %d: status %s", pageNo, resp.Status())
	}

	var rows []RegionRow
	total := 0
	for _, section := range page.StanReginCd {
		for _, head := range section.Head {
			if head.TotalCount.Valid {
				total = head.TotalCount.Value
			}
		}
		rows = append(rows, section.Row...)
	}
	return rows, total, nil
}

// AptListPage fetches one page of the nationwide complex roster.
func (c *Client) AptListPage(ctx context.Context, pageNo, numOfRows int) ([]AptListItem, int, error) {
	var page aptListPage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey": c.serviceKey,
			"pageNo":     strconv.Itoa(pageNo),
			"numOfRows":  strconv.Itoa(numOfRows),
		}).
		SetResult(&page).
		ForceContentType("application/json").
		Get(aptListURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch complex roster page %d: %w", pageNo, err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("fetch complex roster page %d: status %s", pageNo, resp.Status())
	}

	total := 0
	if page.Response.Body.TotalCount.Valid {
		total = page.Response.Body.TotalCount.Value
	}
	return page.Response.Body.Items, total, nil
}

// BasicInfo fetches the basic-info sheet of one complex by its kapt code.
func (c *Client) BasicInfo(ctx context.Context, kaptCode string) (BasicInfo, error) {
	var page basicInfoPage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey": c.serviceKey,
			"kaptCode":   kaptCode,
		}).
		SetResult(&page).
		ForceContentType("application/json").
		Get(aptBasicURL)
	if err != nil {
		return BasicInfo{}, fmt.Errorf("fetch basic info for %s: %w", kaptCode, err)
	}
	if resp.IsError() {
		return BasicInfo{}, fmt.Errorf("fetch basic info for %s: status %s", kaptCode, resp.Status())
	}
	return page.Response.Body.Item, nil
}

// FacilityInfo fetches the facility sheet (transit, schooling, parking) of
// one complex by its kapt code.
func (c *Client) FacilityInfo(ctx context.Context, kaptCode string) (FacilityInfo, error) {
	var page facilityInfoPage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey": c.serviceKey,
			"kaptCode":   kaptCode,
		}).
		SetResult(&page).
		ForceContentType("application/json").
		Get(aptDetailURL)
	if err != nil {
		return FacilityInfo{}, fmt.Errorf("fetch facility info for %s: %w", kaptCode, err)
	}
	if resp.IsError() {
		return FacilityInfo{}, fmt.Errorf("fetch facility info for %s: status %s", kaptCode, resp.Status())
	}
	return page.Response.Body.Item, nil
}

// SaleTrades fetches every reported sale for one district (5-digit LAWD
// code) and month (YYYYMM).
func (c *Client) SaleTrades(ctx context.Context, lawdCd, dealYM string) ([]SaleItem, error) {
	body, err := c.tradePage(ctx, saleTradeURL, lawdCd, dealYM)
	if err != nil {
		return nil, fmt.Errorf("fetch sales %s/%s: %w", lawdCd, dealYM, err)
	}

	var env saleEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode sales %s/%s: %w", lawdCd, dealYM, err)
	}
	if !resultOK(env.Header.ResultCode) {
		return nil, fmt.Errorf("sales %s/%s: %s (code %s)", lawdCd, dealYM, env.Header.ResultMsg, env.Header.ResultCode)
	}
	return env.Body.Items.Item, nil
}

// RentTrades fetches every reported lease for one district and month.
func (c *Client) RentTrades(ctx context.Context, lawdCd, dealYM string) ([]RentItem, error) {
	body, err := c.tradePage(ctx, rentTradeURL, lawdCd, dealYM)
	if err != nil {
		return nil, fmt.Errorf("fetch rents %s/%s: %w", lawdCd, dealYM, err)
	}

	var env rentEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode rents %s/%s: %w", lawdCd, dealYM, err)
	}
	if !resultOK(env.Header.ResultCode) {
		return nil, fmt.Errorf("rents %s/%s: %s (code %s)", lawdCd, dealYM, env.Header.ResultMsg, env.Header.ResultCode)
	}
	return env.Body.Items.Item, nil
}

func (c *Client) tradePage(ctx context.Context, url, lawdCd, dealYM string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey": c.serviceKey,
			"LAWD_CD":    lawdCd,
			"DEAL_YMD":   dealYM,
			"numOfRows":  "10000",
		}).
		Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %s", resp.Status())
	}
	return resp.Body(), nil
}

// The portal answers "000" from the RTMS services and "00" from the older
// ones; both mean success.
func resultOK(code string) bool {
	code = strings.TrimSpace(code)
	return code == "000" || code == "00"
}
