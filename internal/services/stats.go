package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/engine"
	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
	"github.com/aptscope/aptscope-backend/internal/platform/envutil"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

// RVOLPoint compares one month's volume against the trailing average.
type RVOLPoint struct {
	Date          string  `json:"date"`
	CurrentVolume int     `json:"current_volume"`
	AverageVolume float64 `json:"average_volume"`
	RVOL          float64 `json:"rvol"`
}

type RVOLSeries struct {
	Points []RVOLPoint `json:"data"`
	Period string      `json:"period"`
}

// QuadrantPoint classifies one month by the signs of its sale and rent
// volume change rates. 1: 매수 전환, 2: 임대 선호, 3: 시장 위축, 4: 활성화.
type QuadrantPoint struct {
	Date           string  `json:"date"`
	SaleChangeRate float64 `json:"sale_volume_change_rate"`
	RentChangeRate float64 `json:"rent_volume_change_rate"`
	Quadrant       int     `json:"quadrant"`
	QuadrantLabel  string  `json:"quadrant_label"`
}

type QuadrantSummary struct {
	Counts map[string]int `json:"counts"`
	Latest string         `json:"latest,omitempty"`
}

type QuadrantSeries struct {
	Points  []QuadrantPoint `json:"data"`
	Summary QuadrantSummary `json:"summary"`
}

// StatsService computes region-level series on top of the engine, with a
// Redis read-through cache in front. No Redis (or a failing one) degrades
// to direct computation.
type StatsService interface {
	Volumes(ctx context.Context, regionID int64, kind types.TradeKind, fromYM, toYM string) ([]engine.VolumePoint, error)
	RVOL(ctx context.Context, regionID int64, kind types.TradeKind, months, lookback int, endYM string) (RVOLSeries, error)
	Quadrant(ctx context.Context, regionID int64, months int, endYM string) (QuadrantSeries, error)
}

type statsService struct {
	log   *logger.Logger
	eng   *engine.Engine
	cache *statsCache
}

func NewStatsService(log *logger.Logger, eng *engine.Engine, rdb *goredis.Client) StatsService {
	svcLog := log.With("service", "StatsService")
	return &statsService{
		log: svcLog,
		eng: eng,
		cache: &statsCache{
			log: svcLog,
			rdb: rdb,
			ttl: time.Duration(envutil.Int("STATS_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
	}
}

func (s *statsService) Volumes(ctx context.Context, regionID int64, kind types.TradeKind, fromYM, toYM string) ([]engine.VolumePoint, error) {
	key := fmt.Sprintf("stats:volumes:%d:%s:%s:%s", regionID, kind, fromYM, toYM)
	var cached []engine.VolumePoint
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	points, err := s.eng.MonthlyVolume(regionID, kind, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	s.cache.put(ctx, key, points)
	return points, nil
}

// RVOL emits one point per month over the last `months` months: the month's
// volume divided by the average of the `lookback` months before it.
func (s *statsService) RVOL(ctx context.Context, regionID int64, kind types.TradeKind, months, lookback int, endYM string) (RVOLSeries, error) {
	if months <= 0 || lookback <= 0 {
		return RVOLSeries{}, fmt.Errorf("rvol window months=%d lookback=%d: %w", months, lookback, apperrors.ErrInvalidFilter)
	}
	end, err := anchorMonth(endYM)
	if err != nil {
		return RVOLSeries{}, err
	}

	key := fmt.Sprintf("stats:rvol:%d:%s:%d:%d:%s", regionID, kind, months, lookback, end.Format("200601"))
	var cached RVOLSeries
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	from := end.AddDate(0, -(months + lookback - 1), 0)
	vols, err := s.eng.MonthlyVolume(regionID, kind, from.Format("200601"), end.Format("200601"))
	if err != nil {
		return RVOLSeries{}, err
	}

	points := make([]RVOLPoint, 0, months)
	for i := lookback; i < len(vols); i++ {
		sum := 0
		for j := i - lookback; j < i; j++ {
			sum += vols[j].Count
		}
		avg := float64(sum) / float64(lookback)
		rvol := 0.0
		if avg > 0 {
			rvol = float64(vols[i].Count) / avg
		}
		monthStart, err := time.ParseInLocation("200601", vols[i].Month, time.UTC)
		if err != nil {
			return RVOLSeries{}, fmt.Errorf("volume month %q: %w", vols[i].Month, err)
		}
		points = append(points, RVOLPoint{
			Date:          monthStart.Format("2006-01-02"),
			CurrentVolume: vols[i].Count,
			AverageVolume: round2(avg),
			RVOL:          round2(rvol),
		})
	}

	series := RVOLSeries{
		Points: points,
		Period: fmt.Sprintf("최근 %d개월 vs 직전 %d개월", months, lookback),
	}
	s.cache.put(ctx, key, series)
	return series, nil
}

// Quadrant classifies each of the last `months` months by sale volume
// change versus rent volume change, month over month.
func (s *statsService) Quadrant(ctx context.Context, regionID int64, months int, endYM string) (QuadrantSeries, error) {
	if months <= 0 {
		return QuadrantSeries{}, fmt.Errorf("quadrant window months=%d: %w", months, apperrors.ErrInvalidFilter)
	}
	end, err := anchorMonth(endYM)
	if err != nil {
		return QuadrantSeries{}, err
	}

	key := fmt.Sprintf("stats:quadrant:%d:%d:%s", regionID, months, end.Format("200601"))
	var cached QuadrantSeries
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	// One extra month in front feeds the first change rate.
	from := end.AddDate(0, -months, 0)
	sales, err := s.eng.MonthlyVolume(regionID, types.TradeSale, from.Format("200601"), end.Format("200601"))
	if err != nil {
		return QuadrantSeries{}, err
	}
	rents, err := s.eng.MonthlyVolume(regionID, types.TradeRent, from.Format("200601"), end.Format("200601"))
	if err != nil {
		return QuadrantSeries{}, err
	}

	series := QuadrantSeries{
		Points:  make([]QuadrantPoint, 0, months),
		Summary: QuadrantSummary{Counts: make(map[string]int)},
	}
	for i := 1; i < len(sales); i++ {
		saleRate := changeRate(sales[i-1].Count, sales[i].Count)
		rentRate := changeRate(rents[i-1].Count, rents[i].Count)
		q := quadrantOf(saleRate, rentRate)
		label := quadrantLabels[q]
		monthStart, err := time.ParseInLocation("200601", sales[i].Month, time.UTC)
		if err != nil {
			return QuadrantSeries{}, fmt.Errorf("volume month %q: %w", sales[i].Month, err)
		}
		series.Points = append(series.Points, QuadrantPoint{
			Date:           monthStart.Format("2006-01"),
			SaleChangeRate: saleRate,
			RentChangeRate: rentRate,
			Quadrant:       q,
			QuadrantLabel:  label,
		})
		series.Summary.Counts[label]++
		series.Summary.Latest = label
	}

	s.cache.put(ctx, key, series)
	return series, nil
}

// changeRate is the month-over-month change in percent. A zero base month
// reads as +100% when anything traded and 0% when nothing did.
func changeRate(prev, cur int) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return round2(float64(cur-prev) / float64(prev) * 100)
}

func quadrantOf(saleRate, rentRate float64) int {
	switch {
	case saleRate > 0 && rentRate <= 0:
		return 1
	case saleRate <= 0 && rentRate > 0:
		return 2
	case saleRate <= 0 && rentRate <= 0:
		return 3
	default:
		return 4
	}
}

var quadrantLabels = map[int]string{
	1: "매수 전환",
	2: "임대 선호",
	3: "시장 위축",
	4: "활성화",
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// anchorMonth resolves the series end month, defaulting to the current one.
func anchorMonth(endYM string) (time.Time, error) {
	if endYM == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	if len(endYM) != 6 {
		return time.Time{}, fmt.Errorf("end month %q not in YYYYMM form: %w", endYM, apperrors.ErrInvalidFilter)
	}
	t, err := time.ParseInLocation("200601", endYM, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("end month %q not in YYYYMM form: %w", endYM, apperrors.ErrInvalidFilter)
	}
	return t, nil
}

// statsCache is a thin JSON read-through cache. A nil client, a miss and a
// broken Redis all look the same to callers.
type statsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func (c *statsCache) get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("stats cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Debug("stats cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *statsCache) put(ctx context.Context, key string, v any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("stats cache write failed", "key", key, "error", err)
	}
}
