package services

import (
	"context"
	"time"

	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/engine"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

// TradeService fronts the engine's query surface. The engine already
// rejects malformed filters before touching any index, so the service only
// adds logging; ErrInvalidFilter passes through for the handler to map.
type TradeService interface {
	Search(ctx context.Context, f engine.Filter) ([]types.TradeRecord, error)
	ApartmentStats(ctx context.Context, aptID int64, kind types.TradeKind, windowEnd time.Time, months int) (engine.WindowStats, error)
}

type tradeService struct {
	log *logger.Logger
	eng *engine.Engine
}

func NewTradeService(log *logger.Logger, eng *engine.Engine) TradeService {
	return &tradeService{
		log: log.With("service", "TradeService"),
		eng: eng,
	}
}

func (s *tradeService) Search(_ context.Context, f engine.Filter) ([]types.TradeRecord, error) {
	start := time.Now()
	records, err := s.eng.Search(f)
	if err != nil {
		return nil, err
	}
	s.log.Debug("search", "results", len(records), "took", time.Since(start).String())
	return records, nil
}

func (s *tradeService) ApartmentStats(_ context.Context, aptID int64, kind types.TradeKind, windowEnd time.Time, months int) (engine.WindowStats, error) {
	stats, err := s.eng.Aggregate(aptID, kind, windowEnd, months)
	if err != nil {
		return engine.WindowStats{}, err
	}
	s.log.Debug("apartment stats", "apt_id", aptID, "kind", kind.String(), "samples", stats.SampleCount)
	return stats, nil
}
