package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aptscope/aptscope-backend/internal/collector"
	"github.com/aptscope/aptscope-backend/internal/engine"
	"github.com/aptscope/aptscope-backend/internal/platform/envutil"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
	"github.com/aptscope/aptscope-backend/internal/services"
)

type Services struct {
	Engine    services.EngineService
	Trade     services.TradeService
	Stats     services.StatsService
	Ingest    services.IngestService
	Collector services.CollectorService
	Refresh   services.RefreshService
}

func wireServices(log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	eng := engine.New(engine.Options{DummyMarkers: cfg.DummyMarkers})
	engineSvc := services.NewEngineService(log, eng, r.Sale, r.Rent, r.Apartment, r.ApartDetail)

	rebuildTimeout := time.Duration(envutil.Int("ENGINE_INITIAL_REBUILD_TIMEOUT_MINUTES", 10)) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
	defer cancel()
	if err := engineSvc.Rebuild(ctx); err != nil {
		return Services{}, fmt.Errorf("initial engine rebuild: %w", err)
	}

	ingestSvc := services.NewIngestService(log, engineSvc, r.Sale, r.Rent, r.Apartment, r.Region, r.CollectionRun)

	// The collector only exists when a ministry API key is configured;
	// imports and serving work without one.
	var collectorSvc services.CollectorService
	if cfg.MolitServiceKey != "" {
		client := collector.NewClient(cfg.MolitServiceKey, log)
		collectorSvc = services.NewCollectorService(log, client, ingestSvc, r.Region, r.Apartment, r.ApartDetail, r.CollectionRun)
	}

	return Services{
		Engine:    engineSvc,
		Trade:     services.NewTradeService(log, eng),
		Stats:     services.NewStatsService(log, eng, c.Redis),
		Ingest:    ingestSvc,
		Collector: collectorSvc,
		Refresh:   services.NewRefreshService(log, engineSvc, cfg.RefreshSchedule, cfg.RefreshTimeout),
	}, nil
}
