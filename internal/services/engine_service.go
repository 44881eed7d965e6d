package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aptscope/aptscope-backend/internal/data/repos"
	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/engine"
	"github.com/aptscope/aptscope-backend/internal/platform/envutil"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

// EngineService owns the in-memory query engine and keeps it in step with
// the store. Every mutation goes to the store first and the engine second,
// so a crash between the two loses only index freshness, never data.
type EngineService interface {
	Engine() *engine.Engine
	Rebuild(ctx context.Context) error
	RecordSales(ctx context.Context, sales []*types.Sale) error
	RecordRents(ctx context.Context, rents []*types.Rent) error
	RecordApartments(ctx context.Context, apts []*types.Apartment) error
	RecordDetails(ctx context.Context, details []*types.ApartDetail) error
	CancelSale(ctx context.Context, transID int64) (bool, error)
	SetSaleDeleted(ctx context.Context, transID int64, deleted bool) (bool, error)
	SetRentDeleted(ctx context.Context, transID int64, deleted bool) (bool, error)
	SetApartmentDeleted(ctx context.Context, aptID int64, deleted bool) (bool, error)
	Health() engine.Health
}

type engineService struct {
	log     *logger.Logger
	eng     *engine.Engine
	sales   repos.SaleRepo
	rents   repos.RentRepo
	apts    repos.ApartmentRepo
	details repos.ApartDetailRepo

	batchSize int
}

func NewEngineService(
	log *logger.Logger,
	eng *engine.Engine,
	sales repos.SaleRepo,
	rents repos.RentRepo,
	apts repos.ApartmentRepo,
	details repos.ApartDetailRepo,
) EngineService {
	return &engineService{
		log:       log.With("service", "EngineService"),
		eng:       eng,
		sales:     sales,
		rents:     rents,
		apts:      apts,
		details:   details,
		batchSize: envutil.Int("ENGINE_REBUILD_BATCH", 2000),
	}
}

func (s *engineService) Engine() *engine.Engine { return s.eng }

func (s *engineService) Health() engine.Health { return s.eng.Health() }

// Rebuild loads the four tables the engine indexes concurrently, then swaps
// the whole snapshot in. Readers keep answering from the old snapshot until
// the swap.
func (s *engineService) Rebuild(ctx context.Context) error {
	start := time.Now()
	var snap engine.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.sales.ListAll(gctx, nil, s.batchSize, func(batch []*types.Sale) error {
			snap.Sales = append(snap.Sales, batch...)
			return nil
		})
	})
	g.Go(func() error {
		return s.rents.ListAll(gctx, nil, s.batchSize, func(batch []*types.Rent) error {
			snap.Rents = append(snap.Rents, batch...)
			return nil
		})
	})
	g.Go(func() error {
		return s.apts.ListAll(gctx, nil, s.batchSize, func(batch []*types.Apartment) error {
			snap.Apartments = append(snap.Apartments, batch...)
			return nil
		})
	})
	g.Go(func() error {
		return s.details.ListAll(gctx, nil, s.batchSize, func(batch []*types.ApartDetail) error {
			snap.Details = append(snap.Details, batch...)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.eng.Rebuild(snap)
	s.log.Info("engine rebuilt",
		"sales", len(snap.Sales),
		"rents", len(snap.Rents),
		"apartments", len(snap.Apartments),
		"details", len(snap.Details),
		"took", time.Since(start).String())
	return nil
}

func (s *engineService) RecordSales(ctx context.Context, sales []*types.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	created, err := s.sales.Create(ctx, nil, sales)
	if err != nil {
		return fmt.Errorf("persist sales: %w", err)
	}
	for _, sale := range created {
		s.eng.UpsertSale(sale)
	}
	return nil
}

func (s *engineService) RecordRents(ctx context.Context, rents []*types.Rent) error {
	if len(rents) == 0 {
		return nil
	}
	created, err := s.rents.Create(ctx, nil, rents)
	if err != nil {
		return fmt.Errorf("persist rents: %w", err)
	}
	for _, rent := range created {
		s.eng.UpsertRent(rent)
	}
	return nil
}

func (s *engineService) RecordApartments(ctx context.Context, apts []*types.Apartment) error {
	if len(apts) == 0 {
		return nil
	}
	saved, err := s.apts.UpsertByKaptCode(ctx, nil, apts)
	if err != nil {
		return fmt.Errorf("persist apartments: %w", err)
	}
	for _, apt := range saved {
		s.eng.UpsertApartment(apt)
	}
	return nil
}

// RecordDetails precomputes the normalized subway walk minutes before the
// rows hit the store, so the derived column is queryable without reparsing
// the free-text field.
func (s *engineService) RecordDetails(ctx context.Context, details []*types.ApartDetail) error {
	if len(details) == 0 {
		return nil
	}
	for _, d := range details {
		if d.SubwayMinutes == nil {
			d.SubwayMinutes = engine.MaxMinutesOf(d.SubwayTime)
		}
	}
	created, err := s.details.Create(ctx, nil, details)
	if err != nil {
		return fmt.Errorf("persist details: %w", err)
	}
	for _, d := range created {
		s.eng.UpsertDetail(d)
	}
	return nil
}

func (s *engineService) CancelSale(ctx context.Context, transID int64) (bool, error) {
	if err := s.sales.MarkCanceled(ctx, nil, transID); err != nil {
		return false, fmt.Errorf("mark sale %d cancelled: %w", transID, err)
	}
	return s.eng.MarkSaleCanceled(transID), nil
}

func (s *engineService) SetSaleDeleted(ctx context.Context, transID int64, deleted bool) (bool, error) {
	if err := s.sales.SetDeleted(ctx, nil, transID, deleted); err != nil {
		return false, fmt.Errorf("set sale %d deleted=%v: %w", transID, deleted, err)
	}
	return s.eng.SetTradeDeleted(types.TradeID{Kind: types.TradeSale, TransID: transID}, deleted), nil
}

func (s *engineService) SetRentDeleted(ctx context.Context, transID int64, deleted bool) (bool, error) {
	if err := s.rents.SetDeleted(ctx, nil, transID, deleted); err != nil {
		return false, fmt.Errorf("set rent %d deleted=%v: %w", transID, deleted, err)
	}
	return s.eng.SetTradeDeleted(types.TradeID{Kind: types.TradeRent, TransID: transID}, deleted), nil
}

func (s *engineService) SetApartmentDeleted(ctx context.Context, aptID int64, deleted bool) (bool, error) {
	if err := s.apts.SetDeleted(ctx, nil, aptID, deleted); err != nil {
		return false, fmt.Errorf("set apartment %d deleted=%v: %w", aptID, deleted, err)
	}
	return s.eng.SetApartmentDeleted(aptID, deleted), nil
}
