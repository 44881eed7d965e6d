package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/aptscope/aptscope-backend/internal/collector"
	"github.com/aptscope/aptscope-backend/internal/data/repos"
	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/ingest"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

// TradeBatch carries the counters of one ingestion pass. The feed has no
// stable transaction ids, so rows are accepted or skipped one at a time
// against the exact-duplicate probe; row failures are collected, never
// fatal to the batch.
type TradeBatch struct {
	Fetched int      `json:"fetched"`
	Saved   int      `json:"saved"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

func (b *TradeBatch) merge(other TradeBatch) {
	b.Fetched += other.Fetched
	b.Saved += other.Saved
	b.Skipped += other.Skipped
	b.Errors = append(b.Errors, other.Errors...)
}

// IngestService persists incoming rows and keeps the engine in step.
// Trades go through create-or-skip; dimensions are upserts.
type IngestService interface {
	ApplySales(ctx context.Context, rows []*types.Sale) TradeBatch
	ApplyRents(ctx context.Context, rows []*types.Rent) TradeBatch
	UpsertRegions(ctx context.Context, rows []*types.Region) (int, error)
	UpsertApartments(ctx context.Context, rows []*types.Apartment) (int, error)
	UpsertDetails(ctx context.Context, rows []*types.ApartDetail) (int, error)
	ImportSalesWorkbook(ctx context.Context, path string) (*types.CollectionRun, error)
	ImportRentsWorkbook(ctx context.Context, path string) (*types.CollectionRun, error)
	RecentRuns(ctx context.Context, limit int) ([]*types.CollectionRun, error)
}

type ingestService struct {
	log       *logger.Logger
	engineSvc EngineService
	sales     repos.SaleRepo
	rents     repos.RentRepo
	apts      repos.ApartmentRepo
	regions   repos.RegionRepo
	runs      repos.CollectionRunRepo
}

func NewIngestService(
	log *logger.Logger,
	engineSvc EngineService,
	sales repos.SaleRepo,
	rents repos.RentRepo,
	apts repos.ApartmentRepo,
	regions repos.RegionRepo,
	runs repos.CollectionRunRepo,
) IngestService {
	return &ingestService{
		log:       log.With("service", "IngestService"),
		engineSvc: engineSvc,
		sales:     sales,
		rents:     rents,
		apts:      apts,
		regions:   regions,
		runs:      runs,
	}
}

// ApplySales probes each row against the store and persists only the new
// ones. The probe runs after every insert, so duplicates inside one batch
// are caught too.
func (s *ingestService) ApplySales(ctx context.Context, rows []*types.Sale) TradeBatch {
	batch := TradeBatch{Fetched: len(rows)}
	for _, row := range rows {
		exists, err := s.sales.ExistsExact(ctx, nil, row)
		if err != nil {
			batch.Errors = append(batch.Errors, fmt.Sprintf("probe sale %s/%s: %v", row.ContractDate.Format("2006-01-02"), aptTag(row.AptID), err))
			continue
		}
		if exists {
			batch.Skipped++
			continue
		}
		if err := s.engineSvc.RecordSales(ctx, []*types.Sale{row}); err != nil {
			batch.Errors = append(batch.Errors, fmt.Sprintf("save sale %s/%s: %v", row.ContractDate.Format("2006-01-02"), aptTag(row.AptID), err))
			continue
		}
		batch.Saved++
	}
	return batch
}

func (s *ingestService) ApplyRents(ctx context.Context, rows []*types.Rent) TradeBatch {
	batch := TradeBatch{Fetched: len(rows)}
	for _, row := range rows {
		exists, err := s.rents.ExistsExact(ctx, nil, row)
		if err != nil {
			batch.Errors = append(batch.Errors, fmt.Sprintf("probe rent %s/%s: %v", row.ContractDate.Format("2006-01-02"), aptTag(row.AptID), err))
			continue
		}
		if exists {
			batch.Skipped++
			continue
		}
		if err := s.engineSvc.RecordRents(ctx, []*types.Rent{row}); err != nil {
			batch.Errors = append(batch.Errors, fmt.Sprintf("save rent %s/%s: %v", row.ContractDate.Format("2006-01-02"), aptTag(row.AptID), err))
			continue
		}
		batch.Saved++
	}
	return batch
}

func (s *ingestService) UpsertRegions(ctx context.Context, rows []*types.Region) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	saved, err := s.regions.UpsertByCode(ctx, nil, rows)
	if err != nil {
		return 0, fmt.Errorf("upsert regions: %w", err)
	}
	return len(saved), nil
}

func (s *ingestService) UpsertApartments(ctx context.Context, rows []*types.Apartment) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.engineSvc.RecordApartments(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ingestService) UpsertDetails(ctx context.Context, rows []*types.ApartDetail) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, d := range rows {
		d.EducationFacility = truncateRunes(d.EducationFacility, 200)
	}
	if err := s.engineSvc.RecordDetails(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ingestService) RecentRuns(ctx context.Context, limit int) ([]*types.CollectionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.runs.ListRecent(ctx, nil, limit)
}

func (s *ingestService) ImportSalesWorkbook(ctx context.Context, path string) (*types.CollectionRun, error) {
	return s.importWorkbook(ctx, path, types.CollectionKindImport+":sale", func(f *os.File, candidates []collector.Candidate) (TradeBatch, []string) {
		rows, rowErrs, err := ingest.ReadSales(f)
		if err != nil {
			return TradeBatch{}, []string{err.Error()}
		}

		notes := errStrings(rowErrs)
		batch := TradeBatch{Fetched: len(rows) + len(rowErrs)}
		var mapped []*types.Sale
		for _, row := range rows {
			cand, ok := collector.MatchApartment(row.AptName, row.Dong(), candidates)
			if !ok {
				batch.Skipped++
				continue
			}
			name := cand.AptName
			mapped = append(mapped, &types.Sale{
				AptID:         cand.AptID,
				BuildYear:     row.BuildYear,
				TransPrice:    row.Price,
				ExclusiveArea: row.Area,
				Floor:         row.Floor,
				ContractDate:  row.ContractDate,
				IsCanceled:    row.Canceled,
				Remarks:       &name,
			})
		}
		applied := s.ApplySales(ctx, mapped)
		batch.Saved = applied.Saved
		batch.Skipped += applied.Skipped + len(rowErrs)
		batch.Errors = append(batch.Errors, applied.Errors...)
		return batch, notes
	})
}

func (s *ingestService) ImportRentsWorkbook(ctx context.Context, path string) (*types.CollectionRun, error) {
	return s.importWorkbook(ctx, path, types.CollectionKindImport+":rent", func(f *os.File, candidates []collector.Candidate) (TradeBatch, []string) {
		rows, rowErrs, err := ingest.ReadRents(f)
		if err != nil {
			return TradeBatch{}, []string{err.Error()}
		}

		notes := errStrings(rowErrs)
		batch := TradeBatch{Fetched: len(rows) + len(rowErrs)}
		var mapped []*types.Rent
		for _, row := range rows {
			cand, ok := collector.MatchApartment(row.AptName, row.Dong(), candidates)
			if !ok {
				batch.Skipped++
				continue
			}
			name := cand.AptName
			mapped = append(mapped, &types.Rent{
				AptID:         cand.AptID,
				Deposit:       row.Deposit,
				MonthlyRent:   row.MonthlyRent,
				ExclusiveArea: row.Area,
				Floor:         row.Floor,
				ContractDate:  row.ContractDate,
				Remarks:       &name,
			})
		}
		applied := s.ApplyRents(ctx, mapped)
		batch.Saved = applied.Saved
		batch.Skipped += applied.Skipped + len(rowErrs)
		batch.Errors = append(batch.Errors, applied.Errors...)
		return batch, notes
	})
}

func (s *ingestService) importWorkbook(ctx context.Context, path, kind string, apply func(*os.File, []collector.Candidate) (TradeBatch, []string)) (*types.CollectionRun, error) {
	run, err := s.runs.Create(ctx, nil, &types.CollectionRun{
		Kind:   kind,
		Period: filepath.Base(path),
	})
	if err != nil {
		return nil, fmt.Errorf("record import run: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		s.finishRun(ctx, run, TradeBatch{Errors: []string{err.Error()}})
		return run, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	candidates, err := s.matchCandidates(ctx)
	if err != nil {
		s.finishRun(ctx, run, TradeBatch{Errors: []string{err.Error()}})
		return run, err
	}

	batch, notes := apply(f, candidates)
	batch.Errors = append(batch.Errors, notes...)
	s.finishRun(ctx, run, batch)
	s.log.Info("workbook imported",
		"path", path,
		"fetched", batch.Fetched,
		"saved", batch.Saved,
		"skipped", batch.Skipped,
		"errors", len(batch.Errors))
	return run, nil
}

func (s *ingestService) finishRun(ctx context.Context, run *types.CollectionRun, batch TradeBatch) {
	var errs datatypes.JSON
	if len(batch.Errors) > 0 {
		if raw, err := json.Marshal(batch.Errors); err == nil {
			errs = raw
		}
	}
	if err := s.runs.Finish(ctx, nil, run.ID, batch.Fetched, batch.Saved, batch.Skipped, errs); err != nil {
		s.log.Error("finish collection run failed", "run_id", run.ID, "error", err)
	}
	run.Fetched = batch.Fetched
	run.Saved = batch.Saved
	run.Skipped = batch.Skipped
}

// matchCandidates loads every live apartment joined with its region name,
// the pool workbook and feed rows are matched against.
func (s *ingestService) matchCandidates(ctx context.Context) ([]collector.Candidate, error) {
	regionRows, err := s.regions.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	regionName := make(map[int64]string, len(regionRows))
	for _, r := range regionRows {
		regionName[r.RegionID] = r.RegionName
	}

	var candidates []collector.Candidate
	err = s.apts.ListAll(ctx, nil, 2000, func(apts []*types.Apartment) error {
		for _, apt := range apts {
			if apt.IsDeleted != nil && *apt.IsDeleted {
				continue
			}
			candidates = append(candidates, collector.Candidate{
				AptID:      apt.AptID,
				AptName:    apt.AptName,
				RegionName: regionName[apt.RegionID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load apartments: %w", err)
	}
	return candidates, nil
}

func errStrings(rowErrs []ingest.RowError) []string {
	if len(rowErrs) == 0 {
		return nil
	}
	out := make([]string, 0, len(rowErrs))
	for _, e := range rowErrs {
		out = append(out, e.Error())
	}
	return out
}

func truncateRunes(s *string, limit int) *string {
	if s == nil || utf8.RuneCountInString(*s) <= limit {
		return s
	}
	runes := []rune(*s)
	cut := string(runes[:limit])
	return &cut
}

func aptTag(aptID int64) string { return fmt.Sprintf("apt%d", aptID) }
