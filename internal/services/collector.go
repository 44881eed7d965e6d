package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/aptscope/aptscope-backend/internal/collector"
	"github.com/aptscope/aptscope-backend/internal/data/repos"
	types "github.com/aptscope/aptscope-backend/internal/domain"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

const (
	regionPageSize  = 1000
	aptListPageSize = 500
	detailBatchSize = 50
)

// CollectorService drives the open-data endpoints end to end: fetch,
// apartment matching, create-or-skip persistence and the audit run per
// pass. Individual fetch failures are recorded on the run and skipped; the
// pass keeps going.
type CollectorService interface {
	CollectRegions(ctx context.Context, cities []string) (*types.CollectionRun, error)
	CollectApartments(ctx context.Context) (*types.CollectionRun, error)
	CollectDetails(ctx context.Context, limit int) (*types.CollectionRun, error)
	CollectSales(ctx context.Context, fromYM, toYM string) (*types.CollectionRun, error)
	CollectRents(ctx context.Context, fromYM, toYM string) (*types.CollectionRun, error)
}

type collectorService struct {
	log       *logger.Logger
	client    *collector.Client
	ingestSvc IngestService
	regions   repos.RegionRepo
	apts      repos.ApartmentRepo
	details   repos.ApartDetailRepo
	runs      repos.CollectionRunRepo
}

func NewCollectorService(
	log *logger.Logger,
	client *collector.Client,
	ingestSvc IngestService,
	regions repos.RegionRepo,
	apts repos.ApartmentRepo,
	details repos.ApartDetailRepo,
	runs repos.CollectionRunRepo,
) CollectorService {
	return &collectorService{
		log:       log.With("service", "CollectorService"),
		client:    client,
		ingestSvc: ingestSvc,
		regions:   regions,
		apts:      apts,
		details:   details,
		runs:      runs,
	}
}

// CollectRegions pages through the standard region table for each city
// prefix and upserts every row by its 10-digit code.
func (s *collectorService) CollectRegions(ctx context.Context, cities []string) (*types.CollectionRun, error) {
	run, err := s.startRun(ctx, types.CollectionKindRegion, strings.Join(cities, ","), "")
	if err != nil {
		return nil, err
	}

	var total TradeBatch
	for _, city := range cities {
		for pageNo := 1; ; pageNo++ {
			if err := ctx.Err(); err != nil {
				total.Errors = append(total.Errors, err.Error())
				s.closeRun(ctx, run, total)
				return run, err
			}

			rows, totalCount, err := s.client.RegionPage(ctx, city, pageNo, regionPageSize)
			if err != nil {
				total.Errors = append(total.Errors, fmt.Sprintf("%s page %d: %v", city, pageNo, err))
				break
			}
			if len(rows) == 0 {
				break
			}

			batch := make([]*types.Region, 0, len(rows))
			for _, row := range rows {
				total.Fetched++
				if strings.TrimSpace(row.RegionCd) == "" || strings.TrimSpace(row.LocataddNm) == "" {
					total.Skipped++
					continue
				}
				batch = append(batch, &types.Region{
					RegionCode: row.RegionCd,
					RegionName: row.LocataddNm,
					CityName:   city,
				})
			}
			saved, err := s.ingestSvc.UpsertRegions(ctx, batch)
			if err != nil {
				total.Errors = append(total.Errors, fmt.Sprintf("%s page %d: %v", city, pageNo, err))
			} else {
				total.Saved += saved
			}

			if pageNo*regionPageSize >= totalCount {
				break
			}
		}
	}

	s.closeRun(ctx, run, total)
	return run, nil
}

// CollectApartments pages through the nationwide complex roster and binds
// each complex to a stored region by its legal-dong code, falling back to
// the district-level row when the dong row is unknown.
func (s *collectorService) CollectApartments(ctx context.Context) (*types.CollectionRun, error) {
	run, err := s.startRun(ctx, types.CollectionKindApartment, "", "")
	if err != nil {
		return nil, err
	}

	regionRows, err := s.regions.ListAll(ctx, nil)
	if err != nil {
		total := TradeBatch{Errors: []string{err.Error()}}
		s.closeRun(ctx, run, total)
		return run, err
	}
	byCode := make(map[string]int64, len(regionRows))
	for _, r := range regionRows {
		byCode[r.RegionCode] = r.RegionID
	}

	var total TradeBatch
	for pageNo := 1; ; pageNo++ {
		if err := ctx.Err(); err != nil {
			total.Errors = append(total.Errors, err.Error())
			s.closeRun(ctx, run, total)
			return run, err
		}

		items, totalCount, err := s.client.AptListPage(ctx, pageNo, aptListPageSize)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("page %d: %v", pageNo, err))
			break
		}
		if len(items) == 0 {
			break
		}

		batch := make([]*types.Apartment, 0, len(items))
		for _, item := range items {
			total.Fetched++
			code := strings.TrimSpace(item.KaptCode)
			name := strings.TrimSpace(item.KaptName)
			regionID, ok := s.regionForBjd(byCode, item.BjdCode)
			if code == "" || name == "" || !ok {
				total.Skipped++
				continue
			}
			kapt := code
			batch = append(batch, &types.Apartment{
				RegionID:    regionID,
				AptName:     name,
				KaptCode:    &kapt,
				IsAvailable: true,
			})
		}
		saved, err := s.ingestSvc.UpsertApartments(ctx, batch)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("page %d: %v", pageNo, err))
		} else {
			total.Saved += saved
		}

		if pageNo*aptListPageSize >= totalCount {
			break
		}
	}

	s.closeRun(ctx, run, total)
	return run, nil
}

func (s *collectorService) regionForBjd(byCode map[string]int64, bjdCode string) (int64, bool) {
	code := strings.TrimSpace(bjdCode)
	if len(code) != 10 {
		return 0, false
	}
	if id, ok := byCode[code]; ok {
		return id, true
	}
	if id, ok := byCode[code[:5]+"00000"]; ok {
		return id, true
	}
	return 0, false
}

// CollectDetails fetches the basic and facility sheets for complexes that
// have a kapt code but no detail row yet. limit caps the number of
// complexes per pass; zero means all.
func (s *collectorService) CollectDetails(ctx context.Context, limit int) (*types.CollectionRun, error) {
	run, err := s.startRun(ctx, types.CollectionKindDetail, "", "")
	if err != nil {
		return nil, err
	}

	var total TradeBatch
	missing, err := s.apartmentsMissingDetail(ctx)
	if err != nil {
		total.Errors = append(total.Errors, err.Error())
		s.closeRun(ctx, run, total)
		return run, err
	}
	if limit > 0 && len(missing) > limit {
		missing = missing[:limit]
	}

	pending := make([]*types.ApartDetail, 0, detailBatchSize)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		saved, err := s.ingestSvc.UpsertDetails(ctx, pending)
		if err != nil {
			total.Errors = append(total.Errors, err.Error())
		} else {
			total.Saved += saved
		}
		pending = pending[:0]
	}

	for _, apt := range missing {
		if err := ctx.Err(); err != nil {
			total.Errors = append(total.Errors, err.Error())
			break
		}
		total.Fetched++

		code := *apt.KaptCode
		basic, err := s.client.BasicInfo(ctx, code)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", code, err))
			continue
		}
		households := basic.KaptdaCnt.Ptr()
		if households == nil || *households <= 0 {
			// The household count anchors every density filter; a sheet
			// without one is unusable.
			total.Skipped++
			continue
		}

		detail := &types.ApartDetail{
			AptID:             apt.AptID,
			RoadAddress:       optional(basic.DoroJuso),
			JibunAddress:      optional(basic.KaptAddr),
			ZipCode:           zip5(basic.Zipcode),
			TotalHouseholdCnt: *households,
			TotalBuildingCnt:  basic.KaptDongCnt.Ptr(),
			HighestFloor:      basic.KaptTopFloor.Ptr(),
			UseApprovalDate:   basic.UseApprovalDate(),
			Builder:           optional(basic.KaptBcompany),
			Developer:         optional(basic.KaptAcompany),
			ManageType:        optional(basic.CodeMgrNm),
			HallwayType:       optional(basic.CodeHallNm),
		}

		facility, err := s.client.FacilityInfo(ctx, code)
		if err != nil {
			// The basic sheet alone still makes a useful row; transit and
			// schooling fields just stay empty.
			total.Errors = append(total.Errors, fmt.Sprintf("%s facility: %v", code, err))
		} else {
			detail.TotalParkingCnt = facility.KaptdPcntu.Ptr()
			detail.SubwayLine = optional(facility.SubwayLine)
			detail.SubwayStation = optional(facility.SubwayStation)
			detail.SubwayTime = optional(facility.KaptdWtimesub)
			detail.EducationFacility = optional(facility.EducationFacility)
			if detail.ManageType == nil {
				detail.ManageType = optional(facility.CodeMgr)
			}
		}

		pending = append(pending, detail)
		if len(pending) >= detailBatchSize {
			flush()
		}
	}
	flush()

	s.closeRun(ctx, run, total)
	return run, nil
}

func (s *collectorService) apartmentsMissingDetail(ctx context.Context) ([]*types.Apartment, error) {
	var all []*types.Apartment
	err := s.apts.ListAll(ctx, nil, 2000, func(apts []*types.Apartment) error {
		for _, apt := range apts {
			if apt.KaptCode == nil || strings.TrimSpace(*apt.KaptCode) == "" {
				continue
			}
			if apt.IsDeleted != nil && *apt.IsDeleted {
				continue
			}
			all = append(all, apt)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load apartments: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(all))
	for _, apt := range all {
		ids = append(ids, apt.AptID)
	}
	existing, err := s.details.GetByAptIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load details: %w", err)
	}
	have := make(map[int64]struct{}, len(existing))
	for _, d := range existing {
		have[d.AptID] = struct{}{}
	}

	missing := make([]*types.Apartment, 0, len(all))
	for _, apt := range all {
		if _, ok := have[apt.AptID]; !ok {
			missing = append(missing, apt)
		}
	}
	return missing, nil
}

// CollectSales walks every district and month in the range and ingests the
// reported sales through the exact-duplicate probe.
func (s *collectorService) CollectSales(ctx context.Context, fromYM, toYM string) (*types.CollectionRun, error) {
	months, err := collector.MonthRange(fromYM, toYM)
	if err != nil {
		return nil, err
	}
	run, err := s.startRun(ctx, types.CollectionKindSale, fromYM+"-"+toYM, "")
	if err != nil {
		return nil, err
	}

	districts, candidates, err := s.districtCandidates(ctx)
	if err != nil {
		total := TradeBatch{Errors: []string{err.Error()}}
		s.closeRun(ctx, run, total)
		return run, err
	}

	var total TradeBatch
walk:
	for _, sgg := range districts {
		for _, month := range months {
			if err := ctx.Err(); err != nil {
				total.Errors = append(total.Errors, err.Error())
				break walk
			}

			items, err := s.client.SaleTrades(ctx, sgg, month)
			if err != nil {
				total.Errors = append(total.Errors, fmt.Sprintf("%s %s: %v", sgg, month, err))
				continue
			}

			mapped := make([]*types.Sale, 0, len(items))
			dropped := 0
			for _, it := range items {
				date, okDate := it.ContractDate()
				price, okPrice := it.Price()
				area, okArea := it.Area()
				if !okDate || !okPrice || !okArea || price <= 0 {
					dropped++
					continue
				}
				cand, found := collector.MatchApartment(it.AptNm, it.UmdNm, candidates[sgg])
				if !found {
					dropped++
					continue
				}
				name := cand.AptName
				mapped = append(mapped, &types.Sale{
					AptID:         cand.AptID,
					BuildYear:     it.BuildYearNo(),
					TransPrice:    price,
					ExclusiveArea: area,
					Floor:         it.FloorNo(),
					ContractDate:  date,
					IsCanceled:    it.Canceled(),
					Remarks:       &name,
				})
			}

			batch := s.ingestSvc.ApplySales(ctx, mapped)
			batch.Fetched = len(items)
			batch.Skipped += dropped
			total.merge(batch)
		}
	}

	s.closeRun(ctx, run, total)
	s.log.Info("sale collection finished",
		"period", fromYM+"-"+toYM,
		"fetched", total.Fetched,
		"saved", total.Saved,
		"skipped", total.Skipped,
		"errors", len(total.Errors))
	return run, nil
}

// CollectRents is the lease twin of CollectSales.
func (s *collectorService) CollectRents(ctx context.Context, fromYM, toYM string) (*types.CollectionRun, error) {
	months, err := collector.MonthRange(fromYM, toYM)
	if err != nil {
		return nil, err
	}
	run, err := s.startRun(ctx, types.CollectionKindRent, fromYM+"-"+toYM, "")
	if err != nil {
		return nil, err
	}

	districts, candidates, err := s.districtCandidates(ctx)
	if err != nil {
		total := TradeBatch{Errors: []string{err.Error()}}
		s.closeRun(ctx, run, total)
		return run, err
	}

	var total TradeBatch
walk:
	for _, sgg := range districts {
		for _, month := range months {
			if err := ctx.Err(); err != nil {
				total.Errors = append(total.Errors, err.Error())
				break walk
			}

			items, err := s.client.RentTrades(ctx, sgg, month)
			if err != nil {
				total.Errors = append(total.Errors, fmt.Sprintf("%s %s: %v", sgg, month, err))
				continue
			}

			mapped := make([]*types.Rent, 0, len(items))
			dropped := 0
			for _, it := range items {
				date, okDate := it.ContractDate()
				deposit, okDeposit := it.DepositWon()
				area, okArea := it.Area()
				if !okDate || !okDeposit || !okArea || deposit < 0 {
					dropped++
					continue
				}
				cand, found := collector.MatchApartment(it.AptNm, it.UmdNm, candidates[sgg])
				if !found {
					dropped++
					continue
				}
				name := cand.AptName
				mapped = append(mapped, &types.Rent{
					AptID:         cand.AptID,
					Deposit:       deposit,
					MonthlyRent:   it.MonthlyWon(),
					ExclusiveArea: area,
					Floor:         it.FloorNo(),
					ContractDate:  date,
					Remarks:       &name,
				})
			}

			batch := s.ingestSvc.ApplyRents(ctx, mapped)
			batch.Fetched = len(items)
			batch.Skipped += dropped
			total.merge(batch)
		}
	}

	s.closeRun(ctx, run, total)
	s.log.Info("rent collection finished",
		"period", fromYM+"-"+toYM,
		"fetched", total.Fetched,
		"saved", total.Saved,
		"skipped", total.Skipped,
		"errors", len(total.Errors))
	return run, nil
}

// districtCandidates groups every live apartment under its 5-digit
// district code, the granularity the trade endpoints are queried at.
func (s *collectorService) districtCandidates(ctx context.Context) ([]string, map[string][]collector.Candidate, error) {
	regionRows, err := s.regions.ListAll(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load regions: %w", err)
	}
	regionByID := make(map[int64]*types.Region, len(regionRows))
	districtSet := make(map[string]struct{})
	for _, r := range regionRows {
		regionByID[r.RegionID] = r
		if sgg := r.SggCode(); sgg != "" {
			districtSet[sgg] = struct{}{}
		}
	}

	candidates := make(map[string][]collector.Candidate)
	err = s.apts.ListAll(ctx, nil, 2000, func(apts []*types.Apartment) error {
		for _, apt := range apts {
			if apt.IsDeleted != nil && *apt.IsDeleted {
				continue
			}
			region, ok := regionByID[apt.RegionID]
			if !ok {
				continue
			}
			sgg := region.SggCode()
			if sgg == "" {
				continue
			}
			candidates[sgg] = append(candidates[sgg], collector.Candidate{
				AptID:      apt.AptID,
				AptName:    apt.AptName,
				RegionName: region.RegionName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load apartments: %w", err)
	}

	districts := make([]string, 0, len(districtSet))
	for sgg := range districtSet {
		districts = append(districts, sgg)
	}
	sort.Strings(districts)
	return districts, candidates, nil
}

func (s *collectorService) startRun(ctx context.Context, kind, period, regionCode string) (*types.CollectionRun, error) {
	run, err := s.runs.Create(ctx, nil, &types.CollectionRun{
		Kind:       kind,
		Period:     period,
		RegionCode: regionCode,
	})
	if err != nil {
		return nil, fmt.Errorf("record %s run: %w", kind, err)
	}
	return run, nil
}

// closeRun writes the final counters on its own context so the audit row
// still closes when the pass was cancelled.
func (s *collectorService) closeRun(_ context.Context, run *types.CollectionRun, total TradeBatch) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs datatypes.JSON
	if len(total.Errors) > 0 {
		if raw, err := json.Marshal(total.Errors); err == nil {
			errs = raw
		}
	}
	if err := s.runs.Finish(ctx, nil, run.ID, total.Fetched, total.Saved, total.Skipped, errs); err != nil {
		s.log.Error("finish collection run failed", "run_id", run.ID, "error", err)
	}
	run.Fetched = total.Fetched
	run.Saved = total.Saved
	run.Skipped = total.Skipped
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Old sheets carry the retired 6-digit postal codes; the live ones are 5.
func zip5(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > 5 {
		trimmed = trimmed[:5]
	}
	return &trimmed
}
