package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/finreach/trial-balance-api/internal/models"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
	"github.com/finreach/trial-balance-api/pkg/export"
)

type reportRepository interface {
	TrialBalance(ctx context.Context, companyCode, shopGroup, storeGroup, startDate, endDate string) ([]models.TrialBalanceEntry, error)
	SalesDetails(ctx context.Context, billDate string, billNo int64, customerCode string) ([]models.SalesDetail, error)
}

type companyFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Company, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportService invokes the reporting stored procedures and shapes their
// output. All aggregation lives in the database; this layer only maps rows
// and caches assembled payloads.
type ReportService struct {
	repo      reportRepository
	companies companyFinder
	cache     reportCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs a ReportService instance.
func NewReportService(repo reportRepository, companies companyFinder, cache reportCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{
		repo:      repo,
		companies: companies,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// TrialBalance produces per-company trial balance reports for the period.
// Companies without a master record are skipped.
func (s *ReportService) TrialBalance(ctx context.Context, req models.TrialBalanceRequest) (*models.TrialBalanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trial balance payload")
	}

	cacheKey := trialBalanceCacheKey(req)
	if s.cache != nil {
		var cached models.TrialBalanceResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	reports := make([]models.CompanyReport, 0, len(req.CompanyIDs))
	for _, code := range req.CompanyIDs {
		company, err := s.companies.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Debug("unknown company skipped", zap.String("code", code))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
		}

		entries, err := s.repo.TrialBalance(ctx, code, company.ShopGroupCode, company.StoreGroupCode, req.StartDate, req.EndDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute trial balance")
		}

		reports = append(reports, models.CompanyReport{
			CompanyID:   code,
			CompanyName: company.FirmName,
			Period:      models.ReportPeriod{Start: req.StartDate, End: req.EndDate},
			Rows:        mapTrialBalanceRows(entries),
		})
	}

	result := &models.TrialBalanceResponse{Companies: reports}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache trial balance", zap.Error(err))
		}
	}
	return result, nil
}

// ExportTrialBalance renders the report as CSV or PDF bytes.
func (s *ReportService) ExportTrialBalance(ctx context.Context, req models.TrialBalanceRequest, format string) ([]byte, string, error) {
	report, err := s.TrialBalance(ctx, req)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Company", "Account", "Type", "Debit", "Credit", "Balance"},
	}
	for _, company := range report.Companies {
		for _, row := range company.Rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Company": company.CompanyName,
				"Account": row.AccountName,
				"Type":    row.AccountType,
				"Debit":   fmt.Sprintf("%.2f", row.Debit),
				"Credit":  fmt.Sprintf("%.2f", row.Credit),
				"Balance": fmt.Sprintf("%.2f", row.Balance),
			})
		}
	}

	switch format {
	case "csv":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Trial Balance %s to %s", req.StartDate, req.EndDate)
		payload, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// SalesDetails fetches full bill details through the stored procedure.
func (s *ReportService) SalesDetails(ctx context.Context, req models.SalesDetailRequest) ([]models.SalesDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sales detail payload")
	}

	details, err := s.repo.SalesDetails(ctx, req.BillDate, req.BillNo, req.CustomerCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch sales details")
	}
	if len(details) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no sales details found for the specified bill")
	}
	return details, nil
}

// mapTrialBalanceRows applies the debit/credit presentation rules to raw
// stored procedure rows. NET PROFIT is presented as a negative balance on
// the liability side.
func mapTrialBalanceRows(entries []models.TrialBalanceEntry) []models.TrialBalanceRow {
	rows := make([]models.TrialBalanceRow, 0, len(entries))
	for _, entry := range entries {
		row := models.TrialBalanceRow{
			AccountName: entry.Category,
			AccountType: entry.Type,
		}
		switch entry.Type {
		case "ASSET":
			row.Debit = entry.Amount
			row.Balance = entry.Amount
		case "LIABILITY":
			credit := entry.Amount
			if credit < 0 {
				credit = -credit
			}
			row.Credit = credit
			if entry.Category == "NET PROFIT" {
				row.Balance = -credit
			} else {
				row.Balance = credit
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func trialBalanceCacheKey(req models.TrialBalanceRequest) string {
	return fmt.Sprintf("trial_balance:%s:%s:%s", strings.Join(req.CompanyIDs, ","), req.StartDate, req.EndDate)
}
