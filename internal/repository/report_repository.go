package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/finreach/trial-balance-api/internal/models"
)

// ReportRepository invokes the reporting stored procedures. The procedures
// own all aggregation logic; this layer only maps their result sets.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// TrialBalance calls get_trial_balance_shop_store for one company and period.
func (r *ReportRepository) TrialBalance(ctx context.Context, companyCode, shopGroup, storeGroup, startDate, endDate string) ([]models.TrialBalanceEntry, error) {
	const query = `SELECT category, type, COALESCE(amount, 0) AS amount FROM get_trial_balance_shop_store($1, $2, $3, $4, $5)`

	var entries []models.TrialBalanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, companyCode, shopGroup, storeGroup, startDate, endDate); err != nil {
		return nil, fmt.Errorf("trial balance for %s: %w", companyCode, err)
	}
	return entries, nil
}

// SalesDetails calls get_customer_sales_full_details for one bill.
func (r *ReportRepository) SalesDetails(ctx context.Context, billDate string, billNo int64, customerCode string) ([]models.SalesDetail, error) {
	const query = `SELECT * FROM get_customer_sales_full_details($1, $2, $3)`

	var details []models.SalesDetail
	if err := r.db.SelectContext(ctx, &details, query, billDate, billNo, customerCode); err != nil {
		return nil, fmt.Errorf("sales details for bill %d: %w", billNo, err)
	}
	return details, nil
}
