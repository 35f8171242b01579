package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/finreach/trial-balance-api/internal/models"
)

// CompanyRepository reads the FIRMASN company master table.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new instance of CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// List returns all companies with a usable code and name.
func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	const query = `
		SELECT
			sno_id,
			COALESCE(fircod_id, '') AS fircod_id,
			COALESCE(fircod, '') AS fircod,
			firname,
			COALESCE(scgrpcod, '') AS scgrpcod,
			COALESCE(sdgrpcod, '') AS sdgrpcod
		FROM firmasn
		WHERE fircod IS NOT NULL AND fircod != ''
		AND firname IS NOT NULL AND firname != ''
		ORDER BY sno_id`

	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// FindByCode returns one company by its firm code.
func (r *CompanyRepository) FindByCode(ctx context.Context, code string) (*models.Company, error) {
	const query = `
		SELECT
			sno_id,
			COALESCE(fircod_id, '') AS fircod_id,
			COALESCE(fircod, '') AS fircod,
			firname,
			COALESCE(scgrpcod, '') AS scgrpcod,
			COALESCE(sdgrpcod, '') AS sdgrpcod
		FROM firmasn
		WHERE fircod = $1
		LIMIT 1`

	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find company by code: %w", err)
	}
	return &company, nil
}
