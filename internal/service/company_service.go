package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/finreach/trial-balance-api/internal/models"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
)

type companyRepository interface {
	List(ctx context.Context) ([]models.Company, error)
	FindByCode(ctx context.Context, code string) (*models.Company, error)
}

// CompanyService lists reporting entities.
type CompanyService struct {
	repo   companyRepository
	logger *zap.Logger
}

// NewCompanyService constructs a CompanyService instance.
func NewCompanyService(repo companyRepository, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{repo: repo, logger: logger}
}

// List returns all companies visible to the caller.
func (s *CompanyService) List(ctx context.Context) ([]models.Company, error) {
	companies, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return companies, nil
}
