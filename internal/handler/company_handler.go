package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finreach/trial-balance-api/internal/service"
	"github.com/finreach/trial-balance-api/pkg/response"
)

// CompanyHandler serves the company master list.
type CompanyHandler struct {
	service *service.CompanyService
}

// NewCompanyHandler creates a new handler.
func NewCompanyHandler(svc *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: svc}
}

// List returns all reporting companies.
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, companies, nil)
}
