package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finreach/trial-balance-api/internal/models"
	"github.com/finreach/trial-balance-api/internal/service"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
	"github.com/finreach/trial-balance-api/pkg/response"
)

// ReportHandler exposes the trial balance and sales detail reports.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// TrialBalance assembles trial balance reports for the requested companies
// and period.
func (h *ReportHandler) TrialBalance(c *gin.Context) {
	var req models.TrialBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid trial balance payload"))
		return
	}

	res, err := h.service.TrialBalance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Export renders the trial balance report as a downloadable CSV or PDF file.
// Selection comes from query parameters so the URL can be handed straight to
// a browser download: company_ids is comma separated, format defaults to csv.
func (h *ReportHandler) Export(c *gin.Context) {
	req := models.TrialBalanceRequest{
		CompanyIDs: splitCSV(c.Query("company_ids")),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportTrialBalance(c.Request.Context(), req, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("trial_balance_%s.%s", time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// SalesDetails returns the full line items for a single bill.
func (h *ReportHandler) SalesDetails(c *gin.Context) {
	var req models.SalesDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sales detail payload"))
		return
	}

	res, err := h.service.SalesDetails(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
