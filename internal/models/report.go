package models

// TrialBalanceRequest selects companies and a reporting period.
type TrialBalanceRequest struct {
	CompanyIDs []string `json:"companyIds" validate:"required,min=1,dive,required"`
	StartDate  string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string   `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// TrialBalanceRow is a single report line mapped from the stored procedure output.
type TrialBalanceRow struct {
	AccountName string  `json:"accountName"`
	AccountType string  `json:"accountType"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Balance     float64 `json:"balance"`
}

// ReportPeriod bounds a company report.
type ReportPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CompanyReport groups trial balance rows for one company.
type CompanyReport struct {
	CompanyID   string            `json:"companyId"`
	CompanyName string            `json:"companyName"`
	Period      ReportPeriod      `json:"period"`
	Rows        []TrialBalanceRow `json:"rows"`
}

// TrialBalanceResponse wraps the per-company reports.
type TrialBalanceResponse struct {
	Companies []CompanyReport `json:"companies"`
}

// TrialBalanceEntry is the raw stored procedure row before the
// debit/credit mapping is applied.
type TrialBalanceEntry struct {
	Category string  `db:"category"`
	Type     string  `db:"type"`
	Amount   float64 `db:"amount"`
}
