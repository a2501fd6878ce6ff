package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ReportHandler handles dashboard and report HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now}
}

// PortfolioTotalsResponse holds the money totals shared by dashboard and report
type PortfolioTotalsResponse struct {
	TotalLent       MoneyResponse `json:"totalLent"`
	TotalPaid       MoneyResponse `json:"totalPaid"`
	Outstanding     MoneyResponse `json:"outstanding"`
	RecoveryPercent string        `json:"recoveryPercent"`
}

// DashboardResponse represents the dashboard API response
type DashboardResponse struct {
	AsOf string `json:"asOf"`
	PortfolioTotalsResponse
	TotalClients int64 `json:"totalClients"`
	ActiveLoans  int   `json:"activeLoans"`
	LoansDueSoon int   `json:"loansDueSoon"`
}

// MonthSummaryResponse is one month of the report
type MonthSummaryResponse struct {
	Month               string        `json:"month"`
	Expected            MoneyResponse `json:"expected"`
	Paid                MoneyResponse `json:"paid"`
	PendingInstallments int           `json:"pendingInstallments"`
	OverdueInstallments int           `json:"overdueInstallments"`
}

// ClientRankingResponse is one row of the top clients table
type ClientRankingResponse struct {
	ClientID    string        `json:"clientId"`
	ClientName  string        `json:"clientName"`
	TotalLent   MoneyResponse `json:"totalLent"`
	TotalPaid   MoneyResponse `json:"totalPaid"`
	Outstanding MoneyResponse `json:"outstanding"`
	LoanCount   int           `json:"loanCount"`
}

// ReportResponse represents the reports page API response
type ReportResponse struct {
	AsOf string `json:"asOf"`
	PortfolioTotalsResponse
	ActiveLoans         int                     `json:"activeLoans"`
	PaidLoans           int                     `json:"paidLoans"`
	OverdueInstallments int                     `json:"overdueInstallments"`
	Monthly             []MonthSummaryResponse  `json:"monthly"`
	TopClients          []ClientRankingResponse `json:"topClients"`
}

func toTotalsResponse(t domain.PortfolioTotals) PortfolioTotalsResponse {
	return PortfolioTotalsResponse{
		TotalLent:       newMoney(t.TotalLent),
		TotalPaid:       newMoney(t.TotalPaid),
		Outstanding:     newMoney(t.Outstanding),
		RecoveryPercent: t.RecoveryPercent.StringFixed(2),
	}
}

// GetDashboard handles GET /api/v1/dashboard?asOf=
func (h *ReportHandler) GetDashboard(c echo.Context) error {
	asOf, ok := parseAsOf(c, h.now)
	if !ok {
		return invalidAsOf(c)
	}

	stats, err := h.reportService.Dashboard(asOf)
	if err != nil {
		return handleError(c, err, "load dashboard")
	}

	return c.JSON(http.StatusOK, DashboardResponse{
		AsOf:                    domain.FormatDate(asOf),
		PortfolioTotalsResponse: toTotalsResponse(stats.PortfolioTotals),
		TotalClients:            stats.TotalClients,
		ActiveLoans:             stats.ActiveLoans,
		LoansDueSoon:            stats.LoansDueSoon,
	})
}

// GetReport handles GET /api/v1/reports?asOf=
func (h *ReportHandler) GetReport(c echo.Context) error {
	asOf, ok := parseAsOf(c, h.now)
	if !ok {
		return invalidAsOf(c)
	}

	report, err := h.reportService.Report(asOf)
	if err != nil {
		return handleError(c, err, "build report")
	}

	monthly := make([]MonthSummaryResponse, len(report.Monthly))
	for i, m := range report.Monthly {
		monthly[i] = MonthSummaryResponse{
			Month:               m.Month,
			Expected:            newMoney(m.Expected),
			Paid:                newMoney(m.Paid),
			PendingInstallments: m.PendingInstallments,
			OverdueInstallments: m.OverdueInstallments,
		}
	}
	top := make([]ClientRankingResponse, len(report.TopClients))
	for i, r := range report.TopClients {
		top[i] = ClientRankingResponse{
			ClientID:    r.ClientID.String(),
			ClientName:  r.ClientName,
			TotalLent:   newMoney(r.TotalLent),
			TotalPaid:   newMoney(r.TotalPaid),
			Outstanding: newMoney(r.Outstanding),
			LoanCount:   r.LoanCount,
		}
	}

	return c.JSON(http.StatusOK, ReportResponse{
		AsOf:                    domain.FormatDate(asOf),
		PortfolioTotalsResponse: toTotalsResponse(report.PortfolioTotals),
		ActiveLoans:             report.ActiveLoans,
		PaidLoans:               report.PaidLoans,
		OverdueInstallments:     report.OverdueInstallments,
		Monthly:                 monthly,
		TopClients:              top,
	})
}
