package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService   *service.LoanService
	clientService *service.ClientService
	now           func() time.Time
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService, clientService *service.ClientService) *LoanHandler {
	return &LoanHandler{loanService: loanService, clientService: clientService, now: time.Now}
}

// PreviewLoanRequest represents the terms submitted for a schedule preview
type PreviewLoanRequest struct {
	Principal  string `json:"principal"`
	AnnualRate string `json:"annualRate"` // percent per year, e.g. "12"
	TermMonths int    `json:"termMonths"`
	StartDate  string `json:"startDate"`
	Method     string `json:"method"` // "simple" or "compound"
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	ClientID string `json:"clientId"`
	PreviewLoanRequest
	Notes string `json:"notes,omitempty"`
}

// InstallmentResponse represents one schedule row
type InstallmentResponse struct {
	Number     int     `json:"number"`
	DueDate    string  `json:"dueDate"`
	Capital    string  `json:"capital"`
	Interest   string  `json:"interest"`
	Total      string  `json:"total"`
	Paid       bool    `json:"paid"`
	PaidDate   *string `json:"paidDate,omitempty"`
	AmountPaid string  `json:"amountPaid"`
	Status     string  `json:"status,omitempty"`
}

// ScheduleResponse is a schedule with its totals
type ScheduleResponse struct {
	Installments  []InstallmentResponse `json:"installments"`
	TotalCapital  MoneyResponse         `json:"totalCapital"`
	TotalInterest MoneyResponse         `json:"totalInterest"`
	TotalAmount   MoneyResponse         `json:"totalAmount"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                string            `json:"id"`
	ClientID          string            `json:"clientId"`
	ClientName        string            `json:"clientName,omitempty"`
	Principal         MoneyResponse     `json:"principal"`
	AnnualRate        string            `json:"annualRate"`
	TermMonths        int               `json:"termMonths"`
	StartDate         string            `json:"startDate"`
	Method            string            `json:"method"`
	Notes             string            `json:"notes,omitempty"`
	Status            string            `json:"status"`
	State             string            `json:"state"`
	InstallmentAmount MoneyResponse     `json:"installmentAmount"`
	Balance           MoneyResponse     `json:"balance"`
	PaidCount         int               `json:"paidCount"`
	Version           int32             `json:"version"`
	Schedule          *ScheduleResponse `json:"schedule,omitempty"`
	CreatedAt         string            `json:"createdAt"`
	UpdatedAt         string            `json:"updatedAt"`
}

func (r PreviewLoanRequest) toTerms() (service.LoanTermsInput, []ValidationError) {
	var errs []ValidationError
	principal, verr := parseAmount(r.Principal, "principal")
	if verr != nil {
		errs = append(errs, *verr)
	}
	rate, verr := parseAmount(r.AnnualRate, "annualRate")
	if verr != nil {
		errs = append(errs, *verr)
	}
	start, verr := parseDateField(r.StartDate, "startDate")
	if verr != nil {
		errs = append(errs, *verr)
	}
	return service.LoanTermsInput{
		Principal:  principal,
		AnnualRate: rate,
		TermMonths: r.TermMonths,
		StartDate:  start,
		Method:     domain.InterestMethod(strings.ToLower(strings.TrimSpace(r.Method))),
	}, errs
}

func toInstallmentResponse(inst domain.Installment, status domain.InstallmentStatus) InstallmentResponse {
	return InstallmentResponse{
		Number:     inst.Number,
		DueDate:    domain.FormatDate(inst.DueDate),
		Capital:    inst.Capital.StringFixed(2),
		Interest:   inst.Interest.StringFixed(2),
		Total:      inst.Total.StringFixed(2),
		Paid:       inst.Paid,
		PaidDate:   formatOptionalDate(inst.PaidDate),
		AmountPaid: inst.AmountPaid.StringFixed(2),
		Status:     string(status),
	}
}

// toScheduleResponse renders a schedule; statuses are included when asOf is set
func toScheduleResponse(s domain.Schedule, asOf *time.Time) *ScheduleResponse {
	rows := make([]InstallmentResponse, len(s))
	if asOf != nil {
		for i, view := range domain.ClassifySchedule(s, *asOf) {
			rows[i] = toInstallmentResponse(view.Installment, view.Status)
		}
	} else {
		for i, inst := range s {
			rows[i] = toInstallmentResponse(inst, "")
		}
	}
	capital, interest, total := s.Totals()
	return &ScheduleResponse{
		Installments:  rows,
		TotalCapital:  newMoney(capital),
		TotalInterest: newMoney(interest),
		TotalAmount:   newMoney(total),
	}
}

func toLoanResponse(loan *domain.Loan, clientName string, state domain.LoanState) LoanResponse {
	return LoanResponse{
		ID:                loan.ID.String(),
		ClientID:          loan.ClientID.String(),
		ClientName:        clientName,
		Principal:         newMoney(loan.Principal),
		AnnualRate:        loan.AnnualRate.String(),
		TermMonths:        loan.TermMonths,
		StartDate:         domain.FormatDate(loan.StartDate),
		Method:            string(loan.Method),
		Notes:             loan.Notes,
		Status:            string(loan.Status),
		State:             string(state),
		InstallmentAmount: newMoney(loan.InstallmentAmount()),
		Balance:           newMoney(loan.Balance()),
		PaidCount:         loan.Schedule.PaidCount(),
		Version:           loan.Version,
		CreatedAt:         loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         loan.UpdatedAt.Format(time.RFC3339),
	}
}

func toLoanSummaryResponses(summaries []*domain.LoanSummary) []LoanResponse {
	response := make([]LoanResponse, len(summaries))
	for i, s := range summaries {
		response[i] = toLoanResponse(s.Loan, s.ClientName, s.State)
	}
	return response
}

// PreviewLoan handles POST /api/v1/loans/preview
func (h *LoanHandler) PreviewLoan(c echo.Context) error {
	var req PreviewLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	terms, errs := req.toTerms()
	if len(errs) > 0 {
		return NewValidationError(c, "Invalid loan terms", errs)
	}

	schedule, err := h.loanService.PreviewSchedule(terms)
	if err != nil {
		return handleError(c, err, "preview schedule")
	}

	return c.JSON(http.StatusOK, toScheduleResponse(schedule, nil))
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	terms, errs := req.toTerms()
	clientID, err := uuid.Parse(strings.TrimSpace(req.ClientID))
	if err != nil {
		errs = append(errs, ValidationError{Field: "clientId", Message: "Must be a valid UUID"})
	}
	if len(errs) > 0 {
		return NewValidationError(c, "Invalid loan", errs)
	}

	loan, err := h.loanService.CreateLoan(service.CreateLoanInput{
		ClientID:       clientID,
		LoanTermsInput: terms,
		Notes:          req.Notes,
	})
	if err != nil {
		return handleError(c, err, "create loan")
	}

	log.Info().Str("loan_id", loan.ID.String()).Str("client_id", clientID.String()).Msg("Loan created")

	asOf := domain.DateOf(h.now())
	resp := toLoanResponse(loan, "", domain.ClassifyLoan(loan, asOf))
	resp.Schedule = toScheduleResponse(loan.Schedule, &asOf)
	return c.JSON(http.StatusCreated, resp)
}

// GetLoans handles GET /api/v1/loans?q=&asOf=
func (h *LoanHandler) GetLoans(c echo.Context) error {
	asOf, ok := parseAsOf(c, h.now)
	if !ok {
		return invalidAsOf(c)
	}

	summaries, err := h.loanService.ListLoans(c.QueryParam("q"), asOf)
	if err != nil {
		return handleError(c, err, "list loans")
	}

	return c.JSON(http.StatusOK, toLoanSummaryResponses(summaries))
}

// GetLoansByClient handles GET /api/v1/clients/:id/loans?asOf=
func (h *LoanHandler) GetLoansByClient(c echo.Context) error {
	clientID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	asOf, ok := parseAsOf(c, h.now)
	if !ok {
		return invalidAsOf(c)
	}

	summaries, err := h.loanService.ListLoansByClient(clientID, asOf)
	if err != nil {
		return handleError(c, err, "list client loans")
	}

	return c.JSON(http.StatusOK, toLoanSummaryResponses(summaries))
}

// GetLoan handles GET /api/v1/loans/:id?asOf=
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	asOf, ok := parseAsOf(c, h.now)
	if !ok {
		return invalidAsOf(c)
	}

	loan, err := h.loanService.GetLoan(id)
	if err != nil {
		return handleError(c, err, "get loan")
	}

	clientName := ""
	if client, err := h.clientService.GetClient(loan.ClientID); err == nil {
		clientName = client.DisplayName()
	} else {
		log.Warn().Err(err).Str("loan_id", id.String()).Msg("Loan client lookup failed")
	}

	resp := toLoanResponse(loan, clientName, domain.ClassifyLoan(loan, asOf))
	resp.Schedule = toScheduleResponse(loan.Schedule, &asOf)
	return c.JSON(http.StatusOK, resp)
}

// CloseLoan handles POST /api/v1/loans/:id/close
func (h *LoanHandler) CloseLoan(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	asOf := domain.DateOf(h.now())
	loan, err := h.loanService.CloseLoan(id, asOf)
	if err != nil {
		return handleError(c, err, "close loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan, "", domain.ClassifyLoan(loan, asOf)))
}

// DeleteLoan handles DELETE /api/v1/loans/:id
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	if err := h.loanService.DeleteLoan(id); err != nil {
		return handleError(c, err, "delete loan")
	}

	return c.NoContent(http.StatusNoContent)
}
