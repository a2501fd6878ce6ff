package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// PaymentHandler handles loan payment HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
	now            func() time.Time
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, now: time.Now}
}

// RecordPaymentRequest represents the body of a payment
type RecordPaymentRequest struct {
	InstallmentNumber int    `json:"installmentNumber"`
	Amount            string `json:"amount"`
	PaymentDate       string `json:"paymentDate,omitempty"` // defaults to today
	Method            string `json:"method"`
	Notes             string `json:"notes,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                string        `json:"id"`
	LoanID            string        `json:"loanId"`
	InstallmentNumber int           `json:"installmentNumber"`
	InstallmentLabel  string        `json:"installmentLabel,omitempty"`
	Amount            MoneyResponse `json:"amount"`
	PaymentDate       string        `json:"paymentDate"`
	Method            string        `json:"method"`
	Notes             string        `json:"notes,omitempty"`
	ClientID          string        `json:"clientId,omitempty"`
	ClientName        string        `json:"clientName,omitempty"`
	CreatedAt         string        `json:"createdAt"`
}

// RecordPaymentResponse is the stored payment with the loan's updated balance
type RecordPaymentResponse struct {
	Payment               PaymentResponse `json:"payment"`
	Balance               MoneyResponse   `json:"balance"`
	RemainingInstallments int             `json:"remainingInstallments"`
	LoanVersion           int32           `json:"loanVersion"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		LoanID:            p.LoanID.String(),
		InstallmentNumber: p.InstallmentNumber,
		Amount:            newMoney(p.Amount),
		PaymentDate:       domain.FormatDate(p.PaymentDate),
		Method:            string(p.Method),
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func toPaymentDetailResponse(d *domain.PaymentDetail) PaymentResponse {
	resp := toPaymentResponse(d.Payment)
	resp.ClientID = d.ClientID.String()
	resp.ClientName = d.ClientName
	if d.TotalInstallments > 0 {
		resp.InstallmentLabel = d.Payment.FormatInstallmentLabel(d.TotalInstallments)
	}
	return resp
}

// RecordPayment handles POST /api/v1/loans/:id/payments
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	loanID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var errs []ValidationError
	if req.InstallmentNumber < 1 {
		errs = append(errs, ValidationError{Field: "installmentNumber", Message: "Must be at least 1"})
	}
	amount, verr := parseAmount(req.Amount, "amount")
	if verr != nil {
		errs = append(errs, *verr)
	}
	paymentDate := domain.DateOf(h.now())
	if strings.TrimSpace(req.PaymentDate) != "" {
		paymentDate, verr = parseDateField(req.PaymentDate, "paymentDate")
		if verr != nil {
			errs = append(errs, *verr)
		}
	}
	if len(errs) > 0 {
		return NewValidationError(c, "Invalid payment", errs)
	}

	result, err := h.paymentService.RecordPayment(loanID, domain.PaymentIntent{
		InstallmentNumber: req.InstallmentNumber,
		Amount:            amount,
		PaymentDate:       paymentDate,
		Method:            domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		Notes:             req.Notes,
	})
	if err != nil {
		return handleError(c, err, "record payment")
	}

	log.Info().
		Str("loan_id", loanID.String()).
		Int("installment", req.InstallmentNumber).
		Str("amount", amount.StringFixed(2)).
		Msg("Payment recorded")

	payment := toPaymentResponse(result.Payment)
	payment.InstallmentLabel = result.Payment.FormatInstallmentLabel(len(result.Loan.Schedule))
	return c.JSON(http.StatusCreated, RecordPaymentResponse{
		Payment:               payment,
		Balance:               newMoney(result.Loan.Balance()),
		RemainingInstallments: len(result.Loan.Schedule.Unpaid()),
		LoanVersion:           result.Loan.Version,
	})
}

// GetPayments handles GET /api/v1/payments?q=
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	details, err := h.paymentService.ListPayments(c.QueryParam("q"))
	if err != nil {
		return handleError(c, err, "list payments")
	}

	response := make([]PaymentResponse, len(details))
	for i, d := range details {
		response[i] = toPaymentDetailResponse(d)
	}
	return c.JSON(http.StatusOK, response)
}

// GetLoanPayments handles GET /api/v1/loans/:id/payments
func (h *PaymentHandler) GetLoanPayments(c echo.Context) error {
	loanID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	payments, err := h.paymentService.ListPaymentsByLoan(loanID)
	if err != nil {
		return handleError(c, err, "list loan payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		response[i] = toPaymentResponse(p)
	}
	return c.JSON(http.StatusOK, response)
}

// GetPayableInstallments handles GET /api/v1/loans/:id/installments/payable
func (h *PaymentHandler) GetPayableInstallments(c echo.Context) error {
	loanID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	unpaid, err := h.paymentService.PayableInstallments(loanID)
	if err != nil {
		return handleError(c, err, "list payable installments")
	}

	asOf := domain.DateOf(h.now())
	response := make([]InstallmentResponse, len(unpaid))
	for i, inst := range unpaid {
		response[i] = toInstallmentResponse(inst, domain.ClassifyInstallment(inst, asOf))
	}
	return c.JSON(http.StatusOK, response)
}
