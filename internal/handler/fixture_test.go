package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/export"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/dafibh/prestamos/prestamos-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// fixedNow is the clock every handler test runs against
var fixedNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type handlerFixture struct {
	clientRepo  *testutil.MockClientRepository
	loanRepo    *testutil.MockLoanRepository
	paymentRepo *testutil.MockPaymentRepository
	client      *domain.Client

	clients   *ClientHandler
	loans     *LoanHandler
	payments  *PaymentHandler
	reports   *ReportHandler
	documents *DocumentHandler
	contracts *ContractHandler
}

func setupHandlers(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		clientRepo:  testutil.NewMockClientRepository(),
		loanRepo:    testutil.NewMockLoanRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
	}
	f.client = &domain.Client{
		Document: domain.Document{Type: domain.DocumentDNI, Number: "45871236"},
		Party:    domain.NaturalPerson{GivenNames: "Rosa", FamilyNames: "Huamán Torres"},
	}
	f.clientRepo.AddClient(f.client)

	transactor := &testutil.MockTransactor{}
	clientService := service.NewClientService(f.clientRepo, f.loanRepo)
	loanService := service.NewLoanService(transactor, f.loanRepo, f.clientRepo, f.paymentRepo)
	paymentService := service.NewPaymentService(transactor, f.loanRepo, f.paymentRepo)

	renderer, err := export.NewContractRenderer("Préstamos Test", "")
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	f.clients = NewClientHandler(clientService)
	f.loans = NewLoanHandler(loanService, clientService)
	f.loans.now = clock
	f.payments = NewPaymentHandler(paymentService)
	f.payments.now = clock
	f.reports = NewReportHandler(service.NewReportService(f.clientRepo, f.loanRepo, f.paymentRepo))
	f.reports.now = clock
	f.documents = NewDocumentHandler(service.NewDocumentLookupService(nil))
	f.contracts = NewContractHandler(service.NewContractService(f.loanRepo, f.clientRepo, renderer, nil))
	return f
}

// seedLoan stores a SIMPLE 1000 at 12% loan for the fixture client, starting 2025-01-15
func (f *handlerFixture) seedLoan(t *testing.T, months int) *domain.Loan {
	t.Helper()
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := domain.GenerateSchedule(decimal.NewFromInt(1000), decimal.NewFromInt(12), months, start, domain.MethodSimple)
	if err != nil {
		t.Fatalf("Failed to generate schedule: %v", err)
	}
	loan := &domain.Loan{
		ClientID:   f.client.ID,
		Principal:  decimal.NewFromInt(1000),
		AnnualRate: decimal.NewFromInt(12),
		TermMonths: months,
		StartDate:  start,
		Method:     domain.MethodSimple,
		Schedule:   schedule,
		Status:     domain.LoanActive,
	}
	f.loanRepo.AddLoan(loan)
	return loan
}

// newContext builds an echo context for method and target with an optional JSON body.
// params are path parameter name/value pairs.
func newContext(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var p ProblemDetails
	decodeBody(t, rec, &p)
	return p
}

func hasFieldError(p ProblemDetails, field string) bool {
	for _, e := range p.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
