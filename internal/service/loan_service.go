package service

import (
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanService handles loan business logic
type LoanService struct {
	transactor     domain.Transactor
	loanRepo       domain.LoanRepository
	clientRepo     domain.ClientRepository
	paymentRepo    domain.PaymentRepository
	eventPublisher websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(transactor domain.Transactor, loanRepo domain.LoanRepository, clientRepo domain.ClientRepository, paymentRepo domain.PaymentRepository) *LoanService {
	return &LoanService{
		transactor:  transactor,
		loanRepo:    loanRepo,
		clientRepo:  clientRepo,
		paymentRepo: paymentRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// LoanTermsInput contains the terms that determine a schedule
type LoanTermsInput struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal // percent per year
	TermMonths int
	StartDate  time.Time
	Method     domain.InterestMethod
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	ClientID uuid.UUID
	LoanTermsInput
	Notes string
}

// PreviewSchedule computes the schedule for the given terms without saving anything
func (s *LoanService) PreviewSchedule(input LoanTermsInput) (domain.Schedule, error) {
	if input.StartDate.IsZero() {
		return nil, domain.ErrStartDateRequired
	}
	return domain.GenerateSchedule(input.Principal, input.AnnualRate, input.TermMonths, input.StartDate, input.Method)
}

// CreateLoan generates the schedule and stores the loan together with it
func (s *LoanService) CreateLoan(input CreateLoanInput) (*domain.Loan, error) {
	notes := strings.TrimSpace(input.Notes)
	if len(notes) > domain.MaxNotesLength {
		return nil, domain.ErrNotesTooLong
	}

	client, err := s.clientRepo.GetByID(input.ClientID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.PreviewSchedule(input.LoanTermsInput)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:         uuid.New(),
		ClientID:   client.ID,
		Principal:  domain.RoundMoney(input.Principal),
		AnnualRate: input.AnnualRate,
		TermMonths: input.TermMonths,
		StartDate:  domain.DateOf(input.StartDate),
		Method:     input.Method,
		Notes:      notes,
		Schedule:   schedule,
		Status:     domain.LoanActive,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Loan
	err = s.transactor.WithinTx(func(tx interface{}) error {
		var txErr error
		created, txErr = s.loanRepo.CreateTx(tx, loan)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.LoanCreated(loanPayload(created, client.DisplayName())))
	return created, nil
}

// GetLoan retrieves a loan by ID
func (s *LoanService) GetLoan(id uuid.UUID) (*domain.Loan, error) {
	return s.loanRepo.GetByID(id)
}

// ListLoans returns every loan with its client name and state as of asOf.
// query matches the client's name or document, or a prefix of the loan ID.
func (s *LoanService) ListLoans(query string, asOf time.Time) ([]*domain.LoanSummary, error) {
	loans, err := s.loanRepo.GetAll()
	if err != nil {
		return nil, err
	}
	clients, err := s.clientsByID()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	summaries := make([]*domain.LoanSummary, 0, len(loans))
	for _, loan := range loans {
		client := clients[loan.ClientID]
		if q != "" && !loanMatches(loan, client, q) {
			continue
		}
		summaries = append(summaries, summarize(loan, client, asOf))
	}
	return summaries, nil
}

// ListLoansByClient returns the loans of one client with their state as of asOf
func (s *LoanService) ListLoansByClient(clientID uuid.UUID, asOf time.Time) ([]*domain.LoanSummary, error) {
	client, err := s.clientRepo.GetByID(clientID)
	if err != nil {
		return nil, err
	}
	loans, err := s.loanRepo.GetByClient(clientID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.LoanSummary, 0, len(loans))
	for _, loan := range loans {
		summaries = append(summaries, summarize(loan, client, asOf))
	}
	return summaries, nil
}

// CloseLoan marks a fully paid loan as closed
func (s *LoanService) CloseLoan(id uuid.UUID, asOf time.Time) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if loan.IsClosed() {
		return nil, domain.ErrLoanClosed
	}
	if domain.ClassifyLoan(loan, asOf) != domain.LoanStatePaid {
		return nil, domain.ErrLoanNotFullyPaid
	}

	closed, err := s.loanRepo.UpdateStatus(id, domain.LoanClosed)
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.LoanClosed(loanPayload(closed, "")))
	return closed, nil
}

// DeleteLoan removes a loan that has no recorded payments
func (s *LoanService) DeleteLoan(id uuid.UUID) error {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return err
	}

	count, err := s.paymentRepo.CountByLoan(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrLoanHasPayments
	}

	if err := s.loanRepo.Delete(id); err != nil {
		return err
	}

	s.publishEvent(websocket.LoanDeleted(loanPayload(loan, "")))
	return nil
}

func (s *LoanService) clientsByID() (map[uuid.UUID]*domain.Client, error) {
	clients, err := s.clientRepo.List("")
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return byID, nil
}

func loanMatches(loan *domain.Loan, client *domain.Client, q string) bool {
	if strings.HasPrefix(loan.ID.String(), q) {
		return true
	}
	return client != nil && client.Matches(q)
}

func summarize(loan *domain.Loan, client *domain.Client, asOf time.Time) *domain.LoanSummary {
	summary := &domain.LoanSummary{
		Loan:  loan,
		State: domain.ClassifyLoan(loan, asOf),
	}
	if client != nil {
		summary.ClientName = client.DisplayName()
	}
	return summary
}

func loanPayload(loan *domain.Loan, clientName string) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         loan.ID.String(),
		"clientId":   loan.ClientID.String(),
		"principal":  loan.Principal.StringFixed(2),
		"termMonths": loan.TermMonths,
		"status":     string(loan.Status),
	}
	if clientName != "" {
		payload["clientName"] = clientName
	}
	return payload
}
