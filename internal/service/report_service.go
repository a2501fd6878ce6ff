package service

import (
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
)

// ReportService builds the dashboard and the reports page
type ReportService struct {
	clientRepo  domain.ClientRepository
	loanRepo    domain.LoanRepository
	paymentRepo domain.PaymentRepository
}

// NewReportService creates a new ReportService
func NewReportService(
	clientRepo domain.ClientRepository,
	loanRepo domain.LoanRepository,
	paymentRepo domain.PaymentRepository,
) *ReportService {
	return &ReportService{
		clientRepo:  clientRepo,
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
	}
}

// Dashboard returns the dashboard figures as of asOf
func (s *ReportService) Dashboard(asOf time.Time) (*domain.DashboardStats, error) {
	clientCount, err := s.clientRepo.Count()
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.GetAll()
	if err != nil {
		return nil, err
	}

	paid, err := s.paymentRepo.SumByLoan()
	if err != nil {
		return nil, err
	}

	stats := domain.BuildDashboard(clientCount, loans, paid, asOf)
	return &stats, nil
}

// Report returns the reports page figures as of asOf
func (s *ReportService) Report(asOf time.Time) (*domain.Report, error) {
	clients, err := s.clientRepo.List("")
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.GetAll()
	if err != nil {
		return nil, err
	}

	paid, err := s.paymentRepo.SumByLoan()
	if err != nil {
		return nil, err
	}

	report := domain.BuildReport(clients, loans, paid, asOf)
	return &report, nil
}
