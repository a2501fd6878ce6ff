package service

import (
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/google/uuid"
)

// PaymentService handles installment payments
type PaymentService struct {
	transactor     domain.Transactor
	loanRepo       domain.LoanRepository
	paymentRepo    domain.PaymentRepository
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(transactor domain.Transactor, loanRepo domain.LoanRepository, paymentRepo domain.PaymentRepository) *PaymentService {
	return &PaymentService{
		transactor:  transactor,
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PaymentService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// RecordPaymentResult is the stored payment and the loan after it
type RecordPaymentResult struct {
	Payment *domain.Payment
	Loan    *domain.Loan
}

// RecordPayment settles one installment of a loan.
// The loan read, the schedule write and the payment insert share one transaction.
// The schedule write is conditional on the version read, so a concurrent payment
// on the same loan makes this call fail with ErrConcurrentModification.
func (s *PaymentService) RecordPayment(loanID uuid.UUID, intent domain.PaymentIntent) (*RecordPaymentResult, error) {
	var result RecordPaymentResult
	err := s.transactor.WithinTx(func(tx interface{}) error {
		loan, err := s.loanRepo.GetByIDTx(tx, loanID)
		if err != nil {
			return err
		}

		schedule, payment, err := domain.ApplyPayment(loan, intent, s.now())
		if err != nil {
			return err
		}

		next := *loan
		next.Schedule = schedule
		saved, err := s.loanRepo.UpdateScheduleTx(tx, &next, loan.Version)
		if err != nil {
			return err
		}

		stored, err := s.paymentRepo.CreateTx(tx, payment)
		if err != nil {
			return err
		}

		result.Loan = saved
		result.Payment = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.PaymentRecorded(map[string]interface{}{
		"id":                result.Payment.ID.String(),
		"loanId":            loanID.String(),
		"installmentNumber": result.Payment.InstallmentNumber,
		"amount":            result.Payment.Amount.StringFixed(2),
		"paymentDate":       domain.FormatDate(result.Payment.PaymentDate),
		"remaining":         len(result.Loan.Schedule.Unpaid()),
	}))
	return &result, nil
}

// ListPayments returns payments, newest first, filtered by client name, document number or loan ID
func (s *PaymentService) ListPayments(query string) ([]*domain.PaymentDetail, error) {
	return s.paymentRepo.List(strings.TrimSpace(query))
}

// ListPaymentsByLoan returns the payments recorded against a loan
func (s *PaymentService) ListPaymentsByLoan(loanID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByLoan(loanID)
}

// PayableInstallments returns the unpaid installments of an active loan
func (s *PaymentService) PayableInstallments(loanID uuid.UUID) (domain.Schedule, error) {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan.IsClosed() {
		return domain.Schedule{}, nil
	}
	return loan.Schedule.Unpaid(), nil
}
