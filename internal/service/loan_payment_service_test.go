package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	svc         *PaymentService
	transactor  *testutil.MockTransactor
	loanRepo    *testutil.MockLoanRepository
	paymentRepo *testutil.MockPaymentRepository
	publisher   *testutil.MockEventPublisher
	loan        *domain.Loan
}

func setupPaymentService(t *testing.T) *paymentFixture {
	f := &paymentFixture{
		transactor:  &testutil.MockTransactor{},
		loanRepo:    testutil.NewMockLoanRepository(),
		paymentRepo: testutil.NewMockPaymentRepository(),
		publisher:   &testutil.MockEventPublisher{},
	}
	f.loan = seedLoan(t, f.loanRepo, uuid.New(), 3, date(2025, 1, 15))
	f.svc = NewPaymentService(f.transactor, f.loanRepo, f.paymentRepo)
	f.svc.SetEventPublisher(f.publisher)
	f.svc.now = func() time.Time { return time.Date(2025, 2, 16, 9, 30, 0, 0, time.UTC) }
	return f
}

func cashIntent(number int, amount string) domain.PaymentIntent {
	return domain.PaymentIntent{
		InstallmentNumber: number,
		Amount:            decimal.RequireFromString(amount),
		PaymentDate:       time.Date(2025, 2, 15, 18, 45, 0, 0, time.UTC),
		Method:            domain.PaymentCash,
	}
}

func TestRecordPayment_Success(t *testing.T) {
	f := setupPaymentService(t)

	result, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.transactor.Calls)
	assert.Equal(t, f.loan.ID, result.Payment.LoanID)
	assert.Equal(t, date(2025, 2, 15), result.Payment.PaymentDate)
	assert.Equal(t, time.Date(2025, 2, 16, 9, 30, 0, 0, time.UTC), result.Payment.CreatedAt)

	assert.Equal(t, int32(2), result.Loan.Version)
	assert.True(t, result.Loan.Schedule[0].Paid)
	assert.False(t, result.Loan.Schedule[1].Paid)

	stored, err := f.loanRepo.GetByID(f.loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Schedule[0].Paid)
	require.NotNil(t, stored.Schedule[0].PaidDate)
	assert.Equal(t, date(2025, 2, 15), *stored.Schedule[0].PaidDate)
	assert.True(t, stored.Schedule[0].AmountPaid.Equal(decimal.RequireFromString("343.33")))

	require.Len(t, f.paymentRepo.Payments, 1)
	require.Len(t, f.publisher.Events, 1)
	evt := f.publisher.Events[0]
	assert.Equal(t, "payment.recorded", evt.Type)
	payload := evt.Payload.(map[string]interface{})
	assert.Equal(t, 2, payload["remaining"])
	assert.Equal(t, "343.33", payload["amount"])
}

func TestRecordPayment_SecondPaymentOnSameInstallment(t *testing.T) {
	f := setupPaymentService(t)

	_, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	assert.ErrorIs(t, err, domain.ErrInstallmentAlreadyPaid)
	assert.Len(t, f.paymentRepo.Payments, 1)
	assert.Len(t, f.publisher.Events, 1)
}

func TestRecordPayment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		loanID  func(f *paymentFixture) uuid.UUID
		intent  domain.PaymentIntent
		wantErr error
	}{
		{"unknown loan", func(*paymentFixture) uuid.UUID { return uuid.New() }, cashIntent(1, "10"), domain.ErrLoanNotFound},
		{"unknown installment", nil, cashIntent(9, "10"), domain.ErrInstallmentNotFound},
		{"zero amount", nil, cashIntent(1, "0"), domain.ErrPaymentAmountInvalid},
		{"bad method", nil, domain.PaymentIntent{InstallmentNumber: 1, Amount: decimal.NewFromInt(10), PaymentDate: date(2025, 2, 15), Method: "crypto"}, domain.ErrPaymentMethodInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupPaymentService(t)
			id := f.loan.ID
			if tt.loanID != nil {
				id = tt.loanID(f)
			}

			_, err := f.svc.RecordPayment(id, tt.intent)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.paymentRepo.Payments)
			assert.Empty(t, f.publisher.Events)

			if stored, err := f.loanRepo.GetByID(f.loan.ID); err == nil {
				assert.Equal(t, int32(1), stored.Version)
				assert.Zero(t, stored.Schedule.PaidCount())
			}
		})
	}
}

func TestRecordPayment_ClosedLoan(t *testing.T) {
	f := setupPaymentService(t)
	f.loan.Status = domain.LoanClosed

	_, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "10"))
	assert.ErrorIs(t, err, domain.ErrLoanClosed)
}

func TestRecordPayment_StaleVersion(t *testing.T) {
	f := setupPaymentService(t)
	f.loanRepo.UpdateScheduleFn = func(loan *domain.Loan, expected int32) (*domain.Loan, error) {
		return nil, domain.ErrConcurrentModification
	}

	_, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.paymentRepo.Payments)
	assert.Empty(t, f.publisher.Events)
}

func TestRecordPayment_PaymentInsertFails(t *testing.T) {
	f := setupPaymentService(t)
	f.paymentRepo.CreateFn = func(*domain.Payment) (*domain.Payment, error) {
		return nil, errors.New("insert failed")
	}

	_, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	assert.EqualError(t, err, "insert failed")
	assert.Empty(t, f.publisher.Events)
}

func TestRecordPayment_ConcurrentSameInstallment(t *testing.T) {
	f := setupPaymentService(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RecordPayment(f.loan.ID, cashIntent(2, "343.33"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			errors.Is(err, domain.ErrInstallmentAlreadyPaid) || errors.Is(err, domain.ErrConcurrentModification),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.paymentRepo.Payments, 1)
}

func TestListPaymentsByLoan(t *testing.T) {
	f := setupPaymentService(t)
	_, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	require.NoError(t, err)

	payments, err := f.svc.ListPaymentsByLoan(f.loan.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = f.svc.ListPaymentsByLoan(uuid.New())
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestListPayments_PassesTrimmedQuery(t *testing.T) {
	f := setupPaymentService(t)
	f.paymentRepo.Details = []*domain.PaymentDetail{{Payment: &domain.Payment{ID: uuid.New()}, ClientName: "Ana Quispe"}}

	details, err := f.svc.ListPayments("  ana ")
	require.NoError(t, err)
	assert.Len(t, details, 1)
}

func TestPayableInstallments(t *testing.T) {
	f := setupPaymentService(t)
	_, err := f.svc.RecordPayment(f.loan.ID, cashIntent(1, "343.33"))
	require.NoError(t, err)

	payable, err := f.svc.PayableInstallments(f.loan.ID)
	require.NoError(t, err)
	require.Len(t, payable, 2)
	assert.Equal(t, 2, payable[0].Number)

	_, err = f.svc.PayableInstallments(uuid.New())
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}
