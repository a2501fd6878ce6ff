package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the borrower paid
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentDeposit      PaymentMethod = "deposit"
	PaymentCheck        PaymentMethod = "check"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentDeposit, PaymentCheck:
		return true
	}
	return false
}

// Payment records one settlement of one installment
type Payment struct {
	ID                uuid.UUID       `json:"id"`
	LoanID            uuid.UUID       `json:"loanId"`
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       time.Time       `json:"paymentDate"`
	Method            PaymentMethod   `json:"method"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// FormatInstallmentLabel returns a label like "3/12" for installment 3 of 12
func (p *Payment) FormatInstallmentLabel(totalInstallments int) string {
	return fmt.Sprintf("%d/%d", p.InstallmentNumber, totalInstallments)
}

// PaymentIntent is what the operator submits to settle an installment
type PaymentIntent struct {
	InstallmentNumber int
	Amount            decimal.Decimal
	PaymentDate       time.Time
	Method            PaymentMethod
	Notes             string
}

func (i PaymentIntent) Validate() error {
	if i.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if i.Amount.GreaterThan(MaxAmount) {
		return ErrPaymentAmountTooLarge
	}
	if exceedsPlaces(i.Amount, MoneyPlaces) {
		return ErrPaymentAmountPrecision
	}
	if !i.Method.IsValid() {
		return ErrPaymentMethodInvalid
	}
	if i.PaymentDate.IsZero() {
		return ErrPaymentDateRequired
	}
	if len(strings.TrimSpace(i.Notes)) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// ApplyPayment settles one installment of loan. It returns a new schedule with
// the installment stamped paid and the payment record to persist next to it.
// The loan and its schedule are left untouched.
func ApplyPayment(loan *Loan, intent PaymentIntent, createdAt time.Time) (Schedule, *Payment, error) {
	if loan == nil {
		return nil, nil, ErrLoanNotFound
	}
	idx := loan.Schedule.Find(intent.InstallmentNumber)
	if idx < 0 {
		return nil, nil, ErrInstallmentNotFound
	}
	if loan.IsClosed() {
		return nil, nil, ErrLoanClosed
	}
	if loan.Schedule[idx].Paid {
		return nil, nil, ErrInstallmentAlreadyPaid
	}
	if err := intent.Validate(); err != nil {
		return nil, nil, err
	}

	paidDate := DateOf(intent.PaymentDate)
	updated := loan.Schedule.Clone()
	updated[idx].Paid = true
	updated[idx].PaidDate = &paidDate
	updated[idx].AmountPaid = intent.Amount

	payment := &Payment{
		ID:                uuid.New(),
		LoanID:            loan.ID,
		InstallmentNumber: intent.InstallmentNumber,
		Amount:            intent.Amount,
		PaymentDate:       paidDate,
		Method:            intent.Method,
		Notes:             strings.TrimSpace(intent.Notes),
		CreatedAt:         createdAt,
	}
	return updated, payment, nil
}

// PaymentDetail is a payment listed with its loan's client
type PaymentDetail struct {
	Payment           *Payment
	ClientID          uuid.UUID
	ClientName        string
	TotalInstallments int
}

type PaymentRepository interface {
	CreateTx(tx interface{}, payment *Payment) (*Payment, error) // Transactional create
	GetByLoan(loanID uuid.UUID) ([]*Payment, error)
	List(query string) ([]*PaymentDetail, error)
	CountByLoan(loanID uuid.UUID) (int64, error)
	SumByLoan() (map[uuid.UUID]decimal.Decimal, error) // Loan id to sum of its payments
}
