package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the stored lifecycle status of a loan
type LoanStatus string

const (
	LoanActive LoanStatus = "active"
	LoanClosed LoanStatus = "closed"
)

type Loan struct {
	ID         uuid.UUID       `json:"id"`
	ClientID   uuid.UUID       `json:"clientId"`
	Principal  decimal.Decimal `json:"principal"`
	AnnualRate decimal.Decimal `json:"annualRate"`
	TermMonths int             `json:"termMonths"`
	StartDate  time.Time       `json:"startDate"`
	Method     InterestMethod  `json:"method"`
	Notes      string          `json:"notes,omitempty"`
	Schedule   Schedule        `json:"schedule"`
	Status     LoanStatus      `json:"status"`
	Version    int32           `json:"version"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if err := ValidateTerms(l.Principal, l.AnnualRate, l.TermMonths, l.Method); err != nil {
		return err
	}
	if l.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if len(strings.TrimSpace(l.Notes)) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// IsClosed reports whether the loan was closed by the office
func (l *Loan) IsClosed() bool {
	return l.Status == LoanClosed
}

// Balance returns the principal still owed, counting unpaid installments' capital
func (l *Loan) Balance() decimal.Decimal {
	owed := decimal.Zero
	for _, inst := range l.Schedule {
		if !inst.Paid {
			owed = owed.Add(inst.Capital)
		}
	}
	return owed
}

// InstallmentAmount returns the amount due on the first installment
func (l *Loan) InstallmentAmount() decimal.Decimal {
	if len(l.Schedule) == 0 {
		return decimal.Zero
	}
	return l.Schedule[0].Total
}

// LoanSummary is a loan listed with its client name and derived state
type LoanSummary struct {
	Loan       *Loan
	ClientName string
	State      LoanState
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	CreateTx(tx interface{}, loan *Loan) (*Loan, error) // Transactional create
	GetByID(id uuid.UUID) (*Loan, error)
	GetByIDTx(tx interface{}, id uuid.UUID) (*Loan, error) // Read inside a transaction
	GetAll() ([]*Loan, error)
	GetByClient(clientID uuid.UUID) ([]*Loan, error)
	GetActive() ([]*Loan, error)
	// UpdateScheduleTx writes the schedule if the stored version still equals
	// expectedVersion, bumping it by one. Otherwise ErrConcurrentModification.
	UpdateScheduleTx(tx interface{}, loan *Loan, expectedVersion int32) (*Loan, error)
	UpdateStatus(id uuid.UUID, status LoanStatus) (*Loan, error)
	Delete(id uuid.UUID) error
	CountByClient(clientID uuid.UUID) (int64, error)
}

// Transactor runs fn inside a single database transaction.
// The tx value is passed through to the *Tx repository methods.
type Transactor interface {
	WithinTx(fn func(tx interface{}) error) error
}
