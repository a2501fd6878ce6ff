package domain

import "time"

// DueSoonWindowDays is how far ahead an unpaid installment counts as due soon
const DueSoonWindowDays = 7

// InstallmentStatus is the derived state of one installment on a given day
type InstallmentStatus string

const (
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
	InstallmentDueSoon InstallmentStatus = "due_soon"
	InstallmentPending InstallmentStatus = "pending"
)

// LoanState is the derived state of a loan on a given day
type LoanState string

const (
	LoanStatePaid    LoanState = "paid"
	LoanStateOverdue LoanState = "overdue"
	LoanStateDueSoon LoanState = "due_soon"
	LoanStateCurrent LoanState = "current"
	LoanStatePending LoanState = "pending"
)

// ClassifyInstallment derives the installment state as of a day.
// Both dates are compared by calendar day.
func ClassifyInstallment(inst Installment, asOf time.Time) InstallmentStatus {
	if inst.Paid {
		return InstallmentPaid
	}
	due := DateOf(inst.DueDate)
	today := DateOf(asOf)
	if due.Before(today) {
		return InstallmentOverdue
	}
	if !due.After(today.AddDate(0, 0, DueSoonWindowDays)) {
		return InstallmentDueSoon
	}
	return InstallmentPending
}

// ClassifyLoan derives the loan state from its schedule.
// Overdue wins over due soon, which wins over current.
func ClassifyLoan(loan *Loan, asOf time.Time) LoanState {
	if loan == nil || len(loan.Schedule) == 0 {
		return LoanStatePending
	}

	allPaid := true
	dueSoon := false
	for _, inst := range loan.Schedule {
		switch ClassifyInstallment(inst, asOf) {
		case InstallmentOverdue:
			return LoanStateOverdue
		case InstallmentDueSoon:
			dueSoon = true
			allPaid = false
		case InstallmentPending:
			allPaid = false
		}
	}

	switch {
	case allPaid:
		return LoanStatePaid
	case dueSoon:
		return LoanStateDueSoon
	default:
		return LoanStateCurrent
	}
}

// InstallmentView pairs an installment with its derived status
type InstallmentView struct {
	Installment
	Status InstallmentStatus `json:"status"`
}

// ClassifySchedule returns every installment with its status as of a day
func ClassifySchedule(s Schedule, asOf time.Time) []InstallmentView {
	out := make([]InstallmentView, len(s))
	for i, inst := range s {
		out[i] = InstallmentView{Installment: inst, Status: ClassifyInstallment(inst, asOf)}
	}
	return out
}
