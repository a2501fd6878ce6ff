package domain

import (
	"sort"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report limits
const (
	MaxReportMonths = 12
	MaxTopClients   = 10
)

// PortfolioTotals are the money totals shared by the dashboard and the report
type PortfolioTotals struct {
	TotalLent       decimal.Decimal
	TotalPaid       decimal.Decimal
	Outstanding     decimal.Decimal
	RecoveryPercent decimal.Decimal
}

// DashboardStats contains the main dashboard metrics
type DashboardStats struct {
	PortfolioTotals
	TotalClients int64
	ActiveLoans  int
	LoansDueSoon int
}

// MonthSummary aggregates the installments falling due in one month
type MonthSummary struct {
	Month               string
	Expected            decimal.Decimal
	Paid                decimal.Decimal
	PendingInstallments int
	OverdueInstallments int
}

// ClientRanking is one row of the top clients table
type ClientRanking struct {
	ClientID    uuid.UUID
	ClientName  string
	TotalLent   decimal.Decimal
	TotalPaid   decimal.Decimal
	Outstanding decimal.Decimal
	LoanCount   int
}

// Report contains the figures of the reports page
type Report struct {
	PortfolioTotals
	ActiveLoans         int
	PaidLoans           int
	OverdueInstallments int
	Monthly             []MonthSummary
	TopClients          []ClientRanking
}

// ComputeTotals sums principal lent against payments received.
// paidByLoan maps loan id to the sum of its recorded payments.
func ComputeTotals(loans []*Loan, paidByLoan map[uuid.UUID]decimal.Decimal) PortfolioTotals {
	lent, paid := decimal.Zero, decimal.Zero
	for _, l := range loans {
		lent = lent.Add(l.Principal)
	}
	for _, amount := range paidByLoan {
		paid = paid.Add(amount)
	}

	recovery := decimal.Zero
	if lent.IsPositive() {
		recovery = paid.Div(lent).Mul(hundred).Round(2)
	}
	return PortfolioTotals{
		TotalLent:       lent,
		TotalPaid:       paid,
		Outstanding:     lent.Sub(paid),
		RecoveryPercent: recovery,
	}
}

// BuildDashboard computes the dashboard metrics as of a day
func BuildDashboard(clientCount int64, loans []*Loan, paidByLoan map[uuid.UUID]decimal.Decimal, asOf time.Time) DashboardStats {
	stats := DashboardStats{
		PortfolioTotals: ComputeTotals(loans, paidByLoan),
		TotalClients:    clientCount,
	}
	for _, l := range loans {
		if l.IsClosed() {
			continue
		}
		stats.ActiveLoans++
		if hasDueSoon(l.Schedule, asOf) {
			stats.LoansDueSoon++
		}
	}
	return stats
}

func hasDueSoon(s Schedule, asOf time.Time) bool {
	for _, inst := range s {
		if ClassifyInstallment(inst, asOf) == InstallmentDueSoon {
			return true
		}
	}
	return false
}

// BuildReport computes the reports page as of a day
func BuildReport(clients []*Client, loans []*Loan, paidByLoan map[uuid.UUID]decimal.Decimal, asOf time.Time) Report {
	report := Report{PortfolioTotals: ComputeTotals(loans, paidByLoan)}

	months := make(map[string]*MonthSummary)
	for _, l := range loans {
		if !l.IsClosed() {
			report.ActiveLoans++
		}
		if len(l.Schedule) > 0 && l.Schedule.PaidCount() == len(l.Schedule) {
			report.PaidLoans++
		}

		for _, inst := range l.Schedule {
			key := util.MonthKey(inst.DueDate)
			m, ok := months[key]
			if !ok {
				m = &MonthSummary{Month: key, Expected: decimal.Zero, Paid: decimal.Zero}
				months[key] = m
			}
			m.Expected = m.Expected.Add(inst.Total)

			switch ClassifyInstallment(inst, asOf) {
			case InstallmentPaid:
				paid := inst.AmountPaid
				if paid.IsZero() {
					paid = inst.Total
				}
				m.Paid = m.Paid.Add(paid)
			case InstallmentOverdue:
				m.PendingInstallments++
				m.OverdueInstallments++
				report.OverdueInstallments++
			default:
				m.PendingInstallments++
			}
		}
	}

	report.Monthly = make([]MonthSummary, 0, len(months))
	for _, m := range months {
		report.Monthly = append(report.Monthly, *m)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month > report.Monthly[j].Month
	})
	if len(report.Monthly) > MaxReportMonths {
		report.Monthly = report.Monthly[:MaxReportMonths]
	}

	report.TopClients = rankClients(clients, loans, paidByLoan)
	return report
}

func rankClients(clients []*Client, loans []*Loan, paidByLoan map[uuid.UUID]decimal.Decimal) []ClientRanking {
	byClient := make(map[uuid.UUID]*ClientRanking, len(clients))
	order := make([]*ClientRanking, 0, len(clients))
	for _, c := range clients {
		r := &ClientRanking{
			ClientID:   c.ID,
			ClientName: c.DisplayName(),
			TotalLent:  decimal.Zero,
			TotalPaid:  decimal.Zero,
		}
		byClient[c.ID] = r
		order = append(order, r)
	}

	for _, l := range loans {
		r, ok := byClient[l.ClientID]
		if !ok {
			continue
		}
		r.LoanCount++
		r.TotalLent = r.TotalLent.Add(l.Principal)
		if paid, ok := paidByLoan[l.ID]; ok {
			r.TotalPaid = r.TotalPaid.Add(paid)
		}
	}

	ranked := make([]ClientRanking, 0, len(order))
	for _, r := range order {
		if !r.TotalLent.IsPositive() {
			continue
		}
		r.Outstanding = r.TotalLent.Sub(r.TotalPaid)
		ranked = append(ranked, *r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalLent.GreaterThan(ranked[j].TotalLent)
	})
	if len(ranked) > MaxTopClients {
		ranked = ranked[:MaxTopClients]
	}
	return ranked
}
