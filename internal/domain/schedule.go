package domain

import (
	"math"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/util"
	"github.com/shopspring/decimal"
)

// InterestMethod selects how a schedule is amortized
type InterestMethod string

const (
	MethodSimple   InterestMethod = "simple"   // flat interest spread evenly
	MethodCompound InterestMethod = "compound" // French annuity, fixed payment
)

// IsValid reports whether m is a known interest method
func (m InterestMethod) IsValid() bool {
	return m == MethodSimple || m == MethodCompound
}

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// balancePlaces bounds the precision of the running compound balance
const balancePlaces = 10

// Installment is one scheduled payment of a loan
type Installment struct {
	Number     int             `json:"number"`
	DueDate    time.Time       `json:"dueDate"`
	Capital    decimal.Decimal `json:"capital"`
	Interest   decimal.Decimal `json:"interest"`
	Total      decimal.Decimal `json:"total"`
	Paid       bool            `json:"paid"`
	PaidDate   *time.Time      `json:"paidDate,omitempty"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
}

// Schedule is the ordered list of installments of a loan
type Schedule []Installment

// Clone returns a deep copy of the schedule
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for i, inst := range s {
		if inst.PaidDate != nil {
			d := *inst.PaidDate
			inst.PaidDate = &d
		}
		out[i] = inst
	}
	return out
}

// Find returns the index of the installment with the given number, or -1
func (s Schedule) Find(number int) int {
	for i := range s {
		if s[i].Number == number {
			return i
		}
	}
	return -1
}

// Totals sums capital, interest and total due over the schedule
func (s Schedule) Totals() (capital, interest, total decimal.Decimal) {
	capital, interest, total = decimal.Zero, decimal.Zero, decimal.Zero
	for _, inst := range s {
		capital = capital.Add(inst.Capital)
		interest = interest.Add(inst.Interest)
		total = total.Add(inst.Total)
	}
	return
}

// PaidCount returns how many installments are paid
func (s Schedule) PaidCount() int {
	n := 0
	for _, inst := range s {
		if inst.Paid {
			n++
		}
	}
	return n
}

// Unpaid returns the installments that are still open, in order
func (s Schedule) Unpaid() Schedule {
	out := make(Schedule, 0, len(s))
	for _, inst := range s {
		if !inst.Paid {
			out = append(out, inst)
		}
	}
	return out
}

// ValidateTerms checks the loan terms a schedule is generated from
func ValidateTerms(principal, annualRatePercent decimal.Decimal, termMonths int, method InterestMethod) error {
	if principal.LessThanOrEqual(decimal.Zero) {
		return ErrPrincipalInvalid
	}
	if principal.GreaterThan(MaxAmount) {
		return ErrPrincipalTooLarge
	}
	if exceedsPlaces(principal, MoneyPlaces) {
		return ErrPrincipalPrecision
	}
	if annualRatePercent.IsNegative() {
		return ErrRateInvalid
	}
	if annualRatePercent.GreaterThan(MaxAnnualRate) {
		return ErrRateTooHigh
	}
	if exceedsPlaces(annualRatePercent, RatePlaces) {
		return ErrRatePrecision
	}
	if termMonths < 1 {
		return ErrTermInvalid
	}
	if termMonths > MaxTermMonths {
		return ErrTermTooLong
	}
	if !method.IsValid() {
		return ErrInterestMethodInvalid
	}
	return nil
}

// GenerateSchedule builds the amortization schedule for a loan.
// Amounts are rounded to cents and the last installment takes whatever
// capital is left, so capitals always add up to the principal exactly.
func GenerateSchedule(principal, annualRatePercent decimal.Decimal, termMonths int, startDate time.Time, method InterestMethod) (Schedule, error) {
	if err := ValidateTerms(principal, annualRatePercent, termMonths, method); err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		return nil, ErrStartDateRequired
	}

	start := DateOf(startDate)
	if method == MethodSimple {
		return simpleSchedule(principal, annualRatePercent, termMonths, start), nil
	}
	return compoundSchedule(principal, annualRatePercent, termMonths, start)
}

func simpleSchedule(principal, rate decimal.Decimal, n int, start time.Time) Schedule {
	terms := decimal.NewFromInt(int64(n))
	totalInterest := RoundMoney(principal.Mul(rate).Div(hundred).Mul(terms).Div(monthsInYear))
	capital := RoundMoney(principal.Div(terms))
	interest := RoundMoney(totalInterest.Div(terms))

	schedule := make(Schedule, 0, n)
	capitalSoFar, interestSoFar := decimal.Zero, decimal.Zero
	for i := 1; i <= n; i++ {
		c, in := capital, interest
		if i == n {
			c = principal.Sub(capitalSoFar)
			in = totalInterest.Sub(interestSoFar)
		}
		capitalSoFar = capitalSoFar.Add(c)
		interestSoFar = interestSoFar.Add(in)
		schedule = append(schedule, newInstallment(i, start, c, in))
	}
	return schedule
}

func compoundSchedule(principal, rate decimal.Decimal, n int, start time.Time) (Schedule, error) {
	r := rate.Div(hundred).Div(monthsInYear)

	payment := principal.Div(decimal.NewFromInt(int64(n)))
	if !r.IsZero() {
		factor, err := annuityFactor(r.InexactFloat64(), n)
		if err != nil {
			return nil, err
		}
		payment = principal.Mul(decimal.NewFromFloat(factor))
	}

	// payment and balance keep full precision; only the reported portions are
	// rounded, so cent rounding never accumulates from one period to the next
	schedule := make(Schedule, 0, n)
	balance := principal
	scheduled := decimal.Zero
	for i := 1; i <= n; i++ {
		interest := balance.Mul(r).Round(balancePlaces)
		capital := payment.Sub(interest)
		balance = balance.Sub(capital).Round(balancePlaces)

		rounded := RoundMoney(capital)
		if i == n {
			rounded = principal.Sub(scheduled)
		}
		scheduled = scheduled.Add(rounded)
		schedule = append(schedule, newInstallment(i, start, rounded, RoundMoney(interest)))
	}
	return schedule, nil
}

// annuityFactor returns r(1+r)^n / ((1+r)^n - 1)
func annuityFactor(r float64, n int) (float64, error) {
	growth := math.Pow(1+r, float64(n))
	factor := r * growth / (growth - 1)
	if math.IsInf(factor, 0) || math.IsNaN(factor) || growth == 1 {
		return 0, ErrAnnuityFactor
	}
	return factor, nil
}

func newInstallment(number int, start time.Time, capital, interest decimal.Decimal) Installment {
	return Installment{
		Number:     number,
		DueDate:    util.AddMonthsClamped(start, number),
		Capital:    capital,
		Interest:   interest,
		Total:      capital.Add(interest),
		AmountPaid: decimal.Zero,
	}
}
