package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const paymentColumns = `p.id, p.loan_id, p.installment_number, p.amount, p.payment_date, p.method, p.notes, p.created_at`

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreateTx inserts a payment within a transaction
func (r *PaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	ctx := context.Background()
	q, err := txQuerier(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `
		INSERT INTO payments AS p (id, loan_id, installment_number, amount, payment_date, method, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+paymentColumns,
		payment.ID, payment.LoanID, payment.InstallmentNumber, amount,
		pgtype.Date{Time: payment.PaymentDate, Valid: true}, string(payment.Method), payment.Notes, payment.CreatedAt,
	)
	created, err := scanPayment(row)
	if err != nil {
		if isUniqueViolation(err, "payments_installment_unique") {
			return nil, domain.ErrDuplicateInstallmentPay
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return created, nil
}

// GetByLoan retrieves the payments of a loan ordered by installment
func (r *PaymentRepository) GetByLoan(loanID uuid.UUID) ([]*domain.Payment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.loan_id = $1 ORDER BY p.installment_number`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// List retrieves payments with their client, newest first.
// query matches the client name or document number, ignoring case.
func (r *PaymentRepository) List(query string) ([]*domain.PaymentDetail, error) {
	ctx := context.Background()
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`, c.id, c.party_kind, c.given_names, c.family_names, c.business_name, l.term_months
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		JOIN clients c ON c.id = l.client_id
		WHERE LOWER(COALESCE(c.given_names, '') || ' ' || COALESCE(c.family_names, '')) LIKE $1
			OR LOWER(COALESCE(c.business_name, '')) LIKE $1
			OR LOWER(c.document_number) LIKE $1
			OR p.loan_id::text LIKE $1
		ORDER BY p.payment_date DESC, p.created_at DESC`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var details []*domain.PaymentDetail
	for rows.Next() {
		var (
			p                       domain.Payment
			amount                  pgtype.Numeric
			paymentDate             pgtype.Date
			method, kind            string
			given, family, business pgtype.Text
			detail                  domain.PaymentDetail
		)
		err := rows.Scan(&p.ID, &p.LoanID, &p.InstallmentNumber, &amount, &paymentDate, &method, &p.Notes, &p.CreatedAt,
			&detail.ClientID, &kind, &given, &family, &business, &detail.TotalInstallments)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = pgNumericToDecimal(amount)
		p.PaymentDate = paymentDate.Time
		p.Method = domain.PaymentMethod(method)

		detail.Payment = &p
		if domain.PartyKind(kind) == domain.PartyLegal {
			detail.ClientName = domain.LegalEntity{BusinessName: business.String}.DisplayName()
		} else {
			detail.ClientName = domain.NaturalPerson{GivenNames: given.String, FamilyNames: family.String}.DisplayName()
		}
		details = append(details, &detail)
	}
	return details, rows.Err()
}

// CountByLoan returns how many payments a loan has
func (r *PaymentRepository) CountByLoan(loanID uuid.UUID) (int64, error) {
	ctx := context.Background()
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE loan_id = $1`, loanID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

// SumByLoan returns the sum of payment amounts per loan
func (r *PaymentRepository) SumByLoan() (map[uuid.UUID]decimal.Decimal, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `SELECT loan_id, SUM(amount) FROM payments GROUP BY loan_id`)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	defer rows.Close()

	sums := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var (
			loanID uuid.UUID
			total  pgtype.Numeric
		)
		if err := rows.Scan(&loanID, &total); err != nil {
			return nil, fmt.Errorf("scan payment sum: %w", err)
		}
		sums[loanID] = pgNumericToDecimal(total)
	}
	return sums, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p           domain.Payment
		amount      pgtype.Numeric
		paymentDate pgtype.Date
		method      string
		createdAt   time.Time
	)
	if err := row.Scan(&p.ID, &p.LoanID, &p.InstallmentNumber, &amount, &paymentDate, &method, &p.Notes, &createdAt); err != nil {
		return nil, err
	}
	p.Amount = pgNumericToDecimal(amount)
	p.PaymentDate = paymentDate.Time
	p.Method = domain.PaymentMethod(method)
	p.CreatedAt = createdAt
	return &p, nil
}
