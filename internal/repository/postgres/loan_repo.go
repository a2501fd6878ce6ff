package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanColumns = `id, client_id, principal, annual_rate, term_months, start_date, method, notes,
	schedule, status, version, created_at, updated_at`

// LoanRepository implements domain.LoanRepository using PostgreSQL.
// The schedule is stored as JSONB next to the loan row.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// Create creates a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	return r.createLoan(context.Background(), r.pool, loan)
}

// CreateTx creates a new loan within a transaction
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	q, err := txQuerier(tx)
	if err != nil {
		return nil, err
	}
	return r.createLoan(context.Background(), q, loan)
}

// createLoan is the internal implementation for creating a loan
func (r *LoanRepository) createLoan(ctx context.Context, q querier, loan *domain.Loan) (*domain.Loan, error) {
	principal, err := decimalToPgNumeric(loan.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := decimalToPgNumeric(loan.AnnualRate)
	if err != nil {
		return nil, err
	}
	schedule, err := json.Marshal(loan.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}

	status := loan.Status
	if status == "" {
		status = domain.LoanActive
	}

	row := q.QueryRow(ctx, `
		INSERT INTO loans (id, client_id, principal, annual_rate, term_months, start_date, method, notes, schedule, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+loanColumns,
		loan.ID, loan.ClientID, principal, rate, loan.TermMonths,
		pgtype.Date{Time: loan.StartDate, Valid: true}, string(loan.Method), loan.Notes, schedule, string(status),
	)
	created, err := scanLoan(row)
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	return created, nil
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(id uuid.UUID) (*domain.Loan, error) {
	return r.getByID(context.Background(), r.pool, id, false)
}

// GetByIDTx retrieves a loan within a transaction, locking its row
func (r *LoanRepository) GetByIDTx(tx interface{}, id uuid.UUID) (*domain.Loan, error) {
	q, err := txQuerier(tx)
	if err != nil {
		return nil, err
	}
	return r.getByID(context.Background(), q, id, true)
}

func (r *LoanRepository) getByID(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.Loan, error) {
	sql := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	loan, err := scanLoan(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return loan, nil
}

// GetAll retrieves every loan, newest first
func (r *LoanRepository) GetAll() ([]*domain.Loan, error) {
	return r.list(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`)
}

// GetByClient retrieves the loans of one client, newest first
func (r *LoanRepository) GetByClient(clientID uuid.UUID) ([]*domain.Loan, error) {
	return r.list(`SELECT `+loanColumns+` FROM loans WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

// GetActive retrieves loans that have not been closed
func (r *LoanRepository) GetActive() ([]*domain.Loan, error) {
	return r.list(`SELECT `+loanColumns+` FROM loans WHERE status = $1 ORDER BY start_date`, string(domain.LoanActive))
}

func (r *LoanRepository) list(sql string, args ...any) ([]*domain.Loan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// UpdateScheduleTx writes the schedule when the row still has expectedVersion
func (r *LoanRepository) UpdateScheduleTx(tx interface{}, loan *domain.Loan, expectedVersion int32) (*domain.Loan, error) {
	ctx := context.Background()
	q, err := txQuerier(tx)
	if err != nil {
		return nil, err
	}

	schedule, err := json.Marshal(loan.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}

	row := q.QueryRow(ctx, `
		UPDATE loans SET schedule = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
		RETURNING `+loanColumns,
		loan.ID, schedule, expectedVersion,
	)
	updated, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missingOrStale(ctx, q, loan.ID)
		}
		return nil, fmt.Errorf("update loan schedule: %w", err)
	}
	return updated, nil
}

// missingOrStale tells a deleted loan apart from a version mismatch
func (r *LoanRepository) missingOrStale(ctx context.Context, q querier, id uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check loan: %w", err)
	}
	if !exists {
		return domain.ErrLoanNotFound
	}
	return domain.ErrConcurrentModification
}

// UpdateStatus sets the lifecycle status of a loan
func (r *LoanRepository) UpdateStatus(id uuid.UUID, status domain.LoanStatus) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE loans SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+loanColumns,
		id, string(status),
	)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("update loan status: %w", err)
	}
	return loan, nil
}

// Delete removes a loan
func (r *LoanRepository) Delete(id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// CountByClient returns how many loans reference a client
func (r *LoanRepository) CountByClient(clientID uuid.UUID) (int64, error) {
	ctx := context.Background()
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE client_id = $1`, clientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		l                    domain.Loan
		principal, rate      pgtype.Numeric
		startDate            pgtype.Date
		method, status       string
		schedule             []byte
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&l.ID, &l.ClientID, &principal, &rate, &l.TermMonths, &startDate, &method, &l.Notes,
		&schedule, &status, &l.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(schedule, &l.Schedule); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	l.Principal = pgNumericToDecimal(principal)
	l.AnnualRate = pgNumericToDecimal(rate)
	l.StartDate = startDate.Time
	l.Method = domain.InterestMethod(method)
	l.Status = domain.LoanStatus(status)
	l.CreatedAt = createdAt
	l.UpdatedAt = updatedAt
	return &l, nil
}
