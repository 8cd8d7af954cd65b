package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeninefer/commercial-view/internal/domain"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const insertLoanSQL = `
INSERT INTO loans (loan_id, borrower, sector, product, apr, disbursed_amount, outstanding_principal, origination_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (loan_id) DO UPDATE SET
    borrower = EXCLUDED.borrower,
    sector = EXCLUDED.sector,
    product = EXCLUDED.product,
    apr = EXCLUDED.apr,
    disbursed_amount = EXCLUDED.disbursed_amount,
    outstanding_principal = EXCLUDED.outstanding_principal,
    origination_date = EXCLUDED.origination_date`

const selectLoanSQL = `
SELECT loan_id, borrower, sector, product, apr, disbursed_amount, outstanding_principal, origination_date
FROM loans`

// CreateBatch upserts a batch of loans
func (r *LoanRepository) CreateBatch(loans []*domain.Loan) error {
	ctx := context.Background()
	batch := &pgx.Batch{}
	for _, loan := range loans {
		args, err := loanInsertArgs(loan)
		if err != nil {
			return err
		}
		batch.Queue(insertLoanSQL, args...)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// GetAll retrieves the full loan tape ordered by loan ID
func (r *LoanRepository) GetAll() ([]*domain.Loan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, selectLoanSQL+" ORDER BY loan_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

// GetByID retrieves one loan by its external ID
func (r *LoanRepository) GetByID(loanID string) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, selectLoanSQL+" WHERE loan_id = $1", loanID)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// ReplaceAll atomically swaps the stored tape for the given one
func (r *LoanRepository) ReplaceAll(loans []*domain.Loan) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM loans"); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, loan := range loans {
		args, err := loanInsertArgs(loan)
		if err != nil {
			return err
		}
		batch.Queue(insertLoanSQL, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func loanInsertArgs(loan *domain.Loan) ([]interface{}, error) {
	apr, err := decimalToPgNumeric(loan.APR)
	if err != nil {
		return nil, fmt.Errorf("invalid APR for loan %s: %w", loan.LoanID, err)
	}
	disbursed, err := decimalToPgNumeric(loan.DisbursedAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid disbursed amount for loan %s: %w", loan.LoanID, err)
	}
	outstanding, err := decimalToPgNumeric(loan.OutstandingPrincipal)
	if err != nil {
		return nil, fmt.Errorf("invalid outstanding principal for loan %s: %w", loan.LoanID, err)
	}
	return []interface{}{
		loan.LoanID, loan.Borrower, loan.Sector, loan.Product,
		apr, disbursed, outstanding, timeToPgDate(loan.OriginationDate),
	}, nil
}

func scanLoans(rows pgx.Rows) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan        domain.Loan
		apr         pgtype.Numeric
		disbursed   pgtype.Numeric
		outstanding pgtype.Numeric
		origination pgtype.Date
	)
	if err := row.Scan(&loan.LoanID, &loan.Borrower, &loan.Sector, &loan.Product,
		&apr, &disbursed, &outstanding, &origination); err != nil {
		return nil, err
	}
	loan.APR = pgNumericToDecimal(apr)
	loan.DisbursedAmount = pgNumericToDecimal(disbursed)
	loan.OutstandingPrincipal = pgNumericToDecimal(outstanding)
	loan.OriginationDate = origination.Time
	return &loan, nil
}
