package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeninefer/commercial-view/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const insertPaymentSQL = `
INSERT INTO payments (loan_id, payment_date, amount_paid)
VALUES ($1, $2, $3)`

const selectPaymentSQL = `
SELECT loan_id, payment_date, amount_paid
FROM payments`

// CreateBatch inserts a batch of payments
func (r *PaymentRepository) CreateBatch(payments []*domain.Payment) error {
	ctx := context.Background()
	batch := &pgx.Batch{}
	for _, p := range payments {
		amountPaid, err := decimalToPgNumeric(p.AmountPaid)
		if err != nil {
			return fmt.Errorf("invalid amount paid for loan %s: %w", p.LoanID, err)
		}
		batch.Queue(insertPaymentSQL, p.LoanID, timeToPgDate(p.PaymentDate), amountPaid)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// GetAll retrieves the full payment history ordered by loan and date
func (r *PaymentRepository) GetAll() ([]*domain.Payment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, selectPaymentSQL+" ORDER BY loan_id, payment_date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

// GetByLoanID retrieves the payment history for one loan
func (r *PaymentRepository) GetByLoanID(loanID string) ([]*domain.Payment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, selectPaymentSQL+" WHERE loan_id = $1 ORDER BY payment_date", loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

// ReplaceAll atomically swaps the stored payment history for the given one
func (r *PaymentRepository) ReplaceAll(payments []*domain.Payment) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM payments"); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, p := range payments {
		amountPaid, err := decimalToPgNumeric(p.AmountPaid)
		if err != nil {
			return fmt.Errorf("invalid amount paid for loan %s: %w", p.LoanID, err)
		}
		batch.Queue(insertPaymentSQL, p.LoanID, timeToPgDate(p.PaymentDate), amountPaid)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for rows.Next() {
		var (
			p           domain.Payment
			paymentDate pgtype.Date
			amountPaid  pgtype.Numeric
		)
		if err := rows.Scan(&p.LoanID, &paymentDate, &amountPaid); err != nil {
			return nil, err
		}
		p.PaymentDate = paymentDate.Time
		p.AmountPaid = pgNumericToDecimal(amountPaid)
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
