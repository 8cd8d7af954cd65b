package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeninefer/commercial-view/internal/domain"
)

// ArrearsRepository implements domain.ArrearsRepository using PostgreSQL.
// The table always holds exactly one snapshot; ReplaceAll swaps it whole.
type ArrearsRepository struct {
	pool *pgxpool.Pool
}

// NewArrearsRepository creates a new ArrearsRepository
func NewArrearsRepository(pool *pgxpool.Pool) *ArrearsRepository {
	return &ArrearsRepository{pool: pool}
}

const insertArrearsSQL = `
INSERT INTO arrears_records (loan_id, past_due_amount, cumulative_gap, days_past_due,
    first_arrears_date, last_payment_date, last_due_date, is_default, reference_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectArrearsSQL = `
SELECT loan_id, past_due_amount, cumulative_gap, days_past_due,
    first_arrears_date, last_payment_date, last_due_date, is_default, reference_date
FROM arrears_records`

// ReplaceAll atomically swaps the stored snapshot for the given one
func (r *ArrearsRepository) ReplaceAll(records []*domain.ArrearsRecord) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM arrears_records"); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		pastDue, err := decimalToPgNumeric(rec.PastDueAmount)
		if err != nil {
			return fmt.Errorf("invalid past due amount for loan %s: %w", rec.LoanID, err)
		}
		gap, err := decimalToPgNumeric(rec.CumulativeGap)
		if err != nil {
			return fmt.Errorf("invalid cumulative gap for loan %s: %w", rec.LoanID, err)
		}
		batch.Queue(insertArrearsSQL,
			rec.LoanID, pastDue, gap, rec.DaysPastDue,
			timePtrToPgDate(rec.FirstArrearsDate),
			timePtrToPgDate(rec.LastPaymentDate),
			timePtrToPgDate(rec.LastDueDate),
			rec.IsDefault, timeToPgDate(rec.ReferenceDate))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetAll retrieves the stored snapshot ordered by loan ID
func (r *ArrearsRepository) GetAll() ([]*domain.ArrearsRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, selectArrearsSQL+" ORDER BY loan_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ArrearsRecord
	for rows.Next() {
		rec, err := scanArrears(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByLoanID retrieves the snapshot record for one loan
func (r *ArrearsRepository) GetByLoanID(loanID string) (*domain.ArrearsRecord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, selectArrearsSQL+" WHERE loan_id = $1", loanID)
	rec, err := scanArrears(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanArrears(row pgx.Row) (*domain.ArrearsRecord, error) {
	var (
		rec          domain.ArrearsRecord
		pastDue      pgtype.Numeric
		gap          pgtype.Numeric
		firstArrears pgtype.Date
		lastPayment  pgtype.Date
		lastDue      pgtype.Date
		refDate      pgtype.Date
	)
	if err := row.Scan(&rec.LoanID, &pastDue, &gap, &rec.DaysPastDue,
		&firstArrears, &lastPayment, &lastDue, &rec.IsDefault, &refDate); err != nil {
		return nil, err
	}
	rec.PastDueAmount = pgNumericToDecimal(pastDue)
	rec.CumulativeGap = pgNumericToDecimal(gap)
	rec.FirstArrearsDate = pgDateToTimePtr(firstArrears)
	rec.LastPaymentDate = pgDateToTimePtr(lastPayment)
	rec.LastDueDate = pgDateToTimePtr(lastDue)
	rec.ReferenceDate = refDate.Time
	return &rec, nil
}
