package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeninefer/commercial-view/internal/domain"
)

// InstallmentRepository implements domain.InstallmentRepository using PostgreSQL
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

const insertInstallmentSQL = `
INSERT INTO scheduled_installments (loan_id, due_date, amount_due)
VALUES ($1, $2, $3)`

const selectInstallmentSQL = `
SELECT loan_id, due_date, amount_due
FROM scheduled_installments`

// CreateBatch inserts a batch of installments
func (r *InstallmentRepository) CreateBatch(installments []*domain.ScheduledInstallment) error {
	ctx := context.Background()
	batch := &pgx.Batch{}
	for _, inst := range installments {
		amountDue, err := decimalToPgNumeric(inst.AmountDue)
		if err != nil {
			return fmt.Errorf("invalid amount due for loan %s: %w", inst.LoanID, err)
		}
		batch.Queue(insertInstallmentSQL, inst.LoanID, timeToPgDate(inst.DueDate), amountDue)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// GetAll retrieves the full schedule ordered by loan and due date
func (r *InstallmentRepository) GetAll() ([]*domain.ScheduledInstallment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, selectInstallmentSQL+" ORDER BY loan_id, due_date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstallments(rows)
}

// GetByLoanID retrieves the schedule for one loan
func (r *InstallmentRepository) GetByLoanID(loanID string) ([]*domain.ScheduledInstallment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, selectInstallmentSQL+" WHERE loan_id = $1 ORDER BY due_date", loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstallments(rows)
}

// ReplaceAll atomically swaps the stored schedule for the given one
func (r *InstallmentRepository) ReplaceAll(installments []*domain.ScheduledInstallment) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM scheduled_installments"); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, inst := range installments {
		amountDue, err := decimalToPgNumeric(inst.AmountDue)
		if err != nil {
			return fmt.Errorf("invalid amount due for loan %s: %w", inst.LoanID, err)
		}
		batch.Queue(insertInstallmentSQL, inst.LoanID, timeToPgDate(inst.DueDate), amountDue)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanInstallments(rows pgx.Rows) ([]*domain.ScheduledInstallment, error) {
	var installments []*domain.ScheduledInstallment
	for rows.Next() {
		var (
			inst      domain.ScheduledInstallment
			dueDate   pgtype.Date
			amountDue pgtype.Numeric
		)
		if err := rows.Scan(&inst.LoanID, &dueDate, &amountDue); err != nil {
			return nil, err
		}
		inst.DueDate = dueDate.Time
		inst.AmountDue = pgNumericToDecimal(amountDue)
		installments = append(installments, &inst)
	}
	return installments, rows.Err()
}
