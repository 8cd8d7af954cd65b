package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInstallmentLoanIDRequired = errors.New("installment loan ID is required")
	ErrInstallmentLoanIDTooLong  = errors.New("installment loan ID exceeds maximum length")
	ErrInstallmentDueDateZero    = errors.New("installment due date is required")
)

// ScheduledInstallment is one amount contractually owed on one date for one
// loan. A loan has many installments; LoanID alone is not unique.
type ScheduledInstallment struct {
	LoanID    string          `json:"loanId"`
	DueDate   time.Time       `json:"dueDate"`
	AmountDue decimal.Decimal `json:"amountDue"`
}

// Validate checks structural requirements. Negative amounts are legal
// (credits and reversals) and deliberately not rejected here.
func (si *ScheduledInstallment) Validate() error {
	if si.LoanID == "" {
		return ErrInstallmentLoanIDRequired
	}
	if len(si.LoanID) > MaxLoanIDLength {
		return ErrInstallmentLoanIDTooLong
	}
	if si.DueDate.IsZero() {
		return ErrInstallmentDueDateZero
	}
	return nil
}

type InstallmentRepository interface {
	CreateBatch(installments []*ScheduledInstallment) error
	GetAll() ([]*ScheduledInstallment, error)
	GetByLoanID(loanID string) ([]*ScheduledInstallment, error)
	ReplaceAll(installments []*ScheduledInstallment) error
}
