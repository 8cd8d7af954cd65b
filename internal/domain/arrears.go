package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArrearsRecord is the calculator's output, one per loan present in the
// schedule as of ReferenceDate.
//
// PastDueAmount is the current shortfall clipped at zero; CumulativeGap is
// the signed cumulative due minus cumulative paid and goes negative when a
// loan has overpaid. DaysPastDue counts calendar days since the start of
// the current uninterrupted arrears episode only — FirstArrearsDate never
// points at an older episode that a catch-up payment already resolved.
type ArrearsRecord struct {
	LoanID           string          `json:"loanId"`
	PastDueAmount    decimal.Decimal `json:"pastDueAmount"`
	CumulativeGap    decimal.Decimal `json:"cumulativeGap"`
	DaysPastDue      int             `json:"daysPastDue"`
	FirstArrearsDate *time.Time      `json:"firstArrearsDate,omitempty"`
	LastPaymentDate  *time.Time      `json:"lastPaymentDate,omitempty"`
	LastDueDate      *time.Time      `json:"lastDueDate,omitempty"`
	IsDefault        bool            `json:"isDefault"`
	ReferenceDate    time.Time       `json:"referenceDate"`
}

// InArrears reports whether the loan is currently behind.
func (r *ArrearsRecord) InArrears() bool {
	return r.CumulativeGap.GreaterThan(decimal.Zero)
}

type ArrearsRepository interface {
	ReplaceAll(records []*ArrearsRecord) error
	GetAll() ([]*ArrearsRecord, error)
	GetByLoanID(loanID string) (*ArrearsRecord, error)
}
