package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanIDRequired     = errors.New("loan ID is required")
	ErrLoanIDTooLong      = errors.New("loan ID exceeds maximum length")
	ErrLoanBorrowerEmpty  = errors.New("loan borrower is required")
	ErrLoanAPRNegative    = errors.New("loan APR must not be negative")
	ErrLoanAmountInvalid  = errors.New("loan disbursed amount must be positive")
	ErrLoanSectorTooLong  = errors.New("loan sector exceeds maximum length")
)

// Loan is one row of the loan tape: the static attributes KPI aggregation
// and the disbursement optimizer consume. Arrears state lives in
// ArrearsRecord, keyed by the same LoanID.
type Loan struct {
	LoanID               string          `json:"loanId"`
	Borrower             string          `json:"borrower"`
	Sector               string          `json:"sector"`
	Product              string          `json:"product"`
	APR                  decimal.Decimal `json:"apr"`
	DisbursedAmount      decimal.Decimal `json:"disbursedAmount"`
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
	OriginationDate      time.Time       `json:"originationDate"`
}

func (l *Loan) Validate() error {
	if l.LoanID == "" {
		return ErrLoanIDRequired
	}
	if len(l.LoanID) > MaxLoanIDLength {
		return ErrLoanIDTooLong
	}
	if l.Borrower == "" {
		return ErrLoanBorrowerEmpty
	}
	if len(l.Sector) > MaxSectorLength {
		return ErrLoanSectorTooLong
	}
	if l.APR.IsNegative() {
		return ErrLoanAPRNegative
	}
	if l.DisbursedAmount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanAmountInvalid
	}
	return nil
}

type LoanRepository interface {
	CreateBatch(loans []*Loan) error
	GetAll() ([]*Loan, error)
	GetByID(loanID string) (*Loan, error)
	ReplaceAll(loans []*Loan) error
}
