package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentLoanIDRequired = errors.New("payment loan ID is required")
	ErrPaymentLoanIDTooLong  = errors.New("payment loan ID exceeds maximum length")
	ErrPaymentDateZero       = errors.New("payment date is required")
)

// Payment is one amount actually received for one loan. AmountPaid may
// exceed, equal, or fall short of what is due; over- and under-payment are
// both legal.
type Payment struct {
	LoanID      string          `json:"loanId"`
	PaymentDate time.Time       `json:"paymentDate"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
}

func (p *Payment) Validate() error {
	if p.LoanID == "" {
		return ErrPaymentLoanIDRequired
	}
	if len(p.LoanID) > MaxLoanIDLength {
		return ErrPaymentLoanIDTooLong
	}
	if p.PaymentDate.IsZero() {
		return ErrPaymentDateZero
	}
	return nil
}

type PaymentRepository interface {
	CreateBatch(payments []*Payment) error
	GetAll() ([]*Payment, error)
	GetByLoanID(loanID string) ([]*Payment, error)
	ReplaceAll(payments []*Payment) error
}
