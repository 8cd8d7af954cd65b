package service

import (
	"time"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/dpd"
	"github.com/rs/zerolog/log"
)

// PortfolioService owns the stored portfolio data (tape, schedule, payment
// history) and the arrears snapshot derived from it. It is the single
// consumer of the DPD calculator; KPI, alerting, and export layers read the
// persisted snapshot instead of re-deriving arrears locally.
type PortfolioService struct {
	loanRepo         domain.LoanRepository
	installmentRepo  domain.InstallmentRepository
	paymentRepo      domain.PaymentRepository
	arrearsRepo      domain.ArrearsRepository
	defaultThreshold int
}

// NewPortfolioService creates a new PortfolioService. defaultThreshold is
// the days-past-due level used when a caller does not override it.
func NewPortfolioService(
	loanRepo domain.LoanRepository,
	installmentRepo domain.InstallmentRepository,
	paymentRepo domain.PaymentRepository,
	arrearsRepo domain.ArrearsRepository,
	defaultThreshold int,
) *PortfolioService {
	if defaultThreshold <= 0 {
		defaultThreshold = dpd.DefaultThreshold
	}
	return &PortfolioService{
		loanRepo:         loanRepo,
		installmentRepo:  installmentRepo,
		paymentRepo:      paymentRepo,
		arrearsRepo:      arrearsRepo,
		defaultThreshold: defaultThreshold,
	}
}

// DefaultThreshold returns the configured default DPD threshold.
func (s *PortfolioService) DefaultThreshold() int {
	return s.defaultThreshold
}

// ReplaceTape swaps the stored loan tape for a freshly ingested one.
func (s *PortfolioService) ReplaceTape(loans []*domain.Loan) error {
	return s.loanRepo.ReplaceAll(loans)
}

// ReplaceSchedule swaps the stored payment schedule.
func (s *PortfolioService) ReplaceSchedule(installments []*domain.ScheduledInstallment) error {
	return s.installmentRepo.ReplaceAll(installments)
}

// ReplacePayments swaps the stored payment history.
func (s *PortfolioService) ReplacePayments(payments []*domain.Payment) error {
	return s.paymentRepo.ReplaceAll(payments)
}

// Recalculate runs the DPD calculator over the stored schedule and payment
// history and persists the resulting snapshot. A zero referenceDate means
// "now"; a non-positive threshold falls back to the service default, so a
// caller can evaluate a 180-day write-off policy without reconfiguring the
// service.
func (s *PortfolioService) Recalculate(referenceDate time.Time, threshold int) ([]*domain.ArrearsRecord, error) {
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}

	schedule, err := s.installmentRepo.GetAll()
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.GetAll()
	if err != nil {
		return nil, err
	}

	records := dpd.NewCalculator(threshold).Calculate(schedule, payments, referenceDate)

	if err := s.arrearsRepo.ReplaceAll(records); err != nil {
		return nil, err
	}

	log.Info().
		Int("loans", len(records)).
		Int("threshold", threshold).
		Msg("Arrears snapshot recalculated")

	return records, nil
}

// GetArrears returns the most recently persisted arrears snapshot.
func (s *PortfolioService) GetArrears() ([]*domain.ArrearsRecord, error) {
	return s.arrearsRepo.GetAll()
}

// GetArrearsByLoan returns the snapshot record for one loan.
func (s *PortfolioService) GetArrearsByLoan(loanID string) (*domain.ArrearsRecord, error) {
	return s.arrearsRepo.GetByLoanID(loanID)
}

// GetLoans returns the stored loan tape.
func (s *PortfolioService) GetLoans() ([]*domain.Loan, error) {
	return s.loanRepo.GetAll()
}
