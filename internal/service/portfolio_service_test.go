package service

import (
	"errors"
	"testing"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/testutil"
	"github.com/jeninefer/commercial-view/internal/util"
	"github.com/shopspring/decimal"
)

func setupPortfolioService() (*PortfolioService, *testutil.MockInstallmentRepository, *testutil.MockPaymentRepository, *testutil.MockArrearsRepository) {
	loanRepo := testutil.NewMockLoanRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	arrearsRepo := testutil.NewMockArrearsRepository()
	svc := NewPortfolioService(loanRepo, installmentRepo, paymentRepo, arrearsRepo, 90)
	return svc, installmentRepo, paymentRepo, arrearsRepo
}

func TestRecalculate_PersistsSnapshot(t *testing.T) {
	svc, installmentRepo, paymentRepo, arrearsRepo := setupPortfolioService()

	installmentRepo.AddInstallment(&domain.ScheduledInstallment{
		LoanID:    "L001",
		DueDate:   util.Date(2024, 1, 1),
		AmountDue: decimal.NewFromInt(1000),
	})
	installmentRepo.AddInstallment(&domain.ScheduledInstallment{
		LoanID:    "L002",
		DueDate:   util.Date(2024, 2, 1),
		AmountDue: decimal.NewFromInt(500),
	})
	paymentRepo.AddPayment(&domain.Payment{
		LoanID:      "L001",
		PaymentDate: util.Date(2024, 1, 1),
		AmountPaid:  decimal.NewFromInt(1000),
	})

	records, err := svc.Recalculate(util.Date(2024, 3, 1), 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// Snapshot must be persisted, not just returned
	stored, err := arrearsRepo.GetAll()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 stored records, got %d", len(stored))
	}

	l002, err := svc.GetArrearsByLoan("L002")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !l002.PastDueAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected L002 past due 500, got %s", l002.PastDueAmount.String())
	}
	if l002.DaysPastDue != 29 {
		t.Errorf("Expected L002 29 days past due, got %d", l002.DaysPastDue)
	}
}

func TestRecalculate_ThresholdOverride(t *testing.T) {
	svc, installmentRepo, _, _ := setupPortfolioService()

	installmentRepo.AddInstallment(&domain.ScheduledInstallment{
		LoanID:    "L004",
		DueDate:   util.Date(2024, 1, 1),
		AmountDue: decimal.NewFromInt(1000),
	})

	// 100 days past due: default under the service's 90-day policy
	records, err := svc.Recalculate(util.Date(2024, 4, 10), 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !records[0].IsDefault {
		t.Error("Expected default at the service default threshold")
	}

	// Same data under a 180-day write-off override
	records, err = svc.Recalculate(util.Date(2024, 4, 10), 180)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0].IsDefault {
		t.Error("Expected no default under the 180-day override")
	}
}

func TestRecalculate_EmptyScheduleYieldsEmptySnapshot(t *testing.T) {
	svc, _, _, arrearsRepo := setupPortfolioService()

	records, err := svc.Recalculate(util.Date(2024, 1, 1), 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty result, got %d records", len(records))
	}
	stored, _ := arrearsRepo.GetAll()
	if len(stored) != 0 {
		t.Errorf("Expected empty snapshot, got %d records", len(stored))
	}
}

func TestGetArrearsByLoan_NotFound(t *testing.T) {
	svc, _, _, _ := setupPortfolioService()

	_, err := svc.GetArrearsByLoan("NOPE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReplaceSchedule_OverwritesPreviousLoad(t *testing.T) {
	svc, installmentRepo, _, _ := setupPortfolioService()

	installmentRepo.AddInstallment(&domain.ScheduledInstallment{
		LoanID:    "OLD",
		DueDate:   util.Date(2024, 1, 1),
		AmountDue: decimal.NewFromInt(1),
	})

	err := svc.ReplaceSchedule([]*domain.ScheduledInstallment{
		{LoanID: "NEW", DueDate: util.Date(2024, 2, 1), AmountDue: decimal.NewFromInt(2)},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	all, _ := installmentRepo.GetAll()
	if len(all) != 1 || all[0].LoanID != "NEW" {
		t.Errorf("Expected replacement load, got %+v", all)
	}
}
