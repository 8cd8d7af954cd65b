package dpd

import (
	"testing"
	"time"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/util"
	"github.com/shopspring/decimal"
)

func installment(loanID string, year int, month time.Month, day int, amount float64) *domain.ScheduledInstallment {
	return &domain.ScheduledInstallment{
		LoanID:    loanID,
		DueDate:   util.Date(year, month, day),
		AmountDue: decimal.NewFromFloat(amount),
	}
}

func payment(loanID string, year int, month time.Month, day int, amount float64) *domain.Payment {
	return &domain.Payment{
		LoanID:      loanID,
		PaymentDate: util.Date(year, month, day),
		AmountPaid:  decimal.NewFromFloat(amount),
	}
}

func calculateOne(t *testing.T, calc *Calculator, schedule []*domain.ScheduledInstallment, payments []*domain.Payment, ref time.Time) *domain.ArrearsRecord {
	t.Helper()
	records := calc.Calculate(schedule, payments, ref)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	return records[0]
}

func TestCalculate_AlwaysCurrent(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L001", 2024, 1, 1, 1000),
		installment("L001", 2024, 2, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L001", 2024, 1, 1, 1000),
		payment("L001", 2024, 2, 1, 1000),
	}

	rec := calculateOne(t, calc, schedule, payments, util.Date(2024, 2, 15))

	if rec.DaysPastDue != 0 {
		t.Errorf("Expected 0 days past due, got %d", rec.DaysPastDue)
	}
	if !rec.CumulativeGap.Equal(decimal.Zero) {
		t.Errorf("Expected cumulative gap 0, got %s", rec.CumulativeGap.String())
	}
	if !rec.PastDueAmount.Equal(decimal.Zero) {
		t.Errorf("Expected past due 0, got %s", rec.PastDueAmount.String())
	}
	if rec.IsDefault {
		t.Error("Expected loan not to be in default")
	}
	if rec.FirstArrearsDate != nil {
		t.Errorf("Expected no arrears episode, got start %v", rec.FirstArrearsDate)
	}
}

func TestCalculate_CurrentlyInArrears(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L002", 2024, 1, 1, 1000),
		installment("L002", 2024, 2, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L002", 2024, 1, 1, 1000),
	}

	rec := calculateOne(t, calc, schedule, payments, util.Date(2024, 3, 2))

	if !rec.CumulativeGap.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected cumulative gap 1000, got %s", rec.CumulativeGap.String())
	}
	if !rec.PastDueAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected past due 1000, got %s", rec.PastDueAmount.String())
	}
	if rec.DaysPastDue != 30 {
		t.Errorf("Expected 30 days past due, got %d", rec.DaysPastDue)
	}
	if rec.IsDefault {
		t.Error("Expected loan below the 90-day threshold not to be in default")
	}
	if rec.FirstArrearsDate == nil || !rec.FirstArrearsDate.Equal(util.Date(2024, 2, 1)) {
		t.Errorf("Expected episode start 2024-02-01, got %v", rec.FirstArrearsDate)
	}
}

func TestCalculate_CaughtUpAfterArrears(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L003", 2024, 1, 1, 1000),
		installment("L003", 2024, 2, 1, 1000),
		installment("L003", 2024, 3, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L003", 2024, 1, 1, 1000),
		payment("L003", 2024, 3, 15, 2000),
	}

	rec := calculateOne(t, calc, schedule, payments, util.Date(2024, 3, 20))

	if !rec.CumulativeGap.Equal(decimal.Zero) {
		t.Errorf("Expected cumulative gap 0, got %s", rec.CumulativeGap.String())
	}
	if rec.DaysPastDue != 0 {
		t.Errorf("Expected 0 days past due, got %d", rec.DaysPastDue)
	}
	if rec.IsDefault {
		t.Error("Expected caught-up loan not to be in default")
	}
	if rec.FirstArrearsDate != nil {
		t.Errorf("Expected resolved episode to be forgotten, got start %v", rec.FirstArrearsDate)
	}
}

func TestCalculate_DefaultClassification(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L004", 2024, 1, 1, 1000),
	}

	rec := calculateOne(t, calc, schedule, nil, util.Date(2024, 4, 10))

	if rec.DaysPastDue != 100 {
		t.Errorf("Expected 100 days past due, got %d", rec.DaysPastDue)
	}
	if !rec.IsDefault {
		t.Error("Expected loan past the 90-day threshold to be in default")
	}
	if !rec.PastDueAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected past due 1000, got %s", rec.PastDueAmount.String())
	}
	if rec.LastPaymentDate != nil {
		t.Errorf("Expected no last payment date, got %v", rec.LastPaymentDate)
	}
}

// A loan that fell behind, fully caught up, and later fell behind again
// must report the start of the current episode, never the resolved one.
func TestCalculate_EpisodeReset(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L007", 2024, 1, 1, 1000),
		installment("L007", 2024, 2, 1, 1000),
		installment("L007", 2024, 3, 1, 1000),
		installment("L007", 2024, 4, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L007", 2024, 1, 1, 1000),
		payment("L007", 2024, 2, 15, 1000), // late catch-up for the Feb installment
		payment("L007", 2024, 3, 1, 1000),
	}

	rec := calculateOne(t, calc, schedule, payments, util.Date(2024, 4, 30))

	if !rec.CumulativeGap.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected cumulative gap 1000, got %s", rec.CumulativeGap.String())
	}
	if rec.FirstArrearsDate == nil {
		t.Fatal("Expected an open arrears episode")
	}
	if !rec.FirstArrearsDate.Equal(util.Date(2024, 4, 1)) {
		t.Errorf("Expected episode start 2024-04-01 (not the resolved February episode), got %v", rec.FirstArrearsDate)
	}
	if rec.DaysPastDue != 29 {
		t.Errorf("Expected 29 days past due, got %d", rec.DaysPastDue)
	}
}

func TestCalculate_OverpaymentClipsToZero(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L009", 2024, 1, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L009", 2024, 1, 1, 1500),
	}

	rec := calculateOne(t, calc, schedule, payments, util.Date(2024, 2, 1))

	if !rec.CumulativeGap.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("Expected cumulative gap -500, got %s", rec.CumulativeGap.String())
	}
	if !rec.PastDueAmount.Equal(decimal.Zero) {
		t.Errorf("Expected past due clipped to 0, got %s", rec.PastDueAmount.String())
	}
	if rec.DaysPastDue != 0 {
		t.Errorf("Expected 0 days past due, got %d", rec.DaysPastDue)
	}
}

func TestCalculate_EmptySchedule(t *testing.T) {
	calc := NewCalculator(90)

	records := calc.Calculate(nil, nil, util.Date(2024, 1, 1))
	if len(records) != 0 {
		t.Errorf("Expected empty result for empty schedule, got %d records", len(records))
	}
}

func TestCalculate_PaymentsWithoutScheduleAreExcluded(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L001", 2024, 1, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L001", 2024, 1, 1, 1000),
		payment("GHOST", 2024, 1, 1, 500),
	}

	records := calc.Calculate(schedule, payments, util.Date(2024, 2, 1))
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].LoanID != "L001" {
		t.Errorf("Expected only scheduled loan L001, got %s", records[0].LoanID)
	}
}

func TestCalculate_ScheduleWithoutPaymentsIsFullyPastDue(t *testing.T) {
	calc := NewCalculator(30)
	schedule := []*domain.ScheduledInstallment{
		installment("L010", 2024, 1, 1, 500),
		installment("L010", 2024, 2, 1, 500),
	}

	rec := calculateOne(t, calc, schedule, nil, util.Date(2024, 2, 10))

	if !rec.PastDueAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected full schedule past due, got %s", rec.PastDueAmount.String())
	}
	if rec.FirstArrearsDate == nil || !rec.FirstArrearsDate.Equal(util.Date(2024, 1, 1)) {
		t.Errorf("Expected episode start at first due date, got %v", rec.FirstArrearsDate)
	}
	if !rec.IsDefault {
		t.Error("Expected default at a 30-day threshold")
	}
}

func TestCalculate_ThresholdIsPerCalculator(t *testing.T) {
	schedule := []*domain.ScheduledInstallment{
		installment("L004", 2024, 1, 1, 1000),
	}
	ref := util.Date(2024, 4, 10) // 100 days past due

	if rec := calculateOne(t, NewCalculator(90), schedule, nil, ref); !rec.IsDefault {
		t.Error("Expected default under the 90-day policy")
	}
	if rec := calculateOne(t, NewCalculator(180), schedule, nil, ref); rec.IsDefault {
		t.Error("Expected no default under the 180-day write-off policy")
	}
}

func TestCalculate_ReferenceDateTruncatesTimeOfDay(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L002", 2024, 2, 1, 1000),
	}

	ref := time.Date(2024, 3, 2, 18, 45, 0, 0, time.UTC)
	rec := calculateOne(t, calc, schedule, nil, ref)

	if rec.DaysPastDue != 30 {
		t.Errorf("Expected 30 days past due regardless of time of day, got %d", rec.DaysPastDue)
	}
	if !rec.ReferenceDate.Equal(util.Date(2024, 3, 2)) {
		t.Errorf("Expected reference date truncated to 2024-03-02, got %v", rec.ReferenceDate)
	}
}

func TestCalculate_FutureInstallmentsIgnored(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L011", 2024, 1, 1, 1000),
		installment("L011", 2024, 6, 1, 1000), // beyond the reference date
	}
	payments := []*domain.Payment{
		payment("L011", 2024, 1, 1, 1000),
	}

	rec := calculateOne(t, calc, schedule, payments, util.Date(2024, 2, 1))

	if !rec.CumulativeGap.Equal(decimal.Zero) {
		t.Errorf("Expected future installment excluded, gap %s", rec.CumulativeGap.String())
	}
	if rec.LastDueDate == nil || !rec.LastDueDate.Equal(util.Date(2024, 1, 1)) {
		t.Errorf("Expected last due date 2024-01-01, got %v", rec.LastDueDate)
	}
}

func TestCalculate_NegativeAmountsFlowThrough(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L012", 2024, 1, 1, 1000),
		installment("L012", 2024, 1, 15, -200), // credit note
	}

	rec := calculateOne(t, calc, schedule, nil, util.Date(2024, 2, 1))

	if !rec.CumulativeGap.Equal(decimal.NewFromInt(800)) {
		t.Errorf("Expected credit to reduce the gap to 800, got %s", rec.CumulativeGap.String())
	}
}

func TestCalculate_IsIdempotent(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L002", 2024, 1, 1, 1000),
		installment("L002", 2024, 2, 1, 1000),
	}
	payments := []*domain.Payment{
		payment("L002", 2024, 1, 1, 1000),
	}
	ref := util.Date(2024, 3, 2)

	first := calc.Calculate(schedule, payments, ref)
	second := calc.Calculate(schedule, payments, ref)

	if len(first) != len(second) {
		t.Fatalf("Expected identical result sizes, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.LoanID != b.LoanID || a.DaysPastDue != b.DaysPastDue ||
			!a.CumulativeGap.Equal(b.CumulativeGap) || !a.PastDueAmount.Equal(b.PastDueAmount) ||
			a.IsDefault != b.IsDefault {
			t.Errorf("Record %d differs between runs: %+v vs %+v", i, a, b)
		}
	}
}

// past_due_amount >= 0 and the gap/days relationship must hold for every
// loan at every reference date.
func TestCalculate_Invariants(t *testing.T) {
	calc := NewCalculator(60)
	schedule := []*domain.ScheduledInstallment{
		installment("A", 2024, 1, 1, 1000),
		installment("A", 2024, 2, 1, 1000),
		installment("B", 2024, 1, 10, 250),
		installment("C", 2024, 1, 5, 900),
	}
	payments := []*domain.Payment{
		payment("A", 2024, 1, 3, 500),
		payment("B", 2024, 1, 10, 400), // overpaid
		payment("C", 2024, 2, 20, 900),
	}

	refs := []time.Time{
		util.Date(2024, 1, 1),
		util.Date(2024, 1, 15),
		util.Date(2024, 2, 1),
		util.Date(2024, 3, 1),
		util.Date(2024, 6, 30),
	}

	var prevDue = map[string]decimal.Decimal{}
	for _, ref := range refs {
		for _, rec := range calc.Calculate(schedule, payments, ref) {
			if rec.PastDueAmount.IsNegative() {
				t.Errorf("loan %s at %v: negative past due %s", rec.LoanID, ref, rec.PastDueAmount.String())
			}
			if rec.CumulativeGap.LessThanOrEqual(decimal.Zero) {
				if rec.DaysPastDue != 0 {
					t.Errorf("loan %s at %v: current loan with %d days past due", rec.LoanID, ref, rec.DaysPastDue)
				}
				if rec.FirstArrearsDate != nil {
					t.Errorf("loan %s at %v: current loan with episode start %v", rec.LoanID, ref, rec.FirstArrearsDate)
				}
			} else {
				if rec.FirstArrearsDate == nil {
					t.Errorf("loan %s at %v: in arrears without an episode start", rec.LoanID, ref)
				} else if got := util.DaysBetween(*rec.FirstArrearsDate, ref); got != rec.DaysPastDue {
					t.Errorf("loan %s at %v: days past due %d, want %d", rec.LoanID, ref, rec.DaysPastDue, got)
				}
			}

			// Cumulative due never decreases as the reference date advances.
			due := rec.CumulativeGap
			for _, p := range payments {
				if p.LoanID == rec.LoanID && !p.PaymentDate.After(ref) {
					due = due.Add(p.AmountPaid)
				}
			}
			if prev, ok := prevDue[rec.LoanID]; ok && due.LessThan(prev) {
				t.Errorf("loan %s at %v: cumulative due decreased from %s to %s", rec.LoanID, ref, prev.String(), due.String())
			}
			prevDue[rec.LoanID] = due
		}
	}
}

func TestCalculate_ZeroReferenceDateDefaultsToNow(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L001", 2020, 1, 1, 1000),
	}

	rec := calculateOne(t, calc, schedule, nil, time.Time{})

	today := util.TruncateToDate(time.Now())
	if !rec.ReferenceDate.Equal(today) {
		t.Errorf("Expected reference date to default to today (%v), got %v", today, rec.ReferenceDate)
	}
	if !rec.IsDefault {
		t.Error("Expected a loan unpaid since 2020 to be in default")
	}
}

func TestCalculate_MissingDueDateRowSkipped(t *testing.T) {
	calc := NewCalculator(90)
	schedule := []*domain.ScheduledInstallment{
		installment("L001", 2024, 1, 1, 1000),
		{LoanID: "L001", AmountDue: decimal.NewFromInt(9999)}, // zero date
	}

	rec := calculateOne(t, calc, schedule, nil, util.Date(2024, 2, 1))

	if !rec.PastDueAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected bad row skipped, past due 1000, got %s", rec.PastDueAmount.String())
	}
}
