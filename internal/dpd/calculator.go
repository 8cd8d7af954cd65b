package dpd

import (
	"sort"
	"time"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultThreshold is the days-past-due level at which a loan is classified
// as in default when no explicit threshold is configured. Callers that need
// a different policy (e.g. a 180-day write-off rule) construct their own
// Calculator; the threshold is never global.
const DefaultThreshold = 90

// Calculator derives per-loan arrears state from a payment schedule and a
// payment history: the current shortfall, the start of the current
// uninterrupted arrears episode, the days elapsed in that episode, and a
// default flag against the configured threshold.
//
// A Calculator holds no state beyond its threshold and is safe for
// concurrent use.
type Calculator struct {
	threshold int
}

// NewCalculator creates a Calculator classifying loans as in default at
// the given days-past-due threshold. Non-positive thresholds fall back to
// DefaultThreshold.
func NewCalculator(threshold int) *Calculator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Calculator{threshold: threshold}
}

// Threshold returns the configured default-classification threshold.
func (c *Calculator) Threshold() int {
	return c.threshold
}

// Calculate computes one ArrearsRecord per distinct loan present in the
// schedule, as of referenceDate. A zero referenceDate means "now"; any
// time-of-day component is discarded.
//
// Payments referencing loans absent from the schedule are ignored (there
// is nothing to be past due against). Rows with a missing date are dropped
// with a warning rather than aborting the batch. An empty schedule yields
// an empty result.
func (c *Calculator) Calculate(schedule []*domain.ScheduledInstallment, payments []*domain.Payment, referenceDate time.Time) []*domain.ArrearsRecord {
	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}
	refDate := util.TruncateToDate(referenceDate)

	scheduleByLoan := make(map[string][]*domain.ScheduledInstallment)
	for _, inst := range schedule {
		if inst.DueDate.IsZero() {
			log.Warn().Str("loan_id", inst.LoanID).Msg("Skipping installment with missing due date")
			continue
		}
		scheduleByLoan[inst.LoanID] = append(scheduleByLoan[inst.LoanID], inst)
	}

	paymentsByLoan := make(map[string][]*domain.Payment)
	orphanPayments := 0
	for _, p := range payments {
		if p.PaymentDate.IsZero() {
			log.Warn().Str("loan_id", p.LoanID).Msg("Skipping payment with missing date")
			continue
		}
		if _, ok := scheduleByLoan[p.LoanID]; !ok {
			orphanPayments++
			continue
		}
		paymentsByLoan[p.LoanID] = append(paymentsByLoan[p.LoanID], p)
	}
	if orphanPayments > 0 {
		log.Warn().Int("count", orphanPayments).Msg("Ignoring payments for loans absent from schedule")
	}

	loanIDs := make([]string, 0, len(scheduleByLoan))
	for id := range scheduleByLoan {
		loanIDs = append(loanIDs, id)
	}
	sort.Strings(loanIDs)

	records := make([]*domain.ArrearsRecord, 0, len(loanIDs))
	for _, id := range loanIDs {
		records = append(records, c.calculateLoan(id, scheduleByLoan[id], paymentsByLoan[id], refDate))
	}
	return records
}

// timelineEvent aggregates everything that happened on one calendar date
// for one loan.
type timelineEvent struct {
	due  decimal.Decimal
	paid decimal.Decimal
}

func (c *Calculator) calculateLoan(loanID string, installments []*domain.ScheduledInstallment, payments []*domain.Payment, refDate time.Time) *domain.ArrearsRecord {
	byDate := make(map[time.Time]*timelineEvent)
	event := func(date time.Time) *timelineEvent {
		ev, ok := byDate[date]
		if !ok {
			ev = &timelineEvent{due: decimal.Zero, paid: decimal.Zero}
			byDate[date] = ev
		}
		return ev
	}

	var lastDueDate, lastPaymentDate *time.Time
	for _, inst := range installments {
		d := util.TruncateToDate(inst.DueDate)
		if d.After(refDate) {
			continue
		}
		ev := event(d)
		ev.due = ev.due.Add(inst.AmountDue)
		if lastDueDate == nil || d.After(*lastDueDate) {
			due := d
			lastDueDate = &due
		}
	}
	for _, p := range payments {
		d := util.TruncateToDate(p.PaymentDate)
		if d.After(refDate) {
			continue
		}
		ev := event(d)
		ev.paid = ev.paid.Add(p.AmountPaid)
		if lastPaymentDate == nil || d.After(*lastPaymentDate) {
			paid := d
			lastPaymentDate = &paid
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	// Walk the merged timeline tracking the running gap between cumulative
	// due and cumulative paid. The episode start is the date the gap last
	// turned positive; catching up (gap back to <= 0) forgets it, so only
	// the episode still open at the reference date survives.
	gap := decimal.Zero
	var episodeStart *time.Time
	for _, d := range dates {
		ev := byDate[d]
		gap = gap.Add(ev.due).Sub(ev.paid)
		if gap.GreaterThan(decimal.Zero) {
			if episodeStart == nil {
				start := d
				episodeStart = &start
			}
		} else {
			episodeStart = nil
		}
	}

	record := &domain.ArrearsRecord{
		LoanID:          loanID,
		PastDueAmount:   gap,
		CumulativeGap:   gap,
		LastPaymentDate: lastPaymentDate,
		LastDueDate:     lastDueDate,
		ReferenceDate:   refDate,
	}
	if record.PastDueAmount.IsNegative() {
		record.PastDueAmount = decimal.Zero
	}
	if gap.GreaterThan(decimal.Zero) && episodeStart != nil {
		record.FirstArrearsDate = episodeStart
		record.DaysPastDue = util.DaysBetween(*episodeStart, refDate)
	}
	record.IsDefault = record.DaysPastDue >= c.threshold

	return record
}
