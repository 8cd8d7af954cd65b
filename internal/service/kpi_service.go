package service

import (
	"sort"
	"time"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/shopspring/decimal"
)

// NPLDays is the days-past-due level above which outstanding principal
// counts as non-performing, independent of the default threshold a caller
// ran the calculator with.
const NPLDays = 90

// bucketBound defines one band of the delinquency distribution.
// maxDays == -1 means unbounded.
var bucketBounds = []struct {
	label   string
	minDays int
	maxDays int
}{
	{"current", 0, 0},
	{"1-29", 1, 29},
	{"30-59", 30, 59},
	{"60-89", 60, 89},
	{"90-179", 90, 179},
	{"180+", 180, -1},
}

// KPIService computes portfolio-level aggregates from the loan tape and
// the persisted arrears snapshot. Everything here is single-pass
// arithmetic; the sequential-state logic lives in the calculator.
type KPIService struct {
	loanRepo    domain.LoanRepository
	arrearsRepo domain.ArrearsRepository
	kpiRepo     domain.KPIRepository
}

// NewKPIService creates a new KPIService
func NewKPIService(loanRepo domain.LoanRepository, arrearsRepo domain.ArrearsRepository, kpiRepo domain.KPIRepository) *KPIService {
	return &KPIService{
		loanRepo:    loanRepo,
		arrearsRepo: arrearsRepo,
		kpiRepo:     kpiRepo,
	}
}

// Summary aggregates the tape and the arrears snapshot into the headline
// portfolio KPIs.
func (s *KPIService) Summary() (*domain.PortfolioSummary, error) {
	loans, err := s.loanRepo.GetAll()
	if err != nil {
		return nil, err
	}
	records, err := s.arrearsRepo.GetAll()
	if err != nil {
		return nil, err
	}

	recordsByLoan := make(map[string]*domain.ArrearsRecord, len(records))
	for _, r := range records {
		recordsByLoan[r.LoanID] = r
	}

	summary := &domain.PortfolioSummary{
		LoanCount:          len(loans),
		TotalOutstanding:   decimal.Zero,
		TotalPastDue:       decimal.Zero,
		WeightedAverageAPR: decimal.Zero,
	}

	weightedAPR := decimal.Zero
	nplOutstanding := decimal.Zero
	for _, loan := range loans {
		summary.TotalOutstanding = summary.TotalOutstanding.Add(loan.OutstandingPrincipal)
		weightedAPR = weightedAPR.Add(loan.APR.Mul(loan.OutstandingPrincipal))

		if rec, ok := recordsByLoan[loan.LoanID]; ok && rec.DaysPastDue >= NPLDays {
			nplOutstanding = nplOutstanding.Add(loan.OutstandingPrincipal)
		}
	}

	for _, rec := range records {
		summary.TotalPastDue = summary.TotalPastDue.Add(rec.PastDueAmount)
		if rec.DaysPastDue > summary.MaxDaysPastDue {
			summary.MaxDaysPastDue = rec.DaysPastDue
		}
		if rec.IsDefault {
			summary.DefaultCount++
		}
		if summary.ReferenceDate.IsZero() || rec.ReferenceDate.After(summary.ReferenceDate) {
			summary.ReferenceDate = rec.ReferenceDate
		}
	}

	if summary.TotalOutstanding.GreaterThan(decimal.Zero) {
		summary.WeightedAverageAPR = weightedAPR.Div(summary.TotalOutstanding)
		summary.OverdueRatio, _ = summary.TotalPastDue.Div(summary.TotalOutstanding).Float64()
		summary.NPLRatio, _ = nplOutstanding.Div(summary.TotalOutstanding).Float64()
	}

	return summary, nil
}

// Buckets distributes the arrears snapshot over the standard delinquency
// bands.
func (s *KPIService) Buckets() ([]*domain.DelinquencyBucket, error) {
	records, err := s.arrearsRepo.GetAll()
	if err != nil {
		return nil, err
	}

	buckets := make([]*domain.DelinquencyBucket, len(bucketBounds))
	for i, b := range bucketBounds {
		buckets[i] = &domain.DelinquencyBucket{
			Label:   b.label,
			MinDays: b.minDays,
			MaxDays: b.maxDays,
			PastDue: decimal.Zero,
		}
	}

	for _, rec := range records {
		for i, b := range bucketBounds {
			if rec.DaysPastDue < b.minDays {
				continue
			}
			if b.maxDays >= 0 && rec.DaysPastDue > b.maxDays {
				continue
			}
			buckets[i].LoanCount++
			buckets[i].PastDue = buckets[i].PastDue.Add(rec.PastDueAmount)
			break
		}
	}

	return buckets, nil
}

// Concentration measures how outstanding principal clusters by sector and
// borrower. topN limits the borrower list; shares are fractions of total
// outstanding, so the sector HHI ranges from near 0 (dispersed) to 1
// (single sector).
func (s *KPIService) Concentration(topN int) (*domain.ConcentrationReport, error) {
	if topN <= 0 {
		topN = 10
	}

	loans, err := s.loanRepo.GetAll()
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	bySector := make(map[string]decimal.Decimal)
	byBorrower := make(map[string]decimal.Decimal)
	for _, loan := range loans {
		total = total.Add(loan.OutstandingPrincipal)
		sector := loan.Sector
		if sector == "" {
			sector = "unclassified"
		}
		bySector[sector] = bySector[sector].Add(loan.OutstandingPrincipal)
		byBorrower[loan.Borrower] = byBorrower[loan.Borrower].Add(loan.OutstandingPrincipal)
	}

	report := &domain.ConcentrationReport{
		SectorShares: make(map[string]float64, len(bySector)),
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return report, nil
	}

	for sector, outstanding := range bySector {
		share, _ := outstanding.Div(total).Float64()
		report.SectorShares[sector] = share
		report.SectorHHI += share * share
	}

	borrowers := make([]domain.BorrowerShare, 0, len(byBorrower))
	for borrower, outstanding := range byBorrower {
		share, _ := outstanding.Div(total).Float64()
		borrowers = append(borrowers, domain.BorrowerShare{
			Borrower:    borrower,
			Outstanding: outstanding,
			Share:       share,
		})
	}
	sort.Slice(borrowers, func(i, j int) bool {
		if borrowers[i].Outstanding.Equal(borrowers[j].Outstanding) {
			return borrowers[i].Borrower < borrowers[j].Borrower
		}
		return borrowers[i].Outstanding.GreaterThan(borrowers[j].Outstanding)
	})
	if len(borrowers) > topN {
		borrowers = borrowers[:topN]
	}
	report.TopBorrowers = borrowers
	for _, b := range borrowers {
		report.TopBorrowerPct += b.Share
	}

	return report, nil
}

// CaptureSnapshots persists the summary as one KPI observation per metric,
// extending the series the alert detectors evaluate.
func (s *KPIService) CaptureSnapshots(summary *domain.PortfolioSummary, at time.Time) error {
	weightedAPR, _ := summary.WeightedAverageAPR.Float64()
	totalPastDue, _ := summary.TotalPastDue.Float64()

	snapshots := []*domain.KPISnapshot{
		{ReferenceDate: at, Metric: domain.MetricOverdueRatio, Value: summary.OverdueRatio},
		{ReferenceDate: at, Metric: domain.MetricNPLRatio, Value: summary.NPLRatio},
		{ReferenceDate: at, Metric: domain.MetricMaxDPD, Value: float64(summary.MaxDaysPastDue)},
		{ReferenceDate: at, Metric: domain.MetricDefaultCount, Value: float64(summary.DefaultCount)},
		{ReferenceDate: at, Metric: domain.MetricWeightedAPR, Value: weightedAPR},
		{ReferenceDate: at, Metric: domain.MetricTotalPastDue, Value: totalPastDue},
	}
	return s.kpiRepo.Append(snapshots)
}
