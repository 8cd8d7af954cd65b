package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metric names persisted as KPI series and consumed by the alert detectors.
const (
	MetricOverdueRatio    = "overdue_ratio"
	MetricNPLRatio        = "npl_ratio"
	MetricMaxDPD          = "max_dpd"
	MetricDefaultCount    = "default_count"
	MetricWeightedAPR     = "weighted_apr"
	MetricTotalPastDue    = "total_past_due"
)

// KPISnapshot is one observed value of one metric at one reference date.
// The alert detectors consume these as an ordered series per metric.
type KPISnapshot struct {
	ReferenceDate time.Time `json:"referenceDate"`
	Metric        string    `json:"metric"`
	Value         float64   `json:"value"`
}

// PortfolioSummary is the single-pass aggregate over tape plus arrears.
type PortfolioSummary struct {
	ReferenceDate      time.Time       `json:"referenceDate"`
	LoanCount          int             `json:"loanCount"`
	TotalOutstanding   decimal.Decimal `json:"totalOutstanding"`
	TotalPastDue       decimal.Decimal `json:"totalPastDue"`
	OverdueRatio       float64         `json:"overdueRatio"`
	WeightedAverageAPR decimal.Decimal `json:"weightedAverageApr"`
	MaxDaysPastDue     int             `json:"maxDaysPastDue"`
	DefaultCount       int             `json:"defaultCount"`
	NPLRatio           float64         `json:"nplRatio"`
}

// DelinquencyBucket is one band of the DPD distribution.
type DelinquencyBucket struct {
	Label      string          `json:"label"`
	MinDays    int             `json:"minDays"`
	MaxDays    int             `json:"maxDays"` // -1 means unbounded
	LoanCount  int             `json:"loanCount"`
	PastDue    decimal.Decimal `json:"pastDue"`
}

// ConcentrationReport measures portfolio concentration by sector and
// borrower.
type ConcentrationReport struct {
	SectorHHI      float64                    `json:"sectorHhi"`
	SectorShares   map[string]float64         `json:"sectorShares"`
	TopBorrowers   []BorrowerShare            `json:"topBorrowers"`
	TopBorrowerPct float64                    `json:"topBorrowerPct"`
}

// BorrowerShare is one borrower's share of total outstanding.
type BorrowerShare struct {
	Borrower    string          `json:"borrower"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Share       float64         `json:"share"`
}

type KPIRepository interface {
	Append(snapshots []*KPISnapshot) error
	GetSeries(metric string, limit int) ([]*KPISnapshot, error)
}
