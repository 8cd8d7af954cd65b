package service

import (
	"errors"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrBudgetInvalid = errors.New("disbursement budget must be positive")
	ErrNoRequests    = errors.New("no disbursement requests to optimize")
)

// DisbursementRequest is one candidate disbursement competing for budget.
type DisbursementRequest struct {
	LoanID          string          `json:"loanId"`
	Borrower        string          `json:"borrower"`
	Sector          string          `json:"sector"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	APR             decimal.Decimal `json:"apr"`
}

// Allocation is the amount granted to one request.
type Allocation struct {
	LoanID    string          `json:"loanId"`
	Sector    string          `json:"sector"`
	Amount    decimal.Decimal `json:"amount"`
	Fulfilled bool            `json:"fulfilled"` // full requested amount granted
}

// OptimizeParams bound the allocation. Zero values disable a constraint.
type OptimizeParams struct {
	Budget      decimal.Decimal `json:"budget"`
	MaxPerLoan  decimal.Decimal `json:"maxPerLoan"`
	MinTicket   decimal.Decimal `json:"minTicket"`
	SectorCap   float64         `json:"sectorCap"` // max fraction of budget per sector, (0,1]
}

// OptimizationResult summarizes one allocator run.
type OptimizationResult struct {
	Allocations     []*Allocation   `json:"allocations"`
	TotalAllocated  decimal.Decimal `json:"totalAllocated"`
	RemainingBudget decimal.Decimal `json:"remainingBudget"`
	SkippedRequests int             `json:"skippedRequests"`
}

// OptimizerService allocates a disbursement budget across competing
// requests, highest APR first, honoring per-loan and per-sector caps.
type OptimizerService struct{}

// NewOptimizerService creates a new OptimizerService
func NewOptimizerService() *OptimizerService {
	return &OptimizerService{}
}

// Optimize greedily allocates params.Budget over the requests. Requests
// are ranked by APR descending (loan ID breaks ties, making the result
// deterministic); each receives the largest amount its constraints allow.
// Partial fills below MinTicket are skipped rather than granted.
func (s *OptimizerService) Optimize(requests []*DisbursementRequest, params OptimizeParams) (*OptimizationResult, error) {
	if params.Budget.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBudgetInvalid
	}
	if len(requests) == 0 {
		return nil, ErrNoRequests
	}

	ranked := append([]*DisbursementRequest(nil), requests...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].APR.Equal(ranked[j].APR) {
			return ranked[i].LoanID < ranked[j].LoanID
		}
		return ranked[i].APR.GreaterThan(ranked[j].APR)
	})

	sectorBudget := decimal.Zero
	if params.SectorCap > 0 {
		sectorBudget = params.Budget.Mul(decimal.NewFromFloat(params.SectorCap))
	}

	result := &OptimizationResult{
		TotalAllocated:  decimal.Zero,
		RemainingBudget: params.Budget,
	}
	allocatedBySector := make(map[string]decimal.Decimal)

	for _, req := range ranked {
		if result.RemainingBudget.LessThanOrEqual(decimal.Zero) {
			result.SkippedRequests += len(ranked) - len(result.Allocations) - result.SkippedRequests
			break
		}

		amount := req.RequestedAmount
		if amount.LessThanOrEqual(decimal.Zero) {
			result.SkippedRequests++
			continue
		}
		if params.MaxPerLoan.GreaterThan(decimal.Zero) && amount.GreaterThan(params.MaxPerLoan) {
			amount = params.MaxPerLoan
		}
		if amount.GreaterThan(result.RemainingBudget) {
			amount = result.RemainingBudget
		}
		if sectorBudget.GreaterThan(decimal.Zero) {
			sectorRemaining := sectorBudget.Sub(allocatedBySector[req.Sector])
			if amount.GreaterThan(sectorRemaining) {
				amount = sectorRemaining
			}
		}

		if amount.LessThanOrEqual(decimal.Zero) ||
			(params.MinTicket.GreaterThan(decimal.Zero) && amount.LessThan(params.MinTicket)) {
			result.SkippedRequests++
			continue
		}

		result.Allocations = append(result.Allocations, &Allocation{
			LoanID:    req.LoanID,
			Sector:    req.Sector,
			Amount:    amount,
			Fulfilled: amount.Equal(req.RequestedAmount),
		})
		result.TotalAllocated = result.TotalAllocated.Add(amount)
		result.RemainingBudget = result.RemainingBudget.Sub(amount)
		allocatedBySector[req.Sector] = allocatedBySector[req.Sector].Add(amount)
	}

	log.Info().
		Int("requests", len(requests)).
		Int("allocations", len(result.Allocations)).
		Str("allocated", result.TotalAllocated.String()).
		Msg("Disbursement optimization completed")

	return result, nil
}
