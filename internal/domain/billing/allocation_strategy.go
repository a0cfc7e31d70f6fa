package billing

import (
	"sort"
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStrategyType selects the ordering used to greedily allocate a
// payment across a client's open invoices
type AllocationStrategyType string

const (
	StrategyOldestFirst  AllocationStrategyType = "oldest_first"
	StrategyNewestFirst  AllocationStrategyType = "newest_first"
	StrategyHighestFirst AllocationStrategyType = "highest_first"
	StrategyLowestFirst  AllocationStrategyType = "lowest_first"
)

// DefaultAllocationStrategy is used when the caller does not choose one
const DefaultAllocationStrategy = StrategyOldestFirst

// IsValid returns true if the strategy type is one of the documented orderings
func (t AllocationStrategyType) IsValid() bool {
	switch t {
	case StrategyOldestFirst, StrategyNewestFirst, StrategyHighestFirst, StrategyLowestFirst:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy type
func (t AllocationStrategyType) String() string {
	return string(t)
}

// AllAllocationStrategyTypes returns every valid strategy type
func AllAllocationStrategyTypes() []AllocationStrategyType {
	return []AllocationStrategyType{
		StrategyOldestFirst,
		StrategyNewestFirst,
		StrategyHighestFirst,
		StrategyLowestFirst,
	}
}

// AllocationTarget is a candidate invoice presented to a strategy
type AllocationTarget struct {
	ID        uuid.UUID
	Number    string
	Balance   decimal.Decimal
	DueDate   *time.Time
	CreatedAt time.Time
}

// AllocationResult is one planned allocation against a target
type AllocationResult struct {
	TargetID     uuid.UUID
	TargetNumber string
	Amount       decimal.Decimal
}

// AllocationPlan is the outcome of a strategy run. The plan is pure: no
// records are created until the caller persists each allocation.
type AllocationPlan struct {
	Allocations     []AllocationResult
	TotalAllocated  decimal.Decimal
	RemainingAmount decimal.Decimal
	FullyAllocated  bool
}

// AllocationStrategy orders targets and produces a greedy allocation plan
type AllocationStrategy interface {
	strategy.Strategy
	Allocate(amount decimal.Decimal, targets []AllocationTarget) (*AllocationPlan, error)
}

// orderedAllocationStrategy implements the shared greedy pass over targets
// sorted by a per-strategy ordering
type orderedAllocationStrategy struct {
	strategy.BaseStrategy
	less func(a, b AllocationTarget) bool
}

// Allocate walks the sorted targets allocating min(remaining, balance) to
// each until the amount is exhausted or no targets remain
func (s *orderedAllocationStrategy) Allocate(amount decimal.Decimal, targets []AllocationTarget) (*AllocationPlan, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	sorted := make([]AllocationTarget, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return s.less(sorted[i], sorted[j])
	})

	plan := &AllocationPlan{
		Allocations:     make([]AllocationResult, 0, len(sorted)),
		TotalAllocated:  decimal.Zero,
		RemainingAmount: amount,
	}

	for _, target := range sorted {
		if !plan.RemainingAmount.IsPositive() {
			break
		}
		if !target.Balance.IsPositive() {
			continue
		}

		alloc := decimal.Min(plan.RemainingAmount, target.Balance)
		plan.Allocations = append(plan.Allocations, AllocationResult{
			TargetID:     target.ID,
			TargetNumber: target.Number,
			Amount:       alloc,
		})
		plan.TotalAllocated = plan.TotalAllocated.Add(alloc)
		plan.RemainingAmount = plan.RemainingAmount.Sub(alloc)
	}

	plan.FullyAllocated = plan.RemainingAmount.IsZero()
	return plan, nil
}

// byDueDateAscending orders earliest due date first; targets without a due
// date sort last, ties broken by creation time ascending
func byDueDateAscending(a, b AllocationTarget) bool {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return a.CreatedAt.Before(b.CreatedAt)
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	case a.DueDate.Equal(*b.DueDate):
		return a.CreatedAt.Before(b.CreatedAt)
	default:
		return a.DueDate.Before(*b.DueDate)
	}
}

// byDueDateDescending orders latest due date first; targets without a due
// date sort last, ties broken by creation time descending
func byDueDateDescending(a, b AllocationTarget) bool {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return a.CreatedAt.After(b.CreatedAt)
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	case a.DueDate.Equal(*b.DueDate):
		return a.CreatedAt.After(b.CreatedAt)
	default:
		return a.DueDate.After(*b.DueDate)
	}
}

// NewOldestFirstStrategy allocates to invoices with the earliest due dates first
func NewOldestFirstStrategy() AllocationStrategy {
	return &orderedAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			string(StrategyOldestFirst),
			strategy.StrategyTypeAllocation,
			"Allocate to invoices with the earliest due date first",
		),
		less: byDueDateAscending,
	}
}

// NewNewestFirstStrategy allocates to invoices with the latest due dates first
func NewNewestFirstStrategy() AllocationStrategy {
	return &orderedAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			string(StrategyNewestFirst),
			strategy.StrategyTypeAllocation,
			"Allocate to invoices with the latest due date first",
		),
		less: byDueDateDescending,
	}
}

// NewHighestFirstStrategy allocates to invoices with the largest balances first
func NewHighestFirstStrategy() AllocationStrategy {
	return &orderedAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			string(StrategyHighestFirst),
			strategy.StrategyTypeAllocation,
			"Allocate to invoices with the largest balance first",
		),
		less: func(a, b AllocationTarget) bool {
			if a.Balance.Equal(b.Balance) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.Balance.GreaterThan(b.Balance)
		},
	}
}

// NewLowestFirstStrategy allocates to invoices with the smallest balances first
func NewLowestFirstStrategy() AllocationStrategy {
	return &orderedAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			string(StrategyLowestFirst),
			strategy.StrategyTypeAllocation,
			"Allocate to invoices with the smallest balance first",
		),
		less: func(a, b AllocationTarget) bool {
			if a.Balance.Equal(b.Balance) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.Balance.LessThan(b.Balance)
		},
	}
}

// AllocationStrategyFactory resolves strategy types to implementations
type AllocationStrategyFactory struct{}

// NewAllocationStrategyFactory creates a new strategy factory
func NewAllocationStrategyFactory() *AllocationStrategyFactory {
	return &AllocationStrategyFactory{}
}

// GetStrategy returns the strategy for the given type. An unrecognized type
// is a configuration error, never a silent fallback.
func (f *AllocationStrategyFactory) GetStrategy(strategyType AllocationStrategyType) (AllocationStrategy, error) {
	switch strategyType {
	case StrategyOldestFirst:
		return NewOldestFirstStrategy(), nil
	case StrategyNewestFirst:
		return NewNewestFirstStrategy(), nil
	case StrategyHighestFirst:
		return NewHighestFirstStrategy(), nil
	case StrategyLowestFirst:
		return NewLowestFirstStrategy(), nil
	default:
		return nil, shared.NewDomainError("UNKNOWN_STRATEGY",
			"Unrecognized allocation strategy: "+string(strategyType))
	}
}
