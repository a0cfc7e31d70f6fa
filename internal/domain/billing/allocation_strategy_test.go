package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(number string, balance int64, dueInDays *int, createdOffset time.Duration) AllocationTarget {
	var due *time.Time
	if dueInDays != nil {
		d := time.Now().AddDate(0, 0, *dueInDays)
		due = &d
	}
	return AllocationTarget{
		ID:        uuid.New(),
		Number:    number,
		Balance:   decimal.NewFromInt(balance),
		DueDate:   due,
		CreatedAt: time.Now().Add(createdOffset),
	}
}

func days(n int) *int { return &n }

// ============================================
// Strategy factory
// ============================================

func TestAllocationStrategyFactory(t *testing.T) {
	factory := NewAllocationStrategyFactory()

	for _, strategyType := range AllAllocationStrategyTypes() {
		t.Run(strategyType.String(), func(t *testing.T) {
			strategy, err := factory.GetStrategy(strategyType)
			require.NoError(t, err)
			assert.Equal(t, strategyType.String(), strategy.Name())
		})
	}
}

func TestAllocationStrategyFactory_Unknown(t *testing.T) {
	factory := NewAllocationStrategyFactory()

	_, err := factory.GetStrategy(AllocationStrategyType("round_robin"))
	assertDomainCode(t, err, "UNKNOWN_STRATEGY")

	_, err = factory.GetStrategy("")
	assertDomainCode(t, err, "UNKNOWN_STRATEGY")
}

func TestAllocationStrategyType_IsValid(t *testing.T) {
	for _, strategyType := range AllAllocationStrategyTypes() {
		assert.True(t, strategyType.IsValid())
	}
	assert.False(t, AllocationStrategyType("round_robin").IsValid())
	assert.Equal(t, StrategyOldestFirst, DefaultAllocationStrategy)
}

// ============================================
// Greedy allocation
// ============================================

func TestAllocate_FullyAllocated(t *testing.T) {
	strategy := NewOldestFirstStrategy()
	targets := []AllocationTarget{
		target("INV-1", 60, days(5), 0),
		target("INV-2", 80, days(10), 0),
	}

	plan, err := strategy.Allocate(decimal.NewFromInt(100), targets)
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, "INV-1", plan.Allocations[0].TargetNumber)
	assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, "INV-2", plan.Allocations[1].TargetNumber)
	assert.True(t, plan.Allocations[1].Amount.Equal(decimal.NewFromInt(40)))
	assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(100)))
	assert.True(t, plan.RemainingAmount.IsZero())
	assert.True(t, plan.FullyAllocated)
}

func TestAllocate_Remainder(t *testing.T) {
	strategy := NewOldestFirstStrategy()
	targets := []AllocationTarget{target("INV-1", 30, days(5), 0)}

	plan, err := strategy.Allocate(decimal.NewFromInt(100), targets)
	require.NoError(t, err)

	assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(30)))
	assert.True(t, plan.RemainingAmount.Equal(decimal.NewFromInt(70)))
	assert.False(t, plan.FullyAllocated)
}

func TestAllocate_NoTargets(t *testing.T) {
	strategy := NewOldestFirstStrategy()

	plan, err := strategy.Allocate(decimal.NewFromInt(100), nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Allocations)
	assert.True(t, plan.RemainingAmount.Equal(decimal.NewFromInt(100)))
	assert.False(t, plan.FullyAllocated)
}

func TestAllocate_SkipsZeroBalanceTargets(t *testing.T) {
	strategy := NewOldestFirstStrategy()
	targets := []AllocationTarget{
		target("INV-EMPTY", 0, days(1), 0),
		target("INV-OPEN", 50, days(2), 0),
	}

	plan, err := strategy.Allocate(decimal.NewFromInt(40), targets)
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, "INV-OPEN", plan.Allocations[0].TargetNumber)
}

func TestAllocate_InvalidAmount(t *testing.T) {
	strategy := NewOldestFirstStrategy()

	_, err := strategy.Allocate(decimal.Zero, nil)
	assertDomainCode(t, err, "INVALID_AMOUNT")
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	strategy := NewLowestFirstStrategy()
	targets := []AllocationTarget{
		target("INV-BIG", 100, nil, 0),
		target("INV-SMALL", 10, nil, 0),
	}

	_, err := strategy.Allocate(decimal.NewFromInt(50), targets)
	require.NoError(t, err)
	assert.Equal(t, "INV-BIG", targets[0].Number)
	assert.Equal(t, "INV-SMALL", targets[1].Number)
}

// ============================================
// Orderings
// ============================================

func TestStrategyOrderings(t *testing.T) {
	early := target("INV-EARLY", 50, days(1), 0)
	late := target("INV-LATE", 50, days(30), 0)
	undated := target("INV-UNDATED", 50, nil, 0)
	big := target("INV-BIG", 90, nil, 0)
	small := target("INV-SMALL", 10, nil, 0)

	tests := []struct {
		name      string
		strategy  AllocationStrategy
		targets   []AllocationTarget
		wantOrder []string
	}{
		{
			name:      "oldest first by due date, undated last",
			strategy:  NewOldestFirstStrategy(),
			targets:   []AllocationTarget{undated, late, early},
			wantOrder: []string{"INV-EARLY", "INV-LATE", "INV-UNDATED"},
		},
		{
			name:      "newest first by due date, undated last",
			strategy:  NewNewestFirstStrategy(),
			targets:   []AllocationTarget{undated, early, late},
			wantOrder: []string{"INV-LATE", "INV-EARLY", "INV-UNDATED"},
		},
		{
			name:      "highest balance first",
			strategy:  NewHighestFirstStrategy(),
			targets:   []AllocationTarget{small, big},
			wantOrder: []string{"INV-BIG", "INV-SMALL"},
		},
		{
			name:      "lowest balance first",
			strategy:  NewLowestFirstStrategy(),
			targets:   []AllocationTarget{big, small},
			wantOrder: []string{"INV-SMALL", "INV-BIG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A large amount so every target receives an allocation
			plan, err := tt.strategy.Allocate(decimal.NewFromInt(1000), tt.targets)
			require.NoError(t, err)
			require.Len(t, plan.Allocations, len(tt.wantOrder))
			for i, want := range tt.wantOrder {
				assert.Equal(t, want, plan.Allocations[i].TargetNumber)
			}
		})
	}
}

func TestOldestFirst_TieBrokenByCreationTime(t *testing.T) {
	older := target("INV-OLDER", 50, days(7), -time.Hour)
	newer := target("INV-NEWER", 50, days(7), 0)

	plan, err := NewOldestFirstStrategy().Allocate(decimal.NewFromInt(1000), []AllocationTarget{newer, older})
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, "INV-OLDER", plan.Allocations[0].TargetNumber)
}
