// Package budget tracks cumulative token usage and USD cost across the
// planning calls of an agent run.
package budget

import (
	"sync"

	"github.com/shopspring/decimal"
)

// MaxDecimal is a sentinel value representing an effectively unlimited remaining budget.
var MaxDecimal = decimal.New(1, 18) // 1e18

// Tracker tracks cumulative token usage and cost across API calls.
// It is safe for concurrent use.
type Tracker struct {
	maxBudget   decimal.Decimal // 0 = unlimited
	totalCost   decimal.Decimal
	totalInput  int64
	totalOutput int64
	pricing     map[string]ModelPricing
	mu          sync.Mutex
}

// NewTracker creates a new tracker. maxBudget of 0 means unlimited.
func NewTracker(maxBudget decimal.Decimal, pricing map[string]ModelPricing) *Tracker {
	return &Tracker{
		maxBudget: maxBudget,
		totalCost: decimal.Zero,
		pricing:   pricing,
	}
}

// Record adds one call's token usage and updates the cumulative cost.
// Unknown models have their tokens counted but add no cost.
func (t *Tracker) Record(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalInput += inputTokens
	t.totalOutput += outputTokens

	pricing, ok := t.pricing[model]
	if !ok {
		return
	}
	t.totalCost = t.totalCost.Add(pricing.Cost(inputTokens, outputTokens))
}

// TotalCost returns the cumulative cost across all recorded usage.
func (t *Tracker) TotalCost() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}

// TotalTokens returns the cumulative input and output token counts.
func (t *Tracker) TotalTokens() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalInput, t.totalOutput
}

// Remaining returns the remaining budget. If maxBudget is 0 (unlimited), returns MaxDecimal.
func (t *Tracker) Remaining() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxBudget.IsZero() {
		return MaxDecimal
	}
	return t.maxBudget.Sub(t.totalCost)
}

// Exhausted returns true if the total cost has reached or exceeded maxBudget.
// Always returns false if maxBudget is 0 (unlimited).
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxBudget.IsZero() {
		return false
	}
	return t.totalCost.GreaterThanOrEqual(t.maxBudget)
}
