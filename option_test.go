package agent

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptionsDefaults(t *testing.T) {
	opts := resolveOptions(nil)

	assert.Equal(t, DefaultModel, opts.model)
	assert.Equal(t, DefaultMaxSteps, opts.maxSteps)
	assert.Equal(t, DefaultPlannerAttempts, opts.plannerAttempts)
	assert.Equal(t, DefaultStreamBufferSize, opts.streamBufferSize)
	assert.True(t, opts.maxBudget.IsZero())
	assert.Nil(t, opts.proposer)
	assert.Nil(t, opts.caller)
}

func TestWithModel(t *testing.T) {
	opts := resolveOptions([]AgentOption{
		WithModel("claude-sonnet-4-5"),
	})
	assert.Equal(t, "claude-sonnet-4-5", opts.model)
}

func TestWithMaxSteps(t *testing.T) {
	opts := resolveOptions([]AgentOption{
		WithMaxSteps(20),
	})
	assert.Equal(t, 20, opts.maxSteps)
}

func TestWithPlannerAttempts(t *testing.T) {
	opts := resolveOptions([]AgentOption{
		WithPlannerAttempts(5),
	})
	assert.Equal(t, 5, opts.plannerAttempts)
}

func TestWithBudgetOption(t *testing.T) {
	budget := decimal.NewFromFloat(5.0)
	opts := resolveOptions([]AgentOption{
		WithBudget(budget),
	})
	assert.True(t, budget.Equal(opts.maxBudget))
}

func TestMultipleOptions(t *testing.T) {
	budget := decimal.NewFromFloat(10.0)
	proposer := &scriptProposer{}
	opts := resolveOptions([]AgentOption{
		WithModel("claude-haiku-4-5"),
		WithMaxSteps(50),
		WithPlannerAttempts(2),
		WithBudget(budget),
		WithStreamBufferSize(8),
		WithProposer(proposer),
	})

	assert.Equal(t, "claude-haiku-4-5", opts.model)
	assert.Equal(t, 50, opts.maxSteps)
	assert.Equal(t, 2, opts.plannerAttempts)
	assert.True(t, budget.Equal(opts.maxBudget))
	assert.Equal(t, 8, opts.streamBufferSize)
	assert.Same(t, proposer, opts.proposer.(*scriptProposer))
}

func TestNewAgentDefaultsToEmptyRegistry(t *testing.T) {
	a := NewAgent(WithProposer(&scriptProposer{}))
	require.NotNil(t, a)

	caller, ok := a.caller.(*registryCaller)
	require.True(t, ok)
	descriptors, err := caller.Tools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestNewAgentPrefersToolCallerOverRegistry(t *testing.T) {
	registry := NewToolRegistry()
	remote := &registryCaller{registry: NewToolRegistry()}

	a := NewAgent(
		WithRegistry(registry),
		WithToolCaller(remote),
	)
	assert.Same(t, remote, a.caller.(*registryCaller))
}
