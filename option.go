package agent

import "github.com/shopspring/decimal"

// AgentOption configures an Agent via the functional options pattern.
type AgentOption func(*agentOptions)

// agentOptions holds all configurable fields set via AgentOption functions.
type agentOptions struct {
	model            string
	maxSteps         int
	plannerAttempts  int
	maxBudget        decimal.Decimal
	streamBufferSize int

	proposer Proposer
	caller   ToolCaller
	registry *ToolRegistry
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *agentOptions) applyDefaults() {
	if o.model == "" {
		o.model = DefaultModel
	}
	if o.maxSteps == 0 {
		o.maxSteps = DefaultMaxSteps
	}
	if o.plannerAttempts == 0 {
		o.plannerAttempts = DefaultPlannerAttempts
	}
	if o.streamBufferSize == 0 {
		o.streamBufferSize = DefaultStreamBufferSize
	}
}

// resolveOptions applies all option functions and fills defaults.
func resolveOptions(opts []AgentOption) agentOptions {
	var o agentOptions
	for _, fn := range opts {
		fn(&o)
	}
	o.applyDefaults()
	return o
}

// WithModel sets the Claude model used when no explicit Proposer is given.
func WithModel(model string) AgentOption {
	return func(o *agentOptions) { o.model = model }
}

// WithMaxSteps bounds the number of planner iterations per run. A run that
// reaches the bound without an explicit Finish fails with
// ErrStepLimitExceeded.
func WithMaxSteps(n int) AgentOption {
	return func(o *agentOptions) { o.maxSteps = n }
}

// WithPlannerAttempts bounds how often the planner re-prompts after an
// unparseable collaborator reply before failing with ErrPlanningExhausted.
func WithPlannerAttempts(n int) AgentOption {
	return func(o *agentOptions) { o.plannerAttempts = n }
}

// WithBudget sets the maximum planning budget in USD for a run. Zero means
// unlimited.
func WithBudget(maxUSD decimal.Decimal) AgentOption {
	return func(o *agentOptions) { o.maxBudget = maxUSD }
}

// WithStreamBufferSize sets the event channel buffer for Start.
func WithStreamBufferSize(n int) AgentOption {
	return func(o *agentOptions) { o.streamBufferSize = n }
}

// WithProposer injects the LLM collaborator. Required for Run; tests inject
// mocks here.
func WithProposer(p Proposer) AgentOption {
	return func(o *agentOptions) { o.proposer = p }
}

// WithToolCaller points the agent at a remote tool source, typically an
// mcp.Client.
func WithToolCaller(c ToolCaller) AgentOption {
	return func(o *agentOptions) { o.caller = c }
}

// WithRegistry points the agent at a local in-process registry. Ignored when
// WithToolCaller is also set.
func WithRegistry(r *ToolRegistry) AgentOption {
	return func(o *agentOptions) { o.registry = r }
}
