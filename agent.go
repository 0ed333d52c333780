package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/armatrix/mcp-agent-go/internal/budget"
)

// ToolCaller is the agent loop's view of a tool source: a discoverable
// catalog and an invoke-by-name call. mcp.Client implements it for remote
// servers; a local ToolRegistry is adapted via WithRegistry.
type ToolCaller interface {
	Tools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args any) (*ToolResult, error)
}

// registryCaller adapts a local ToolRegistry to the ToolCaller interface for
// in-process execution without a transport.
type registryCaller struct {
	registry *ToolRegistry
}

var _ ToolCaller = (*registryCaller)(nil)

func (c *registryCaller) Tools(_ context.Context) ([]ToolDescriptor, error) {
	return c.registry.Descriptors(), nil
}

func (c *registryCaller) CallTool(ctx context.Context, name string, args any) (*ToolResult, error) {
	raw, ok := args.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal args: %w", err)
		}
	}
	return c.registry.Execute(ctx, name, raw)
}

// RunResult is the terminal outcome of one agent run. Err carries the typed
// failure reason (ErrPlanningExhausted, ErrStepLimitExceeded,
// ErrBudgetExhausted, or a fatal session error); it is nil on success.
type RunResult struct {
	RunID        string
	Summary      string
	Steps        []Step
	NumToolCalls int
	Usage        Usage
	Cost         decimal.Decimal
	Err          error
}

// Agent drives the planner and a tool source until the goal is declared
// done or the run fails. An Agent is stateless between runs and safe to
// reuse; each run gets a fresh PlannerState.
type Agent struct {
	caller ToolCaller
	opts   agentOptions
}

// NewAgent creates a new Agent with the given options.
func NewAgent(opts ...AgentOption) *Agent {
	resolved := resolveOptions(opts)

	caller := resolved.caller
	if caller == nil {
		registry := resolved.registry
		if registry == nil {
			registry = NewToolRegistry()
		}
		caller = &registryCaller{registry: registry}
	}

	return &Agent{caller: caller, opts: resolved}
}

// Run executes one goal to completion and blocks for the terminal result.
// The result is always non-nil; err mirrors result.Err so callers can match
// failure reasons with errors.Is.
func (a *Agent) Run(ctx context.Context, goal string) (*RunResult, error) {
	stream := a.Start(ctx, goal)
	for stream.Next() {
	}
	result := stream.Result()
	return result, result.Err
}

// Start begins a run and returns a stream of its events. The stream ends
// with a ResultEvent carrying the terminal RunResult.
func (a *Agent) Start(ctx context.Context, goal string) *RunStream {
	events := make(chan Event, a.opts.streamBufferSize)
	stream := newStream(events)

	go func() {
		defer close(events)
		a.runLoop(ctx, goal, events)
	}()

	return stream
}

// runLoop is the core agent execution loop: one planner decision per
// iteration, at most one tool call per decision. Recoverable invocation
// failures (validation, unknown tool, tool-reported errors) are folded into
// planner state as failed attempts; transport-level errors abort the run.
func (a *Agent) runLoop(ctx context.Context, goal string, events chan<- Event) {
	result := &RunResult{RunID: GenerateID(PrefixRun)}
	state := &PlannerState{Goal: goal}

	proposer := a.opts.proposer
	if proposer == nil {
		proposer = NewAnthropicProposer(a.opts.model)
	}
	planner := NewPlanner(proposer, a.opts.plannerAttempts)
	tracker := budget.NewTracker(a.opts.maxBudget, budget.DefaultPricing)

	finish := func(err error) {
		result.Steps = state.Steps
		result.Cost = tracker.TotalCost()
		result.Err = err
		if err != nil {
			state.Phase = PhaseFailed
		}
		events <- &ResultEvent{Result: result}
	}

	catalog, err := a.caller.Tools(ctx)
	if err != nil {
		finish(fmt.Errorf("discover tools: %w", err))
		return
	}

	names := make([]string, len(catalog))
	for i, d := range catalog {
		names[i] = d.Name
	}
	events <- &SystemEvent{RunID: result.RunID, Goal: goal, Tools: names}

	for step := 0; ; step++ {
		if ctx.Err() != nil {
			finish(ctx.Err())
			return
		}
		if a.opts.maxSteps > 0 && step >= a.opts.maxSteps {
			finish(fmt.Errorf("%w: %d steps", ErrStepLimitExceeded, a.opts.maxSteps))
			return
		}
		if tracker.Exhausted() {
			finish(ErrBudgetExhausted)
			return
		}

		action, used, err := planner.Next(ctx, state, catalog)
		result.Usage.Add(used)
		tracker.Record(a.opts.model, used.InputTokens, used.OutputTokens)
		if err != nil {
			finish(err)
			return
		}

		events <- &ActionEvent{Action: *action}

		if action.IsFinish() {
			result.Summary = action.Summary
			finish(nil)
			return
		}

		toolResult, callErr := a.caller.CallTool(ctx, action.Tool, action.Arguments)
		if callErr != nil && !recoverable(callErr) {
			finish(callErr)
			return
		}

		events <- &ToolEvent{Tool: action.Tool, Result: toolResult, Err: callErr}
		result.NumToolCalls++
		state.Fold(*action, toolResult, callErr)

		// Re-query the catalog so a tools/list_changed notification is
		// picked up on the next decision; cached callers make this cheap.
		catalog, err = a.caller.Tools(ctx)
		if err != nil {
			finish(fmt.Errorf("discover tools: %w", err))
			return
		}
	}
}

// recoverable reports whether a tool-call error should be folded into
// planner state rather than aborting the run. Unknown names and schema
// mismatches are replannable; everything else (session closed, transport,
// context) is fatal.
func recoverable(err error) bool {
	if errors.Is(err, ErrUnknownTool) {
		return true
	}
	var verr *ValidationError
	return errors.As(err, &verr)
}
