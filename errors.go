package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the registry, planner, and agent loop.
var (
	// ErrUnknownTool is returned when invoking a tool name no registry or
	// catalog knows about. Recoverable: the session stays usable.
	ErrUnknownTool = errors.New("agent: unknown tool")

	// ErrPlanningExhausted is returned when the planner cannot obtain a
	// parseable action from its collaborator within the attempt bound.
	ErrPlanningExhausted = errors.New("agent: planning exhausted")

	// ErrStepLimitExceeded is returned when a run reaches the configured
	// maximum step count without an explicit Finish.
	ErrStepLimitExceeded = errors.New("agent: step limit exceeded")

	// ErrBudgetExhausted is returned when the run's cost budget is spent.
	ErrBudgetExhausted = errors.New("agent: budget exhausted")
)

// ValidationError reports arguments that do not satisfy a tool's input
// schema. It is raised before the handler runs, on whichever side performed
// the check.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid arguments for tool %q: field %q: %s", e.Tool, e.Field, e.Reason)
}
