package agent

// Planner and loop defaults.
const (
	// DefaultModel is the default Claude model used when no model is specified.
	DefaultModel = "claude-opus-4-6"

	// DefaultMaxSteps is the default maximum number of planner iterations
	// per run. Each step is at most one tool call.
	DefaultMaxSteps = 8

	// DefaultPlannerAttempts is how many times the planner re-prompts the
	// collaborator after an unparseable response before giving up.
	DefaultPlannerAttempts = 3

	// DefaultProposeMaxTokens is the maximum output tokens per planning call.
	DefaultProposeMaxTokens = 2048

	// DefaultStreamBufferSize is the default channel buffer size for run events.
	DefaultStreamBufferSize = 64
)
