package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PlannerPhase is the planner's position in its state machine.
type PlannerPhase int

const (
	// PhaseDeliberating means the planner is choosing the next action.
	PhaseDeliberating PlannerPhase = iota
	// PhaseCalling means an invocation is in flight; Fold returns the
	// planner to deliberation.
	PhaseCalling
	// PhaseDone means an explicit Finish action was produced.
	PhaseDone
	// PhaseFailed means planning was exhausted or the run was aborted.
	PhaseFailed
)

func (p PlannerPhase) String() string {
	switch p {
	case PhaseDeliberating:
		return "deliberating"
	case PhaseCalling:
		return "calling"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Action is the planner's decision for one iteration: either invoke a tool
// (Tool + Arguments) or finish the run (Summary). IsFinish distinguishes the
// two.
type Action struct {
	Tool      string
	Arguments json.RawMessage
	Summary   string
}

// IsFinish reports whether the action declares the goal satisfied.
func (a *Action) IsFinish() bool { return a.Tool == "" }

// Step records one completed loop iteration: the chosen action and, for
// invocations, either the tool's result or the error that prevented it.
type Step struct {
	Action Action
	Result *ToolResult
	Err    string
}

// PlannerState is the accumulated history of one run: the original goal
// plus every (invocation, result) pair so far. It grows monotonically during
// a run and is discarded at run end.
type PlannerState struct {
	Goal  string
	Steps []Step
	Phase PlannerPhase
}

// Fold records a completed invocation and returns the planner to
// deliberation. A failed invocation is recorded as a failed attempt, giving
// the planner the chance to replan rather than aborting the run.
func (s *PlannerState) Fold(action Action, result *ToolResult, err error) {
	step := Step{Action: action, Result: result}
	if err != nil {
		step.Err = err.Error()
	}
	s.Steps = append(s.Steps, step)
	s.Phase = PhaseDeliberating
}

// Planner turns a goal, a tool catalog, and the run history into the next
// action by consulting a Proposer. An unparseable proposal is recoverable:
// the planner re-prompts with a corrective instruction up to its attempt
// bound, then fails with ErrPlanningExhausted.
type Planner struct {
	proposer Proposer
	attempts int
}

// NewPlanner creates a planner with the given attempt bound per decision
// (minimum 1).
func NewPlanner(proposer Proposer, attempts int) *Planner {
	if attempts < 1 {
		attempts = 1
	}
	return &Planner{proposer: proposer, attempts: attempts}
}

// Next produces the planner's next action and the token usage spent deciding
// it. The returned usage is meaningful even when Next fails.
func (p *Planner) Next(ctx context.Context, state *PlannerState, catalog []ToolDescriptor) (*Action, Usage, error) {
	state.Phase = PhaseDeliberating

	var used Usage
	var lastErr error
	corrective := ""

	for attempt := 0; attempt < p.attempts; attempt++ {
		proposal, err := p.proposer.Propose(ctx, ProposeRequest{
			Goal:       state.Goal,
			Catalog:    catalog,
			History:    state.Steps,
			Corrective: corrective,
		})
		if err != nil {
			if ctx.Err() != nil {
				state.Phase = PhaseFailed
				return nil, used, ctx.Err()
			}
			lastErr = err
			continue
		}
		used.Add(proposal.Usage)

		action, perr := ParseAction(proposal.Text)
		if perr != nil {
			lastErr = perr
			corrective = fmt.Sprintf(
				"Your previous reply could not be parsed (%s). Reply with exactly one JSON object: either {\"tool\": <name>, \"arguments\": {...}} or {\"finish\": <summary>}. No prose, no code fences.",
				perr)
			continue
		}

		if action.IsFinish() {
			state.Phase = PhaseDone
		} else {
			state.Phase = PhaseCalling
		}
		return action, used, nil
	}

	state.Phase = PhaseFailed
	return nil, used, fmt.Errorf("%w: %d attempts: %v", ErrPlanningExhausted, p.attempts, lastErr)
}

// fenceRE extracts the body of a ```json ... ``` block; models often wrap
// JSON in code fences despite instructions.
var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// wireAction is the JSON contract the collaborator replies with.
type wireAction struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
	Finish    *string         `json:"finish"`
}

// ParseAction parses one structured action out of a collaborator reply.
// Accepted shapes: {"tool": name, "arguments": {...}} or {"finish": summary},
// optionally wrapped in a code fence.
func ParseAction(text string) (*Action, error) {
	body := strings.TrimSpace(text)
	if m := fenceRE.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	var wire wireAction
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("not a JSON action: %w", err)
	}

	switch {
	case wire.Finish != nil && wire.Tool != "":
		return nil, fmt.Errorf("action names both a tool and a finish summary")
	case wire.Finish != nil:
		return &Action{Summary: *wire.Finish}, nil
	case wire.Tool != "":
		args := wire.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		return &Action{Tool: wire.Tool, Arguments: args}, nil
	default:
		return nil, fmt.Errorf("action names neither a tool nor a finish summary")
	}
}
