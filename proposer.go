package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Usage tracks token consumption for planning calls.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates another usage sample.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ProposeRequest is everything the collaborator sees when asked for the next
// action: the goal, the tool catalog, the run history, and an optional
// corrective instruction after an unparseable reply.
type ProposeRequest struct {
	Goal       string
	Catalog    []ToolDescriptor
	History    []Step
	Corrective string
}

// Proposal is the collaborator's raw reply plus the tokens it cost.
type Proposal struct {
	Text  string
	Usage Usage
}

// Proposer is the narrow interface to the external LLM collaborator. The
// core only needs this single call/response shape; model selection and API
// transport live behind it. Implementations must be safe for sequential use
// within one run.
type Proposer interface {
	Propose(ctx context.Context, req ProposeRequest) (*Proposal, error)
}

// AnthropicProposer consults the Anthropic Messages API for the next action.
type AnthropicProposer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ Proposer = (*AnthropicProposer)(nil)

// NewAnthropicProposer creates a proposer using ambient API credentials
// (ANTHROPIC_API_KEY). An empty model selects DefaultModel.
func NewAnthropicProposer(model string) *AnthropicProposer {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicProposer{
		client:    anthropic.NewClient(),
		model:     anthropic.Model(model),
		maxTokens: DefaultProposeMaxTokens,
	}
}

// Propose sends one planning prompt and returns the model's reply text.
func (p *AnthropicProposer) Propose(ctx context.Context, req ProposeRequest) (*Proposal, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: PlanningSystemPrompt(req.Catalog)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(PlanningUserPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("propose: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Proposal{
		Text: text.String(),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// PlanningSystemPrompt renders the tool catalog into the planning contract
// the collaborator must follow: pick exactly one listed tool, or finish.
func PlanningSystemPrompt(catalog []ToolDescriptor) string {
	var b strings.Builder
	b.WriteString("You are a task planner. The user states a goal; you decide the single next action.\n")
	b.WriteString("You may only use these tools (use exact names):\n")
	for _, tool := range catalog {
		schemaJSON, _ := json.Marshal(tool.InputSchema)
		fmt.Fprintf(&b, "- %s: %s\n  input schema: %s\n", tool.Name, tool.Description, schemaJSON)
	}
	b.WriteString("\nReply with exactly one JSON object and nothing else:\n")
	b.WriteString("  {\"tool\": <tool name>, \"arguments\": {...}}  to invoke a tool, or\n")
	b.WriteString("  {\"finish\": <summary>}  when the goal is satisfied.\n")
	b.WriteString("Do not invent tool names. Do not return natural language.")
	return b.String()
}

// PlanningUserPrompt renders the goal, the history of attempts so far, and
// any corrective instruction into the user turn.
func PlanningUserPrompt(req ProposeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)

	if len(req.History) > 0 {
		b.WriteString("\nSteps so far:\n")
		for i, step := range req.History {
			if step.Action.IsFinish() {
				continue
			}
			fmt.Fprintf(&b, "%d. called %s with %s -> ", i+1, step.Action.Tool, step.Action.Arguments)
			switch {
			case step.Err != "":
				fmt.Fprintf(&b, "failed: %s\n", step.Err)
			case step.Result != nil && step.Result.IsError:
				fmt.Fprintf(&b, "tool error: %s\n", step.Result.Text())
			case step.Result != nil:
				fmt.Fprintf(&b, "%s\n", step.Result.Text())
			default:
				b.WriteString("no result\n")
			}
		}
	}

	if req.Corrective != "" {
		fmt.Fprintf(&b, "\n%s\n", req.Corrective)
	}
	return b.String()
}
