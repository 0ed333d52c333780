package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanningSystemPrompt(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[greetInput](registry, &greetTool{})

	prompt := PlanningSystemPrompt(registry.Descriptors())

	assert.Contains(t, prompt, "greet")
	assert.Contains(t, prompt, "Greets someone by name")
	assert.Contains(t, prompt, `{"tool":`)
	assert.Contains(t, prompt, `{"finish":`)

	// The schema rendered into the prompt is the descriptor's, verbatim.
	schemaJSON, err := json.Marshal(registry.Descriptors()[0].InputSchema)
	require.NoError(t, err)
	assert.Contains(t, prompt, string(schemaJSON))
}

func TestPlanningUserPrompt(t *testing.T) {
	req := ProposeRequest{
		Goal: "greet Ada",
		History: []Step{
			{
				Action: Action{Tool: "greet", Arguments: json.RawMessage(`{"name":"Ada"}`)},
				Result: TextResult("Hello, Ada"),
			},
			{
				Action: Action{Tool: "greet", Arguments: json.RawMessage(`{}`)},
				Err:    "invalid arguments for tool \"greet\": field \"name\": missing required field",
			},
			{
				Action: Action{Tool: "greet", Arguments: json.RawMessage(`{"name":"Bob"}`)},
				Result: ErrorResult("greeting service down"),
			},
		},
	}

	prompt := PlanningUserPrompt(req)

	assert.Contains(t, prompt, "Goal: greet Ada")
	assert.Contains(t, prompt, "1. called greet")
	assert.Contains(t, prompt, "Hello, Ada")
	assert.Contains(t, prompt, "failed: invalid arguments")
	assert.Contains(t, prompt, "tool error: greeting service down")
}

func TestPlanningUserPromptCorrective(t *testing.T) {
	prompt := PlanningUserPrompt(ProposeRequest{
		Goal:       "g",
		Corrective: "Reply with exactly one JSON object.",
	})

	assert.Contains(t, prompt, "Reply with exactly one JSON object.")
	assert.NotContains(t, prompt, "Steps so far")
}

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5}
	u.Add(Usage{InputTokens: 7, OutputTokens: 3})
	assert.Equal(t, Usage{InputTokens: 17, OutputTokens: 8}, u)
}
