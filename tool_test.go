package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetInput struct {
	Name    string `json:"name"`
	Excited bool   `json:"excited,omitempty"`
}

type greetTool struct{}

func (t *greetTool) Name() string        { return "greet" }
func (t *greetTool) Description() string { return "Greets someone by name" }
func (t *greetTool) Execute(_ context.Context, input greetInput) (*ToolResult, error) {
	greeting := "Hello, " + input.Name
	if input.Excited {
		greeting += "!"
	}
	return TextResult(greeting), nil
}

func TestRegistryExecute(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[greetInput](registry, &greetTool{})

	result, err := registry.Execute(context.Background(), "greet",
		json.RawMessage(`{"name": "Ada", "excited": true}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "Hello, Ada!", result.Text())
}

func TestRegistryUnknownTool(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[greetInput](registry, &greetTool{})

	_, err := registry.Execute(context.Background(), "missing", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "missing")
	assert.Equal(t, []string{"greet"}, registry.Names(), "a failed lookup must not mutate the registry")
}

func TestRegistryValidationRejectsBeforeHandler(t *testing.T) {
	registry := NewToolRegistry()
	called := false
	RegisterFunc[greetInput](registry, "greet", "Greets someone",
		func(_ context.Context, input greetInput) (*ToolResult, error) {
			called = true
			return TextResult("hi"), nil
		})

	_, err := registry.Execute(context.Background(), "greet",
		json.RawMessage(`{"name": 42}`))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "greet", verr.Tool)
	assert.Equal(t, "name", verr.Field)
	assert.False(t, called, "handler must not run on schema mismatch")
}

func TestRegistryMissingRequiredField(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[greetInput](registry, &greetTool{})

	_, err := registry.Execute(context.Background(), "greet", json.RawMessage(`{}`))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestRegistryHandlerErrorBecomesErrorResult(t *testing.T) {
	registry := NewToolRegistry()
	RegisterFunc[struct{}](registry, "broken", "Always fails",
		func(_ context.Context, _ struct{}) (*ToolResult, error) {
			return nil, fmt.Errorf("disk on fire")
		})

	result, err := registry.Execute(context.Background(), "broken", nil)
	require.NoError(t, err, "handler failures are payloads, not Go errors")
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text(), "disk on fire")
}

func TestRegistryDescriptorsOrderStable(t *testing.T) {
	registry := NewToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		RegisterFunc[struct{}](registry, name, "tool "+name,
			func(_ context.Context, _ struct{}) (*ToolResult, error) {
				return TextResult("ok"), nil
			})
	}

	first := registry.Descriptors()
	names := make([]string, len(first))
	for i, d := range first {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names, "registration order, not sorted")

	// Stable across calls within one registry lifetime.
	assert.Equal(t, first, registry.Descriptors())
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, registry.Names())
}

func TestRegistryReRegisterReplacesInPlace(t *testing.T) {
	registry := NewToolRegistry()
	RegisterFunc[struct{}](registry, "x", "first",
		func(_ context.Context, _ struct{}) (*ToolResult, error) {
			return TextResult("v1"), nil
		})
	RegisterFunc[struct{}](registry, "y", "second",
		func(_ context.Context, _ struct{}) (*ToolResult, error) {
			return TextResult("ok"), nil
		})
	RegisterFunc[struct{}](registry, "x", "replaced",
		func(_ context.Context, _ struct{}) (*ToolResult, error) {
			return TextResult("v2"), nil
		})

	assert.Equal(t, []string{"x", "y"}, registry.Names())

	result, err := registry.Execute(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", result.Text())
}

func TestRegistryGetAndSearch(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[greetInput](registry, &greetTool{})

	desc := registry.Get("greet")
	require.NotNil(t, desc)
	assert.Equal(t, "greet", desc.Name)
	assert.Contains(t, desc.InputSchema.Required, "name")
	assert.Nil(t, registry.Get("nope"))

	assert.Len(t, registry.Search("NAME"), 1)
	assert.Empty(t, registry.Search("weather"))
}

func TestToolResultText(t *testing.T) {
	assert.Equal(t, "hi", TextResult("hi").Text())
	assert.Empty(t, (&ToolResult{}).Text())

	errResult := ErrorResult("boom")
	assert.True(t, errResult.IsError)
	assert.Equal(t, "boom", errResult.Text())
}
