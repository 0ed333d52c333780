package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/armatrix/mcp-agent-go/internal/schema"
)

// Tool is the generic interface for agent tools. The type parameter T defines
// the input struct that will be automatically deserialized from JSON.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (*ToolResult, error)
}

// Content is a single block of tool output. Only text blocks are produced by
// this module, but the shape matches the MCP content array.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolResult is the output of a tool execution. IsError marks a failure
// reported by the tool itself; such results are ordinary payloads, not
// protocol faults.
type ToolResult struct {
	Content  []Content      `json:"content"`
	IsError  bool           `json:"isError,omitempty"`
	Metadata map[string]any `json:"-"`
}

// Text returns the text of the first text content block, or "".
func (r *ToolResult) Text() string {
	for _, c := range r.Content {
		if c.Type == "text" {
			return c.Text
		}
	}
	return ""
}

// TextResult is a convenience constructor for a text-only tool result.
func TextResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// ErrorResult is a convenience constructor for an error tool result.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
		IsError: true,
	}
}

// ToolDescriptor is the published contract of a registered tool: its name,
// a human-readable description, and the input schema clients validate
// arguments against. Descriptors are value copies; mutating one does not
// affect the registry.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema schema.InputSchema `json:"inputSchema"`
}

// toolEntry is the type-erased wrapper stored in the registry.
type toolEntry struct {
	name        string
	description string
	schema      schema.InputSchema
	execute     func(ctx context.Context, raw json.RawMessage) (*ToolResult, error)
}

// ToolRegistry maps tool names to schemas and handlers, answers discovery
// queries, and validates and dispatches invocations. It is concurrent-safe;
// handlers may run concurrently for distinct invocations and are themselves
// responsible for any serialization they need.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*toolEntry
	order []string // preserve registration order
}

// NewToolRegistry creates a new empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*toolEntry),
	}
}

// RegisterTool registers a generic tool into the registry.
// The input type T is used to auto-generate a JSON Schema.
func RegisterTool[T any](r *ToolRegistry, tool Tool[T]) {
	s := schema.Generate[T]()
	entry := &toolEntry{
		name:        tool.Name(),
		description: tool.Description(),
		schema:      s,
		execute: func(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
			var input T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &input); err != nil {
					return ErrorResult(fmt.Sprintf("invalid input: %s", err.Error())), nil
				}
			}
			return tool.Execute(ctx, input)
		},
	}
	r.register(entry)
}

// RegisterFunc registers a typed Go function as a tool, deriving the schema
// from the input type T.
func RegisterFunc[T any](r *ToolRegistry, name, description string, fn func(ctx context.Context, input T) (*ToolResult, error)) {
	s := schema.Generate[T]()
	r.register(&toolEntry{
		name:        name,
		description: description,
		schema:      s,
		execute: func(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
			var input T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &input); err != nil {
					return ErrorResult(fmt.Sprintf("invalid input: %s", err.Error())), nil
				}
			}
			return fn(ctx, input)
		},
	})
}

// RegisterRaw registers a tool with a pre-built schema and execute function.
// This is used by dynamic tool sources that don't use the generic Tool[T]
// interface.
func (r *ToolRegistry) RegisterRaw(
	name, description string,
	inputSchema schema.InputSchema,
	execute func(ctx context.Context, raw json.RawMessage) (*ToolResult, error),
) {
	r.register(&toolEntry{
		name:        name,
		description: description,
		schema:      inputSchema,
		execute:     execute,
	})
}

func (r *ToolRegistry) register(entry *toolEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[entry.name]; !exists {
		r.order = append(r.order, entry.name)
	}
	r.tools[entry.name] = entry
}

// Execute validates the raw JSON input against the named tool's schema and
// runs its handler. On a schema mismatch it returns a *ValidationError and
// the handler is never invoked. An unknown name returns ErrUnknownTool.
// A failure raised by the handler itself is folded into an error-variant
// ToolResult and does not surface as a Go error.
func (r *ToolRegistry) Execute(ctx context.Context, name string, input json.RawMessage) (*ToolResult, error) {
	r.mu.RLock()
	entry, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err := schema.Validate(entry.schema, input); err != nil {
		verr := &ValidationError{Tool: name, Reason: err.Error()}
		var m *schema.Mismatch
		if errors.As(err, &m) {
			verr.Field = m.Field
			verr.Reason = m.Reason
		}
		return nil, verr
	}

	result, err := entry.execute(ctx, input)
	if err != nil {
		return ErrorResult(fmt.Sprintf("tool error: %s", err.Error())), nil
	}
	return result, nil
}

// Descriptors returns the published descriptors of all registered tools in
// registration order. The order is stable across calls within one registry
// lifetime.
func (r *ToolRegistry) Descriptors() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		entry := r.tools[name]
		result = append(result, ToolDescriptor{
			Name:        entry.name,
			Description: entry.description,
			InputSchema: entry.schema,
		})
	}
	return result
}

// Get returns the descriptor for a tool by name, or nil if not found.
func (r *ToolRegistry) Get(name string) *ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.tools[name]
	if !ok {
		return nil
	}
	return &ToolDescriptor{
		Name:        entry.name,
		Description: entry.description,
		InputSchema: entry.schema,
	}
}

// Names returns the names of all registered tools in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Search finds tools whose name or description contains the query (case-insensitive).
func (r *ToolRegistry) Search(query string) []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []ToolDescriptor
	for _, name := range r.order {
		entry := r.tools[name]
		if strings.Contains(strings.ToLower(entry.name), q) ||
			strings.Contains(strings.ToLower(entry.description), q) {
			matches = append(matches, ToolDescriptor{
				Name:        entry.name,
				Description: entry.description,
				InputSchema: entry.schema,
			})
		}
	}
	return matches
}
