// Package schema derives MCP tool input schemas from Go struct types and
// validates concrete argument payloads against them.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// InputSchema is the wire form of a tool's input contract, as advertised in
// tools/list responses ("inputSchema" in MCP).
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single field in an InputSchema.
type Property struct {
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Enum        []any     `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`

	// Properties and Required describe nested objects.
	Properties map[string]Property `json:"properties,omitempty"`
	RequiredOf []string            `json:"required,omitempty"`
}

// Generate produces an InputSchema from a Go struct type T.
// It uses struct tags (json, jsonschema) to derive the JSON Schema.
func Generate[T any]() InputSchema {
	var zero T
	s := jsonschema.Reflect(&zero)

	root := extractRoot(s)

	return InputSchema{
		Type:       "object",
		Properties: schemaProperties(root),
		Required:   root.Required,
	}
}

// extractRoot resolves the root schema, following $ref to $defs if needed.
func extractRoot(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Ref != "" && s.Definitions != nil {
		// invopop/jsonschema puts the actual type under $defs with a ref like
		// "#/$defs/TypeName". Any object definition is the reflected type.
		for _, def := range s.Definitions {
			if def.Type == "object" {
				return def
			}
		}
	}
	return s
}

// schemaProperties converts an ordered map of properties into our wire form.
func schemaProperties(s *jsonschema.Schema) map[string]Property {
	if s.Properties == nil {
		return nil
	}
	props := make(map[string]Property)
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = propertySchema(pair.Value)
	}
	return props
}

// propertySchema converts a single reflected property.
func propertySchema(s *jsonschema.Schema) Property {
	p := Property{
		Type:        s.Type,
		Description: s.Description,
		Default:     s.Default,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}

	// Pointer types: invopop/jsonschema uses anyOf for nullable fields.
	if len(s.AnyOf) > 0 {
		for _, sub := range s.AnyOf {
			if sub.Type != "null" && sub.Type != "" {
				p.Type = sub.Type
				break
			}
		}
	}

	if s.Properties != nil {
		p.Type = "object"
		p.Properties = schemaProperties(s)
		if len(s.Required) > 0 {
			p.RequiredOf = s.Required
		}
	}

	if s.Items != nil {
		item := propertySchema(s.Items)
		p.Items = &item
	}

	return p
}

// Mismatch describes the first way a payload failed to satisfy a schema.
type Mismatch struct {
	Field  string
	Reason string
}

func (m *Mismatch) Error() string {
	if m.Field == "" {
		return m.Reason
	}
	return fmt.Sprintf("field %q: %s", m.Field, m.Reason)
}

// Validate checks raw JSON arguments against the schema. It returns a
// *Mismatch on the first violation: missing required field, or a value whose
// JSON type does not match the declared type tag. An empty payload is treated
// as an empty object. Fields the schema does not describe pass through —
// MCP servers commonly accept extra metadata keys.
func Validate(s InputSchema, raw json.RawMessage) error {
	args := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return &Mismatch{Reason: fmt.Sprintf("arguments are not an object: %s", err)}
		}
	}

	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return &Mismatch{Field: name, Reason: "required field missing"}
		}
	}

	for name, val := range args {
		prop, ok := s.Properties[name]
		if !ok || prop.Type == "" {
			continue
		}
		if err := checkType(name, prop, val); err != nil {
			return err
		}
	}
	return nil
}

// checkType verifies that val's JSON type matches the declared type tag.
func checkType(name string, prop Property, val json.RawMessage) error {
	var decoded any
	if err := json.Unmarshal(val, &decoded); err != nil {
		return &Mismatch{Field: name, Reason: fmt.Sprintf("invalid JSON: %s", err)}
	}
	if decoded == nil {
		// null satisfies an optional field
		return nil
	}

	ok := false
	switch prop.Type {
	case "string":
		_, ok = decoded.(string)
	case "number":
		_, ok = decoded.(float64)
	case "integer":
		f, isNum := decoded.(float64)
		ok = isNum && f == float64(int64(f))
	case "boolean":
		_, ok = decoded.(bool)
	case "array":
		_, ok = decoded.([]any)
	case "object":
		_, ok = decoded.(map[string]any)
	default:
		return &Mismatch{Field: name, Reason: fmt.Sprintf("schema declares unknown type %q", prop.Type)}
	}
	if !ok {
		return &Mismatch{Field: name, Reason: fmt.Sprintf("expected %s, got %s", prop.Type, jsonTypeName(decoded))}
	}
	return nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "null"
	}
}

// GenerateJSON is a convenience that returns the schema as raw JSON bytes.
func GenerateJSON[T any]() (json.RawMessage, error) {
	return json.Marshal(Generate[T]())
}
