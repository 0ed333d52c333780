package agent

// EventType identifies the kind of event emitted by a RunStream.
type EventType string

const (
	EventSystem EventType = "system"
	EventAction EventType = "action"
	EventTool   EventType = "tool"
	EventResult EventType = "result"
)

// Event is the interface implemented by all events emitted through RunStream.
type Event interface {
	Type() EventType
}

// SystemEvent is emitted once at the start of a run with initialization info.
type SystemEvent struct {
	RunID string
	Goal  string
	Tools []string
}

func (e *SystemEvent) Type() EventType { return EventSystem }

// ActionEvent is emitted for each action the planner decides on.
type ActionEvent struct {
	Action Action
}

func (e *ActionEvent) Type() EventType { return EventAction }

// ToolEvent is emitted after each tool invocation, successful or not.
// Err is set when the call itself failed (validation, unknown tool);
// Result.IsError marks a failure the tool reported.
type ToolEvent struct {
	Tool   string
	Result *ToolResult
	Err    error
}

func (e *ToolEvent) Type() EventType { return EventTool }

// ResultEvent is emitted once at the end of a run with the terminal outcome.
type ResultEvent struct {
	Result *RunResult
}

func (e *ResultEvent) Type() EventType { return EventResult }
