package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	agent "github.com/armatrix/mcp-agent-go"
)

// WriteFileInput defines the input for the WriteFile tool.
type WriteFileInput struct {
	Path    string `json:"path" jsonschema:"required,description=The file path to write"`
	Content string `json:"content" jsonschema:"required,description=The content to write"`
}

// WriteFileTool writes a file, creating parent directories as needed.
type WriteFileTool struct{}

var _ agent.Tool[WriteFileInput] = (*WriteFileTool)(nil)

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Write content to a file on disk" }

func (t *WriteFileTool) Execute(_ context.Context, input WriteFileInput) (*agent.ToolResult, error) {
	if input.Path == "" {
		return agent.ErrorResult("path is required"), nil
	}

	if dir := filepath.Dir(input.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return agent.ErrorResult(fmt.Sprintf("create directory: %s", err.Error())), nil
		}
	}
	if err := os.WriteFile(input.Path, []byte(input.Content), 0o644); err != nil {
		return agent.ErrorResult(fmt.Sprintf("write file: %s", err.Error())), nil
	}

	abs, err := filepath.Abs(input.Path)
	if err != nil {
		abs = input.Path
	}
	return agent.TextResult(abs), nil
}
