package tools

import agent "github.com/armatrix/mcp-agent-go"

// RegisterAll registers the core built-in tools into the registry.
func RegisterAll(r *agent.ToolRegistry) {
	agent.RegisterTool[FetchInput](r, &FetchTool{})
	agent.RegisterTool[GlobInput](r, &GlobTool{})
	agent.RegisterTool[BashInput](r, &BashTool{})
	agent.RegisterTool[WriteFileInput](r, &WriteFileTool{})
}
