// Package agent implements a minimal Model Context Protocol (MCP) core in
// pure Go: a server-side tool registry, a client that discovers and invokes
// tools over a correlated session, and an LLM-driven planner loop that turns
// a free-form goal into validated tool calls.
//
// # Quick Start
//
//	registry := agent.NewToolRegistry()
//	agent.RegisterFunc(registry, "add", "Add two integers",
//	    func(ctx context.Context, in AddInput) (*agent.ToolResult, error) {
//	        return agent.TextResult(strconv.Itoa(in.A + in.B)), nil
//	    })
//
//	a := agent.NewAgent(
//	    agent.WithRegistry(registry),
//	    agent.WithModel("claude-sonnet-4-5"),
//	)
//	result, err := a.Run(ctx, "compute 2+3")
//
// # Sub-packages
//
//   - [mcp] provides the wire protocol: JSON-RPC codec, stdio and pipe
//     transports, the correlated Session, and Client/Server.
//   - [tools] provides built-in tools (Fetch, Glob, Bash, WriteFile).
package agent
