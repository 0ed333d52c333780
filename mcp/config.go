package mcp

// TransportType identifies the MCP transport protocol.
type TransportType string

const (
	// TransportStdio communicates via a subprocess's stdin/stdout.
	TransportStdio TransportType = "stdio"
)

// ServerConfig describes how to connect to a single MCP server.
type ServerConfig struct {
	// Command is the executable to spawn (stdio transport only).
	Command string

	// Args are command-line arguments for the subprocess.
	Args []string

	// Env are extra environment variables for the subprocess, appended to
	// the parent environment.
	Env map[string]string

	// Transport selects the communication protocol.
	Transport TransportType
}
