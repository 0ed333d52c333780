package mcp

import (
	"errors"
	"fmt"
)

// Sentinel errors for the MCP package.
var (
	// ErrSessionClosed is returned to every caller still waiting on a
	// response when the session is torn down, and by Call/Notify on a
	// session that is already closed.
	ErrSessionClosed = errors.New("mcp: session closed")

	// ErrNotConnected is returned when attempting to use a transport that
	// has not yet established a connection.
	ErrNotConnected = errors.New("mcp: not connected")

	// ErrInvalidConfig is returned when a ServerConfig is missing required
	// fields for its transport type.
	ErrInvalidConfig = errors.New("mcp: invalid server config")
)

// ProtocolError reports a malformed or unrecognized message shape. It is
// fatal to the session that observed it.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mcp: protocol error: %s", e.Reason)
}
