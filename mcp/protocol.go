// Package mcp implements the Model Context Protocol wire layer: JSON-RPC 2.0
// messages framed as newline-delimited JSON, transports for subprocess stdio
// and in-process pipes, a correlated Session multiplexing concurrent calls,
// and the Client/Server pair built on top of it.
package mcp

import (
	"encoding/json"
	"fmt"

	agent "github.com/armatrix/mcp-agent-go"
)

// Protocol version constants.
const (
	ProtocolVersion = "2024-11-05"
	JSONRPCVersion  = "2.0"
)

// MCP method and notification names.
const (
	MethodInitialize = "initialize"
	MethodListTools  = "tools/list"
	MethodCallTool   = "tools/call"

	NotificationInitialized  = "notifications/initialized"
	NotificationToolsChanged = "notifications/tools/list_changed"
)

// Standard JSON-RPC 2.0 error codes, plus implementation-defined codes in
// the server error range.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603

	// CodeUnknownTool is returned by tools/call for an unregistered name.
	CodeUnknownTool = -32000
)

// Message is one JSON-RPC 2.0 frame: a request (method + id), a notification
// (method, no id), or a response (id + result or error). Exactly one of
// Result and Error is set on a response.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsRequest reports whether the message is a request expecting a response.
func (m *Message) IsRequest() bool {
	return m.Method != "" && len(m.ID) > 0
}

// IsNotification reports whether the message is a fire-and-forget notification.
func (m *Message) IsNotification() bool {
	return m.Method != "" && len(m.ID) == 0
}

// IsResponse reports whether the message answers an earlier request.
func (m *Message) IsResponse() bool {
	return m.Method == "" && len(m.ID) > 0 && (len(m.Result) > 0 || m.Error != nil)
}

// CorrelationID decodes the message id as the int64 this module assigns.
func (m *Message) CorrelationID() (int64, error) {
	var id int64
	if err := json.Unmarshal(m.ID, &id); err != nil {
		return 0, &ProtocolError{Reason: fmt.Sprintf("non-numeric message id %s", m.ID)}
	}
	return id, nil
}

// RPCError is the JSON-RPC 2.0 error object. It implements error so server
// error payloads can be surfaced to callers unchanged.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewRequest builds a request frame with the given correlation id.
func NewRequest(id int64, method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	idRaw, _ := json.Marshal(id)
	return &Message{JSONRPC: JSONRPCVersion, ID: idRaw, Method: method, Params: raw}, nil
}

// NewNotification builds a notification frame (no id, no response expected).
func NewNotification(method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: JSONRPCVersion, Method: method, Params: raw}, nil
}

// NewResponse builds a success response echoing the request id.
func NewResponse(id json.RawMessage, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &Message{JSONRPC: JSONRPCVersion, ID: id, Result: raw}, nil
}

// NewErrorResponse builds an error response echoing the request id.
func NewErrorResponse(id json.RawMessage, code int, message string) *Message {
	return &Message{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return raw, nil
}

// Implementation identifies a client or server program.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsCapability advertises tool support and change notifications.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities describes what a server supports.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ClientCapabilities describes what a client supports.
type ClientCapabilities struct {
	Experimental map[string]any `json:"experimental,omitempty"`
}

// InitializeParams are the parameters of the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the server's half of the handshake.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ListToolsResult is the result of tools/list. Tool order is the server's
// registration order, stable across calls within one server lifetime.
type ListToolsResult struct {
	Tools []agent.ToolDescriptor `json:"tools"`
}

// CallToolParams are the parameters of tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
