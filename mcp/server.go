package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	agent "github.com/armatrix/mcp-agent-go"
)

// Server serves one MCP session over a Transport, answering initialize,
// tools/list, and tools/call against an explicit ToolRegistry owned by the
// caller. Each tools/call runs in its own goroutine, so slow tools do not
// block fast ones; a tool failure is returned as an error-variant result and
// never terminates the session.
type Server struct {
	name     string
	version  string
	registry *agent.ToolRegistry

	mu        sync.Mutex
	transport Transport
}

// NewServer creates a server for the given registry. The registry is
// constructed at startup and torn down with the session; there is no
// process-wide tool state.
func NewServer(name, version string, registry *agent.ToolRegistry) *Server {
	return &Server{name: name, version: version, registry: registry}
}

// Serve reads requests from the transport until the peer closes the
// connection (returns nil), the context is canceled, or a transport or
// protocol fault occurs (returned as the fatal error). In-flight tool calls
// are drained before Serve returns.
func (s *Server) Serve(ctx context.Context, transport Transport) error {
	s.mu.Lock()
	s.transport = transport
	s.mu.Unlock()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, err := transport.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}

		switch {
		case msg.IsRequest():
			switch msg.Method {
			case MethodInitialize:
				s.respond(transport, s.handleInitialize(msg))
			case MethodListTools:
				s.respond(transport, s.handleListTools(msg))
			case MethodCallTool:
				inflight.Add(1)
				go func(req *Message) {
					defer inflight.Done()
					s.respond(transport, s.handleCallTool(ctx, req))
				}(msg)
			default:
				s.respond(transport, NewErrorResponse(msg.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method)))
			}

		case msg.IsNotification():
			// notifications/initialized and anything else the client fires
			// off require no action here.

		default:
			return &ProtocolError{Reason: fmt.Sprintf("unexpected message shape (method=%q)", msg.Method)}
		}
	}
}

// NotifyToolsChanged pushes a tools/list_changed notification so connected
// clients invalidate their catalog cache. Call it after mutating the
// registry between runs.
func (s *Server) NotifyToolsChanged() error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()
	if transport == nil {
		return ErrNotConnected
	}
	msg, err := NewNotification(NotificationToolsChanged, nil)
	if err != nil {
		return err
	}
	return transport.Send(msg)
}

func (s *Server) handleInitialize(req *Message) *Message {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return NewErrorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("invalid initialize params: %s", err))
		}
	}

	resp, err := NewResponse(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: true},
		},
		ServerInfo: Implementation{Name: s.name, Version: s.version},
	})
	if err != nil {
		return NewErrorResponse(req.ID, CodeInternal, err.Error())
	}
	return resp
}

func (s *Server) handleListTools(req *Message) *Message {
	resp, err := NewResponse(req.ID, ListToolsResult{Tools: s.registry.Descriptors()})
	if err != nil {
		return NewErrorResponse(req.ID, CodeInternal, err.Error())
	}
	return resp
}

func (s *Server) handleCallTool(ctx context.Context, req *Message) *Message {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("invalid tools/call params: %s", err))
	}

	result, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		var verr *agent.ValidationError
		switch {
		case errors.Is(err, agent.ErrUnknownTool):
			return NewErrorResponse(req.ID, CodeUnknownTool, err.Error())
		case errors.As(err, &verr):
			return NewErrorResponse(req.ID, CodeInvalidParams, verr.Error())
		default:
			return NewErrorResponse(req.ID, CodeInternal, err.Error())
		}
	}

	resp, err := NewResponse(req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, CodeInternal, err.Error())
	}
	return resp
}

// respond writes a response frame; a send failure here means the transport
// is gone and the read loop will surface it.
func (s *Server) respond(transport Transport, msg *Message) {
	_ = transport.Send(msg)
}
