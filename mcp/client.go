package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	agent "github.com/armatrix/mcp-agent-go"
	"github.com/armatrix/mcp-agent-go/internal/schema"
)

// Client is the tool-client side of an MCP session: it performs the
// initialize handshake, discovers the server's tool catalog (cached until a
// tools/list_changed notification invalidates it), and invokes tools with
// local schema validation before the round trip.
type Client struct {
	session *Session
	info    Implementation

	mu         sync.Mutex
	catalog    []agent.ToolDescriptor
	catalogOK  bool
	serverInfo Implementation
}

var _ agent.ToolCaller = (*Client)(nil)

// NewClient wraps a session. The client registers a notification handler
// that invalidates the catalog cache when the server announces a tool-list
// change; readers may observe a stale catalog for at most one round trip.
func NewClient(session *Session, info Implementation) *Client {
	c := &Client{session: session, info: info}
	session.OnNotification(func(method string, _ []byte) {
		if method == NotificationToolsChanged {
			c.mu.Lock()
			c.catalogOK = false
			c.mu.Unlock()
		}
	})
	return c
}

// Connect dials the config's transport, starts a session over it, and
// performs the initialize handshake.
func Connect(ctx context.Context, cfg ServerConfig, info Implementation) (*Client, error) {
	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	if err := transport.Connect(); err != nil {
		return nil, err
	}
	client := NewClient(NewSession(transport), info)
	if _, err := client.Initialize(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Initialize performs the MCP handshake and acknowledges it with the
// initialized notification.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	raw, err := c.session.Call(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      c.info,
	})
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("invalid initialize result: %s", err)}
	}

	if err := c.session.Notify(NotificationInitialized, nil); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.serverInfo = result.ServerInfo
	c.mu.Unlock()
	return &result, nil
}

// ServerInfo returns the peer's implementation info from the handshake.
func (c *Client) ServerInfo() Implementation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// Tools returns the server's tool catalog. The first successful call is
// cached; the cache is invalidated by a tools/list_changed notification.
func (c *Client) Tools(ctx context.Context) ([]agent.ToolDescriptor, error) {
	c.mu.Lock()
	if c.catalogOK {
		catalog := make([]agent.ToolDescriptor, len(c.catalog))
		copy(catalog, c.catalog)
		c.mu.Unlock()
		return catalog, nil
	}
	c.mu.Unlock()

	raw, err := c.session.Call(ctx, MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	var result ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("invalid tools/list result: %s", err)}
	}

	c.mu.Lock()
	c.catalog = result.Tools
	c.catalogOK = true
	c.mu.Unlock()

	catalog := make([]agent.ToolDescriptor, len(result.Tools))
	copy(catalog, result.Tools)
	return catalog, nil
}

// CallTool invokes a tool by name. Arguments are validated locally against
// the cached descriptor before the round trip, so malformed args fail fast
// with a *agent.ValidationError. Server-side errors are surfaced unchanged:
// unknown names as agent.ErrUnknownTool, schema mismatches as
// *agent.ValidationError, tool-reported failures as an error-variant
// ToolResult.
func (c *Client) CallTool(ctx context.Context, name string, args any) (*agent.ToolResult, error) {
	raw, err := marshalParams(args)
	if err != nil {
		return nil, err
	}

	// Fail fast when the cached catalog describes this tool. A name the
	// cache does not know still goes to the server: the cache may simply
	// be stale.
	if desc := c.cachedDescriptor(name); desc != nil {
		if verr := schema.Validate(desc.InputSchema, raw); verr != nil {
			e := &agent.ValidationError{Tool: name, Reason: verr.Error()}
			var m *schema.Mismatch
			if errors.As(verr, &m) {
				e.Field = m.Field
				e.Reason = m.Reason
			}
			return nil, e
		}
	}

	result, err := c.session.Call(ctx, MethodCallTool, CallToolParams{Name: name, Arguments: raw})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			switch rpcErr.Code {
			case CodeUnknownTool:
				return nil, fmt.Errorf("%w: %s", agent.ErrUnknownTool, name)
			case CodeInvalidParams:
				return nil, &agent.ValidationError{Tool: name, Reason: rpcErr.Message}
			}
		}
		return nil, err
	}

	var toolResult agent.ToolResult
	if err := json.Unmarshal(result, &toolResult); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("invalid tools/call result: %s", err)}
	}
	return &toolResult, nil
}

// Session exposes the underlying session (e.g. for OnNotification).
func (c *Client) Session() *Session { return c.session }

// Close tears down the session and its transport.
func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) cachedDescriptor(name string) *agent.ToolDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.catalogOK {
		return nil
	}
	for i := range c.catalog {
		if c.catalog[i].Name == name {
			desc := c.catalog[i]
			return &desc
		}
	}
	return nil
}
