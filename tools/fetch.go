package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	agent "github.com/armatrix/mcp-agent-go"
)

const (
	defaultFetchTimeoutMs = 30_000
	maxFetchBodyBytes     = 100_000
)

// FetchInput defines the input for the Fetch tool.
type FetchInput struct {
	URL     string `json:"url" jsonschema:"required,description=The URL to fetch"`
	Method  string `json:"method,omitempty" jsonschema:"description=HTTP method (default GET)"`
	Body    string `json:"body,omitempty" jsonschema:"description=Request body for POST/PUT"`
	Timeout *int   `json:"timeout,omitempty" jsonschema:"description=Timeout in milliseconds"`
}

// FetchTool performs an HTTP request and returns the response body.
type FetchTool struct {
	// Client overrides the HTTP client; nil uses a per-call client with the
	// requested timeout.
	Client *http.Client
}

var _ agent.Tool[FetchInput] = (*FetchTool)(nil)

func (t *FetchTool) Name() string        { return "fetch" }
func (t *FetchTool) Description() string { return "Fetch a URL over HTTP and return the response body" }

func (t *FetchTool) Execute(ctx context.Context, input FetchInput) (*agent.ToolResult, error) {
	if input.URL == "" {
		return agent.ErrorResult("url is required"), nil
	}
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return agent.ErrorResult("url must be http or https"), nil
	}

	method := strings.ToUpper(input.Method)
	if method == "" {
		method = http.MethodGet
	}

	timeoutMs := defaultFetchTimeoutMs
	if input.Timeout != nil && *input.Timeout > 0 {
		timeoutMs = *input.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	var body io.Reader
	if input.Body != "" {
		body = strings.NewReader(input.Body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, input.URL, body)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("invalid request: %s", err.Error())), nil
	}

	client := t.Client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("fetch failed: %s", err.Error())), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes+1))
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("read body: %s", err.Error())), nil
	}
	text := string(data)
	if len(data) > maxFetchBodyBytes {
		text = text[:maxFetchBodyBytes] + "\n... [body truncated]"
	}

	result := agent.TextResult(text)
	result.Metadata = map[string]any{
		"status_code": resp.StatusCode,
	}
	if resp.StatusCode >= 400 {
		result.IsError = true
	}
	return result, nil
}
