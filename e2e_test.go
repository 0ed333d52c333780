package agent_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/armatrix/mcp-agent-go"
	"github.com/armatrix/mcp-agent-go/mcp"
)

type additionInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

// replayProposer returns a fixed sequence of replies.
type replayProposer struct {
	replies []string
	calls   int
}

func (p *replayProposer) Propose(_ context.Context, _ agent.ProposeRequest) (*agent.Proposal, error) {
	i := p.calls
	if i >= len(p.replies) {
		i = len(p.replies) - 1
	}
	p.calls++
	return &agent.Proposal{Text: p.replies[i]}, nil
}

// TestAgentOverMCPSession drives a full run across a real session: the agent
// discovers the calculator server's catalog over the wire, invokes add, and
// finishes with the tool's answer.
func TestAgentOverMCPSession(t *testing.T) {
	registry := agent.NewToolRegistry()
	agent.RegisterFunc[additionInput](registry, "add", "Add two integers",
		func(_ context.Context, input additionInput) (*agent.ToolResult, error) {
			return agent.TextResult(fmt.Sprintf("%d", input.A+input.B)), nil
		})

	clientEnd, serverEnd := mcp.NewPipeTransport()
	server := mcp.NewServer("calculator", "1.0.0", registry)
	go func() { _ = server.Serve(context.Background(), serverEnd) }()

	client := mcp.NewClient(mcp.NewSession(clientEnd), mcp.Implementation{Name: "e2e-test", Version: "0.0.1"})
	defer client.Close()
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	proposer := &replayProposer{replies: []string{
		`{"tool": "add", "arguments": {"a": 2, "b": 3}}`,
		`{"finish": "the sum is 5"}`,
	}}
	a := agent.NewAgent(
		agent.WithToolCaller(client),
		agent.WithProposer(proposer),
	)

	result, err := a.Run(context.Background(), "add 2 and 3")
	require.NoError(t, err)
	assert.Equal(t, "the sum is 5", result.Summary)
	assert.Equal(t, 1, result.NumToolCalls)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "5", result.Steps[0].Result.Text())
}

// TestAgentOverMCPSessionRecoversFromServerRejection exercises the error
// round trip: the server rejects an unknown tool name, the agent folds the
// failure into history, and the session keeps serving.
func TestAgentOverMCPSessionRecoversFromServerRejection(t *testing.T) {
	registry := agent.NewToolRegistry()
	agent.RegisterFunc[additionInput](registry, "add", "Add two integers",
		func(_ context.Context, input additionInput) (*agent.ToolResult, error) {
			return agent.TextResult(fmt.Sprintf("%d", input.A+input.B)), nil
		})

	clientEnd, serverEnd := mcp.NewPipeTransport()
	server := mcp.NewServer("calculator", "1.0.0", registry)
	go func() { _ = server.Serve(context.Background(), serverEnd) }()

	client := mcp.NewClient(mcp.NewSession(clientEnd), mcp.Implementation{Name: "e2e-test", Version: "0.0.1"})
	defer client.Close()
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	proposer := &replayProposer{replies: []string{
		`{"tool": "multiply", "arguments": {"a": 2, "b": 3}}`,
		`{"tool": "add", "arguments": {"a": 3, "b": 3}}`,
		`{"finish": "2 * 3 = 6"}`,
	}}
	a := agent.NewAgent(
		agent.WithToolCaller(client),
		agent.WithProposer(proposer),
	)

	result, err := a.Run(context.Background(), "multiply 2 by 3")
	require.NoError(t, err)
	assert.Equal(t, "2 * 3 = 6", result.Summary)
	require.Len(t, result.Steps, 2)
	assert.Contains(t, result.Steps[0].Err, "unknown tool")
	assert.Equal(t, "6", result.Steps[1].Result.Text())
}
