package mcp

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// exitGrace is how long Close waits for the subprocess to exit after its
// stdin is closed before killing it.
const exitGrace = 3 * time.Second

// StdioTransport runs an MCP server as a subprocess and frames messages over
// its stdin/stdout. The subprocess's stderr passes through to this process.
type StdioTransport struct {
	command string
	args    []string
	env     map[string]string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	framer *Framer
}

var _ Transport = (*StdioTransport)(nil)

// NewStdioTransport creates a StdioTransport from the given config.
// Returns ErrInvalidConfig if Command is empty.
func NewStdioTransport(cfg ServerConfig) (*StdioTransport, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: stdio transport requires command", ErrInvalidConfig)
	}
	return &StdioTransport{
		command: cfg.Command,
		args:    cfg.Args,
		env:     cfg.Env,
	}, nil
}

// Connect spawns the subprocess and wires its pipes.
func (t *StdioTransport) Connect() error {
	cmd := exec.Command(t.command, t.args...)
	cmd.Env = os.Environ()
	for k, v := range t.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", t.command, err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.framer = NewFramer(stdout, stdin)
	return nil
}

// Send writes one message to the subprocess's stdin.
func (t *StdioTransport) Send(msg *Message) error {
	if t.framer == nil {
		return ErrNotConnected
	}
	return t.framer.WriteMessage(msg)
}

// Receive reads the next message from the subprocess's stdout.
func (t *StdioTransport) Receive() (*Message, error) {
	if t.framer == nil {
		return nil, ErrNotConnected
	}
	return t.framer.ReadMessage()
}

// Close closes the subprocess's stdin so it can exit on EOF, waits briefly,
// and kills it if it does not.
func (t *StdioTransport) Close() error {
	if t.cmd == nil {
		return nil
	}
	_ = t.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		t.cmd = nil
		return err
	case <-time.After(exitGrace):
		_ = t.cmd.Process.Kill()
		<-done
		t.cmd = nil
		return nil
	}
}

// StdioServerTransport is the server half of StdioTransport: a process
// launched as an MCP server uses it to frame messages over its own
// stdin/stdout. Diagnostics belong on stderr; stdout carries only frames.
type StdioServerTransport struct {
	framer *Framer
}

var _ Transport = (*StdioServerTransport)(nil)

// NewStdioServerTransport creates a transport over this process's stdin and
// stdout.
func NewStdioServerTransport() *StdioServerTransport {
	return &StdioServerTransport{framer: NewFramer(os.Stdin, os.Stdout)}
}

// Connect is a no-op; the process's pipes are wired by its parent.
func (t *StdioServerTransport) Connect() error { return nil }

// Send writes one message to stdout.
func (t *StdioServerTransport) Send(msg *Message) error {
	return t.framer.WriteMessage(msg)
}

// Receive reads the next message from stdin.
func (t *StdioServerTransport) Receive() (*Message, error) {
	return t.framer.ReadMessage()
}

// Close closes stdin, unblocking a pending Receive.
func (t *StdioServerTransport) Close() error {
	return os.Stdin.Close()
}
