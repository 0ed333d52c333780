package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// maxFrameBytes bounds a single newline-delimited frame. Tool results carry
// whole documents, so this is well above typical payloads.
const maxFrameBytes = 4 * 1024 * 1024

// Framer reads and writes Messages as newline-delimited JSON over a byte
// stream. One JSON object per line delimits frames unambiguously, so a
// partial read can never surface as a malformed message. Writes are
// serialized; Read must be called from a single goroutine.
type Framer struct {
	mu      sync.Mutex // guards w
	w       io.Writer
	scanner *bufio.Scanner
}

// NewFramer creates a Framer over the given reader and writer.
func NewFramer(r io.Reader, w io.Writer) *Framer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)
	return &Framer{w: w, scanner: scanner}
}

// WriteMessage marshals msg and writes it as one line. A write failure is a
// transport fault for the caller to treat as fatal.
func (f *Framer) WriteMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data = append(data, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadMessage returns the next frame. It skips blank lines, returns io.EOF
// when the peer closes the stream, and returns a *ProtocolError when a line
// is not a JSON-RPC message.
func (f *Framer) ReadMessage() (*Message, error) {
	for f.scanner.Scan() {
		line := strings.TrimSpace(f.scanner.Text())
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, &ProtocolError{Reason: fmt.Sprintf("invalid frame: %s", err)}
		}
		if msg.JSONRPC != JSONRPCVersion {
			return nil, &ProtocolError{Reason: fmt.Sprintf("unsupported jsonrpc version %q", msg.JSONRPC)}
		}
		return &msg, nil
	}
	if err := f.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return nil, io.EOF
}
