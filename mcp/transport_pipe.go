package mcp

import "io"

// PipeTransport is an in-process Transport over a pair of byte pipes.
// NewPipeTransport returns two connected ends, typically one for a Client
// session and one for a Server — this is the test and example transport,
// and it exercises the same framing as the stdio transport.
type PipeTransport struct {
	framer  *Framer
	closers []io.Closer
}

var _ Transport = (*PipeTransport)(nil)

// NewPipeTransport returns two connected transport ends. Messages sent on
// one end are received on the other, in order.
func NewPipeTransport() (*PipeTransport, *PipeTransport) {
	aRead, bWrite := io.Pipe()
	bRead, aWrite := io.Pipe()

	a := &PipeTransport{
		framer:  NewFramer(aRead, aWrite),
		closers: []io.Closer{aWrite, aRead},
	}
	b := &PipeTransport{
		framer:  NewFramer(bRead, bWrite),
		closers: []io.Closer{bWrite, bRead},
	}
	return a, b
}

// Connect is a no-op; pipe ends are connected at construction.
func (t *PipeTransport) Connect() error { return nil }

// Send writes one message to the peer end.
func (t *PipeTransport) Send(msg *Message) error {
	return t.framer.WriteMessage(msg)
}

// Receive reads the next message from the peer end.
func (t *PipeTransport) Receive() (*Message, error) {
	return t.framer.ReadMessage()
}

// Close closes both directions, unblocking the peer's Receive with io.EOF
// and any local pending Receive.
func (t *PipeTransport) Close() error {
	var first error
	for _, c := range t.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
