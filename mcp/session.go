package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// NotificationHandler receives unsolicited peer notifications in transport
// receipt order.
type NotificationHandler func(method string, params []byte)

// Session turns a raw message stream into a correlated request/response API
// and a notification feed. Correlation identifiers are assigned
// monotonically and are unique for the lifetime of the session, so any
// number of calls may be in flight concurrently; responses are matched by
// identifier, never by arrival order.
type Session struct {
	transport Transport
	nextID    atomic.Int64

	mu       sync.Mutex
	pending  map[int64]chan *Message
	handlers []NotificationHandler
	closed   bool
	cause    error // transport fault that tore the session down, if any

	done chan struct{}
}

// NewSession starts a session over a connected transport. The read loop runs
// until the peer closes the connection, a protocol fault occurs, or Close is
// called.
func NewSession(transport Transport) *Session {
	s := &Session{
		transport: transport,
		pending:   make(map[int64]chan *Message),
		done:      make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Call sends a request and blocks until the correlated response arrives, the
// context is done, or the session closes. The result payload is returned on
// success; a response carrying an error payload is returned as a *RPCError.
//
// When ctx expires the caller stops waiting but the pending entry stays
// registered; the read loop consumes and drops the late response when it
// eventually arrives, so entries never leak.
func (s *Session) Call(ctx context.Context, method string, params any) ([]byte, error) {
	id := s.nextID.Add(1)
	ch := make(chan *Message, 1) // buffered: the read loop never blocks on delivery

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, s.closedErr()
	}
	s.pending[id] = ch
	s.mu.Unlock()

	req, err := NewRequest(id, method, params)
	if err != nil {
		s.dropPending(id)
		return nil, err
	}
	if err := s.transport.Send(req); err != nil {
		s.dropPending(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, s.closedErr()
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// Notify sends a fire-and-forget notification to the peer.
func (s *Session) Notify(method string, params any) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return s.closedErr()
	}

	msg, err := NewNotification(method, params)
	if err != nil {
		return err
	}
	return s.transport.Send(msg)
}

// OnNotification registers a handler for unsolicited peer notifications.
// Handlers run on the read loop goroutine, in receipt order.
func (s *Session) OnNotification(handler NotificationHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Close tears the session down. Every still-pending Call fails with
// ErrSessionClosed; no responses are synthesized.
func (s *Session) Close() error {
	s.teardown(nil)
	return s.transport.Close()
}

// Done is closed when the session has terminated.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the transport or protocol fault that terminated the session,
// or nil after a clean close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

func (s *Session) readLoop() {
	for {
		msg, err := s.transport.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				err = nil // peer closed; not a fault
			}
			s.teardown(err)
			return
		}

		switch {
		case msg.IsResponse():
			id, err := msg.CorrelationID()
			if err != nil {
				s.teardown(err)
				_ = s.transport.Close()
				return
			}
			s.mu.Lock()
			ch := s.pending[id]
			delete(s.pending, id)
			s.mu.Unlock()
			// An unmatched id means the caller abandoned the wait; the
			// response is consumed and dropped here.
			if ch != nil {
				ch <- msg
			}

		case msg.IsNotification():
			s.mu.Lock()
			handlers := make([]NotificationHandler, len(s.handlers))
			copy(handlers, s.handlers)
			s.mu.Unlock()
			for _, h := range handlers {
				h(msg.Method, msg.Params)
			}

		default:
			// Peer-initiated requests are not part of this session's
			// contract; an unclassifiable frame is a protocol fault.
			s.teardown(&ProtocolError{Reason: fmt.Sprintf("unexpected message shape (method=%q)", msg.Method)})
			_ = s.transport.Close()
			return
		}
	}
}

// teardown marks the session closed and fails every pending call exactly
// once. cause records a transport/protocol fault; nil means a clean close.
func (s *Session) teardown(cause error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cause = cause
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	close(s.done)
}

func (s *Session) dropPending(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Session) closedErr() error {
	s.mu.Lock()
	cause := s.cause
	s.mu.Unlock()
	if cause != nil {
		return fmt.Errorf("%w: %v", ErrSessionClosed, cause)
	}
	return ErrSessionClosed
}
