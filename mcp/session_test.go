package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoPeer answers every request with a result that embeds the request's own
// id, so tests can verify responses are matched by correlation id rather than
// arrival order. An optional delay function staggers replies.
func echoPeer(t *testing.T, transport Transport, delay func(id int64) time.Duration) {
	t.Helper()
	for {
		msg, err := transport.Receive()
		if err != nil {
			return
		}
		if !msg.IsRequest() {
			continue
		}
		go func(req *Message) {
			id, err := req.CorrelationID()
			if err != nil {
				return
			}
			if delay != nil {
				time.Sleep(delay(id))
			}
			resp, err := NewResponse(req.ID, map[string]int64{"echo": id})
			if err != nil {
				return
			}
			_ = transport.Send(resp)
		}(msg)
	}
}

func TestSessionCallRoundTrip(t *testing.T) {
	a, b := NewPipeTransport()
	go echoPeer(t, b, nil)

	s := NewSession(a)
	defer s.Close()

	raw, err := s.Call(context.Background(), "test/echo", nil)
	require.NoError(t, err)

	var result map[string]int64
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, int64(1), result["echo"])
}

func TestSessionConcurrentCorrelation(t *testing.T) {
	a, b := NewPipeTransport()
	// Later requests answered first: responses arrive out of order.
	go echoPeer(t, b, func(id int64) time.Duration {
		return time.Duration(20-id) * time.Millisecond
	})

	s := NewSession(a)
	defer s.Close()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	echoes := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := s.Call(context.Background(), "test/echo", map[string]int{"i": i})
			if err != nil {
				errs[i] = err
				return
			}
			var result map[string]int64
			if err := json.Unmarshal(raw, &result); err != nil {
				errs[i] = err
				return
			}
			echoes[i] = result["echo"]
		}(i)
	}
	wg.Wait()

	// Every call resolved, and each received the response bearing its own
	// request id: distinct calls, distinct echoed ids.
	seen := make(map[int64]bool)
	for i, err := range errs {
		require.NoError(t, err, "call %d", i)
		assert.False(t, seen[echoes[i]], "response id %d delivered twice", echoes[i])
		seen[echoes[i]] = true
		assert.True(t, echoes[i] >= 1 && echoes[i] <= n, "echo id %d out of range", echoes[i])
	}
}

func TestSessionDistinctIDs(t *testing.T) {
	a, b := NewPipeTransport()
	ids := make(chan int64, 8)
	go func() {
		for {
			msg, err := b.Receive()
			if err != nil {
				close(ids)
				return
			}
			if msg.IsRequest() {
				id, _ := msg.CorrelationID()
				ids <- id
				resp, _ := NewResponse(msg.ID, struct{}{})
				_ = b.Send(resp)
			}
		}
	}()

	s := NewSession(a)
	defer s.Close()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		_, err := s.Call(context.Background(), "test/noop", nil)
		require.NoError(t, err)
		id := <-ids
		assert.False(t, seen[id], "id %d reused", id)
		seen[id] = true
	}
}

func TestSessionCloseFailsPendingCalls(t *testing.T) {
	a, b := NewPipeTransport()
	// Peer reads requests but never answers.
	go func() {
		for {
			if _, err := b.Receive(); err != nil {
				return
			}
		}
	}()

	s := NewSession(a)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			_, errs[i] = s.Call(context.Background(), "test/hang", nil)
		}(i)
	}
	for i := 0; i < n; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond) // let the calls register

	require.NoError(t, s.Close())
	wg.Wait()

	for i := 0; i < n; i++ {
		assert.ErrorIs(t, errs[i], ErrSessionClosed, "call %d", i)
	}

	// Calls after close fail immediately.
	_, err := s.Call(context.Background(), "test/late", nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, s.Err())
}

func TestSessionAbandonedCallDoesNotLeak(t *testing.T) {
	a, b := NewPipeTransport()

	release := make(chan struct{})
	go func() {
		for {
			msg, err := b.Receive()
			if err != nil {
				return
			}
			if !msg.IsRequest() {
				continue
			}
			id, _ := msg.CorrelationID()
			if id == 1 {
				// Answer the first request only after it has been abandoned.
				go func(req *Message) {
					<-release
					resp, _ := NewResponse(req.ID, map[string]string{"late": "yes"})
					_ = b.Send(resp)
				}(msg)
				continue
			}
			resp, _ := NewResponse(msg.ID, map[string]string{"ok": "yes"})
			_ = b.Send(resp)
		}
	}()

	s := NewSession(a)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Call(ctx, "test/slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Let the late response arrive; the read loop must consume and drop it
	// without disturbing subsequent calls.
	close(release)

	raw, err := s.Call(context.Background(), "test/next", nil)
	require.NoError(t, err)
	var result map[string]string
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "yes", result["ok"])

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.pending) == 0
	}, time.Second, 5*time.Millisecond, "pending table must not leak abandoned entries")
}

func TestSessionRPCErrorSurfaced(t *testing.T) {
	a, b := NewPipeTransport()
	go func() {
		for {
			msg, err := b.Receive()
			if err != nil {
				return
			}
			if msg.IsRequest() {
				_ = b.Send(NewErrorResponse(msg.ID, CodeMethodNotFound, "no such method"))
			}
		}
	}()

	s := NewSession(a)
	defer s.Close()

	_, err := s.Call(context.Background(), "test/missing", nil)
	require.Error(t, err)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)
}

func TestSessionNotificationOrder(t *testing.T) {
	a, b := NewPipeTransport()

	s := NewSession(a)
	defer s.Close()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	s.OnNotification(func(method string, _ []byte) {
		mu.Lock()
		got = append(got, method)
		if len(got) == 3 {
			close(done)
		}
		mu.Unlock()
	})

	for _, method := range []string{"a", "b", "c"} {
		msg, err := NewNotification(method, nil)
		require.NoError(t, err)
		require.NoError(t, b.Send(msg))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifications not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSessionPeerDisconnectIsClean(t *testing.T) {
	a, b := NewPipeTransport()

	s := NewSession(a)
	require.NoError(t, b.Close())

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not observe peer disconnect")
	}
	assert.NoError(t, s.Err())

	_, err := s.Call(context.Background(), "test/after", nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionProtocolFaultTearsDown(t *testing.T) {
	a, b := NewPipeTransport()

	s := NewSession(a)

	// A request frame from the peer is outside the session contract.
	req, err := NewRequest(99, "peer/initiated", nil)
	require.NoError(t, err)
	require.NoError(t, b.Send(req))

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not tear down on protocol fault")
	}
	var perr *ProtocolError
	assert.ErrorAs(t, s.Err(), &perr)
}
