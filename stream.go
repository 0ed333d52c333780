package agent

// RunStream is an iterator over events emitted during an agent run.
// Usage:
//
//	stream := a.Start(ctx, "goal")
//	for stream.Next() {
//	    event := stream.Current()
//	    // handle event
//	}
//	result := stream.Result()
type RunStream struct {
	events  chan Event
	current Event
	result  *RunResult
	done    bool
}

// newStream creates a RunStream over the given event channel.
func newStream(events chan Event) *RunStream {
	return &RunStream{events: events}
}

// Next advances to the next event. Returns false when the stream is exhausted.
func (s *RunStream) Next() bool {
	if s.done {
		return false
	}
	event, ok := <-s.events
	if !ok {
		s.done = true
		return false
	}
	if r, isResult := event.(*ResultEvent); isResult {
		s.result = r.Result
	}
	s.current = event
	return true
}

// Current returns the most recent event returned by Next.
func (s *RunStream) Current() Event {
	return s.current
}

// Result returns the terminal run result once the stream is exhausted, or
// nil while the run is still in progress.
func (s *RunStream) Result() *RunResult {
	return s.result
}
