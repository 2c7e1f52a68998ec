package server

import "sync"

// State is the session lifecycle state of a Server.
type State int32

const (
	// StateIdle is the state before a client has connected.
	StateIdle State = iota
	// StateConnected is entered once the initialize handshake is answered.
	StateConnected
	// StateServing is entered when the client confirms initialization
	// or starts sending ordinary requests.
	StateServing
	// StateClosed is terminal: the transport ended.
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateServing:
		return "serving"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type lifecycle struct {
	mu       sync.Mutex
	state    State
	err      error
	done     chan struct{}
	watchers []func(from, to State)
	onClose  []func(error)
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.lc.mu.Lock()
	defer s.lc.mu.Unlock()
	return s.lc.state
}

// Done returns a channel that is closed when the server reaches StateClosed.
func (s *Server) Done() <-chan struct{} {
	return s.lc.done
}

// Err returns the error the session ended with, if any.
// It is nil until the server is closed and for clean shutdowns.
func (s *Server) Err() error {
	s.lc.mu.Lock()
	defer s.lc.mu.Unlock()
	return s.lc.err
}

// OnTransition registers fn to be called after every state change.
func (s *Server) OnTransition(fn func(from, to State)) {
	s.lc.mu.Lock()
	defer s.lc.mu.Unlock()
	s.lc.watchers = append(s.lc.watchers, fn)
}

// OnClose registers fn to be called once when the server closes.
// If the server is already closed fn runs immediately.
func (s *Server) OnClose(fn func(err error)) {
	s.lc.mu.Lock()
	if s.lc.state == StateClosed {
		err := s.lc.err
		s.lc.mu.Unlock()
		fn(err)
		return
	}
	s.lc.onClose = append(s.lc.onClose, fn)
	s.lc.mu.Unlock()
}

// MarkConnected records a completed initialize handshake.
// It reports whether the state changed.
func (s *Server) MarkConnected() bool {
	return s.advance(StateConnected, nil)
}

// MarkServing records that the request/response cycle has started.
// It reports whether the state changed.
func (s *Server) MarkServing() bool {
	return s.advance(StateServing, nil)
}

// Close moves the server to StateClosed, closes Done and runs the OnClose
// callbacks. Only the first call has any effect.
func (s *Server) Close(err error) bool {
	return s.advance(StateClosed, err)
}

// advance moves the state forward. Backward moves and moves out of
// StateClosed are ignored.
func (s *Server) advance(to State, err error) bool {
	s.lc.mu.Lock()
	from := s.lc.state
	if to <= from {
		s.lc.mu.Unlock()
		return false
	}
	s.lc.state = to

	watchers := append([]func(from, to State){}, s.lc.watchers...)
	var onClose []func(error)
	if to == StateClosed {
		s.lc.err = err
		onClose = s.lc.onClose
		s.lc.onClose = nil
		close(s.lc.done)
	}
	s.lc.mu.Unlock()

	for _, fn := range watchers {
		fn(from, to)
	}
	for _, fn := range onClose {
		fn(err)
	}
	return true
}
