package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType tags a stream event.
type EventType string

const (
	EventStart   EventType = "start"
	EventMessage EventType = "message"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one frame on a session's channel.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateStarted
	stateStreaming
	stateCompleted
	stateFailed
)

// Session is the per-request streaming controller:
// idle -> started -> streaming(0..N) -> completed | failed.
// Events come out strictly ordered; the terminal event is emitted exactly
// once and the channel is closed exactly once.
type Session struct {
	ID string

	mu    sync.Mutex
	state sessionState
	ch    chan Event
	quit  chan struct{}
	timer *time.Timer
}

// NewSession creates a session with a wall-clock budget. A zero timeout
// disables the watchdog.
func NewSession(timeout time.Duration) *Session {
	s := &Session{
		ID:   uuid.NewString(),
		ch:   make(chan Event, 32),
		quit: make(chan struct{}),
	}
	if timeout > 0 {
		s.timer = time.AfterFunc(timeout, func() {
			s.Fail("request timed out")
		})
	}
	return s
}

// Events is the caller's receive side. Closed after the terminal event.
func (s *Session) Events() <-chan Event { return s.ch }

// Terminated is closed once the session reaches a terminal state.
func (s *Session) Terminated() <-chan struct{} { return s.quit }

// Start emits the start event. Must happen before any pipeline work so the
// caller's transport does not stall.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateIdle {
		return
	}
	s.state = stateStarted
	s.emit(Event{Type: EventStart, Content: "sql agent session started"})
}

// Message emits one incremental content chunk.
func (s *Session) Message(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateStarted && s.state != stateStreaming {
		return
	}
	s.state = stateStreaming
	s.emit(Event{Type: EventMessage, Content: content})
}

// Done completes the session.
func (s *Session) Done() {
	s.terminate(stateCompleted, Event{Type: EventDone}, true)
}

// Fail terminates the session with a sanitized error message.
func (s *Session) Fail(msg string) {
	s.terminate(stateFailed, Event{Type: EventError, Content: msg}, true)
}

// Abort terminates without emitting; used when the caller is gone and
// nothing should be written toward a dead transport.
func (s *Session) Abort() {
	s.terminate(stateFailed, Event{}, false)
}

func (s *Session) terminate(to sessionState, ev Event, emit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateCompleted || s.state == stateFailed {
		return
	}
	s.state = to
	if s.timer != nil {
		s.timer.Stop()
	}
	if emit {
		s.emit(ev)
	}
	close(s.ch)
	close(s.quit)
}

// emit never blocks: a stalled consumer drops intermediate events rather
// than wedging the pipeline. Terminal close still reaches the consumer.
func (s *Session) emit(ev Event) {
	select {
	case s.ch <- ev:
	default:
	}
}
