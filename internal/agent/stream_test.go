package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(s *Session) []Event {
	var events []Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

func TestSessionHappyPathOrdering(t *testing.T) {
	s := NewSession(0)
	s.Start()
	s.Message("one")
	s.Message("two")
	s.Done()

	events := drain(s)
	require.Len(t, events, 4)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, "one", events[1].Content)
	assert.Equal(t, "two", events[2].Content)
	assert.Equal(t, EventDone, events[3].Type)
}

func TestSessionExactlyOneTerminalEvent(t *testing.T) {
	s := NewSession(0)
	s.Start()
	s.Done()
	// all of these are no-ops after the terminal event
	s.Fail("late failure")
	s.Done()
	s.Message("late message")

	events := drain(s)
	terminals := 0
	for _, ev := range events {
		if ev.Type == EventDone || ev.Type == EventError {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
	assert.Equal(t, EventDone, events[len(events)-1].Type)
}

func TestSessionErrorTerminates(t *testing.T) {
	s := NewSession(0)
	s.Start()
	s.Fail("something broke")

	events := drain(s)
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)
	assert.Equal(t, "something broke", events[1].Content)
}

func TestSessionNoEventsBeforeStart(t *testing.T) {
	s := NewSession(0)
	s.Message("too early")
	s.Start()
	s.Done()

	events := drain(s)
	require.NotEmpty(t, events)
	assert.Equal(t, EventStart, events[0].Type, "start must precede any message")
}

func TestSessionTimeoutFails(t *testing.T) {
	s := NewSession(20 * time.Millisecond)
	s.Start()

	select {
	case <-s.Terminated():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate on timeout")
	}

	events := drain(s)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Content, "timed out")
}

func TestSessionAbortClosesWithoutEmitting(t *testing.T) {
	s := NewSession(0)
	s.Start()
	s.Abort()

	events := drain(s)
	require.Len(t, events, 1, "only the start event, no terminal write toward a dead caller")
	assert.Equal(t, EventStart, events[0].Type)

	// further emissions are ignored
	s.Message("after abort")
	s.Done()
}
