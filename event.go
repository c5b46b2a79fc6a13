package exdyn

import (
	"context"
	"sync"
)

type (
	// Event is an opaque notification from an extension to the rest of the
	// node, consumed by the external scheduler.
	Event interface{ event() }

	// FinishedHeight announces that the extension has processed up to the
	// given block and historical data before it may be pruned.
	FinishedHeight struct {
		Number uint64
		Hash   Hash
	}

	// EventSender is the send-only endpoint held by an extension. Send
	// never blocks and never drops. Clone hands extra endpoints to
	// sub-tasks; the channel closes when every clone is closed.
	EventSender struct {
		core   *eventCore
		mu     sync.Mutex
		closed bool
	}

	// EventReceiver is the receive endpoint, exclusively owned by the
	// external scheduler.
	EventReceiver struct {
		core *eventCore
	}

	eventCore struct {
		mu      sync.Mutex
		buf     []Event
		wake    chan struct{}
		senders int
		done    bool
	}
)

func (FinishedHeight) event() {}

// NewEventChannel creates the unbounded many-producer, single-consumer
// channel between extensions and the node.
func NewEventChannel() (*EventSender, *EventReceiver) {
	core := &eventCore{wake: make(chan struct{}, 1), senders: 1}
	return &EventSender{core: core}, &EventReceiver{core: core}
}

// Send enqueues an event. It never blocks the caller regardless of the
// receiver's progress. Sending on a closed clone returns ErrSenderClosed.
func (s *EventSender) Send(e Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSenderClosed
	}
	s.mu.Unlock()
	c := s.core
	c.mu.Lock()
	c.buf = append(c.buf, e)
	c.mu.Unlock()
	c.signal()
	return nil
}

// Clone creates another send endpoint sharing the same channel. Cloning a
// closed endpoint yields another closed endpoint; it cannot resurrect the
// channel.
func (s *EventSender) Clone() *EventSender {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &EventSender{core: s.core, closed: true}
	}
	c := s.core
	c.mu.Lock()
	c.senders++
	c.mu.Unlock()
	return &EventSender{core: c}
}

// Close drops this endpoint. When the last clone closes, the receiver
// drains the remaining buffer and then observes ErrChannelClosed.
func (s *EventSender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSenderClosed
	}
	s.closed = true
	s.mu.Unlock()
	c := s.core
	c.mu.Lock()
	c.senders--
	if c.senders == 0 {
		c.done = true
	}
	c.mu.Unlock()
	c.signal()
	return nil
}

func (c *eventCore) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// TryRecv pops the next pending event without blocking.
func (r *EventReceiver) TryRecv() (Event, bool) {
	c := r.core
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buf) == 0 {
		return nil, false
	}
	e := c.buf[0]
	c.buf = c.buf[1:]
	return e, true
}

// Recv blocks until an event is available, every sender has closed
// (ErrChannelClosed after the buffer drains), or ctx is done.
func (r *EventReceiver) Recv(ctx context.Context) (Event, error) {
	c := r.core
	for {
		c.mu.Lock()
		if len(c.buf) > 0 {
			e := c.buf[0]
			c.buf = c.buf[1:]
			c.mu.Unlock()
			return e, nil
		}
		done := c.done
		c.mu.Unlock()
		if done {
			return nil, ErrChannelClosed
		}
		select {
		case <-c.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports the number of buffered events.
func (r *EventReceiver) Len() int {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	return len(r.core.buf)
}
