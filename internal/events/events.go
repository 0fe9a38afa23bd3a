package events

import "sync"

// StateChange is emitted whenever an engine's visible state moves.
type StateChange struct {
	Game    string
	Payload any
}

const bufferSize = 32

type Bus struct {
	mu      sync.Mutex
	closed  bool
	Changes chan StateChange
}

func NewBus() *Bus {
	return &Bus{
		Changes: make(chan StateChange, bufferSize),
	}
}

// Publish queues ev without blocking. It reports false if the bus is closed
// or its buffer is full.
func (b *Bus) Publish(ev StateChange) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	select {
	case b.Changes <- ev:
		return true
	default:
		return false
	}
}

// Close ends the stream; consumers ranging over Changes return.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.Changes)
}
