package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"arcade/internal/events"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Message]bool
	closed  bool
}

// NewBroadcaster forwards every state change on bus to subscribers as JSON,
// using the game name as the event name. When bus closes every subscriber
// channel is closed and later subscribers get a closed channel.
func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Message]bool),
	}
	go func() {
		for ev := range bus.Changes {
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				log.Printf("[Broadcast] marshal %s: %v\n", ev.Game, err)
				continue
			}
			b.Broadcast(ev.Game, string(data))
		}
		b.closeAll()
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 10)
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.Clients[ch] = true
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Clients[ch] {
		delete(b.Clients, ch)
		close(ch)
	}
}

func (b *Broadcaster) closeAll() {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.closed = true
	for ch := range b.Clients {
		delete(b.Clients, ch)
		close(ch)
	}
}

// Broadcast never blocks: subscribers with full channels miss the message.
func (b *Broadcaster) Broadcast(event, data string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
		}
	}
}
