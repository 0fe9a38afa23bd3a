package reaction

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"arcade/internal/clock"
	"arcade/internal/kv"
	"arcade/internal/scoring"
)

type State string

const (
	StateIdle    = State("idle")
	StateWaiting = State("waiting")
	StateReady   = State("ready")
	StateDone    = State("done")
	StateEarly   = State("early")
)

type Event string

const (
	// EventClick is the player pressing the button.
	EventClick = Event("click")
	// EventTrigger is the randomized countdown running out.
	EventTrigger = Event("trigger")
)

// Transition is the whole state machine. Every (state, event) pair has an
// outcome; a trigger outside waiting is stale and leaves the state alone.
func Transition(s State, e Event) State {
	switch e {
	case EventClick:
		switch s {
		case StateWaiting:
			return StateEarly
		case StateReady:
			return StateDone
		default:
			return StateWaiting
		}
	case EventTrigger:
		if s == StateWaiting {
			return StateReady
		}
	}
	return s
}

const (
	DefaultMinDelay = 2000 * time.Millisecond
	DefaultMaxDelay = 5000 * time.Millisecond
)

var ErrClosed = errors.New("round is closed")

type Snapshot struct {
	State     State `json:"state"`
	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
	BestMs    int64 `json:"best_ms,omitempty"`
	HasBest   bool  `json:"has_best"`
	NewBest   bool  `json:"new_best"`
}

type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Clock    clock.Clock
	// Int63n draws the extra delay above MinDelay. Defaults to math/rand.
	Int63n   func(n int64) int64
	Store    kv.Store
	Scores   scoring.Submitter
	OnChange func(Snapshot)
}

type Round struct {
	mu      sync.Mutex
	cfg     Config
	state   State
	readyAt time.Time
	elapsed time.Duration
	best    int
	hasBest bool
	newBest bool
	seq     int
	pending clock.Cancel
	closed  bool
}

func New(cfg Config) *Round {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = DefaultMinDelay
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = DefaultMaxDelay
		if cfg.MaxDelay < cfg.MinDelay {
			cfg.MaxDelay = cfg.MinDelay
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Int63n == nil {
		cfg.Int63n = rand.Int63n
	}
	if cfg.Store == nil {
		cfg.Store = kv.NewMemory()
	}

	r := &Round{cfg: cfg, state: StateIdle}
	r.best, r.hasBest = scoring.LoadBest(context.Background(), cfg.Store, scoring.GameReaction)
	return r
}

// Click feeds one button press through the state machine.
func (r *Round) Click() (Snapshot, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Snapshot{}, ErrClosed
	}

	r.state = Transition(r.state, EventClick)
	var record bool
	var elapsed time.Duration

	switch r.state {
	case StateWaiting:
		r.startCountdown()
	case StateEarly:
		r.pending.Stop()
		r.pending = nil
	case StateDone:
		elapsed = r.cfg.Clock.Now().Sub(r.readyAt)
		if elapsed < 0 {
			elapsed = 0
		}
		r.elapsed = elapsed
		record = true
	}
	seq := r.seq
	snap := r.snapshot()
	r.mu.Unlock()

	if record {
		snap = r.record(seq, elapsed)
	}
	r.notify(snap)
	return snap, nil
}

// startCountdown begins a new round. Callers hold r.mu.
func (r *Round) startCountdown() {
	r.pending.Stop()
	r.seq++
	r.elapsed = 0
	r.newBest = false

	spread := int64(r.cfg.MaxDelay - r.cfg.MinDelay)
	delay := r.cfg.MinDelay
	if spread > 0 {
		delay += time.Duration(r.cfg.Int63n(spread + 1))
	}
	seq := r.seq
	r.pending = r.cfg.Clock.AfterFunc(delay, func() { r.trigger(seq) })
}

func (r *Round) trigger(seq int) {
	r.mu.Lock()
	if r.closed || seq != r.seq {
		r.mu.Unlock()
		return
	}
	next := Transition(r.state, EventTrigger)
	if next == r.state {
		r.mu.Unlock()
		return
	}
	r.state = next
	r.readyAt = r.cfg.Clock.Now()
	r.pending = nil
	snap := r.snapshot()
	r.mu.Unlock()

	r.notify(snap)
}

func (r *Round) record(seq int, elapsed time.Duration) Snapshot {
	ms := int(elapsed.Milliseconds())
	improved := scoring.RecordBest(context.Background(), r.cfg.Store, scoring.GameReaction, ms)

	r.mu.Lock()
	if improved {
		r.best, r.hasBest = ms, true
		if seq == r.seq {
			r.newBest = true
		}
	}
	snap := r.snapshot()
	r.mu.Unlock()

	if improved && r.cfg.Scores != nil {
		r.cfg.Scores.SubmitScore(scoring.GameReaction, ms)
	}
	return snap
}

func (r *Round) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Round) snapshot() Snapshot {
	s := Snapshot{
		State:   r.state,
		HasBest: r.hasBest,
		NewBest: r.newBest,
	}
	if r.state == StateDone {
		s.ElapsedMs = r.elapsed.Milliseconds()
	}
	if r.hasBest {
		s.BestMs = int64(r.best)
	}
	return s
}

// Close cancels a pending countdown; further clicks fail with ErrClosed.
func (r *Round) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.pending.Stop()
	r.pending = nil
}

func (r *Round) notify(s Snapshot) {
	if r.cfg.OnChange != nil {
		r.cfg.OnChange(s)
	}
}
