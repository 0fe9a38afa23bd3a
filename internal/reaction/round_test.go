package reaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arcade/internal/clock"
	"arcade/internal/kv"
	"arcade/internal/scoring"
)

type recorder struct {
	mu     sync.Mutex
	scores []int
}

func (r *recorder) SubmitScore(game scoring.Game, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, score)
}

// newTestRound uses a fixed 3s countdown.
func newTestRound(store kv.Store) (*Round, *clock.Fake, *recorder) {
	c := clock.NewFake(time.Unix(100, 0))
	rec := &recorder{}
	r := New(Config{
		Clock:  c,
		Int63n: func(int64) int64 { return int64(time.Second) },
		Store:  store,
		Scores: rec,
	})
	return r, c, rec
}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		from State
		ev   Event
		want State
	}{
		{StateIdle, EventClick, StateWaiting},
		{StateDone, EventClick, StateWaiting},
		{StateEarly, EventClick, StateWaiting},
		{StateWaiting, EventClick, StateEarly},
		{StateReady, EventClick, StateDone},
		{StateWaiting, EventTrigger, StateReady},
		{StateIdle, EventTrigger, StateIdle},
		{StateEarly, EventTrigger, StateEarly},
		{StateDone, EventTrigger, StateDone},
		{StateReady, EventTrigger, StateReady},
	}
	for _, tt := range tests {
		if got := Transition(tt.from, tt.ev); got != tt.want {
			t.Errorf("Transition(%s, %s) = %s, want %s", tt.from, tt.ev, got, tt.want)
		}
	}
}

func TestRound_FullRound(t *testing.T) {
	r, c, rec := newTestRound(kv.NewMemory())

	snap, _ := r.Click()
	if snap.State != StateWaiting {
		t.Fatalf("state = %s, want waiting", snap.State)
	}

	c.Advance(3 * time.Second)
	if r.Snapshot().State != StateReady {
		t.Fatalf("state = %s, want ready", r.Snapshot().State)
	}

	c.Advance(250 * time.Millisecond)
	snap, _ = r.Click()
	if snap.State != StateDone {
		t.Fatalf("state = %s, want done", snap.State)
	}
	if snap.ElapsedMs != 250 {
		t.Errorf("ElapsedMs = %d, want 250", snap.ElapsedMs)
	}
	if !snap.NewBest || snap.BestMs != 250 {
		t.Errorf("best = %d (new=%v), want 250 (new=true)", snap.BestMs, snap.NewBest)
	}
	if len(rec.scores) != 1 || rec.scores[0] != 250 {
		t.Errorf("submitted = %v, want [250]", rec.scores)
	}
}

func TestRound_EarlyClick(t *testing.T) {
	store := kv.NewMemory()
	r, c, rec := newTestRound(store)

	r.Click()
	c.Advance(time.Second)
	snap, _ := r.Click()
	if snap.State != StateEarly {
		t.Fatalf("state = %s, want early", snap.State)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after early click", c.Pending())
	}

	c.Advance(10 * time.Second)
	if r.Snapshot().State != StateEarly {
		t.Errorf("state = %s, a cancelled countdown must not reach ready", r.Snapshot().State)
	}
	if len(rec.scores) != 0 {
		t.Errorf("submitted = %v, want none", rec.scores)
	}
	if _, ok, _ := store.Get(context.Background(), scoring.GameReaction.BestKey()); ok {
		t.Error("early click must not store a best")
	}
}

func TestRound_BestOnlyOnStrictImprovement(t *testing.T) {
	r, c, rec := newTestRound(kv.NewMemory())

	play := func(ms int) Snapshot {
		r.Click()
		c.Advance(3 * time.Second)
		c.Advance(time.Duration(ms) * time.Millisecond)
		snap, _ := r.Click()
		return snap
	}

	play(300)
	if snap := play(300); snap.NewBest {
		t.Error("equal time should not be a new best")
	}
	if snap := play(400); snap.NewBest || snap.BestMs != 300 {
		t.Errorf("slower time changed best: %+v", snap)
	}
	if snap := play(200); !snap.NewBest || snap.BestMs != 200 {
		t.Errorf("faster time should be new best: %+v", snap)
	}
	if len(rec.scores) != 2 {
		t.Errorf("submitted = %v, want [300 200]", rec.scores)
	}
}

func TestRound_RestartFromDoneAndEarly(t *testing.T) {
	r, c, _ := newTestRound(kv.NewMemory())

	r.Click()
	r.Click()
	if snap, _ := r.Click(); snap.State != StateWaiting {
		t.Errorf("click from early = %s, want waiting", snap.State)
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
}

func TestRound_DelayWithinBounds(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	var spread int64
	r := New(Config{
		Clock:  c,
		Int63n: func(n int64) int64 { spread = n; return n - 1 },
	})
	r.Click()

	if time.Duration(spread-1) != DefaultMaxDelay-DefaultMinDelay {
		t.Errorf("spread = %v, want %v", time.Duration(spread-1), DefaultMaxDelay-DefaultMinDelay)
	}
	c.Advance(DefaultMaxDelay - time.Nanosecond)
	if r.Snapshot().State != StateWaiting {
		t.Error("ready fired before the drawn delay")
	}
	c.Advance(time.Nanosecond)
	if r.Snapshot().State != StateReady {
		t.Error("ready should fire at the max delay")
	}
}

func TestRound_CloseCancelsCountdown(t *testing.T) {
	r, c, _ := newTestRound(kv.NewMemory())
	r.Click()
	r.Close()

	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
	if _, err := r.Click(); !errors.Is(err, ErrClosed) {
		t.Errorf("Click after Close error = %v, want ErrClosed", err)
	}
}
