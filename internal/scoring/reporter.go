package scoring

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"arcade/internal/kv"
	"arcade/internal/metrics"
)

// Submitter is what the game engines report finished scores to.
type Submitter interface {
	SubmitScore(game Game, score int)
}

// Writer is the write half of the scoring service.
type Writer interface {
	Submit(ctx context.Context, game Game, score int) error
}

// Reporter is the best-effort Submitter: each write runs in the background,
// failures are logged and counted, and nothing is returned to the game.
// Once an attempt finishes, the game's refresh counter is bumped so
// leaderboards reload.
type Reporter struct {
	w       Writer
	timeout time.Duration

	mu      sync.Mutex
	refresh map[Game]int
	wg      sync.WaitGroup
}

func NewReporter(w Writer, timeout time.Duration) *Reporter {
	return &Reporter{
		w:       w,
		timeout: timeout,
		refresh: make(map[Game]int),
	}
}

func (r *Reporter) SubmitScore(game Game, score int) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		err := r.w.Submit(ctx, game, score)
		switch {
		case err == nil:
			metrics.ScoreSubmissions.WithLabelValues(string(game), "ok").Inc()
		case errors.Is(err, ErrNoCredential):
			metrics.ScoreSubmissions.WithLabelValues(string(game), "skipped").Inc()
		default:
			metrics.ScoreSubmissions.WithLabelValues(string(game), "failed").Inc()
			log.Printf("[Scores] submit %s=%d failed: %v\n", game, score, err)
		}

		r.mu.Lock()
		r.refresh[game]++
		r.mu.Unlock()
	}()
}

// Refresh returns the game's refresh counter.
func (r *Reporter) Refresh(game Game) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refresh[game]
}

// Wait blocks until every in-flight submission has finished.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

// RecordBest stores value as the personal best for game when there is no
// stored best or value strictly beats it, and reports whether it did.
// An unreadable store counts as "no best yet"; a failed write is logged but
// still reports the improvement.
func RecordBest(ctx context.Context, store kv.Store, game Game, value int) bool {
	key := game.BestKey()
	prev, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Printf("[Scores] reading %s: %v\n", key, err)
		ok = false
	}
	if ok && !game.Better(value, prev) {
		return false
	}
	if err := store.Set(ctx, key, value); err != nil {
		log.Printf("[Scores] writing %s: %v\n", key, err)
	}
	return true
}

// LoadBest reads the personal best for game, treating errors as absent.
func LoadBest(ctx context.Context, store kv.Store, game Game) (int, bool) {
	v, ok, err := store.Get(ctx, game.BestKey())
	if err != nil {
		log.Printf("[Scores] reading %s: %v\n", game.BestKey(), err)
		return 0, false
	}
	return v, ok
}
