package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"arcade/internal/auth"
	"arcade/internal/broadcast"
	"arcade/internal/clock"
	"arcade/internal/events"
	"arcade/internal/guess"
	"arcade/internal/kv"
	"arcade/internal/leaderboard"
	"arcade/internal/memorymatch"
	"arcade/internal/metrics"
	"arcade/internal/reaction"
	"arcade/internal/scoring"
	"arcade/internal/tictactoe"
)

const (
	DefaultTTL    = 1 * time.Hour
	sweepInterval = 5 * time.Minute
)

type Config struct {
	TTL   time.Duration
	Clock clock.Clock
	// Bests backs personal bests for every player.
	Bests kv.Store
	// SigningKey verifies bearer tokens before their subject becomes the
	// player key. Without it the subject is read unverified.
	SigningKey []byte
	// NewScores builds the score writer for a player's credential.
	NewScores func(token auth.StaticToken) scoring.Writer
	Leaders   leaderboard.Fetcher
	// ScoreTimeout bounds each background score submission.
	ScoreTimeout time.Duration
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
}

func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Bests == nil {
		cfg.Bests = kv.NewMemory()
	}
	if cfg.Leaders == nil {
		cfg.Leaders = noLeaders{}
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = 10 * time.Second
	}
	s := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
	go s.sweepStale()
	return s
}

// Create mounts a new session for the holder of token, which may be empty.
func (s *Store) Create(token auth.StaticToken) *Session {
	id := uuid.NewString()
	key := auth.VerifiedSubject(token.Token(), s.cfg.SigningKey)
	if key == "" {
		key = id
	}

	var w scoring.Writer = noWriter{}
	if s.cfg.NewScores != nil {
		w = s.cfg.NewScores(token)
	}
	bests := kv.Scoped(s.cfg.Bests, key)
	now := s.cfg.Clock.Now()

	bus := events.NewBus()
	sess := &Session{
		ID:          id,
		PlayerKey:   key,
		Scores:      scoring.NewReporter(w, s.cfg.ScoreTimeout),
		Leaders:     leaderboard.NewBoard(s.cfg.Leaders),
		Bus:         bus,
		Broadcaster: broadcast.NewBroadcaster(bus),
		CreatedAt:   now,
		lastSeen:    now,
	}

	sess.Memory = memorymatch.New(memorymatch.Config{
		Clock:    s.cfg.Clock,
		Store:    bests,
		Scores:   sess.Scores,
		OnChange: func(st memorymatch.State) { sess.publish(scoring.GameMemory, st) },
	})
	sess.Reaction = reaction.New(reaction.Config{
		Clock:    s.cfg.Clock,
		Store:    bests,
		Scores:   sess.Scores,
		OnChange: func(st reaction.Snapshot) { sess.publish(scoring.GameReaction, st) },
	})
	sess.Guess = guess.New(guess.Config{
		Scores:   sess.Scores,
		OnChange: func(st guess.State) { sess.publish(scoring.GameGuess, st) },
	})
	sess.TicTacToe = tictactoe.NewMatch(tictactoe.Config{
		Clock:    s.cfg.Clock,
		Scores:   sess.Scores,
		OnChange: func(st tictactoe.State) { sess.publish(scoring.GameTicTacToe, st) },
	})

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()
	return sess
}

// Get returns the session and marks it as seen, or nil if there is none.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	if sess != nil {
		sess.lastSeen = s.cfg.Clock.Now()
	}
	return sess
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Close()
		metrics.ActiveSessions.Dec()
	}
}

func (s *Store) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	return list
}

// Sweep closes sessions idle for longer than the TTL and reports how many
// it removed.
func (s *Store) Sweep() int {
	now := s.cfg.Clock.Now()
	var stale []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.cfg.TTL {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.Close()
		metrics.ActiveSessions.Dec()
	}
	if len(stale) > 0 {
		log.Printf("[Session] swept %d stale sessions\n", len(stale))
	}
	return len(stale)
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.Sweep()
	}
}

type noWriter struct{}

func (noWriter) Submit(ctx context.Context, game scoring.Game, score int) error {
	return scoring.ErrNoCredential
}

type noLeaders struct{}

func (noLeaders) Leaders(ctx context.Context, game scoring.Game) ([]scoring.Leader, error) {
	return nil, nil
}
