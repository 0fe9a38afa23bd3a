package memorymatch

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

type Symbol string

const (
	MaxSymbols         = 8
	DefaultReflipDelay = 900 * time.Millisecond
)

var DefaultSymbols = []Symbol{"🍎", "🍌", "🍒", "🍇", "🍉", "🍋", "🥝", "🍑"}

var (
	ErrOutOfRange = errors.New("no such card")
	ErrBusy       = errors.New("two cards are already face up")
	ErrRevealed   = errors.New("card is already face up")
	ErrClosed     = errors.New("game is closed")
)

type Card struct {
	ID      int    `json:"id"`
	Symbol  Symbol `json:"symbol,omitempty"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// State is a snapshot safe to hand to a player: face-down cards carry no
// symbol.
type State struct {
	Cards   []Card `json:"cards"`
	Moves   int    `json:"moves"`
	Won     bool   `json:"won"`
	Best    int    `json:"best,omitempty"`
	HasBest bool   `json:"has_best"`
	NewBest bool   `json:"new_best"`
}

type Config struct {
	Symbols     []Symbol
	ReflipDelay time.Duration
	Clock       clock.Clock
	// Shuffle permutes the deck in place. Defaults to math/rand's
	// Fisher-Yates shuffle.
	Shuffle  func([]Symbol)
	Store    kv.Store
	Scores   scoring.Submitter
	OnChange func(State)
}

type Game struct {
	mu       sync.Mutex
	cfg      Config
	cards    []Card
	selected []int
	moves    int
	won      bool
	best     int
	hasBest  bool
	newBest  bool
	round    int
	reflip   clock.Cancel
	closed   bool
}

func New(cfg Config) *Game {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols
	}
	if len(cfg.Symbols) > MaxSymbols {
		cfg.Symbols = cfg.Symbols[:MaxSymbols]
	}
	if cfg.ReflipDelay <= 0 {
		cfg.ReflipDelay = DefaultReflipDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Shuffle == nil {
		cfg.Shuffle = func(deck []Symbol) {
			rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
		}
	}
	if cfg.Store == nil {
		cfg.Store = kv.NewMemory()
	}

	g := &Game{cfg: cfg}
	g.best, g.hasBest = scoring.LoadBest(context.Background(), cfg.Store, scoring.GameMemory)
	g.deal()
	return g
}

// deal discards the board and starts a new round. Callers hold g.mu.
func (g *Game) deal() {
	g.reflip.Stop()
	g.reflip = nil
	g.round++

	deck := make([]Symbol, 0, 2*len(g.cfg.Symbols))
	for _, s := range g.cfg.Symbols {
		deck = append(deck, s, s)
	}
	g.cfg.Shuffle(deck)

	g.cards = make([]Card, len(deck))
	for i, s := range deck {
		g.cards[i] = Card{ID: i, Symbol: s}
	}
	g.selected = g.selected[:0]
	g.moves = 0
	g.won = false
	g.newBest = false
}

func (g *Game) Reset() State {
	g.mu.Lock()
	g.deal()
	st := g.state()
	g.mu.Unlock()

	g.notify(st)
	return st
}

func (g *Game) Flip(i int) (State, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return State{}, ErrClosed
	}
	if i < 0 || i >= len(g.cards) {
		g.mu.Unlock()
		return State{}, ErrOutOfRange
	}
	if len(g.selected) == 2 {
		g.mu.Unlock()
		return State{}, ErrBusy
	}
	if c := g.cards[i]; c.Flipped || c.Matched {
		g.mu.Unlock()
		return State{}, ErrRevealed
	}

	g.cards[i].Flipped = true
	g.selected = append(g.selected, i)
	won := false
	if len(g.selected) == 2 {
		g.moves++
		won = g.resolve()
	}
	moves, round := g.moves, g.round
	st := g.state()
	g.mu.Unlock()

	if won {
		st = g.finish(round, moves)
	}
	g.notify(st)
	return st, nil
}

// resolve evaluates a full selection buffer exactly once. A match clears the
// buffer immediately; a mismatch schedules the reflip. Callers hold g.mu.
func (g *Game) resolve() bool {
	a, b := g.selected[0], g.selected[1]
	if g.cards[a].Symbol == g.cards[b].Symbol {
		g.cards[a].Matched = true
		g.cards[b].Matched = true
		g.selected = g.selected[:0]
		for _, c := range g.cards {
			if !c.Matched {
				return false
			}
		}
		g.won = true
		return true
	}

	round := g.round
	g.reflip = g.cfg.Clock.AfterFunc(g.cfg.ReflipDelay, func() { g.flipBack(round, a, b) })
	return false
}

func (g *Game) flipBack(round, a, b int) {
	g.mu.Lock()
	if g.closed || round != g.round || len(g.selected) != 2 {
		g.mu.Unlock()
		return
	}
	g.cards[a].Flipped = false
	g.cards[b].Flipped = false
	g.selected = g.selected[:0]
	g.reflip = nil
	st := g.state()
	g.mu.Unlock()

	g.notify(st)
}

func (g *Game) finish(round, moves int) State {
	improved := scoring.RecordBest(context.Background(), g.cfg.Store, scoring.GameMemory, moves)

	g.mu.Lock()
	if improved {
		g.best, g.hasBest = moves, true
		if round == g.round {
			g.newBest = true
		}
	}
	st := g.state()
	g.mu.Unlock()

	if improved && g.cfg.Scores != nil {
		g.cfg.Scores.SubmitScore(scoring.GameMemory, moves)
	}
	return st
}

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state()
}

func (g *Game) state() State {
	cards := make([]Card, len(g.cards))
	for i, c := range g.cards {
		if !c.Flipped && !c.Matched {
			c.Symbol = ""
		}
		cards[i] = c
	}
	return State{
		Cards:   cards,
		Moves:   g.moves,
		Won:     g.won,
		Best:    g.best,
		HasBest: g.hasBest,
		NewBest: g.newBest,
	}
}

// Close cancels the pending reflip; the game accepts no further flips.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.reflip.Stop()
	g.reflip = nil
}

func (g *Game) notify(st State) {
	if g.cfg.OnChange != nil {
		g.cfg.OnChange(st)
	}
}
