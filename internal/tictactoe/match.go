package tictactoe

import (
	"errors"
	"sync"
	"time"

	"arcade/internal/clock"
	"arcade/internal/scoring"
)

const DefaultBotDelay = 400 * time.Millisecond

var (
	ErrOutOfRange  = errors.New("no such cell")
	ErrOccupied    = errors.New("cell is taken")
	ErrNotYourTurn = errors.New("wait for the bot")
	ErrFinished    = errors.New("round is over")
	ErrClosed      = errors.New("match is closed")
)

// Scores live as long as the Match; Reset keeps them.
type Scores struct {
	You  int `json:"you"`
	Bot  int `json:"bot"`
	Draw int `json:"draw"`
}

type State struct {
	Board    Board   `json:"board"`
	YourTurn bool    `json:"your_turn"`
	Outcome  Outcome `json:"outcome"`
	Win      *Win    `json:"win,omitempty"`
	Scores   Scores  `json:"scores"`
}

type Config struct {
	BotDelay time.Duration
	Clock    clock.Clock
	Intn     func(n int) int
	Scores   scoring.Submitter
	OnChange func(State)
}

// Match is a human (X) against the bot (O). The human always opens.
type Match struct {
	mu        sync.Mutex
	cfg       Config
	board     Board
	humanTurn bool
	scores    Scores
	seq       int
	pending   clock.Cancel
	closed    bool
}

func NewMatch(cfg Config) *Match {
	if cfg.BotDelay <= 0 {
		cfg.BotDelay = DefaultBotDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &Match{cfg: cfg, humanTurn: true}
}

func (m *Match) Play(i int) (State, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return State{}, ErrClosed
	}
	if Evaluate(m.board) != InProgress {
		m.mu.Unlock()
		return State{}, ErrFinished
	}
	if !m.humanTurn {
		m.mu.Unlock()
		return State{}, ErrNotYourTurn
	}
	if i < 0 || i >= len(m.board) {
		m.mu.Unlock()
		return State{}, ErrOutOfRange
	}
	if m.board[i] != Empty {
		m.mu.Unlock()
		return State{}, ErrOccupied
	}

	m.board[i] = X
	submit := false
	switch Evaluate(m.board) {
	case XWins:
		m.scores.You++
		submit = true
	case Draw:
		m.scores.Draw++
	default:
		m.humanTurn = false
		seq := m.seq
		m.pending = m.cfg.Clock.AfterFunc(m.cfg.BotDelay, func() { m.botTurn(seq) })
	}
	wins := m.scores.You
	st := m.state()
	m.mu.Unlock()

	if submit && m.cfg.Scores != nil {
		m.cfg.Scores.SubmitScore(scoring.GameTicTacToe, wins)
	}
	m.notify(st)
	return st, nil
}

func (m *Match) botTurn(seq int) {
	m.mu.Lock()
	if m.closed || seq != m.seq || Evaluate(m.board) != InProgress {
		m.mu.Unlock()
		return
	}
	if i := BotMove(m.board, O, m.cfg.Intn); i >= 0 {
		m.board[i] = O
	}
	switch Evaluate(m.board) {
	case OWins:
		m.scores.Bot++
	case Draw:
		m.scores.Draw++
	}
	m.humanTurn = true
	m.pending = nil
	st := m.state()
	m.mu.Unlock()

	m.notify(st)
}

// Reset clears the board for another round; scores are kept.
func (m *Match) Reset() State {
	m.mu.Lock()
	m.pending.Stop()
	m.pending = nil
	m.seq++
	m.board = Board{}
	m.humanTurn = true
	st := m.state()
	m.mu.Unlock()

	m.notify(st)
	return st
}

func (m *Match) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state()
}

func (m *Match) state() State {
	st := State{
		Board:   m.board,
		Outcome: Evaluate(m.board),
		Scores:  m.scores,
	}
	st.YourTurn = m.humanTurn && st.Outcome == InProgress
	if w, ok := CheckWinner(m.board); ok {
		st.Win = &w
	}
	return st
}

// Close cancels a pending bot move.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.pending.Stop()
	m.pending = nil
}

func (m *Match) notify(st State) {
	if m.cfg.OnChange != nil {
		m.cfg.OnChange(st)
	}
}
