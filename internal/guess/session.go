package guess

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"arcade/internal/scoring"
)

const (
	Min = 1
	Max = 100

	// FarThreshold is the distance beyond which the hint gets stronger.
	FarThreshold = 20
	// RecentLimit caps the history returned for display.
	RecentLimit = 8
)

type Hint string

const (
	HintCorrect    = Hint("correct")
	HintHigher     = Hint("higher")
	HintMuchHigher = Hint("much higher")
	HintLower      = Hint("lower")
	HintMuchLower  = Hint("much lower")
	HintInvalid    = Hint("enter a number from 1 to 100")
)

var ErrFinished = errors.New("number already guessed, start a new game")

type Entry struct {
	Guess int  `json:"guess"`
	Hint  Hint `json:"hint"`
}

type State struct {
	Attempts int     `json:"attempts"`
	Won      bool    `json:"won"`
	LastHint Hint    `json:"last_hint,omitempty"`
	Recent   []Entry `json:"recent"`
	// Secret is revealed once the number is found.
	Secret int `json:"secret,omitempty"`
}

type Config struct {
	// Intn draws the secret as Min + Intn(Max-Min+1). Defaults to math/rand.
	Intn     func(n int) int
	Scores   scoring.Submitter
	OnChange func(State)
}

type Session struct {
	mu       sync.Mutex
	cfg      Config
	secret   int
	attempts int
	history  []Entry
	won      bool
	lastHint Hint
}

func New(cfg Config) *Session {
	if cfg.Intn == nil {
		cfg.Intn = rand.Intn
	}
	s := &Session{cfg: cfg}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.secret = Min + s.cfg.Intn(Max-Min+1)
	s.attempts = 0
	s.history = nil
	s.won = false
	s.lastHint = ""
}

func (s *Session) Reset() State {
	s.mu.Lock()
	s.reset()
	st := s.state()
	s.mu.Unlock()

	s.notify(st)
	return st
}

// HintFor classifies guess g against secret.
func HintFor(secret, g int) Hint {
	switch d := secret - g; {
	case d == 0:
		return HintCorrect
	case d > FarThreshold:
		return HintMuchHigher
	case d > 0:
		return HintHigher
	case -d > FarThreshold:
		return HintMuchLower
	default:
		return HintLower
	}
}

// Guess validates input and scores it against the secret. Invalid input
// produces HintInvalid without spending an attempt. Once the number is found
// the round is over: further guesses return ErrFinished with the final state
// until Reset draws a new secret.
func (s *Session) Guess(input string) (State, error) {
	s.mu.Lock()
	if s.won {
		st := s.state()
		s.mu.Unlock()
		return st, ErrFinished
	}

	g, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || g < Min || g > Max {
		s.lastHint = HintInvalid
		st := s.state()
		s.mu.Unlock()
		s.notify(st)
		return st, nil
	}

	s.attempts++
	hint := HintFor(s.secret, g)
	s.lastHint = hint
	if hint == HintCorrect {
		s.won = true
	} else {
		s.history = append([]Entry{{Guess: g, Hint: hint}}, s.history...)
	}
	attempts := s.attempts
	st := s.state()
	s.mu.Unlock()

	if st.Won && s.cfg.Scores != nil {
		s.cfg.Scores.SubmitScore(scoring.GameGuess, attempts)
	}
	s.notify(st)
	return st, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// History returns every non-winning guess, most recent first.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.history...)
}

func (s *Session) state() State {
	n := len(s.history)
	if n > RecentLimit {
		n = RecentLimit
	}
	st := State{
		Attempts: s.attempts,
		Won:      s.won,
		LastHint: s.lastHint,
		Recent:   append([]Entry{}, s.history[:n]...),
	}
	if s.won {
		st.Secret = s.secret
	}
	return st
}

func (s *Session) notify(st State) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(st)
	}
}
