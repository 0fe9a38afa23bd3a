package session

import (
	"time"

	"arcade/internal/broadcast"
	"arcade/internal/events"
	"arcade/internal/guess"
	"arcade/internal/leaderboard"
	"arcade/internal/memorymatch"
	"arcade/internal/reaction"
	"arcade/internal/scoring"
	"arcade/internal/tictactoe"
)

// Session is one player's mounted arcade: every engine it owns, plus the bus
// their state changes flow over.
type Session struct {
	ID string
	// PlayerKey scopes personal bests: the token subject when signed in,
	// otherwise the session id. The subject is only verified when the store
	// has a SigningKey; without one a forged token can claim any player's
	// bests.
	PlayerKey string

	Memory    *memorymatch.Game
	Reaction  *reaction.Round
	Guess     *guess.Session
	TicTacToe *tictactoe.Match

	Scores      *scoring.Reporter
	Leaders     *leaderboard.Board
	Bus         *events.Bus
	Broadcaster *broadcast.Broadcaster

	CreatedAt time.Time
	lastSeen  time.Time
}

// Close unmounts the session: pending timers are cancelled and the event
// stream ends.
func (s *Session) Close() {
	s.Memory.Close()
	s.Reaction.Close()
	s.TicTacToe.Close()
	s.Bus.Close()
}

func (s *Session) publish(game scoring.Game, payload any) {
	s.Bus.Publish(events.StateChange{Game: string(game), Payload: payload})
}
