package scoring

type Game string

const (
	GameMemory    Game = "memory"
	GameReaction  Game = "reaction"
	GameGuess     Game = "guess"
	GameTicTacToe Game = "tictactoe"
)

var AllGames = []Game{GameMemory, GameReaction, GameGuess, GameTicTacToe}

func ParseGame(s string) (Game, bool) {
	for _, g := range AllGames {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// LowerIsBetter reports the game's ranking direction: fewer moves, fewer
// milliseconds and fewer attempts win; tic-tac-toe ranks by wins.
func (g Game) LowerIsBetter() bool {
	return g != GameTicTacToe
}

// Better reports whether score a strictly beats score b.
func (g Game) Better(a, b int) bool {
	if g.LowerIsBetter() {
		return a < b
	}
	return a > b
}

// BestKey is the personal-best key for the game in a kv.Store.
func (g Game) BestKey() string {
	return string(g) + "_best"
}
