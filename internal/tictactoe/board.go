package tictactoe

import "math/rand"

type Mark string

const (
	Empty = Mark("")
	X     = Mark("X")
	O     = Mark("O")
)

func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

type Board [9]Mark

// Lines are the 8 ways to win: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

var (
	center  = 4
	corners = [...]int{0, 2, 6, 8}
)

type Win struct {
	Winner Mark   `json:"winner"`
	Line   [3]int `json:"line"`
}

// CheckWinner returns the first fully owned line, scanning Lines in order.
func CheckWinner(b Board) (Win, bool) {
	for _, l := range Lines {
		m := b[l[0]]
		if m != Empty && b[l[1]] == m && b[l[2]] == m {
			return Win{Winner: m, Line: l}, true
		}
	}
	return Win{}, false
}

func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

func (b Board) free(cells []int) []int {
	var out []int
	for _, i := range cells {
		if b[i] == Empty {
			out = append(out, i)
		}
	}
	return out
}

type Outcome string

const (
	InProgress = Outcome("in_progress")
	XWins      = Outcome("x_wins")
	OWins      = Outcome("o_wins")
	Draw       = Outcome("draw")
)

func Evaluate(b Board) Outcome {
	if w, ok := CheckWinner(b); ok {
		if w.Winner == X {
			return XWins
		}
		return OWins
	}
	if b.Full() {
		return Draw
	}
	return InProgress
}

// WinningMove returns an empty cell that completes a line for m, or -1.
func WinningMove(b Board, m Mark) int {
	for i := range b {
		if b[i] != Empty {
			continue
		}
		b[i] = m
		_, won := CheckWinner(b)
		b[i] = Empty
		if won {
			return i
		}
	}
	return -1
}

// BotMove picks a cell for bot: win if possible, else block the opponent,
// else the center, else a random free corner, else a random free cell.
// It returns -1 on a full board. intn defaults to math/rand.
func BotMove(b Board, bot Mark, intn func(int) int) int {
	if intn == nil {
		intn = rand.Intn
	}
	if i := WinningMove(b, bot); i >= 0 {
		return i
	}
	if i := WinningMove(b, bot.Opponent()); i >= 0 {
		return i
	}
	if b[center] == Empty {
		return center
	}
	if free := b.free(corners[:]); len(free) > 0 {
		return free[intn(len(free))]
	}
	all := make([]int, len(b))
	for i := range all {
		all[i] = i
	}
	if free := b.free(all); len(free) > 0 {
		return free[intn(len(free))]
	}
	return -1
}
