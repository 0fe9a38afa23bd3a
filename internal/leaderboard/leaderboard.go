package leaderboard

import (
	"context"
	"log"
	"sync"

	"arcade/internal/metrics"
	"arcade/internal/scoring"
)

type Status string

const (
	StatusLoading = Status("loading")
	StatusEmpty   = Status("empty")
	StatusReady   = Status("ready")
)

const EmptyMessage = "no records yet"

var medals = [...]string{"🥇", "🥈", "🥉"}

type Row struct {
	Rank      int    `json:"rank"`
	Medal     string `json:"medal,omitempty"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Score     int    `json:"score"`
}

type View struct {
	Game    scoring.Game `json:"game"`
	Status  Status       `json:"status"`
	Message string       `json:"message,omitempty"`
	Rows    []Row        `json:"rows"`
	Refresh int          `json:"refresh"`
}

type Fetcher interface {
	Leaders(ctx context.Context, game scoring.Game) ([]scoring.Leader, error)
}

// Board caches one view per game and refetches whenever the caller's refresh
// counter differs from the one the cached view was loaded with.
type Board struct {
	fetcher Fetcher

	mu    sync.Mutex
	views map[scoring.Game]View
}

func NewBoard(f Fetcher) *Board {
	return &Board{
		fetcher: f,
		views:   make(map[scoring.Game]View),
	}
}

// Current returns the cached view for game without fetching.
func (b *Board) Current(game scoring.Game) View {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.views[game]; ok {
		return v
	}
	return View{Game: game, Status: StatusLoading, Rows: []Row{}}
}

func (b *Board) Load(ctx context.Context, game scoring.Game, refresh int) View {
	b.mu.Lock()
	if v, ok := b.views[game]; ok && v.Refresh == refresh {
		b.mu.Unlock()
		return v
	}
	b.mu.Unlock()

	leaders, err := b.fetcher.Leaders(ctx, game)
	if err != nil {
		metrics.LeaderboardFetches.WithLabelValues(string(game), "failed").Inc()
		log.Printf("[Leaderboard] fetch %s failed: %v\n", game, err)
		leaders = nil
	} else {
		metrics.LeaderboardFetches.WithLabelValues(string(game), "ok").Inc()
	}

	v := Rank(game, leaders)
	v.Refresh = refresh

	b.mu.Lock()
	b.views[game] = v
	b.mu.Unlock()
	return v
}

// Rank turns leaders, in the order the service returned them, into display
// rows. The first three rows carry medals.
func Rank(game scoring.Game, leaders []scoring.Leader) View {
	v := View{Game: game, Rows: make([]Row, 0, len(leaders))}
	if len(leaders) == 0 {
		v.Status = StatusEmpty
		v.Message = EmptyMessage
		return v
	}
	v.Status = StatusReady
	for i, l := range leaders {
		row := Row{
			Rank:      i + 1,
			Name:      l.Name,
			AvatarURL: l.AvatarURL,
			Score:     l.Score,
		}
		if i < len(medals) {
			row.Medal = medals[i]
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
