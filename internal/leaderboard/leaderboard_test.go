package leaderboard

import (
	"context"
	"errors"
	"testing"

	"arcade/internal/scoring"
)

type stubFetcher struct {
	calls   int
	leaders []scoring.Leader
	err     error
}

func (s *stubFetcher) Leaders(ctx context.Context, game scoring.Game) ([]scoring.Leader, error) {
	s.calls++
	return s.leaders, s.err
}

func TestRank_Medals(t *testing.T) {
	leaders := []scoring.Leader{
		{Name: "Ann", Score: 4},
		{Name: "Bo", Score: 5},
		{Name: "Cy", Score: 6},
		{Name: "Di", Score: 9},
	}
	v := Rank(scoring.GameMemory, leaders)

	if v.Status != StatusReady {
		t.Fatalf("Status = %q, want %q", v.Status, StatusReady)
	}
	want := []string{"🥇", "🥈", "🥉", ""}
	for i, row := range v.Rows {
		if row.Rank != i+1 {
			t.Errorf("row %d rank = %d", i, row.Rank)
		}
		if row.Medal != want[i] {
			t.Errorf("row %d medal = %q, want %q", i, row.Medal, want[i])
		}
		if row.Name != leaders[i].Name {
			t.Errorf("row %d name = %q, want service order %q", i, row.Name, leaders[i].Name)
		}
	}
}

func TestRank_Empty(t *testing.T) {
	v := Rank(scoring.GameGuess, nil)
	if v.Status != StatusEmpty {
		t.Errorf("Status = %q, want %q", v.Status, StatusEmpty)
	}
	if v.Message != EmptyMessage {
		t.Errorf("Message = %q, want %q", v.Message, EmptyMessage)
	}
}

func TestBoard_CurrentBeforeLoad(t *testing.T) {
	b := NewBoard(&stubFetcher{})
	if v := b.Current(scoring.GameReaction); v.Status != StatusLoading {
		t.Errorf("Status = %q, want %q", v.Status, StatusLoading)
	}
}

func TestBoard_RefetchesOnlyWhenRefreshChanges(t *testing.T) {
	f := &stubFetcher{leaders: []scoring.Leader{{Name: "Ann", Score: 3}}}
	b := NewBoard(f)
	ctx := context.Background()

	b.Load(ctx, scoring.GameTicTacToe, 0)
	b.Load(ctx, scoring.GameTicTacToe, 0)
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}

	b.Load(ctx, scoring.GameTicTacToe, 1)
	if f.calls != 2 {
		t.Errorf("calls after refresh bump = %d, want 2", f.calls)
	}
	if v := b.Current(scoring.GameTicTacToe); v.Refresh != 1 {
		t.Errorf("cached Refresh = %d, want 1", v.Refresh)
	}
}

func TestBoard_FetchErrorRendersEmpty(t *testing.T) {
	b := NewBoard(&stubFetcher{err: errors.New("unreachable")})
	v := b.Load(context.Background(), scoring.GameMemory, 0)
	if v.Status != StatusEmpty {
		t.Errorf("Status = %q, want %q", v.Status, StatusEmpty)
	}
	if v.Rows == nil {
		t.Error("Rows should be an empty slice, not nil")
	}
}
