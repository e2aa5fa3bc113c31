package searcher

import (
	"context"
	"searchkit/game"
	"searchkit/puzzle"
	"testing"

	"github.com/stretchr/testify/require"
)

func level(t *testing.T, text string) *puzzle.State {
	t.Helper()
	l, err := puzzle.ParseLevel(text)
	require.NoError(t, err)
	return l.Start()
}

// solvedNim is a puzzle already at its goal that still offers moves.
type solvedNim struct {
	*nim
}

func (s solvedNim) Clone() game.State { return solvedNim{s.nim.Clone().(*nim)} }
func (solvedNim) IsTerminal() bool { return true }
func (solvedNim) Heuristic() int { return 0 }
func (solvedNim) Deadlocked() bool { return false }
func (solvedNim) Placed() int { return 1 }

func TestAStar(t *testing.T) {
	t.Run("one push on open floor", func(t *testing.T) {
		s := level(t, "  @  \n  $  \n  .  \n     \n     ")
		require.Equal(t, 5, s.Level().Height())
		require.Equal(t, 5, s.Level().Width())

		move, metric := NewAStar().Search(s, nil)

		require.Equal(t, puzzle.Down, move)
		require.Len(t, metric.Path, 1, "Box is one push from its goal")
		require.NoError(t, s.Play(metric.Path))
		require.True(t, s.IsTerminal())
	})

	t.Run("one push", func(t *testing.T) {
		s := level(t, "#####\n#@$.#\n#####")

		move, metric := NewAStar().Search(s, nil)

		require.Equal(t, puzzle.Right, move)
		require.Equal(t, []game.Move{puzzle.Right}, metric.Path)
		require.Equal(t, 1.0, metric.Score, "Score of a solution is its length")
	})

	t.Run("walks then pushes", func(t *testing.T) {
		s := level(t, "#######\n#@ $ .#\n#######")

		move, metric := NewAStar().Search(s, nil)

		require.Equal(t, puzzle.Right, move)
		require.Equal(t, []game.Move{puzzle.Right, puzzle.Right, puzzle.Right}, metric.Path)
		require.False(t, metric.TimedOut)
	})

	t.Run("replaying the path solves the level", func(t *testing.T) {
		s := level(t, "######\n#    #\n# $@ #\n#.   #\n######")

		_, metric := NewAStar().Search(s, nil)

		require.NotEmpty(t, metric.Path)
		require.NoError(t, s.Play(metric.Path))
		require.True(t, s.IsTerminal(), "Path should end on a solved state\n%s", s)
	})

	t.Run("unsolvable level falls back to the best state", func(t *testing.T) {
		s := level(t, "#####\n#$@.#\n#####")

		move, metric := NewAStar().Search(s, nil)

		require.Equal(t, puzzle.Right, move)
		require.Equal(t, []game.Move{puzzle.Right}, metric.Path)
		require.Equal(t, -1002.0, metric.Score, "Two steps away and deadlocked")
	})

	t.Run("expansion limit returns the best step so far", func(t *testing.T) {
		s := level(t, "#######\n#@ $ .#\n#######")

		move, metric := NewAStar(WithMaxExpansions(1)).Search(s, nil)

		require.Equal(t, puzzle.Right, move)
		require.Equal(t, int64(1), metric.Nodes)
		require.Len(t, metric.Path, 1)
	})

	t.Run("expired budget returns a legal move", func(t *testing.T) {
		s := level(t, "#######\n#@ $ .#\n#######")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		move, metric := NewAStar().Search(s, NewBudget(ctx, 0))

		require.Contains(t, s.LegalMoves(), move)
		require.True(t, metric.TimedOut)
	})

	t.Run("states without a heuristic get the first legal move", func(t *testing.T) {
		move, _ := NewAStar().Search(newNim(5), nil)
		require.Equal(t, take(1), move)
	})

	t.Run("a solved root returns an empty path", func(t *testing.T) {
		move, metric := NewAStar().Search(solvedNim{newNim(5)}, nil)

		require.Equal(t, take(1), move, "Any legal move will do")
		require.NotNil(t, metric.Path)
		require.Empty(t, metric.Path)
		require.Zero(t, metric.Score)
	})

	t.Run("the caller's state is left alone", func(t *testing.T) {
		s := level(t, "#######\n#@ $ .#\n#######")
		key := s.Key()

		NewAStar().Search(s, nil)

		require.Equal(t, key, s.Key())
	})
}
