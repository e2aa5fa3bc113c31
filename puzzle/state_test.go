package puzzle

import (
	"searchkit/game"
	"strings"
	"testing"

	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/require"
)

const oneStep = `
#####
#@$.#
#   #
#   #
#####
`

func parse(t *testing.T, text string) *State {
	t.Helper()
	l, err := ParseLevel(text)
	require.NoError(t, err)
	return l.Start()
}

func TestParseLevel(t *testing.T) {
	t.Run("one step level", func(t *testing.T) {
		s := parse(t, oneStep)

		require.Equal(t, 5, s.Level().Width())
		require.Equal(t, 5, s.Level().Height())
		require.Equal(t, Point{X: 1, Y: 1}, s.Mover())
		require.Equal(t, []Point{{X: 2, Y: 1}}, s.Boxes())
		require.True(t, s.Level().IsGoal(Point{X: 3, Y: 1}))
		require.Equal(t, oneStep[1:], s.String(), "Rendering should round trip")
	})

	t.Run("rows of floor are kept", func(t *testing.T) {
		s := parse(t, "     \n $   \n .   \n     \n    @")

		require.Equal(t, 5, s.Level().Height())
		require.Equal(t, 5, s.Level().Width())
		require.Equal(t, []Point{{X: 1, Y: 1}}, s.Boxes())
		require.Equal(t, Point{X: 4, Y: 4}, s.Mover())
		require.Equal(t, 1, s.Heuristic(), "Box sits right above its goal")
	})

	t.Run("malformed levels", func(t *testing.T) {
		_, err := ParseLevel("#####\n#$ .#\n#####")
		require.ErrorIs(t, err, ErrLevel, "Missing mover")
		_, err = ParseLevel("#####\n#@  #\n#####")
		require.ErrorIs(t, err, ErrLevel, "No boxes")
		_, err = ParseLevel("#####\n#@$$.#\n#####")
		require.ErrorIs(t, err, ErrLevel, "Box and goal counts differ")
		_, err = ParseLevel("")
		require.ErrorIs(t, err, ErrLevel)
	})

	t.Run("box on a goal", func(t *testing.T) {
		s := parse(t, "#####\n#@*$#\n#  .#\n#####")
		require.Equal(t, 1, s.Placed())
		require.False(t, s.IsTerminal())
	})
}

func TestApply(t *testing.T) {
	t.Run("pushing the box onto the goal solves the level", func(t *testing.T) {
		s := parse(t, oneStep)
		require.False(t, s.IsTerminal())
		require.Equal(t, 1, s.Heuristic())

		require.NoError(t, s.Apply(Right))

		require.True(t, s.IsTerminal())
		require.Equal(t, game.First, s.Winner())
		require.Equal(t, 0, s.Heuristic())
		require.Empty(t, s.LegalMoves())
	})

	t.Run("walking into a wall is rejected", func(t *testing.T) {
		s := parse(t, oneStep)
		key := s.Key()

		err := s.Apply(Up)

		require.ErrorIs(t, err, ErrBlocked)
		require.ErrorIs(t, err, game.ErrIllegalMove, "Rejected moves are illegal moves")
		require.Equal(t, key, s.Key(), "Rejected move should leave the state unchanged")
	})

	t.Run("pushing a box into a box is rejected", func(t *testing.T) {
		s := parse(t, "######\n#@$$.#\n#   .#\n######")

		require.True(t, IsBlocked(s.Apply(Right)))
		require.NotContains(t, s.LegalMoves(), game.Move(Right))
		require.Contains(t, s.LegalMoves(), game.Move(Down))
	})

	t.Run("pushing a box off the board is rejected", func(t *testing.T) {
		s := parse(t, " @$\n.  ")

		require.True(t, IsBlocked(s.Apply(Right)), "Box on the edge cannot leave the board")
		require.NoError(t, s.Play([]game.Move{Down}))
		require.Equal(t, Point{X: 1, Y: 1}, s.Mover())
	})

	t.Run("foreign moves are rejected", func(t *testing.T) {
		s := parse(t, oneStep)
		require.ErrorIs(t, s.Apply(Dir(7)), game.ErrIllegalMove)
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := parse(t, oneStep)
		c := s.Clone()
		require.NoError(t, c.Apply(Right))
		require.Equal(t, []Point{{X: 2, Y: 1}}, s.Boxes())
		require.NotEqual(t, s.Key(), c.Key())
	})
}

func TestDeadlocked(t *testing.T) {
	t.Run("box in a wall corner", func(t *testing.T) {
		s := parse(t, "#####\n# $ #\n#  @#\n#.  #\n#####")
		require.False(t, s.Deadlocked())

		require.NoError(t, s.Play([]game.Move{Up, Left}))

		require.Equal(t, []Point{{X: 1, Y: 1}}, s.Boxes())
		require.True(t, s.Deadlocked())
	})

	t.Run("box in a corner on its goal is fine", func(t *testing.T) {
		s := parse(t, "#####\n#*@ #\n#   #\n#####")
		require.False(t, s.Deadlocked())
	})

	t.Run("heuristic claims distinct goals", func(t *testing.T) {
		s := parse(t, "#######\n#@$ $.#\n#    .#\n#######")
		// Left box (2,1): nearest goal (5,1) at 3. Right box (4,1) takes (5,2) at 2.
		require.Equal(t, 5, s.Heuristic())
	})
}

func TestColored(t *testing.T) {
	s := parse(t, "#####\n#@$.#\n#####")
	plain := s.String()
	colored := s.Colored()

	require.Contains(t, colored, "\x1b[", "Pieces should carry colour codes")
	require.Equal(t, strings.Count(plain, "#"), strings.Count(colored, "#"), "Walls are printed as is")

	require.NoError(t, s.Apply(Right))
	require.Contains(t, s.Colored(), aurora.Green("*").String(), "A placed box is green")
}
