package gomoku

import (
	"searchkit/game"
	"testing"

	"github.com/stretchr/testify/require"
)

func evaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultWeights())
	require.NoError(t, err)
	return e
}

func TestThreats(t *testing.T) {
	t.Run("open three", func(t *testing.T) {
		b := setup(t, game.First, row(7, 5, 6, 7), nil)

		threats, censuses := b.Threats()

		require.Equal(t, []Threat{{Class: OpenThree, Anchor: Pos{Row: 7, Col: 5}, Axis: Horizontal, Player: game.First}}, threats)
		require.Equal(t, 1, censuses[game.First][OpenThree])
		require.Equal(t, Census{}, censuses[game.Second], "White has no stones")
	})

	t.Run("three blocked on both sides is no threat", func(t *testing.T) {
		b := setup(t, game.First, row(7, 5, 6, 7), row(7, 4, 8))

		_, censuses := b.Threats()

		require.Equal(t, Census{}, censuses[game.First])
	})

	t.Run("three without room for an open four", func(t *testing.T) {
		b := setup(t, game.First, row(7, 5, 6, 7), row(7, 3, 9))

		threats, censuses := b.Threats()

		require.Equal(t, []Threat{{Class: BlockedThree, Anchor: Pos{Row: 7, Col: 5}, Axis: Horizontal, Player: game.First}}, threats)
		require.Zero(t, censuses[game.First][OpenThree])
	})

	t.Run("overline resolves to a single five", func(t *testing.T) {
		b := setup(t, game.Second, row(0, 0, 1, 2, 3, 4, 5), nil)

		threats, censuses := b.Threats()

		require.Len(t, threats, 1, "Overlapping windows should not double count")
		require.Equal(t, Five, threats[0].Class)
		require.Equal(t, Pos{Row: 0, Col: 0}, threats[0].Anchor)
		require.Equal(t, 1, censuses[game.First][Five])
	})

	t.Run("board edge blocks a four", func(t *testing.T) {
		b := setup(t, game.Second, row(3, 0, 1, 2, 3), nil)

		_, censuses := b.Threats()

		require.Equal(t, 1, censuses[game.First][SimpleFour])
		require.Equal(t, 0, censuses[game.First][OpenFour])
		require.Equal(t, 0, censuses[game.First][BlockedThree], "The four should claim its stones")
	})

	t.Run("broken four", func(t *testing.T) {
		b := setup(t, game.Second, row(7, 3, 4, 6, 7), nil)

		threats, _ := b.Threats()

		require.Equal(t, []Threat{{Class: SimpleFour, Anchor: Pos{Row: 7, Col: 3}, Axis: Horizontal, Player: game.First}}, threats)
	})

	t.Run("vertical and diagonal axes", func(t *testing.T) {
		b := setup(t, game.First, []Pos{{3, 10}, {4, 10}, {5, 10}}, []Pos{{2, 2}, {3, 3}, {4, 4}})

		threats, _ := b.Threats()

		require.ElementsMatch(t, []Threat{
			{Class: OpenThree, Anchor: Pos{Row: 3, Col: 10}, Axis: Vertical, Player: game.First},
			{Class: OpenThree, Anchor: Pos{Row: 2, Col: 2}, Axis: Diagonal, Player: game.Second},
		}, threats)
	})
}

func TestEvaluatorTiers(t *testing.T) {
	e := evaluator(t)

	t.Run("must defend against an open four", func(t *testing.T) {
		b := setup(t, game.First, []Pos{{0, 0}, {14, 14}, {0, 14}, {14, 0}}, row(7, 5, 6, 7, 8))

		ev := e.Analyze(b)

		require.Equal(t, MustDefend, ev.Tier)
		require.Equal(t, DefaultWeights().Defense.MustDefend, ev.Multiplier)
		require.Less(t, ev.Score, -DefaultWeights().OpenFour, "Threat should be amplified")
	})

	t.Run("own four is decisive", func(t *testing.T) {
		b := setup(t, game.Second, []Pos{{0, 0}, {14, 14}, {0, 14}, {14, 0}}, row(7, 5, 6, 7, 8))

		ev := e.Analyze(b)

		require.Equal(t, Decisive, ev.Tier)
		require.Equal(t, DefaultWeights().Defense.Decisive, ev.Multiplier)
		require.Greater(t, ev.Score, 0.0)
		require.Less(t, ev.Score, game.WinScore, "Positional scores stay below a win")
	})

	t.Run("double open three raises the stakes", func(t *testing.T) {
		b := setup(t, game.First, append(row(7, 5, 6, 7), Pos{3, 10}, Pos{4, 10}, Pos{5, 10}), nil)

		ev := e.Analyze(b)

		require.Equal(t, Elevated, ev.Tier)
		require.Equal(t, DefaultWeights().Defense.ElevatedOwn, ev.Multiplier)
		w := DefaultWeights()
		require.Equal(t, 2*w.OpenThree+w.DoubleThree, ev.Score)
	})

	t.Run("opponent double three uses the larger multiplier", func(t *testing.T) {
		b := setup(t, game.Second, append(row(7, 5, 6, 7), Pos{3, 10}, Pos{4, 10}, Pos{5, 10}), nil)

		ev := e.Analyze(b)

		require.Equal(t, Elevated, ev.Tier)
		require.Equal(t, DefaultWeights().Defense.Elevated, ev.Multiplier)
	})

	t.Run("quiet position is symmetric", func(t *testing.T) {
		b := setup(t, game.First, row(7, 6, 7), row(9, 6, 7))

		ev := e.Analyze(b)

		require.Equal(t, Quiet, ev.Tier)
		require.Equal(t, 0.0, ev.Score)
	})

	t.Run("won game scores a win", func(t *testing.T) {
		b := setup(t, game.First, row(7, 3, 4, 5, 6), row(8, 3, 4, 5, 6))
		require.NoError(t, b.Apply(Pos{Row: 7, Col: 7}))

		require.Equal(t, -game.WinScore, e.Evaluate(b), "Side to move has lost")
		b.SetPlayer(game.First)
		require.Equal(t, game.WinScore, e.Evaluate(b))
	})

	t.Run("non gomoku states score zero", func(t *testing.T) {
		require.Equal(t, 0.0, e.Evaluate(nil))
	})
}

func TestWeightsValidate(t *testing.T) {
	t.Run("defaults are ordered", func(t *testing.T) {
		require.NoError(t, DefaultWeights().Validate())
	})

	t.Run("open four must beat a double three", func(t *testing.T) {
		w := DefaultWeights()
		w.OpenFour = 2*w.OpenThree + w.DoubleThree
		require.ErrorIs(t, w.Validate(), ErrWeights)
	})

	t.Run("simple four must beat an open three", func(t *testing.T) {
		w := DefaultWeights()
		w.SimpleFour = w.OpenThree
		require.ErrorIs(t, w.Validate(), ErrWeights)
	})

	t.Run("multipliers must be positive", func(t *testing.T) {
		w := DefaultWeights()
		w.Defense.MustDefend = 0
		require.ErrorIs(t, w.Validate(), ErrWeights)

		_, err := NewEvaluator(w)
		require.ErrorIs(t, err, ErrWeights)
	})
}
