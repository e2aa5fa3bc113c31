package searcher

import (
	"context"
	"math"
	"searchkit/game"
	"searchkit/gomoku"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// minimax is the unpruned reference: same leaf and terminal scoring as the
// alpha-beta search, no table, no ordering.
func minimax(state game.State, evaluate game.Evaluate, depth, ply int) float64 {
	if state.IsTerminal() {
		return terminalScore(state, ply)
	}
	if depth == 0 {
		return evaluate(state)
	}
	best := math.Inf(-1)
	for _, m := range state.LegalMoves() {
		child := state.Clone()
		if err := child.Apply(m); err != nil {
			continue
		}
		if v := -minimax(child, evaluate, depth-1, ply+1); v > best {
			best = v
		}
	}
	if math.IsInf(best, -1) {
		return evaluate(state)
	}
	return best
}

func gomokuEvaluator(t *testing.T) game.Evaluate {
	t.Helper()
	e, err := gomoku.NewEvaluator(gomoku.DefaultWeights())
	require.NoError(t, err)
	return e.Evaluate
}

// randomBoard plays stones random moves on a small board, stopping early if
// the game ends.
func randomBoard(t *testing.T, rng *rand.Rand, size, stones int) *gomoku.Board {
	t.Helper()
	b := gomoku.NewBoard(size, gomoku.WithRadius(1))
	for i := 0; i < stones && !b.IsTerminal(); i++ {
		moves := b.LegalMoves()
		require.NoError(t, b.Apply(moves[rng.Intn(len(moves))]))
	}
	return b
}

func board(t *testing.T, toMove game.Player, black, white []gomoku.Pos) *gomoku.Board {
	t.Helper()
	b := gomoku.NewBoard(gomoku.DefaultSize)
	for _, p := range black {
		require.NoError(t, b.Put(p, gomoku.Black))
	}
	for _, p := range white {
		require.NoError(t, b.Put(p, gomoku.White))
	}
	b.SetPlayer(toMove)
	return b
}

func row(r int, cols ...int) []gomoku.Pos {
	ps := make([]gomoku.Pos, len(cols))
	for i, c := range cols {
		ps[i] = gomoku.Pos{Row: r, Col: c}
	}
	return ps
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	evaluate := gomokuEvaluator(t)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 6; i++ {
		b := randomBoard(t, rng, 6, 4+rng.Intn(6))
		if b.IsTerminal() {
			continue
		}
		want := minimax(b, evaluate, 3, 0)

		t.Run("without table", func(t *testing.T) {
			ab := NewAlphaBeta(evaluate, WithMaxDepth(3), WithTable(0, ReplaceAlways))
			move, metric := ab.Search(b, nil)

			require.NotNil(t, move)
			require.InDelta(t, want, metric.Score, 1e-6, "Pruning must not change the root value\n%s", b)
			if metric.Score < winThreshold {
				require.Equal(t, 3, metric.CompletedDepth)
			}
		})

		t.Run("with table and ordering", func(t *testing.T) {
			ab := NewAlphaBeta(evaluate, WithMaxDepth(3), WithOrderer(gomoku.NewOrderer(0)),
				WithTable(1<<12, ReplaceDepth))
			_, metric := ab.Search(b, nil)

			require.InDelta(t, want, metric.Score, 1e-6, "Cached values must not change the root value\n%s", b)
		})
	}
}

func TestAlphaBetaTableAgreement(t *testing.T) {
	evaluate := gomokuEvaluator(t)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 4; i++ {
		b := randomBoard(t, rng, 7, 6)
		if b.IsTerminal() {
			continue
		}
		without := NewAlphaBeta(evaluate, WithMaxDepth(3), WithoutIterativeDeepening(), WithTable(0, ReplaceAlways))
		with := NewAlphaBeta(evaluate, WithMaxDepth(3), WithoutIterativeDeepening(), WithTable(1<<12, ReplaceAlways))

		move1, metric1 := without.Search(b, nil)
		move2, metric2 := with.Search(b, nil)

		require.Equal(t, move1, move2, "Table must not change the chosen move\n%s", b)
		require.InDelta(t, metric1.Score, metric2.Score, 1e-6)
		require.Greater(t, metric2.Table.Lookups, uint64(0))
	}
}

func TestAlphaBetaScenarios(t *testing.T) {
	evaluate := gomokuEvaluator(t)
	orderer := gomoku.NewOrderer(gomoku.DefaultOrderThreshold)

	t.Run("extends an open three", func(t *testing.T) {
		b := board(t, game.First, row(7, 5, 6, 7), row(0, 0, 14))
		ab := NewAlphaBeta(evaluate, WithMaxDepth(3), WithOrderer(orderer))

		move, _ := ab.Search(b, nil)

		require.Contains(t, []game.Move{gomoku.Pos{Row: 7, Col: 4}, gomoku.Pos{Row: 7, Col: 8}}, move)
	})

	t.Run("blocks an open three", func(t *testing.T) {
		b := board(t, game.Second, row(7, 5, 6, 7), row(0, 0, 14))
		ab := NewAlphaBeta(evaluate, WithMaxDepth(2), WithOrderer(orderer))

		move, _ := ab.Search(b, nil)

		require.Contains(t, []game.Move{gomoku.Pos{Row: 7, Col: 4}, gomoku.Pos{Row: 7, Col: 8}}, move)
	})

	t.Run("must defend against an open four", func(t *testing.T) {
		b := board(t, game.First, []gomoku.Pos{{Row: 0, Col: 0}, {Row: 14, Col: 14}, {Row: 0, Col: 14}, {Row: 14, Col: 0}}, row(7, 5, 6, 7, 8))
		ab := NewAlphaBeta(evaluate, WithMaxDepth(2), WithOrderer(orderer))

		move, _ := ab.Search(b, nil)

		require.Contains(t, []game.Move{gomoku.Pos{Row: 7, Col: 4}, gomoku.Pos{Row: 7, Col: 9}}, move,
			"Only the two ends of the four stop the five")
	})

	t.Run("proven win returns early", func(t *testing.T) {
		b := board(t, game.First, row(7, 5, 6, 7, 8), row(0, 0, 1, 2))
		ab := NewAlphaBeta(evaluate, WithMaxDepth(4), WithOrderer(orderer))

		move, metric := ab.Search(b, nil)

		require.Contains(t, []game.Move{gomoku.Pos{Row: 7, Col: 4}, gomoku.Pos{Row: 7, Col: 9}}, move)
		require.Equal(t, 1, metric.CompletedDepth, "A win at depth 1 needs no deeper pass")
		require.Equal(t, game.WinScore-1, metric.Score)
	})

	t.Run("search leaves the caller's state alone", func(t *testing.T) {
		b := board(t, game.First, row(7, 5, 6, 7), row(0, 0, 14))
		key := b.Key()
		ab := NewAlphaBeta(evaluate, WithMaxDepth(2), WithOrderer(orderer))

		ab.Search(b, nil)

		require.Equal(t, key, b.Key())
	})
}

func TestAlphaBetaNim(t *testing.T) {
	t.Run("finds the quickest win", func(t *testing.T) {
		ab := NewAlphaBeta(nil, WithMaxDepth(8))

		move, metric := ab.Search(newNim(7), nil)

		require.Equal(t, take(3), move, "Leaving a multiple of four wins")
		require.Equal(t, game.WinScore-3, metric.Score)
	})

	t.Run("rejected moves are skipped", func(t *testing.T) {
		n := newNim(7, 2)
		ab := NewAlphaBeta(nil, WithMaxDepth(8))

		move, _ := ab.Search(n, nil)

		require.NotEqual(t, take(2), move)
		require.Equal(t, take(3), move)
		require.Greater(t, *n.refusals, 0, "The search should have tried the refused take")
	})

	t.Run("terminal root has no move", func(t *testing.T) {
		n := newNim(0)
		move, metric := NewAlphaBeta(nil).Search(n, nil)
		require.Nil(t, move)
		require.Equal(t, 0, metric.CompletedDepth)
	})
}

func TestAlphaBetaDeadline(t *testing.T) {
	evaluate := gomokuEvaluator(t)
	b := board(t, game.First, []gomoku.Pos{{Row: 7, Col: 7}, {Row: 8, Col: 6}}, []gomoku.Pos{{Row: 6, Col: 8}, {Row: 8, Col: 8}})

	t.Run("an aborted depth never replaces a completed one", func(t *testing.T) {
		clock := newTickClock()
		budget := NewBudget(context.Background(), time.Hour, WithClock(clock.Now))
		shallow := NewAlphaBeta(evaluate, WithMaxDepth(2), WithOrderer(gomoku.NewOrderer(0)))
		wantMove, wantMetric := shallow.Search(b, budget)
		polls := clock.reads - 1 // the first reading starts the budget
		require.Equal(t, 2, wantMetric.CompletedDepth)
		require.False(t, wantMetric.TimedOut)

		// Same polls again, then expire a few polls into depth 3.
		clock = newTickClock()
		budget = NewBudget(context.Background(), time.Duration(polls+3)*clock.tick, WithClock(clock.Now))
		deep := NewAlphaBeta(evaluate, WithMaxDepth(3), WithOrderer(gomoku.NewOrderer(0)))
		gotMove, gotMetric := deep.Search(b, budget)

		require.Equal(t, wantMove, gotMove, "Depth 2 result should be kept")
		require.Equal(t, wantMetric.Score, gotMetric.Score)
		require.Equal(t, 2, gotMetric.CompletedDepth)
		require.True(t, gotMetric.TimedOut)
	})

	t.Run("expired budget still returns a legal move", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		budget := NewBudget(ctx, 0)

		move, metric := NewAlphaBeta(evaluate, WithOrderer(gomoku.NewOrderer(0))).Search(b, budget)

		require.NotNil(t, move)
		require.Contains(t, b.LegalMoves(), move)
		require.Equal(t, 0, metric.CompletedDepth)
		require.True(t, metric.TimedOut)
	})
}
