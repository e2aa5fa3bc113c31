package searcher

import (
	"math"
	"searchkit/experiments/metrics"
	"searchkit/game"
)

type Kind string

const (
	KindAlphaBeta Kind = "alphabeta"
	KindMCTS      Kind = "mcts"
	KindAStar     Kind = "astar"
)

// Searcher picks one move for the state within the budget. Implementations
// never mutate the caller's state and return nil only when it has no legal
// moves.
type Searcher interface {
	Search(state game.State, budget *Budget) (game.Move, metrics.SearchMetric)
}

// Orderer ranks moves so that the most promising are searched first.
type Orderer interface {
	Order(state game.State, moves []game.Move) []game.Move
}

// RolloutPolicy picks the heuristic move of a biased playout.
type RolloutPolicy interface {
	Pick(state game.State, moves []game.Move) game.Move
}

// Puzzle is the capability A* needs beyond game.State.
type Puzzle interface {
	game.State
	// Heuristic estimates the remaining cost to a goal state.
	Heuristic() int
	// Deadlocked reports that no goal state is reachable any more.
	Deadlocked() bool
	// Placed counts objects already on their goals.
	Placed() int
}

func ucb1(rewards float64, visits int, c2LnN float64) float64 {
	// Prioritize unexplored nodes
	if visits == 0 {
		return math.Inf(1)
	}

	return rewards/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}
