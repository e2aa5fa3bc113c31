package searcher

import (
	"container/heap"
	"searchkit/experiments/metrics"
	"searchkit/game"

	"github.com/rs/zerolog/log"
)

type AStarOption func(a *AStar)

// WithFallbackWeights tunes the static score used when the budget runs out:
// placed*placedWeight - heuristic - deadlocked*deadlockPenalty.
func WithFallbackWeights(placedWeight, deadlockPenalty int) AStarOption {
	return func(a *AStar) {
		a.placedWeight = placedWeight
		a.deadlockPenalty = deadlockPenalty
	}
}

// WithMaxExpansions bounds the number of popped states; 0 means unbounded.
func WithMaxExpansions(expansions int) AStarOption {
	return func(a *AStar) {
		if expansions >= 0 {
			a.maxExpansions = expansions
		}
	}
}

// AStar is a best-first solver for Puzzle states with unit move cost.
type AStar struct {
	placedWeight    int
	deadlockPenalty int
	maxExpansions   int
}

func NewAStar(options ...AStarOption) *AStar {
	a := &AStar{
		placedWeight:    10,
		deadlockPenalty: 1000,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

type pathNode struct {
	state  Puzzle
	parent *pathNode
	move   game.Move
	g, h   int
	seq    int
	index  int
}

func (n *pathNode) f() int {
	return n.g + n.h
}

// path lists the moves from the root to n.
func (n *pathNode) path() []game.Move {
	var moves []game.Move
	for p := n; p.parent != nil; p = p.parent {
		moves = append(moves, p.move)
	}
	for i, j := 0, len(moves)-1; i < j; i, j = i+1, j-1 {
		moves[i], moves[j] = moves[j], moves[i]
	}
	return moves
}

// frontier is a min-heap on f, then h, then insertion order.
type frontier []*pathNode

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f() != q[j].f() {
		return q[i].f() < q[j].f()
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *frontier) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *frontier) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

func (a *AStar) Search(state game.State, budget *Budget) (game.Move, metrics.SearchMetric) {
	if budget == nil {
		budget = Unlimited()
	}
	collector := metrics.NewCollector()
	collector.Start(string(KindAStar), 1)

	moves := state.LegalMoves()
	if len(moves) == 0 {
		return nil, collector.Complete(nil, 0)
	}
	puzzle, ok := state.Clone().(Puzzle)
	if !ok {
		log.Warn().Msg("state is not a puzzle, returning first legal move")
		return moves[0], collector.Complete(moves[0], 0)
	}

	root := &pathNode{state: puzzle, h: puzzle.Heuristic()}
	visited := map[string]struct{}{puzzle.Key(): {}}
	q := &frontier{}
	heap.Push(q, root)
	seq := 1

	var best *pathNode
	bestScore := 0
	for q.Len() > 0 {
		if budget.Expired() {
			collector.SetTimedOut()
			break
		}
		if a.maxExpansions > 0 && collector.Nodes() >= int64(a.maxExpansions) {
			break
		}
		current := heap.Pop(q).(*pathNode)
		collector.AddNode()
		if current.state.IsTerminal() {
			path := current.path()
			if len(path) == 0 {
				// Already solved: any legal move will do, and the empty
				// path tells callers nothing is left to play.
				metric := collector.Complete(moves[0], 0)
				metric.Path = []game.Move{}
				return moves[0], metric
			}
			metric := collector.Complete(path[0], float64(len(path)))
			metric.Path = path
			log.Debug().Int("length", len(path)).Int64("expanded", metric.Nodes).Msg("astar-solved")
			return path[0], metric
		}

		for _, move := range current.state.LegalMoves() {
			child := current.state.Clone().(Puzzle)
			if err := child.Apply(move); err != nil {
				// A rejected push produces no successor.
				continue
			}
			key := child.Key()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			next := &pathNode{
				state:  child,
				parent: current,
				move:   move,
				g:      current.g + 1,
				h:      child.Heuristic(),
				seq:    seq,
			}
			seq++
			if score := a.staticScore(child); best == nil || score > bestScore {
				best, bestScore = next, score
			}
			if !child.IsTerminal() && child.Deadlocked() {
				continue
			}
			heap.Push(q, next)
		}
	}

	// No solution inside the budget: head towards the most promising state.
	if best == nil {
		return moves[0], collector.Complete(moves[0], 0)
	}
	path := best.path()
	metric := collector.Complete(path[0], float64(bestScore))
	metric.Path = path
	log.Debug().Int("score", bestScore).Int64("expanded", metric.Nodes).Msg("astar-unsolved-best-effort")
	return path[0], metric
}

func (a *AStar) staticScore(p Puzzle) int {
	score := p.Placed()*a.placedWeight - p.Heuristic()
	if p.Deadlocked() {
		score -= a.deadlockPenalty
	}
	return score
}
