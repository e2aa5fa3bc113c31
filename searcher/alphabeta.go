package searcher

import (
	"fmt"
	"math"
	"searchkit/experiments/metrics"
	"searchkit/game"
	"sort"

	"github.com/rs/zerolog/log"
)

/*
negamax form of minimax, from the side to move:

	value(node, depth, α, β) =
	    static eval                          if depth = 0 or budget spent
	    max over children of −value(child, depth−1, −β, −α), stop once α ≥ β
*/

type AlphaBetaOption func(ab *AlphaBeta)

func WithMaxDepth(depth int) AlphaBetaOption {
	return func(ab *AlphaBeta) {
		if depth > 0 {
			ab.maxDepth = depth
		}
	}
}

func WithOrderer(orderer Orderer) AlphaBetaOption {
	return func(ab *AlphaBeta) {
		ab.orderer = orderer
	}
}

// WithTable sizes the transposition table. entries <= 0 disables it.
func WithTable(entries int, replacement Replacement) AlphaBetaOption {
	return func(ab *AlphaBeta) {
		ab.tableEntries = entries
		ab.replacement = replacement
	}
}

// WithoutIterativeDeepening searches the maximum depth directly.
func WithoutIterativeDeepening() AlphaBetaOption {
	return func(ab *AlphaBeta) {
		ab.iterative = false
	}
}

type AlphaBeta struct {
	maxDepth     int
	evaluate     game.Evaluate
	orderer      Orderer
	tableEntries int
	replacement  Replacement
	iterative    bool
}

func NewAlphaBeta(evaluate game.Evaluate, options ...AlphaBetaOption) *AlphaBeta {
	ab := &AlphaBeta{ // Default values
		maxDepth:     DefaultMaxDepth,
		evaluate:     evaluate,
		tableEntries: DefaultTableEntries,
		replacement:  ReplaceAlways,
		iterative:    true,
	}
	for _, option := range options {
		option(ab)
	}
	if ab.evaluate == nil {
		ab.evaluate = func(game.State) float64 { return 0 }
	}
	return ab
}

// abSearch holds what lives for exactly one Search call.
type abSearch struct {
	*AlphaBeta
	budget    *Budget
	table     *TranspositionTable
	collector metrics.Collector
	undo      bool
	aborted   bool
}

func (ab *AlphaBeta) Search(state game.State, budget *Budget) (game.Move, metrics.SearchMetric) {
	if budget == nil {
		budget = Unlimited()
	}
	collector := metrics.NewCollector()
	collector.Start(string(KindAlphaBeta), 1)

	moves := state.LegalMoves()
	if len(moves) == 0 {
		return nil, collector.Complete(nil, 0)
	}

	root := state.Clone()
	_, undo := root.(game.Undoer)
	s := &abSearch{
		AlphaBeta: ab,
		budget:    budget,
		collector: collector,
		undo:      undo,
	}
	if ab.tableEntries > 0 {
		s.table = NewTranspositionTable(ab.tableEntries, ab.replacement)
	}
	if ab.orderer != nil {
		moves = ab.orderer.Order(root, moves)
	}

	// Before any depth completes, fall back to the best-ordered move.
	bestMove := moves[0]
	bestScore := math.Inf(-1)

	start := 1
	if !ab.iterative {
		start = ab.maxDepth
	}
	for depth := start; depth <= ab.maxDepth; depth++ {
		move, score, ordered, complete := s.searchRoot(root, moves, depth)
		if !complete {
			// A partial pass may have seen only part of the root moves.
			collector.SetTimedOut()
			log.Debug().Int("depth", depth).Msg("depth-aborted-keeping-previous")
			break
		}
		if move == nil { // every root move was rejected
			break
		}
		bestMove, bestScore = move, score
		moves = ordered
		collector.AddDepth(metrics.DepthResult{Depth: depth, Move: move, Score: score, Nodes: collector.Nodes()})
		log.Debug().Int("depth", depth).Stringer("move", move).Float64("score", score).Msg("depth-completed")
		if score >= winThreshold {
			break
		}
	}

	if s.table != nil {
		collector.SetTable(s.table.Metric())
	}
	return bestMove, collector.Complete(bestMove, bestScore)
}

// searchRoot runs one full-width pass at the given depth. It reports the best
// move with its score, the moves re-sorted by score for the next pass, and
// whether the pass completed inside the budget.
func (s *abSearch) searchRoot(root game.State, moves []game.Move, depth int) (game.Move, float64, []game.Move, bool) {
	alpha := math.Inf(-1)
	beta := math.Inf(1)
	scores := make([]float64, len(moves))
	var bestMove game.Move
	bestScore := math.Inf(-1)

	for i, move := range moves {
		scores[i] = math.Inf(-1)
		if s.budget.Expired() {
			return nil, 0, nil, false
		}
		child, ok := s.play(root, move)
		if !ok {
			continue
		}
		score := -s.negamax(child, depth-1, 1, -beta, -alpha)
		s.unplay(root, move)
		if s.aborted {
			return nil, 0, nil, false
		}
		scores[i] = score
		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if bestScore > alpha {
			alpha = bestScore
		}
		if bestScore >= winThreshold {
			// Proven win: the remaining siblings cannot do better.
			break
		}
	}

	ordered := make([]game.Move, len(moves))
	copy(ordered, moves)
	index := make(map[game.Move]int, len(moves))
	for i, m := range moves {
		index[m] = i
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[index[ordered[i]]] > scores[index[ordered[j]]]
	})
	return bestMove, bestScore, ordered, true
}

func (s *abSearch) negamax(state game.State, depth, ply int, alpha, beta float64) float64 {
	s.collector.AddNode()
	if s.budget.Expired() {
		s.aborted = true
		return s.evaluate(state)
	}
	if state.IsTerminal() {
		return terminalScore(state, ply)
	}
	if depth <= 0 {
		return s.evaluate(state)
	}

	alphaOrig := alpha
	var key uint64
	if s.table != nil {
		key = hashState(state)
		if entry, ok := s.table.lookup(key); ok && int(entry.depth) >= depth {
			score := scoreFromTable(entry.score, ply)
			switch entry.flag {
			case TTExact:
				return score
			case TTLower:
				alpha = math.Max(alpha, score)
			case TTUpper:
				beta = math.Min(beta, score)
			}
			if alpha >= beta {
				return score
			}
		}
	}

	moves := state.LegalMoves()
	if len(moves) == 0 {
		return s.evaluate(state)
	}
	if s.orderer != nil {
		moves = s.orderer.Order(state, moves)
	}

	bestValue := math.Inf(-1)
	searched := false
	for _, move := range moves {
		child, ok := s.play(state, move)
		if !ok {
			continue
		}
		value := -s.negamax(child, depth-1, ply+1, -beta, -alpha)
		s.unplay(state, move)
		if s.aborted {
			return value
		}
		searched = true
		if value > bestValue {
			bestValue = value
		}
		if bestValue > alpha {
			alpha = bestValue
		}
		if alpha >= beta {
			break // beta cut-off
		}
	}
	if !searched {
		return s.evaluate(state)
	}

	if s.table != nil {
		entry := TableEntry{score: scoreToTable(bestValue, ply), depth: int16(depth)}
		if bestValue <= alphaOrig {
			entry.flag = TTUpper
		} else if bestValue >= beta {
			entry.flag = TTLower
		} else {
			entry.flag = TTExact
		}
		s.table.store(key, entry)
	}
	return bestValue
}

// play returns the child position, applied in place when the state can undo.
// A rejected move yields no child.
func (s *abSearch) play(state game.State, move game.Move) (game.State, bool) {
	if s.undo {
		if err := state.Apply(move); err != nil {
			log.Debug().Err(err).Stringer("move", move).Msg("skipping-rejected-move")
			return nil, false
		}
		return state, true
	}
	child := state.Clone()
	if err := child.Apply(move); err != nil {
		log.Debug().Err(err).Stringer("move", move).Msg("skipping-rejected-move")
		return nil, false
	}
	return child, true
}

func (s *abSearch) unplay(state game.State, move game.Move) {
	if !s.undo {
		return
	}
	if err := state.(game.Undoer).Undo(move); err != nil {
		panic(fmt.Sprintf("undo of %v failed: %v", move, err))
	}
}

// terminalScore prefers quicker wins and slower losses.
func terminalScore(state game.State, ply int) float64 {
	switch state.Winner() {
	case game.NoPlayer:
		return 0
	case state.Player():
		return game.WinScore - float64(ply)
	}
	return -(game.WinScore - float64(ply))
}
