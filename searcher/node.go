package searcher

import (
	"math"
	"searchkit/game"
)

// node is one position of an MCTS tree. The position itself is not stored:
// it is rebuilt by replaying moves from the root during selection.
type node struct {
	parent   *node
	move     game.Move   // move that led here, nil at the root
	mover    game.Player // player who made move; rewards are from its view
	player   game.Player // player to move here
	terminal bool
	untried  []game.Move
	children map[game.Move]*node
	expanded []*node // children in expansion order
	rewards  float64
	visits   int
	rollouts int // simulations that started from this node
}

func newNode(parent *node, move game.Move, state game.State) *node {
	n := &node{
		parent:   parent,
		move:     move,
		mover:    state.Player().Opponent(),
		player:   state.Player(),
		terminal: state.IsTerminal(),
		children: make(map[game.Move]*node),
	}
	if parent != nil {
		n.mover = parent.player
	}
	if !n.terminal {
		n.untried = state.LegalMoves()
	}
	return n
}

func (n *node) fullyExpanded() bool {
	return len(n.untried) == 0
}

// pickChild returns the child with the highest UCB1 value, first expanded
// wins ties.
func (n *node) pickChild(exploration float64) *node {
	if n.visits == 0 {
		panic("node has children but no visits")
	}

	normalizer := exploration * exploration * math.Log(float64(n.visits))

	var best *node
	maxScore := math.Inf(-1)
	for _, child := range n.expanded {
		score := ucb1(child.rewards, child.visits, normalizer)
		if score == math.Inf(1) {
			return child
		}
		if best == nil || score > maxScore {
			maxScore = score
			best = child
		}
	}
	return best
}

// addChild materialises the untried move on the end of the list. A move the
// state rejects is dropped and nil is returned.
func (n *node) addChild(state game.State) *node {
	last := len(n.untried) - 1
	move := n.untried[last]
	n.untried = n.untried[:last]
	if err := state.Apply(move); err != nil {
		return nil
	}
	child := newNode(n, move, state)
	n.children[move] = child
	n.expanded = append(n.expanded, child)
	return child
}

func (n *node) backup(reward func(game.Player) float64) *node {
	n.rewards += reward(n.mover)
	n.visits++
	return n.parent
}
