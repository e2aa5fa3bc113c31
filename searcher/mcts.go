package searcher

import (
	"fmt"
	"math"
	"searchkit/experiments/metrics"
	"searchkit/game"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

type MCTSOption func(mcts *MCTS)

// WithSimulations caps the total number of simulations across workers.
func WithSimulations(simulations int) MCTSOption {
	return func(m *MCTS) {
		if simulations > 0 {
			m.simulations = simulations
		}
	}
}

func WithExploration(c float64) MCTSOption {
	return func(m *MCTS) {
		if c >= 0 {
			m.exploration = c
		}
	}
}

// WithRolloutPolicy sets the heuristic picked with probability bias during
// playouts; the rest of the time playouts move uniformly at random.
func WithRolloutPolicy(policy RolloutPolicy, bias float64) MCTSOption {
	return func(m *MCTS) {
		m.policy = policy
		if bias >= 0 && bias <= 1 {
			m.bias = bias
		}
	}
}

func WithCutoff(depth int) MCTSOption {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

// WithEvaluationFn scores playouts stopped at the cutoff. Scores are squashed
// into [-1, 1] by tanh(score/scale).
func WithEvaluationFn(evaluate game.Evaluate, scale float64) MCTSOption {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
		if scale > 0 {
			m.scale = scale
		}
	}
}

// WithWorkers runs independent trees on independent clones of the root and
// votes on the summed root visit counts.
func WithWorkers(workers int) MCTSOption {
	return func(m *MCTS) {
		if workers > 0 {
			m.workers = workers
		}
	}
}

func WithSeed(seed uint64) MCTSOption {
	return func(m *MCTS) {
		m.seed = seed
	}
}

type MCTS struct {
	workers     int
	simulations int
	exploration float64
	bias        float64
	cutoff      int
	policy      RolloutPolicy
	evaluate    game.Evaluate
	scale       float64
	seed        uint64
}

func NewMCTS(options ...MCTSOption) *MCTS {
	m := &MCTS{ // Default values
		workers:     1,
		simulations: DefaultSimulations,
		exploration: DefaultExploration,
		bias:        DefaultRolloutBias,
		cutoff:      DefaultRolloutDepth,
		scale:       1,
		seed:        1,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *MCTS) Search(state game.State, budget *Budget) (game.Move, metrics.SearchMetric) {
	if budget == nil {
		budget = Unlimited()
	}
	collector := metrics.NewCollector()
	collector.Start(string(KindMCTS), m.workers)

	moves := state.LegalMoves()
	if len(moves) == 0 {
		return nil, collector.Complete(nil, 0)
	}
	if len(moves) == 1 {
		return moves[0], collector.Complete(moves[0], 0)
	}

	perWorker := (m.simulations + m.workers - 1) / m.workers
	roots := make([]*node, m.workers)
	g := errgroup.Group{}
	for w := 0; w < m.workers; w++ {
		w := w
		clone := state.Clone()
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("mcts worker %d: %v", w, r)
				}
			}()
			rng := rand.New(rand.NewSource(m.seed + uint64(w)))
			roots[w] = m.buildTree(clone, perWorker, budget, rng, collector)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// The failed worker's tree is lost; the others still vote.
		log.Error().Err(err).Msg("mcts-worker-failed")
	}
	if budget.Expired() {
		collector.SetTimedOut()
	}

	move, visits := vote(roots)
	if move == nil {
		move = moves[0]
	}
	log.Debug().
		Stringer("move", move).
		Int("visits", visits).
		Int64("simulations", collector.Nodes()).
		Msg("mcts-search-complete")
	return move, collector.Complete(move, float64(visits))
}

// vote sums root child visits over the workers' trees.
func vote(roots []*node) (game.Move, int) {
	totals := make(map[game.Move]int)
	var order []game.Move
	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, child := range root.expanded {
			if _, ok := totals[child.move]; !ok {
				order = append(order, child.move)
			}
			totals[child.move] += child.visits
		}
	}
	if len(order) == 0 {
		return nil, 0
	}
	best := lo.MaxBy(order, func(a, b game.Move) bool {
		return totals[a] > totals[b]
	})
	return best, totals[best]
}

// buildTree runs simulations on a tree of its own until the ceiling or the
// budget is reached.
func (m *MCTS) buildTree(state game.State, simulations int, budget *Budget, rng *rand.Rand, collector metrics.Collector) *node {
	root := newNode(nil, nil, state)
	shuffle(root.untried, rng)
	for i := 0; i < simulations; i++ {
		if budget.Expired() {
			break
		}
		m.simulate(root, state.Clone(), rng, collector)
		collector.AddNode()
	}
	return root
}

func (m *MCTS) simulate(root *node, state game.State, rng *rand.Rand, collector metrics.Collector) {
	leaf, state := m.selectThenExpand(root, state, rng)
	reward := m.rollout(state, rng, collector)
	leaf.rollouts++
	backup(leaf, reward)
}

func (m *MCTS) selectThenExpand(root *node, state game.State, rng *rand.Rand) (*node, game.State) {
	n := root
	for !n.terminal && n.fullyExpanded() && len(n.expanded) > 0 {
		n = n.pickChild(m.exploration)
		if err := state.Apply(n.move); err != nil {
			// The move was accepted at expansion, so the state broke its
			// determinism contract. Simulate from here.
			log.Warn().Err(err).Stringer("move", n.move).Msg("replay-rejected-move")
			return n, state
		}
	}
	// A rejected move leaves the state untouched, so try the next one.
	for !n.terminal && !n.fullyExpanded() {
		if child := n.addChild(state); child != nil {
			shuffle(child.untried, rng)
			return child, state
		}
	}
	return n, state
}

func shuffle(moves []game.Move, rng *rand.Rand) {
	rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
}

// rollout plays from state until a terminal state or the cutoff and returns
// the reward of the outcome for any player.
func (m *MCTS) rollout(state game.State, rng *rand.Rand, collector metrics.Collector) func(game.Player) float64 {
	depth := 0
	// Rollout till game over or for cutoff number of moves
	for !state.IsTerminal() && depth < m.cutoff {
		moves := state.LegalMoves()
		if len(moves) == 0 {
			break
		}
		if !m.playOne(state, moves, rng) {
			break
		}
		depth++
	}

	if state.IsTerminal() {
		collector.AddFullPlayout()
		return rewarder(state.Winner())
	}

	// At cutoff state, score from the current player's perspective
	value := 0.0
	if m.evaluate != nil {
		value = math.Tanh(m.evaluate(state) / m.scale)
	}
	player := state.Player()
	return func(p game.Player) float64 {
		if p == player {
			return value
		}
		return -value
	}
}

// playOne applies the biased choice, falling back to random moves when the
// state rejects one. It reports false when no move could be applied.
func (m *MCTS) playOne(state game.State, moves []game.Move, rng *rand.Rand) bool {
	var move game.Move
	if m.policy != nil && rng.Float64() < m.bias {
		move = m.policy.Pick(state, moves)
	}
	if move == nil {
		move = moves[rng.Intn(len(moves))]
	}
	for {
		if err := state.Apply(move); err == nil {
			return true
		}
		moves = lo.Without(moves, move)
		if len(moves) == 0 {
			return false
		}
		move = moves[rng.Intn(len(moves))]
	}
}

func rewarder(winner game.Player) func(game.Player) float64 {
	return func(player game.Player) float64 {
		switch winner {
		case game.NoPlayer:
			return DRAW
		case player:
			return WIN
		}
		return LOSS
	}
}

func backup(leaf *node, reward func(game.Player) float64) {
	n := leaf
	for n != nil {
		n = n.backup(reward)
	}
}
