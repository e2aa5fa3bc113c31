package agent

import (
	"context"
	"fmt"
	"searchkit/config"
	"searchkit/experiments/metrics"
	"searchkit/game"
	"searchkit/searcher"
	"time"

	"github.com/rs/zerolog/log"
)

// Agent picks moves for whichever side is to move.
type Agent interface {
	FindMove(ctx context.Context, state game.State) (game.Move, metrics.SearchMetric)
}

// Option supplies the state family's heuristics.
type Option func(h *heuristics)

type heuristics struct {
	evaluate game.Evaluate
	orderer  searcher.Orderer
	policy   searcher.RolloutPolicy
}

// WithEvaluate sets the static evaluation used at alpha-beta leaves and MCTS
// cutoffs.
func WithEvaluate(evaluate game.Evaluate) Option {
	return func(h *heuristics) {
		h.evaluate = evaluate
	}
}

func WithOrderer(orderer searcher.Orderer) Option {
	return func(h *heuristics) {
		h.orderer = orderer
	}
}

func WithRolloutPolicy(policy searcher.RolloutPolicy) Option {
	return func(h *heuristics) {
		h.policy = policy
	}
}

// SearchAgent searches every move with one configuration.
type SearchAgent struct {
	cfg      config.Search
	searcher searcher.Searcher
}

func New(cfg config.Search, options ...Option) (*SearchAgent, error) {
	s, err := NewSearcher(cfg, options...)
	if err != nil {
		return nil, err
	}
	return &SearchAgent{cfg: cfg, searcher: s}, nil
}

func (a *SearchAgent) Config() config.Search {
	return a.cfg
}

func (a *SearchAgent) FindMove(ctx context.Context, state game.State) (game.Move, metrics.SearchMetric) {
	return choose(ctx, a.searcher, state, a.cfg.Budget)
}

// NewSearcher builds the searcher named by cfg.Kind.
func NewSearcher(cfg config.Search, options ...Option) (searcher.Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &heuristics{}
	for _, option := range options {
		option(h)
	}

	switch searcher.Kind(cfg.Kind) {
	case searcher.KindAlphaBeta:
		entries := cfg.TableEntries
		if cfg.TableMemoryFraction > 0 {
			entries = searcher.EntriesForMemory(cfg.TableMemoryFraction, cfg.TableEntries)
		}
		abOptions := []searcher.AlphaBetaOption{
			searcher.WithMaxDepth(cfg.MaxDepth),
			searcher.WithTable(entries, searcher.Replacement(cfg.Replacement)),
		}
		if h.orderer != nil {
			abOptions = append(abOptions, searcher.WithOrderer(h.orderer))
		}
		return searcher.NewAlphaBeta(h.evaluate, abOptions...), nil

	case searcher.KindMCTS:
		mctsOptions := []searcher.MCTSOption{
			searcher.WithSimulations(cfg.Simulations),
			searcher.WithExploration(cfg.Exploration),
			searcher.WithCutoff(cfg.RolloutDepth),
			searcher.WithWorkers(cfg.Workers),
			searcher.WithSeed(cfg.Seed),
		}
		if h.policy != nil {
			mctsOptions = append(mctsOptions, searcher.WithRolloutPolicy(h.policy, cfg.RolloutBias))
		}
		if h.evaluate != nil {
			mctsOptions = append(mctsOptions, searcher.WithEvaluationFn(h.evaluate, cfg.RolloutScale))
		}
		return searcher.NewMCTS(mctsOptions...), nil

	case searcher.KindAStar:
		return searcher.NewAStar(searcher.WithMaxExpansions(cfg.MaxExpansions)), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", config.ErrInvalid, cfg.Kind)
}

// ChooseMove searches state for at most budget (0 for no time limit) with the
// searcher described by cfg. It returns nil only when state has no legal
// moves; a misconfigured or failing search degrades to the first legal move.
func ChooseMove(ctx context.Context, state game.State, budget time.Duration, cfg config.Search, options ...Option) (game.Move, metrics.SearchMetric) {
	s, err := NewSearcher(cfg, options...)
	if err != nil {
		log.Error().Err(err).Msg("cannot-build-searcher")
		moves := state.LegalMoves()
		if len(moves) == 0 {
			return nil, metrics.SearchMetric{Kind: cfg.Kind}
		}
		return moves[0], metrics.SearchMetric{Kind: cfg.Kind, Move: moves[0]}
	}
	return choose(ctx, s, state, budget)
}

func choose(ctx context.Context, s searcher.Searcher, state game.State, budget time.Duration) (move game.Move, metric metrics.SearchMetric) {
	moves := state.LegalMoves()
	if len(moves) == 0 {
		return nil, metrics.SearchMetric{}
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Stringer("fallback", moves[0]).Msg("search-panicked")
			move, metric = moves[0], metrics.SearchMetric{Move: moves[0]}
		}
	}()

	move, metric = s.Search(state, searcher.NewBudget(ctx, budget))
	if move == nil {
		log.Warn().Str("kind", metric.Kind).Msg("search-returned-no-move")
		move = moves[0]
		metric.Move = move
	}
	return move, metric
}
