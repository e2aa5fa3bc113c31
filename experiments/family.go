package experiments

import (
	"fmt"
	"searchkit/agent"
	"searchkit/config"
	"searchkit/game"
	"searchkit/gomoku"
	"searchkit/pursuit"
)

// Family builds opening positions and search heuristics for one game.
type Family struct {
	Name string
	// NewState returns the opening position of the i-th game of a match-up.
	NewState func(i int) game.State
	// Options are the heuristics handed to an agent with search config s.
	Options func(s config.Search) []agent.Option
}

func NewFamily(cfg *config.Config) (*Family, error) {
	size := cfg.Experiment.BoardSize
	switch cfg.Experiment.Family {
	case "gomoku":
		evaluator, err := gomoku.NewEvaluator(cfg.Weights)
		if err != nil {
			return nil, err
		}
		return &Family{
			Name: "gomoku",
			NewState: func(int) game.State {
				return gomoku.NewBoard(size)
			},
			Options: func(s config.Search) []agent.Option {
				return []agent.Option{
					agent.WithEvaluate(evaluator.Evaluate),
					agent.WithOrderer(gomoku.NewOrderer(s.OrderThreshold)),
					agent.WithRolloutPolicy(gomoku.Policy{}),
				}
			},
		}, nil

	case "pursuit":
		return &Family{
			Name: "pursuit",
			// Consecutive games share a layout so each agent plays it from
			// both sides.
			NewState: func(i int) game.State {
				return pursuit.New(size, size, pursuit.WithSeed(uint64(i/2+1)))
			},
			Options: func(config.Search) []agent.Option {
				return []agent.Option{
					agent.WithEvaluate(pursuit.Evaluate),
					agent.WithRolloutPolicy(pursuit.Policy{}),
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown family %q", config.ErrInvalid, cfg.Experiment.Family)
}
