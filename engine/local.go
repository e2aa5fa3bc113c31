package engine

import (
	"context"
	"errors"
	"searchkit/agent"
	"searchkit/experiments/metrics"
	"searchkit/game"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrAgents = errors.New("need one agent per side")

type Option func(e *LocalEngine)

func WithMaxMoves(moves int) Option {
	return func(e *LocalEngine) {
		if moves > 0 {
			e.maxMoves = moves
		}
	}
}

// WithObserver is called after every applied move.
func WithObserver(observer func(Update)) Option {
	return func(e *LocalEngine) {
		e.observer = observer
	}
}

// LocalEngine plays two agents against each other in process.
type LocalEngine struct {
	State    game.State
	agents   map[game.Player]agent.Agent
	maxMoves int
	observer func(Update)
	history  []Update
}

func NewLocalEngine(state game.State, first, second agent.Agent, options ...Option) (*LocalEngine, error) {
	if first == nil || second == nil {
		return nil, ErrAgents
	}
	e := &LocalEngine{
		State:    state,
		agents:   map[game.Player]agent.Agent{game.First: first, game.Second: second},
		maxMoves: MaxMoves,
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

func (e *LocalEngine) History() []Update {
	return e.history
}

// Run executes the entire game loop until a winner is found.
func (e *LocalEngine) Run(ctx context.Context) (game.Player, metrics.GameMetric, []metrics.MoveMetric) {
	gameMetric := metrics.GameMetric{
		StartingPlayer: e.State.Player(),
		StartTime:      time.Now(),
	}
	var moveMetrics []metrics.MoveMetric

	log.Debug().Stringer("player", e.State.Player()).Msg("game-starting")

	step := 1
	for !e.State.IsTerminal() && step <= e.maxMoves {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("step", step).Msg("game-cancelled")
			break
		}
		player := e.State.Player()
		a, ok := e.agents[player]
		if !ok {
			log.Error().Stringer("player", player).Msg("no-agent-for-player")
			break
		}

		move, searchMetric := a.FindMove(ctx, e.State)
		if move == nil {
			break
		}
		if err := e.State.Apply(move); err != nil {
			// Keep the game going with a move the rules accept.
			log.Warn().Err(err).Stringer("player", player).Stringer("move", move).Msg("agent-chose-illegal-move")
			move = e.firstLegal()
			if move == nil {
				break
			}
			searchMetric.Move = move
		}
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       player,
			SearchMetric: searchMetric,
		})

		u := Update{Step: step, Player: player, Move: move, Key: e.State.Key()}
		e.history = append(e.history, u)
		if e.observer != nil {
			e.observer(u)
		}
		step++
	}

	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = len(moveMetrics)
	gameMetric.Winner = e.State.Winner()
	gameMetric.Truncated = !e.State.IsTerminal()

	if gameMetric.Truncated {
		log.Debug().Int("moves", gameMetric.TotalMoves).Msg("game-stopped-before-the-end")
	} else {
		log.Debug().Stringer("winner", gameMetric.Winner).Int("moves", gameMetric.TotalMoves).Msg("game-over")
	}
	return gameMetric.Winner, gameMetric, moveMetrics
}

// firstLegal applies the first legal move the state accepts.
func (e *LocalEngine) firstLegal() game.Move {
	for _, m := range e.State.LegalMoves() {
		if err := e.State.Apply(m); err == nil {
			return m
		}
	}
	return nil
}
