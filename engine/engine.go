package engine

import (
	"context"
	"searchkit/experiments/metrics"
	"searchkit/game"
)

const MaxMoves = 10000

type Engine interface {
	// Run plays until the state is terminal, the move limit is reached or ctx
	// is done.
	Run(ctx context.Context) (winner game.Player, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric)
}

// Update is one applied move.
type Update struct {
	Step   int
	Player game.Player
	Move   game.Move
	Key    string // state key after the move
}
