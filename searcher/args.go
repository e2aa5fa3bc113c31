package searcher

// Defaults for the searchers

const (
	DefaultMaxDepth = 4

	// Exploration constant c of UCB1, the exploration term is c*sqrt(ln N/n)
	DefaultExploration = 1.41421356
	DefaultRolloutBias  = 0.8
	DefaultRolloutDepth = 60
	DefaultSimulations  = 5000

	DefaultTableEntries = 1 << 20

	// Winning rollouts return WIN for the winner and LOSS for the other side
	WIN  = 1.0
	LOSS = -WIN
	DRAW = 0.0
)
