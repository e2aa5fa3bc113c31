package metrics

import (
	"searchkit/game"
	"sync/atomic"
	"time"
)

// DepthResult is the outcome of one fully completed iterative deepening pass.
type DepthResult struct {
	Depth int
	Move  game.Move
	Score float64
	Nodes int64
}

type TableMetric struct {
	Lookups    uint64
	Hits       uint64
	Stores     uint64
	Collisions uint64
}

type SearchMetric struct {
	Kind           string
	Workers        int
	Duration       time.Duration
	Nodes          int64 // alpha-beta nodes, MCTS simulations or A* expansions
	FullPlayouts   int64
	Move           game.Move
	Score          float64
	CompletedDepth int
	Depths         []DepthResult
	Table          TableMetric
	Path           []game.Move
	TimedOut       bool
}

type MoveMetric struct {
	Step   int
	Player game.Player
	SearchMetric
}

type GameMetric struct {
	StartingPlayer game.Player
	Winner         game.Player
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
	Truncated      bool // stopped by the move limit or cancellation
}

type Collector interface {
	Start(kind string, workers int)
	AddNode()
	AddFullPlayout()
	AddDepth(result DepthResult)
	SetTable(table TableMetric)
	SetTimedOut()
	Nodes() int64
	Complete(move game.Move, score float64) SearchMetric
}

type collector struct {
	kind         string
	workers      int
	startTime    time.Time
	nodes        atomic.Int64
	fullPlayouts atomic.Int64
	timedOut     atomic.Bool
	depths       []DepthResult
	table        TableMetric
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(kind string, workers int) {
	m.startTime = time.Now()
	m.kind = kind
	m.workers = workers
	m.nodes.Store(0)
	m.fullPlayouts.Store(0)
	m.timedOut.Store(false)
	m.depths = nil
	m.table = TableMetric{}
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

// AddDepth is only called from the searching goroutine.
func (m *collector) AddDepth(result DepthResult) {
	m.depths = append(m.depths, result)
}

func (m *collector) SetTable(table TableMetric) {
	m.table = table
}

func (m *collector) SetTimedOut() {
	m.timedOut.Store(true)
}

func (m *collector) Nodes() int64 {
	return m.nodes.Load()
}

func (m *collector) Complete(move game.Move, score float64) SearchMetric {
	metric := SearchMetric{
		Kind:         m.kind,
		Workers:      m.workers,
		Duration:     time.Since(m.startTime),
		Nodes:        m.nodes.Load(),
		FullPlayouts: m.fullPlayouts.Load(),
		Move:         move,
		Score:        score,
		Depths:       m.depths,
		Table:        m.table,
		TimedOut:     m.timedOut.Load(),
	}
	if n := len(m.depths); n > 0 {
		metric.CompletedDepth = m.depths[n-1].Depth
	}
	return metric
}
