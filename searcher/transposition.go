package searcher

import (
	"math"
	"searchkit/experiments/metrics"
	"searchkit/game"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

type TTFlag uint8

const (
	TTExact TTFlag = iota + 1
	TTLower
	TTUpper
)

// Replacement decides whether a store may evict an occupied slot.
type Replacement string

const (
	ReplaceAlways Replacement = "always"
	// ReplaceDepth keeps the deeper of two different positions sharing a
	// slot. The same position is always overwritten.
	ReplaceDepth Replacement = "depth"
)

const entrySize = 32

type TableEntry struct {
	key   uint64
	score float64
	depth int16
	flag  TTFlag
}

func (t TableEntry) valid() bool {
	return t.flag != 0
}

// TranspositionTable is a fixed-capacity hash table keyed by position hash.
// It belongs to a single search call and is not safe for concurrent use.
type TranspositionTable struct {
	table       []TableEntry
	sizeMask    uint64
	replacement Replacement

	lookups    uint64
	hits       uint64
	stores     uint64
	collisions uint64
}

// NewTranspositionTable allocates the largest power of two entries not above
// entries (minimum 1024).
func NewTranspositionTable(entries int, replacement Replacement) *TranspositionTable {
	if entries < 1024 {
		entries = 1024
	}
	size := 1 << int(math.Log2(float64(entries)))
	if replacement == "" {
		replacement = ReplaceAlways
	}
	return &TranspositionTable{
		table:       make([]TableEntry, size),
		sizeMask:    uint64(size - 1),
		replacement: replacement,
	}
}

// EntriesForMemory converts a fraction of total system memory to a number of
// entries, capped at maxEntries when positive.
func EntriesForMemory(fraction float64, maxEntries int) int {
	totalMem := memory.TotalMemory()
	desired := int(fraction * float64(totalMem) / entrySize)
	if maxEntries > 0 && desired > maxEntries {
		desired = maxEntries
	}
	log.Debug().
		Uint64("total-system-memory-bytes", totalMem).
		Float64("fraction", fraction).
		Int("entries", desired).
		Msg("transposition-table-size")
	return desired
}

func (t *TranspositionTable) Len() int {
	return len(t.table)
}

func (t *TranspositionTable) lookup(key uint64) (TableEntry, bool) {
	t.lookups++
	entry := t.table[key&t.sizeMask]
	if !entry.valid() {
		return TableEntry{}, false
	}
	if entry.key != key {
		// Another position occupies this slot.
		t.collisions++
		return TableEntry{}, false
	}
	t.hits++
	return entry, true
}

func (t *TranspositionTable) store(key uint64, entry TableEntry) {
	idx := key & t.sizeMask
	current := t.table[idx]
	if t.replacement == ReplaceDepth && current.valid() && current.key != key && current.depth > entry.depth {
		return
	}
	entry.key = key
	t.table[idx] = entry
	t.stores++
}

func (t *TranspositionTable) Metric() metrics.TableMetric {
	return metrics.TableMetric{
		Lookups:    t.lookups,
		Hits:       t.hits,
		Stores:     t.stores,
		Collisions: t.collisions,
	}
}

// hashState prefers the state's own hash and falls back to hashing its key.
func hashState(state game.State) uint64 {
	if h, ok := state.(game.Hasher); ok {
		return h.Hash()
	}
	return xxhash.Sum64String(state.Key())
}

// Win scores carry the distance to the win. The table stores them relative to
// the node so a transposition at another ply reads back a consistent value.
const winThreshold = game.WinScore - 1000

func scoreToTable(score float64, ply int) float64 {
	switch {
	case score >= winThreshold:
		return score + float64(ply)
	case score <= -winThreshold:
		return score - float64(ply)
	}
	return score
}

func scoreFromTable(score float64, ply int) float64 {
	switch {
	case score >= winThreshold:
		return score - float64(ply)
	case score <= -winThreshold:
		return score + float64(ply)
	}
	return score
}
