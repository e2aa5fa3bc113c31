package gomoku

import (
	"sync"

	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// zobrist holds one random key per (cell, colour) and per side to move.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type zobrist struct {
	cell [][3]uint64
	turn [3]uint64
}

func newZobrist(size int) *zobrist {
	z := &zobrist{cell: make([][3]uint64, size*size)}
	for i := range z.cell {
		z.cell[i][Black] = frand.Uint64n(bignum) + 1
		z.cell[i][White] = frand.Uint64n(bignum) + 1
	}
	for i := range z.turn {
		z.turn[i] = frand.Uint64n(bignum) + 1
	}
	return z
}

var zobristTables = struct {
	sync.Mutex
	bySize map[int]*zobrist
}{bySize: make(map[int]*zobrist)}

// zobristFor shares one table per board size so hashes of boards built
// separately stay comparable within the process.
func zobristFor(size int) *zobrist {
	zobristTables.Lock()
	defer zobristTables.Unlock()
	if z, ok := zobristTables.bySize[size]; ok {
		return z
	}
	z := newZobrist(size)
	zobristTables.bySize[size] = z
	return z
}
