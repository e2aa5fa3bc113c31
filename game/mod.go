package game

import (
	"errors"
	"fmt"
)

// Player identifies a side. NoPlayer doubles as "draw" or "not over" in Winner.
type Player int8

const (
	NoPlayer Player = iota
	First
	Second
)

func (p Player) Opponent() Player {
	switch p {
	case First:
		return Second
	case Second:
		return First
	}
	return NoPlayer
}

func (p Player) String() string {
	switch p {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return "none"
}

// WinScore is the value of a decided game. Evaluators must keep positional
// scores strictly below it.
const WinScore = 1e9

var ErrIllegalMove = errors.New("illegal move")

// Move is an action of some state family. Implementations must be comparable,
// searchers use moves as map keys.
type Move interface {
	fmt.Stringer
}

// State is the capability every searcher programs against. Apply mutates the
// receiver; a rejected move returns an error wrapping ErrIllegalMove and
// leaves the state untouched. Replaying the same moves on a clone must
// reproduce the same Key.
type State interface {
	Player() Player
	LegalMoves() []Move
	Apply(Move) error
	Clone() State
	IsTerminal() bool
	Winner() Player
	Key() string
}

// Undoer is implemented by states that can take back the last applied move,
// letting searchers avoid a clone per node.
type Undoer interface {
	Undo(Move) error
}

// Hasher is implemented by states that maintain their own 64-bit position
// hash (e.g. Zobrist). Equal keys must produce equal hashes.
type Hasher interface {
	Hash() uint64
}

// Evaluates the state to a score from the perspective of the player to move.
type Evaluate func(State) float64

// Outcome scores a terminal state from the perspective of the player to move:
// WinScore, -WinScore or 0.
func Outcome(s State) float64 {
	switch s.Winner() {
	case NoPlayer:
		return 0
	case s.Player():
		return WinScore
	}
	return -WinScore
}
