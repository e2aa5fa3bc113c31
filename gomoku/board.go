package gomoku

import (
	"errors"
	"fmt"
	"searchkit/game"
	"strings"
)

const (
	DefaultSize   = 15
	DefaultRadius = 2
	WinLength     = 5
)

type Cell int8

const (
	Empty Cell = iota
	Black      // played by game.First
	White      // played by game.Second
)

func cellOf(p game.Player) Cell {
	return Cell(p)
}

func (c Cell) String() string {
	switch c {
	case Black:
		return "X"
	case White:
		return "O"
	}
	return "."
}

// Pos is a board coordinate and the Move type of gomoku.
type Pos struct {
	Row, Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

var ErrTakeBack = errors.New("can only take back the last move")

type BoardOption func(b *Board)

// WithRadius restricts LegalMoves to empty cells within radius (Chebyshev
// distance) of a stone. Zero offers every empty cell.
func WithRadius(radius int) BoardOption {
	return func(b *Board) {
		if radius >= 0 {
			b.radius = radius
		}
	}
}

// Board is a five-in-a-row position. Cells are stored row-major in a single
// slice; moves are applied in place and can be taken back with Undo.
type Board struct {
	size    int
	radius  int
	cells   []Cell
	toMove  game.Player
	winner  game.Player
	stones  int
	hash    uint64
	history []Pos
	keys    *zobrist
}

func NewBoard(size int, options ...BoardOption) *Board {
	if size < WinLength {
		size = WinLength
	}
	b := &Board{
		size:   size,
		radius: DefaultRadius,
		cells:  make([]Cell, size*size),
		toMove: game.First,
		keys:   zobristFor(size),
	}
	for _, option := range options {
		option(b)
	}
	b.hash = b.keys.turn[b.toMove]
	return b
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) inside(p Pos) bool {
	return p.Row >= 0 && p.Row < b.size && p.Col >= 0 && p.Col < b.size
}

func (b *Board) index(p Pos) int {
	return p.Row*b.size + p.Col
}

func (b *Board) pos(idx int) Pos {
	return Pos{Row: idx / b.size, Col: idx % b.size}
}

// At returns Empty for coordinates off the board.
func (b *Board) At(p Pos) Cell {
	if !b.inside(p) {
		return Empty
	}
	return b.cells[b.index(p)]
}

func (b *Board) Player() game.Player {
	return b.toMove
}

func (b *Board) Winner() game.Player {
	return b.winner
}

func (b *Board) IsTerminal() bool {
	return b.winner != game.NoPlayer || b.stones == len(b.cells)
}

func (b *Board) Stones() int {
	return b.stones
}

func (b *Board) Hash() uint64 {
	return b.hash
}

// Key is one byte per cell followed by the side to move.
func (b *Board) Key() string {
	var sb strings.Builder
	sb.Grow(len(b.cells) + 1)
	for _, c := range b.cells {
		sb.WriteByte(c.String()[0])
	}
	sb.WriteByte(byte('0' + b.toMove))
	return sb.String()
}

func (b *Board) Clone() game.State {
	return b.clone()
}

func (b *Board) clone() *Board {
	c := *b
	c.cells = make([]Cell, len(b.cells))
	copy(c.cells, b.cells)
	c.history = make([]Pos, len(b.history), len(b.history)+8)
	copy(c.history, b.history)
	return &c
}

// LegalMoves lists candidate cells in row-major order: the centre on an empty
// board, otherwise the empty cells near existing stones.
func (b *Board) LegalMoves() []game.Move {
	if b.IsTerminal() {
		return nil
	}
	if b.stones == 0 {
		return []game.Move{Pos{Row: b.size / 2, Col: b.size / 2}}
	}
	moves := make([]game.Move, 0, 64)
	for idx, c := range b.cells {
		if c != Empty {
			continue
		}
		p := b.pos(idx)
		if b.radius == 0 || b.hasNeighbor(p, b.radius) {
			moves = append(moves, p)
		}
	}
	return moves
}

func (b *Board) hasNeighbor(p Pos, radius int) bool {
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if b.At(Pos{Row: p.Row + dr, Col: p.Col + dc}) != Empty {
				return true
			}
		}
	}
	return false
}

func (b *Board) Apply(move game.Move) error {
	p, ok := move.(Pos)
	if !ok {
		return fmt.Errorf("%w: %v is not a board position", game.ErrIllegalMove, move)
	}
	if b.IsTerminal() {
		return fmt.Errorf("%w: game is over", game.ErrIllegalMove)
	}
	if !b.inside(p) || b.cells[b.index(p)] != Empty {
		return fmt.Errorf("%w: %v is not an empty cell", game.ErrIllegalMove, p)
	}
	b.place(p, cellOf(b.toMove))
	if b.runThrough(p) >= WinLength {
		b.winner = b.toMove
	}
	b.history = append(b.history, p)
	b.setTurn(b.toMove.Opponent())
	return nil
}

func (b *Board) Undo(move game.Move) error {
	p, ok := move.(Pos)
	n := len(b.history)
	if !ok || n == 0 || b.history[n-1] != p {
		return fmt.Errorf("%w: %v", ErrTakeBack, move)
	}
	b.history = b.history[:n-1]
	b.remove(p)
	b.winner = game.NoPlayer
	b.setTurn(b.toMove.Opponent())
	return nil
}

// Put places a stone without changing the side to move; used to set up
// positions.
func (b *Board) Put(p Pos, c Cell) error {
	if !b.inside(p) || c == Empty {
		return fmt.Errorf("%w: cannot put %v at %v", game.ErrIllegalMove, c, p)
	}
	if b.cells[b.index(p)] != Empty {
		return fmt.Errorf("%w: %v is occupied", game.ErrIllegalMove, p)
	}
	b.place(p, c)
	if b.runThrough(p) >= WinLength {
		b.winner = game.Player(c)
	}
	return nil
}

func (b *Board) SetPlayer(p game.Player) {
	if p == game.First || p == game.Second {
		b.setTurn(p)
	}
}

func (b *Board) place(p Pos, c Cell) {
	idx := b.index(p)
	b.cells[idx] = c
	b.stones++
	b.hash ^= b.keys.cell[idx][c]
}

func (b *Board) remove(p Pos) {
	idx := b.index(p)
	b.hash ^= b.keys.cell[idx][b.cells[idx]]
	b.cells[idx] = Empty
	b.stones--
}

func (b *Board) setTurn(p game.Player) {
	b.hash ^= b.keys.turn[b.toMove]
	b.toMove = p
	b.hash ^= b.keys.turn[b.toMove]
}

// runThrough is the longest line of p's colour passing through p.
func (b *Board) runThrough(p Pos) int {
	return b.runWith(p, b.At(p))
}

func (b *Board) count(p Pos, d Pos, c Cell) int {
	n := 0
	for q := (Pos{Row: p.Row + d.Row, Col: p.Col + d.Col}); b.inside(q) && b.At(q) == c; q = (Pos{Row: q.Row + d.Row, Col: q.Col + d.Col}) {
		n++
	}
	return n
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			sb.WriteString(b.cells[r*b.size+c].String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse reads a square board of '.', 'X' and 'O' rows. toMove NoPlayer infers
// the side to move from the stone counts.
func Parse(text string, toMove game.Player, options ...BoardOption) (*Board, error) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), "")
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) < WinLength {
		return nil, fmt.Errorf("board needs at least %d rows, got %d", WinLength, len(rows))
	}
	b := NewBoard(len(rows), options...)
	var black, white int
	for r, row := range rows {
		if len(row) != len(rows) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(row), len(rows))
		}
		for c, ch := range row {
			var cell Cell
			switch ch {
			case '.':
				continue
			case 'X', 'x':
				cell = Black
				black++
			case 'O', 'o':
				cell = White
				white++
			default:
				return nil, fmt.Errorf("row %d: unexpected %q", r, ch)
			}
			if err := b.Put(Pos{Row: r, Col: c}, cell); err != nil {
				return nil, err
			}
		}
	}
	if toMove == game.NoPlayer {
		switch black - white {
		case 0:
			toMove = game.First
		case 1:
			toMove = game.Second
		default:
			return nil, fmt.Errorf("cannot infer side to move from %d black and %d white stones", black, white)
		}
	}
	b.SetPlayer(toMove)
	return b, nil
}
