package pursuit

import (
	"fmt"
	"searchkit/game"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
)

const (
	DefaultWidth    = 11
	DefaultHeight   = 11
	DefaultPellets  = 5
	DefaultMaxTurns = 120
)

type Dir int8

const (
	Up Dir = iota
	Down
	Left
	Right
)

var Dirs = [...]Dir{Up, Down, Left, Right}

var dirDelta = [...]Point{Up: {0, -1}, Down: {0, 1}, Left: {-1, 0}, Right: {1, 0}}

func (d Dir) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "?"
}

type Point struct {
	X, Y int
}

func (p Point) add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

type Option func(s *State)

func WithPellets(n int) Option {
	return func(s *State) {
		if n >= 0 {
			s.pelletCount = n
		}
	}
}

// WithMaxTurns ends the game after the given number of plies.
func WithMaxTurns(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithSeed fixes pellet placement.
func WithSeed(seed uint64) Option {
	return func(s *State) {
		s.seed = seed
	}
}

// State is a two-player light-cycle game. Players alternate single steps and
// leave a permanent trail; running into a wall, a trail or the other head
// loses. Pellets score a point each. When the ply limit is reached the higher
// score wins.
type State struct {
	width, height int
	trail         []game.Player // owner of each cell, NoPlayer when free
	pellets       []bool
	heads         [3]Point
	scores        [3]int
	toMove        game.Player
	turn          int
	maxTurns      int
	winner        game.Player
	over          bool

	pelletCount int
	seed        uint64
}

// New starts First in the left third and Second in the right third of the
// middle row and scatters pellets on free cells.
func New(width, height int, options ...Option) *State {
	if width < 4 {
		width = 4
	}
	if height < 1 {
		height = 1
	}
	s := &State{
		width:       width,
		height:      height,
		trail:       make([]game.Player, width*height),
		pellets:     make([]bool, width*height),
		toMove:      game.First,
		maxTurns:    DefaultMaxTurns,
		pelletCount: DefaultPellets,
		seed:        1,
	}
	for _, option := range options {
		option(s)
	}
	s.heads[game.First] = Point{X: width / 3, Y: height / 2}
	s.heads[game.Second] = Point{X: width - 1 - width/3, Y: height / 2}
	s.trail[s.index(s.heads[game.First])] = game.First
	s.trail[s.index(s.heads[game.Second])] = game.Second

	rng := rand.New(rand.NewSource(s.seed))
	free := width*height - 2
	for placed := 0; placed < s.pelletCount && placed < free; {
		idx := rng.Intn(width * height)
		if s.trail[idx] != game.NoPlayer || s.pellets[idx] {
			continue
		}
		s.pellets[idx] = true
		placed++
	}
	return s
}

func (s *State) inside(p Point) bool {
	return p.X >= 0 && p.X < s.width && p.Y >= 0 && p.Y < s.height
}

func (s *State) index(p Point) int {
	return p.Y*s.width + p.X
}

// Free reports whether p is on the board and not yet driven over.
func (s *State) Free(p Point) bool {
	return s.inside(p) && s.trail[s.index(p)] == game.NoPlayer
}

func (s *State) Head(p game.Player) Point {
	return s.heads[p]
}

func (s *State) Score(p game.Player) int {
	return s.scores[p]
}

func (s *State) Pellet(p Point) bool {
	return s.inside(p) && s.pellets[s.index(p)]
}

func (s *State) Player() game.Player {
	return s.toMove
}

func (s *State) Winner() game.Player {
	return s.winner
}

func (s *State) IsTerminal() bool {
	return s.over
}

// LegalMoves offers all four directions; steering into an obstacle is legal
// and loses.
func (s *State) LegalMoves() []game.Move {
	if s.over {
		return nil
	}
	moves := make([]game.Move, len(Dirs))
	for i, d := range Dirs {
		moves[i] = d
	}
	return moves
}

func (s *State) Apply(move game.Move) error {
	d, ok := move.(Dir)
	if !ok || d < Up || d > Right {
		return fmt.Errorf("%w: %v is not a direction", game.ErrIllegalMove, move)
	}
	if s.over {
		return fmt.Errorf("%w: game is over", game.ErrIllegalMove)
	}
	me := s.toMove
	next := s.heads[me].add(dirDelta[d])
	s.turn++
	s.toMove = me.Opponent()
	if !s.Free(next) {
		s.over = true
		s.winner = me.Opponent()
		return nil
	}
	idx := s.index(next)
	s.trail[idx] = me
	s.heads[me] = next
	if s.pellets[idx] {
		s.pellets[idx] = false
		s.scores[me]++
	}
	if s.turn >= s.maxTurns {
		s.over = true
		switch {
		case s.scores[game.First] > s.scores[game.Second]:
			s.winner = game.First
		case s.scores[game.Second] > s.scores[game.First]:
			s.winner = game.Second
		}
	}
	return nil
}

func (s *State) Clone() game.State {
	c := *s
	c.trail = make([]game.Player, len(s.trail))
	copy(c.trail, s.trail)
	c.pellets = make([]bool, len(s.pellets))
	copy(c.pellets, s.pellets)
	return &c
}

func (s *State) Key() string {
	var sb strings.Builder
	sb.Grow(len(s.trail) + 32)
	for i, owner := range s.trail {
		switch {
		case owner != game.NoPlayer:
			sb.WriteByte(byte('0' + owner))
		case s.pellets[i]:
			sb.WriteByte('*')
		default:
			sb.WriteByte('.')
		}
	}
	for _, p := range []game.Player{game.First, game.Second} {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(s.index(s.heads[p])))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(s.scores[p]))
	}
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(s.turn))
	if s.over {
		sb.WriteString("|over")
	}
	return sb.String()
}

func (s *State) String() string {
	var sb strings.Builder
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			p := Point{X: x, Y: y}
			switch {
			case p == s.heads[game.First]:
				sb.WriteByte('A')
			case p == s.heads[game.Second]:
				sb.WriteByte('B')
			case s.trail[s.index(p)] == game.First:
				sb.WriteByte('a')
			case s.trail[s.index(p)] == game.Second:
				sb.WriteByte('b')
			case s.pellets[s.index(p)]:
				sb.WriteByte('*')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
