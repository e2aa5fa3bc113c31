package puzzle

import (
	"errors"
	"fmt"
	"searchkit/game"
	"sort"
	"strconv"
	"strings"
)

var ErrBlocked = fmt.Errorf("%w: blocked", game.ErrIllegalMove)

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
		return "U"
	case Down:
		return "D"
	case Left:
		return "L"
	case Right:
		return "R"
	}
	return "?"
}

// State is the mover position and the sorted box cells. The level is shared
// and never mutated.
type State struct {
	level *Level
	mover Point
	boxes []int
}

func (s *State) Level() *Level { return s.level }
func (s *State) Mover() Point  { return s.mover }

func (s *State) Boxes() []Point {
	ps := make([]Point, len(s.boxes))
	for i, idx := range s.boxes {
		ps[i] = s.level.point(idx)
	}
	return ps
}

func (s *State) boxAt(p Point) int {
	if !s.level.inside(p) {
		return -1
	}
	idx := s.level.index(p)
	i := sort.SearchInts(s.boxes, idx)
	if i < len(s.boxes) && s.boxes[i] == idx {
		return i
	}
	return -1
}

// Player is always First; the puzzle has a single agent.
func (s *State) Player() game.Player {
	return game.First
}

func (s *State) Winner() game.Player {
	if s.IsTerminal() {
		return game.First
	}
	return game.NoPlayer
}

// IsTerminal reports that every box sits on a goal.
func (s *State) IsTerminal() bool {
	return s.Placed() == len(s.boxes)
}

func (s *State) Placed() int {
	n := 0
	for _, idx := range s.boxes {
		if s.level.goals[idx] {
			n++
		}
	}
	return n
}

// LegalMoves lists the directions Apply accepts.
func (s *State) LegalMoves() []game.Move {
	if s.IsTerminal() {
		return nil
	}
	moves := make([]game.Move, 0, len(Dirs))
	for _, d := range Dirs {
		if s.check(d) == nil {
			moves = append(moves, d)
		}
	}
	return moves
}

func (s *State) check(d Dir) error {
	next := s.mover.add(dirDelta[d])
	if s.level.blocked(next) {
		return fmt.Errorf("%w: wall at %v", ErrBlocked, next)
	}
	if s.boxAt(next) < 0 {
		return nil
	}
	beyond := next.add(dirDelta[d])
	if s.level.blocked(beyond) || s.boxAt(beyond) >= 0 {
		return fmt.Errorf("%w: box at %v cannot move to %v", ErrBlocked, next, beyond)
	}
	return nil
}

func (s *State) Apply(move game.Move) error {
	d, ok := move.(Dir)
	if !ok || d < Up || d > Right {
		return fmt.Errorf("%w: %v is not a direction", game.ErrIllegalMove, move)
	}
	if err := s.check(d); err != nil {
		return err
	}
	next := s.mover.add(dirDelta[d])
	if i := s.boxAt(next); i >= 0 {
		s.boxes[i] = s.level.index(next.add(dirDelta[d]))
		sort.Ints(s.boxes)
	}
	s.mover = next
	return nil
}

// Play applies a sequence of moves, stopping at the first rejected one.
func (s *State) Play(moves []game.Move) error {
	for i, m := range moves {
		if err := s.Apply(m); err != nil {
			return fmt.Errorf("move %d: %w", i, err)
		}
	}
	return nil
}

func (s *State) Clone() game.State {
	boxes := make([]int, len(s.boxes))
	copy(boxes, s.boxes)
	return &State{level: s.level, mover: s.mover, boxes: boxes}
}

func (s *State) Key() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(s.level.index(s.mover)))
	for _, idx := range s.boxes {
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// Heuristic sums, over boxes off goal, the Manhattan distance to the nearest
// goal not yet claimed by another box. Goals holding a box are claimed first.
func (s *State) Heuristic() int {
	claimed := make(map[int]bool, len(s.boxes))
	for _, idx := range s.boxes {
		if s.level.goals[idx] {
			claimed[idx] = true
		}
	}
	total := 0
	for _, idx := range s.boxes {
		if s.level.goals[idx] {
			continue
		}
		box := s.level.point(idx)
		best, bestGoal := -1, -1
		for _, g := range s.level.goalList {
			if claimed[g] {
				continue
			}
			if d := manhattan(box, s.level.point(g)); best < 0 || d < best {
				best, bestGoal = d, g
			}
		}
		if bestGoal < 0 {
			continue
		}
		claimed[bestGoal] = true
		total += best
	}
	return total
}

// Deadlocked reports a box off goal wedged in a corner of walls or board
// edges; no push can move it again.
func (s *State) Deadlocked() bool {
	for _, idx := range s.boxes {
		if s.level.goals[idx] {
			continue
		}
		p := s.level.point(idx)
		vertical := s.level.blocked(p.add(dirDelta[Up])) || s.level.blocked(p.add(dirDelta[Down]))
		horizontal := s.level.blocked(p.add(dirDelta[Left])) || s.level.blocked(p.add(dirDelta[Right]))
		if vertical && horizontal {
			return true
		}
	}
	return false
}

func (s *State) String() string {
	var sb strings.Builder
	for y := 0; y < s.level.height; y++ {
		for x := 0; x < s.level.width; x++ {
			p := Point{X: x, Y: y}
			goal := s.level.IsGoal(p)
			switch {
			case s.level.walls[s.level.index(p)]:
				sb.WriteByte('#')
			case p == s.mover && goal:
				sb.WriteByte('+')
			case p == s.mover:
				sb.WriteByte('@')
			case s.boxAt(p) >= 0 && goal:
				sb.WriteByte('*')
			case s.boxAt(p) >= 0:
				sb.WriteByte('$')
			case goal:
				sb.WriteByte('.')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// IsBlocked reports whether err is a rejected push or a walk into a wall.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}
