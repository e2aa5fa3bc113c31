package puzzle

import (
	"errors"
	"fmt"
	"strings"
)

var ErrLevel = errors.New("malformed level")

// Point is a grid coordinate, X to the right and Y downwards.
type Point struct {
	X, Y int
}

func (p Point) add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Level is the fixed part of a puzzle: its walls and goals.
type Level struct {
	width, height int
	walls         []bool
	goals         []bool
	goalList      []int
	start         Point
	boxes         []int
}

func (l *Level) Width() int  { return l.width }
func (l *Level) Height() int { return l.height }

func (l *Level) inside(p Point) bool {
	return p.X >= 0 && p.X < l.width && p.Y >= 0 && p.Y < l.height
}

func (l *Level) index(p Point) int {
	return p.Y*l.width + p.X
}

func (l *Level) point(idx int) Point {
	return Point{X: idx % l.width, Y: idx / l.width}
}

// blocked reports walls and cells off the board.
func (l *Level) blocked(p Point) bool {
	return !l.inside(p) || l.walls[l.index(p)]
}

func (l *Level) IsGoal(p Point) bool {
	return l.inside(p) && l.goals[l.index(p)]
}

// ParseLevel reads the usual text format: '#' wall, '@' mover, '$' box,
// '.' goal, '*' box on a goal, '+' mover on a goal, anything else floor.
// Short rows are padded with floor. Leading empty lines are skipped, but a
// line of spaces is a row of floor.
func ParseLevel(text string) (*Level, error) {
	var rows []string
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		rows = append(rows, strings.TrimRight(line, "\r"))
	}
	for len(rows) > 0 && rows[0] == "" {
		rows = rows[1:]
	}
	l := &Level{height: len(rows)}
	for _, r := range rows {
		if len(r) > l.width {
			l.width = len(r)
		}
	}
	if l.width == 0 || l.height == 0 {
		return nil, fmt.Errorf("%w: empty", ErrLevel)
	}
	l.walls = make([]bool, l.width*l.height)
	l.goals = make([]bool, l.width*l.height)
	movers := 0
	for y, r := range rows {
		for x, ch := range r {
			idx := y*l.width + x
			switch ch {
			case '#':
				l.walls[idx] = true
			case '@', '+':
				l.start = Point{X: x, Y: y}
				movers++
			case '$', '*':
				l.boxes = append(l.boxes, idx)
			}
			if ch == '.' || ch == '*' || ch == '+' {
				l.goals[idx] = true
				l.goalList = append(l.goalList, idx)
			}
		}
	}
	switch {
	case movers != 1:
		return nil, fmt.Errorf("%w: want one mover, found %d", ErrLevel, movers)
	case len(l.boxes) == 0:
		return nil, fmt.Errorf("%w: no boxes", ErrLevel)
	case len(l.boxes) != len(l.goalList):
		return nil, fmt.Errorf("%w: %d boxes for %d goals", ErrLevel, len(l.boxes), len(l.goalList))
	}
	return l, nil
}

// Start is the initial state of the level.
func (l *Level) Start() *State {
	boxes := make([]int, len(l.boxes))
	copy(boxes, l.boxes)
	return &State{level: l, mover: l.start, boxes: boxes}
}
