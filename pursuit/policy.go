package pursuit

import (
	"math"

	"searchkit/game"
)

// Policy steers playouts: never crash when a free cell exists, keep away from
// the border, head for the nearest pellet and prefer the side with more room.
type Policy struct{}

func (Policy) Pick(state game.State, moves []game.Move) game.Move {
	s, ok := state.(*State)
	if !ok || len(moves) == 0 {
		return nil
	}
	var best game.Move
	bestScore := math.Inf(-1)
	for _, m := range moves {
		d, ok := m.(Dir)
		if !ok {
			continue
		}
		if score := s.moveScore(d); score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

func (s *State) moveScore(d Dir) float64 {
	next := s.heads[s.toMove].add(dirDelta[d])
	if !s.Free(next) {
		return -1e6
	}
	score := 3 * float64(s.reachable(next))
	if next.X == 0 || next.Y == 0 || next.X == s.width-1 || next.Y == s.height-1 {
		score -= 2
	}
	if s.pellets[s.index(next)] {
		score += 10
	} else if dist := s.nearestPellet(next); dist >= 0 {
		score -= float64(dist)
	}
	return score
}

// reachable counts the free cells connected to from, excluding from itself.
func (s *State) reachable(from Point) int {
	seen := make([]bool, len(s.trail))
	seen[s.index(from)] = true
	queue := []Point{from}
	count := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range dirDelta {
			q := p.add(d)
			if !s.Free(q) || seen[s.index(q)] {
				continue
			}
			seen[s.index(q)] = true
			count++
			queue = append(queue, q)
		}
	}
	return count
}

// nearestPellet is the Manhattan distance to the closest pellet, -1 if none.
func (s *State) nearestPellet(from Point) int {
	best := -1
	for idx, pellet := range s.pellets {
		if !pellet {
			continue
		}
		p := Point{X: idx % s.width, Y: idx / s.width}
		d := abs(p.X-from.X) + abs(p.Y-from.Y)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// Evaluate scores the position for the side to move in [-1, 1]: the share of
// the board each head can still reach, nudged by the score difference.
func Evaluate(state game.State) float64 {
	s, ok := state.(*State)
	if !ok {
		return 0
	}
	me := s.toMove
	if s.over {
		switch s.winner {
		case me:
			return 1
		case game.NoPlayer:
			return 0
		}
		return -1
	}
	area := float64(s.width * s.height)
	room := float64(s.reachable(s.heads[me])-s.reachable(s.heads[me.Opponent()])) / area
	lead := float64(s.scores[me]-s.scores[me.Opponent()]) / 3
	value := 0.7*room + 0.3*math.Max(-1, math.Min(1, lead))
	return math.Max(-1, math.Min(1, value))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
