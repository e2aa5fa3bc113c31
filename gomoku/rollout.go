package gomoku

import "searchkit/game"

// Policy is a cheap playout heuristic: win if possible, block an immediate
// loss, otherwise extend the longest line next to existing stones.
type Policy struct{}

func (Policy) Pick(s game.State, moves []game.Move) game.Move {
	b, ok := s.(*Board)
	if !ok || len(moves) == 0 {
		return nil
	}
	me := b.Player()
	mine, theirs := cellOf(me), cellOf(me.Opponent())
	var block, best game.Move
	bestScore := -1
	for _, m := range moves {
		p, ok := m.(Pos)
		if !ok || b.At(p) != Empty {
			continue
		}
		own := b.runWith(p, mine)
		if own >= WinLength {
			return m
		}
		other := b.runWith(p, theirs)
		if other >= WinLength && block == nil {
			block = m
		}
		score := 3*own + 2*other + b.adjacent(p)
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	if block != nil {
		return block
	}
	return best
}

// runWith is the longest line through p if p held a stone of colour c.
func (b *Board) runWith(p Pos, c Cell) int {
	longest := 0
	for _, d := range axisDelta {
		n := 1 + b.count(p, d, c) + b.count(p, Pos{Row: -d.Row, Col: -d.Col}, c)
		if n > longest {
			longest = n
		}
	}
	return longest
}

func (b *Board) adjacent(p Pos) int {
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if (dr != 0 || dc != 0) && b.At(Pos{Row: p.Row + dr, Col: p.Col + dc}) != Empty {
				n++
			}
		}
	}
	return n
}
