package gomoku

import (
	"searchkit/game"
	"sort"

	"github.com/samber/lo"
)

// Ranks are summed; each outweighs every rank below it put together.
const (
	rankWin            = 1e12
	rankBlockWin       = 1e11
	rankOpenFour       = 1e10
	rankBlockOpenFour  = 1e9
	rankOpenThree      = 1e8
	rankBlockForcing   = 1e7
	rankPotentialLimit = 1e6
)

const DefaultOrderThreshold = 10

// ScoredMove is a candidate cell with its ordering score.
type ScoredMove struct {
	Pos   Pos
	Score float64
}

type Orderer struct {
	threshold int
}

// NewOrderer ranks candidate lists of at least threshold moves; shorter lists
// are returned as given.
func NewOrderer(threshold int) *Orderer {
	if threshold < 0 {
		threshold = DefaultOrderThreshold
	}
	return &Orderer{threshold: threshold}
}

// Order sorts moves of a gomoku board best first. Moves of other states, and
// lists shorter than the threshold, are returned unchanged.
func (o *Orderer) Order(s game.State, moves []game.Move) []game.Move {
	b, ok := s.(*Board)
	if !ok || len(moves) < o.threshold {
		return moves
	}
	scored := make([]ScoredMove, 0, len(moves))
	for _, m := range moves {
		p, ok := m.(Pos)
		if !ok {
			return moves
		}
		scored = append(scored, ScoredMove{Pos: p, Score: o.Score(b, p)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return lo.Map(scored, func(sm ScoredMove, _ int) game.Move {
		return sm.Pos
	})
}

// Score rates playing p for the side to move using the shapes p creates for
// it and the shapes it takes away from the opponent.
func (o *Orderer) Score(b *Board, p Pos) float64 {
	if b.At(p) != Empty {
		return 0
	}
	me := b.Player()
	opp := me.Opponent()
	mine, theirs := cellOf(me), cellOf(opp)

	ownBefore := b.localCensus(p, Empty, me)
	ownAfter := b.localCensus(p, mine, me)
	oppBefore := b.localCensus(p, Empty, opp)
	oppBlocked := b.localCensus(p, mine, opp)
	oppThere := b.localCensus(p, theirs, opp)

	gained := func(c Class) bool { return ownAfter[c] > ownBefore[c] }
	denied := func(c Class) bool { return oppThere[c] > oppBefore[c] }
	destroyed := func(c Class) bool { return oppBlocked[c] < oppBefore[c] }

	score := 0.0
	win := gained(Five)
	openFour := gained(OpenFour)
	if win {
		score += rankWin
	}
	if denied(Five) {
		score += rankBlockWin
	}
	if openFour {
		score += rankOpenFour
	}
	if destroyed(OpenFour) || denied(OpenFour) {
		score += rankBlockOpenFour
	}
	if gained(OpenThree) && !win && !openFour {
		score += rankOpenThree
	}
	if destroyed(OpenThree) || denied(SimpleFour) || gained(SimpleFour) {
		score += rankBlockForcing
	}
	return score + o.potential(b, p)
}

// potential is the positional part of Score: stones nearby, the lines p
// extends for either side and closeness to the centre.
func (o *Orderer) potential(b *Board, p Pos) float64 {
	score := 0.0
	for dr := -2; dr <= 2; dr++ {
		for dc := -2; dc <= 2; dc++ {
			if b.At(Pos{Row: p.Row + dr, Col: p.Col + dc}) == Empty {
				continue
			}
			if abs(dr) <= 1 && abs(dc) <= 1 {
				score += 10
			} else {
				score += 3
			}
		}
	}
	me := b.Player()
	score += 100 * float64(b.runWith(p, cellOf(me)))
	score += 80 * float64(b.runWith(p, cellOf(me.Opponent())))
	centre := b.size / 2
	score -= float64(abs(p.Row-centre) + abs(p.Col-centre))
	if score >= rankPotentialLimit {
		score = rankPotentialLimit - 1
	}
	return score
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
