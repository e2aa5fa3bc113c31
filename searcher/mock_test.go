package searcher

import (
	"fmt"
	"searchkit/game"
	"strconv"
	"time"
)

// take is a move of nim: remove that many counters.
type take int

func (m take) String() string {
	return strconv.Itoa(int(m))
}

// nim is single-pile nim where taking the last counter wins. Takes listed in
// reject are refused by Apply, and refusals are counted.
type nim struct {
	left     int
	player   game.Player
	winner   game.Player
	reject   map[take]bool
	refusals *int
}

func newNim(left int, reject ...take) *nim {
	n := &nim{left: left, player: game.First, reject: map[take]bool{}, refusals: new(int)}
	for _, r := range reject {
		n.reject[r] = true
	}
	return n
}

func (n *nim) Player() game.Player {
	return n.player
}

func (n *nim) LegalMoves() []game.Move {
	if n.IsTerminal() {
		return nil
	}
	var moves []game.Move
	for m := take(1); m <= 3 && int(m) <= n.left; m++ {
		moves = append(moves, m)
	}
	return moves
}

func (n *nim) Apply(move game.Move) error {
	m, ok := move.(take)
	if !ok || n.reject[m] || int(m) > n.left || m < 1 {
		*n.refusals++
		return fmt.Errorf("%w: take %v of %d", game.ErrIllegalMove, move, n.left)
	}
	n.left -= int(m)
	if n.left == 0 {
		n.winner = n.player
	}
	n.player = n.player.Opponent()
	return nil
}

func (n *nim) Clone() game.State {
	c := *n
	return &c
}

func (n *nim) IsTerminal() bool {
	return n.left == 0
}

func (n *nim) Winner() game.Player {
	return n.winner
}

func (n *nim) Key() string {
	return fmt.Sprintf("%d/%d", n.left, n.player)
}

// tickClock advances by tick on every reading and counts the readings.
type tickClock struct {
	now   time.Time
	tick  time.Duration
	reads int
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Unix(0, 0), tick: time.Millisecond}
}

func (c *tickClock) Now() time.Time {
	c.reads++
	c.now = c.now.Add(c.tick)
	return c.now
}
