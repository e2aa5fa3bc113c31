package gomoku

import (
	"sort"
	"sync"

	"searchkit/game"
)

// Class is a threat shape, ordered by forcing power.
type Class int8

const (
	ClassNone Class = iota
	BlockedTwo
	OpenTwo
	BlockedThree
	OpenThree
	SimpleFour
	OpenFour
	Five
	numClasses
)

var classNames = [...]string{"none", "blocked-two", "open-two", "blocked-three", "open-three", "simple-four", "open-four", "five"}

func (c Class) String() string {
	if c < 0 || c >= numClasses {
		return "unknown"
	}
	return classNames[c]
}

type Axis int8

const (
	Horizontal Axis = iota
	Vertical
	Diagonal     // towards bottom-right
	AntiDiagonal // towards bottom-left
)

var axisDelta = [...]Pos{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: -1}}

// Threat is one resolved shape of one player. Anchor is its first stone
// along the axis.
type Threat struct {
	Class  Class
	Anchor Pos
	Axis   Axis
	Player game.Player
}

// Census counts resolved threats by class.
type Census [numClasses]int

func (c Census) Fours() int {
	return c[OpenFour] + c[SimpleFour]
}

type pattern struct {
	text  string
	class Class
}

// Tokens: 'M' own stone, 'O' opponent stone or board edge, '.' empty.
var catalogue = [...]pattern{
	{"MMMMM", Five},
	{".MMMM.", OpenFour},
	{"OMMMM.", SimpleFour},
	{".MMMMO", SimpleFour},
	{"MMM.M", SimpleFour},
	{"M.MMM", SimpleFour},
	{"MM.MM", SimpleFour},
	{"..MMM.", OpenThree},
	{".MMM..", OpenThree},
	{".MM.M.", OpenThree},
	{".M.MM.", OpenThree},
	{"O.MMM.O", BlockedThree}, // either extension is only a simple four
	{"OMMM..", BlockedThree},
	{"..MMMO", BlockedThree},
	{"OMM.M.", BlockedThree},
	{".M.MMO", BlockedThree},
	{"OM.MM.", BlockedThree},
	{".MM.MO", BlockedThree},
	{"MM..M", BlockedThree},
	{"M..MM", BlockedThree},
	{"M.M.M", BlockedThree},
	{".MM.", OpenTwo},
	{".M.M.", OpenTwo},
	{"OMM...", BlockedTwo},
	{"...MMO", BlockedTwo},
	{"OM.M..", BlockedTwo},
	{"..M.MO", BlockedTwo},
}

// line is a run of cell indexes along one axis, at least WinLength long.
type line struct {
	axis  Axis
	cells []int
}

var lineTables = struct {
	sync.Mutex
	bySize map[int][]line
}{bySize: make(map[int][]line)}

func linesFor(size int) []line {
	lineTables.Lock()
	defer lineTables.Unlock()
	if lines, ok := lineTables.bySize[size]; ok {
		return lines
	}
	lines := buildLines(size)
	lineTables.bySize[size] = lines
	return lines
}

// buildLines walks every maximal line from its first cell: a cell starts a
// line on an axis when the cell behind it is off the board.
func buildLines(size int) []line {
	var lines []line
	inside := func(r, c int) bool { return r >= 0 && r < size && c >= 0 && c < size }
	for axis, d := range axisDelta {
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				if inside(r-d.Row, c-d.Col) {
					continue
				}
				var cells []int
				for rr, cc := r, c; inside(rr, cc); rr, cc = rr+d.Row, cc+d.Col {
					cells = append(cells, rr*size+cc)
				}
				if len(cells) >= WinLength {
					lines = append(lines, line{axis: Axis(axis), cells: cells})
				}
			}
		}
	}
	return lines
}

// tokenize renders cells from player's view with an edge sentinel on each
// end.
func tokenize(cells []Cell, player game.Player, buf []byte) []byte {
	buf = buf[:0]
	buf = append(buf, 'O')
	own := cellOf(player)
	for _, c := range cells {
		switch c {
		case Empty:
			buf = append(buf, '.')
		case own:
			buf = append(buf, 'M')
		default:
			buf = append(buf, 'O')
		}
	}
	return append(buf, 'O')
}

type match struct {
	class Class
	start int
	text  string
}

// resolve finds every catalogue match in tokens and keeps them strongest
// first, dropping a match whose stones are already claimed by a stronger one.
// found is called with the token offset of each kept match's first stone.
func resolve(tokens []byte, found func(class Class, first int)) {
	var matches []match
	for _, p := range catalogue {
		n := len(p.text)
		for start := 0; start+n <= len(tokens); start++ {
			if string(tokens[start:start+n]) == p.text {
				matches = append(matches, match{class: p.class, start: start, text: p.text})
			}
		}
	}
	if len(matches) == 0 {
		return
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].class != matches[j].class {
			return matches[i].class > matches[j].class
		}
		return matches[i].start < matches[j].start
	})
	claimed := make([]bool, len(tokens))
	for _, m := range matches {
		free := true
		first := -1
		for i := 0; i < len(m.text); i++ {
			if m.text[i] != 'M' {
				continue
			}
			if first < 0 {
				first = m.start + i
			}
			if claimed[m.start+i] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i := 0; i < len(m.text); i++ {
			if m.text[i] == 'M' {
				claimed[m.start+i] = true
			}
		}
		found(m.class, first)
	}
}

// Threats scans every line of the board for both players. Records are unique
// per (player, class, anchor, axis).
func (b *Board) Threats() ([]Threat, map[game.Player]Census) {
	censuses := map[game.Player]Census{game.First: {}, game.Second: {}}
	var threats []Threat
	seen := make(map[Threat]struct{})
	cells := make([]Cell, 0, b.size)
	buf := make([]byte, 0, b.size+2)
	for _, l := range linesFor(b.size) {
		cells = cells[:0]
		stones := 0
		for _, idx := range l.cells {
			cells = append(cells, b.cells[idx])
			if b.cells[idx] != Empty {
				stones++
			}
		}
		if stones < 2 {
			continue
		}
		for _, player := range []game.Player{game.First, game.Second} {
			tokens := tokenize(cells, player, buf)
			census := censuses[player]
			resolve(tokens, func(class Class, first int) {
				t := Threat{Class: class, Anchor: b.pos(l.cells[first-1]), Axis: l.axis, Player: player}
				if _, dup := seen[t]; dup {
					return
				}
				seen[t] = struct{}{}
				threats = append(threats, t)
				census[class]++
			})
			censuses[player] = census
		}
	}
	return threats, censuses
}

// localCensus counts player's threats on the segment of each axis through p
// that lies within WinLength cells, with p's own cell replaced by stone.
func (b *Board) localCensus(p Pos, stone Cell, player game.Player) Census {
	var census Census
	cells := make([]Cell, 0, 2*WinLength+1)
	buf := make([]byte, 0, 2*WinLength+3)
	for _, d := range axisDelta {
		cells = cells[:0]
		for k := -WinLength; k <= WinLength; k++ {
			q := Pos{Row: p.Row + k*d.Row, Col: p.Col + k*d.Col}
			if !b.inside(q) {
				continue
			}
			if k == 0 {
				cells = append(cells, stone)
			} else {
				cells = append(cells, b.At(q))
			}
		}
		resolve(tokenize(cells, player, buf), func(class Class, _ int) {
			census[class]++
		})
	}
	return census
}
