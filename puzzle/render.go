package puzzle

import (
	"fmt"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Colored renders the state like String with terminal colours: placed boxes
// green, loose boxes yellow, the mover blue.
func (s *State) Colored() string {
	var sb strings.Builder
	for _, r := range s.String() {
		switch r {
		case '*':
			fmt.Fprint(&sb, aurora.Green(string(r)))
		case '$':
			fmt.Fprint(&sb, aurora.Yellow(string(r)))
		case '@', '+':
			fmt.Fprint(&sb, aurora.Blue(string(r)))
		case '.':
			fmt.Fprint(&sb, aurora.Cyan(string(r)))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
