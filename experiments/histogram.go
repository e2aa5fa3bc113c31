package experiments

import (
	"fmt"
	"io"
	"searchkit/experiments/metrics"

	"github.com/aybabtme/uniplot/histogram"
)

// PrintLengths draws a histogram of game lengths in moves.
func PrintLengths(w io.Writer, games []metrics.GameRecord, bins int) error {
	if len(games) == 0 {
		return nil
	}
	lengths := make([]float64, len(games))
	for i, g := range games {
		lengths[i] = float64(g.TotalMoves)
	}
	if _, err := fmt.Fprintf(w, "game length (moves) over %d games\n", len(games)); err != nil {
		return err
	}
	return histogram.Fprint(w, histogram.Hist(bins, lengths), histogram.Linear(40))
}
