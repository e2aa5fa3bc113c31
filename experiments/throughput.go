package experiments

import (
	"context"
	"searchkit/agent"
	"searchkit/config"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

type ThroughputRecord struct {
	Workers int
	Runs    int
	// Nodes per second of search time: simulations for MCTS, nodes for
	// alpha-beta, expansions for A*.
	Mean, StdDev float64
}

// Throughput searches the family's opening position runs times for every
// worker count with cfg.Search and reports the search rate.
func Throughput(ctx context.Context, cfg *config.Config, workers []int, runs int) ([]ThroughputRecord, error) {
	family, err := NewFamily(cfg)
	if err != nil {
		return nil, err
	}
	if runs < 1 {
		runs = 1
	}

	log.Info().Msgf("starting throughput experiment for %s with %v workers...", cfg.Search.Kind, workers)

	var records []ThroughputRecord
	for _, w := range workers {
		search := cfg.Search
		search.Workers = w
		if err := search.Validate(); err != nil {
			return nil, err
		}

		rates := make([]float64, 0, runs)
		for i := 0; i < runs; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			_, metric := agent.ChooseMove(ctx, family.NewState(0), search.Budget, search, family.Options(search)...)
			if metric.Duration > 0 {
				rates = append(rates, float64(metric.Nodes)/metric.Duration.Seconds())
			}
		}

		record := ThroughputRecord{Workers: w, Runs: len(rates)}
		if len(rates) > 0 {
			record.Mean, record.StdDev = stat.MeanStdDev(rates, nil)
		}
		records = append(records, record)
		log.Info().Msgf("workers=%d mean=%.0f/s stddev=%.0f", w, record.Mean, record.StdDev)
	}
	return records, nil
}
