package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"searchkit/agent"
	"searchkit/config"
	"searchkit/experiments"
	"searchkit/puzzle"
	"searchkit/searcher"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults and SEARCHKIT_* environment otherwise)")
	mode := flag.String("mode", "experiment", "experiment, throughput or solve")
	levelPath := flag.String("level", "", "puzzle level file for -mode solve")
	workers := flag.String("workers", "1,2,4,8", "worker counts for -mode throughput")
	runs := flag.Int("runs", 5, "searches per worker count for -mode throughput")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "experiment":
		report, err := experiments.Run(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("experiment failed")
		}
		if err := experiments.PrintLengths(os.Stdout, report.Games, 10); err != nil {
			log.Error().Err(err).Msg("failed to print game lengths")
		}
		for _, r := range report.Results {
			log.Info().Msgf("agent %d vs baseline %d: score %.3f [%.3f, %.3f] over %d games",
				r.Challenger, r.Baseline, r.Score, r.Low, r.High, r.Games)
		}

	case "throughput":
		counts, err := parseWorkers(*workers)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -workers")
		}
		if _, err := experiments.Throughput(ctx, cfg, counts, *runs); err != nil {
			log.Fatal().Err(err).Msg("throughput experiment failed")
		}

	case "solve":
		if err := solve(ctx, cfg, *levelPath); err != nil {
			log.Fatal().Err(err).Msg("solve failed")
		}

	default:
		log.Fatal().Msgf("unknown mode %q", *mode)
	}
}

func parseWorkers(list string) ([]int, error) {
	var counts []int
	for _, field := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid worker count %q", field)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func solve(ctx context.Context, cfg *config.Config, path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	level, err := puzzle.ParseLevel(string(text))
	if err != nil {
		return err
	}
	search := cfg.Search
	search.Kind = string(searcher.KindAStar)

	state := level.Start()
	_, metric := agent.ChooseMove(ctx, state, search.Budget, search)
	if err := state.Play(metric.Path); err != nil {
		return err
	}
	fmt.Println(state.Colored())
	if !state.IsTerminal() {
		log.Warn().Int("placed", state.Placed()).Int("expanded", int(metric.Nodes)).Msg("no solution within the budget")
		return nil
	}
	moves := make([]string, len(metric.Path))
	for i, m := range metric.Path {
		moves[i] = m.String()
	}
	log.Info().Int("expanded", int(metric.Nodes)).Msgf("solved in %d moves: %s", len(metric.Path), strings.Join(moves, ""))
	return nil
}
