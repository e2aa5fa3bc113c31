package experiments

import (
	"context"
	"fmt"
	"math"
	"searchkit/agent"
	"searchkit/config"
	"searchkit/engine"
	"searchkit/experiments/metrics"
	"searchkit/game"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MatchUp pairs a challenger against the baseline.
type MatchUp struct {
	Baseline   config.Agent
	Challenger config.Agent
}

func MatchUps(e config.Experiment) []MatchUp {
	return lo.Map(e.Challengers, func(c config.Agent, _ int) MatchUp {
		return MatchUp{Baseline: e.Baseline, Challenger: c}
	})
}

// Report holds everything an experiment produced.
type Report struct {
	Games   []metrics.GameRecord
	Moves   []metrics.MoveRecord
	Results []metrics.ResultRecord
}

// Run plays every match-up of cfg.Experiment and writes the records, the
// summary and a config snapshot under cfg.Experiment.OutputDir.
func Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	report, err := Play(ctx, cfg)
	if err != nil {
		return nil, err
	}

	writer, err := metrics.NewWriter(cfg.Experiment.OutputDir, cfg.Experiment.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := cfg.WriteSnapshot(writer.Dir()); err != nil {
		return nil, err
	}
	agents := append([]config.Agent{cfg.Experiment.Baseline}, cfg.Experiment.Challengers...)
	if err := writer.WriteAgentConfigs(lo.Map(agents, agentConfig)); err != nil {
		return nil, fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	if err := writer.WriteGameRecords(report.Games); err != nil {
		return nil, fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")

	if err := writer.WriteMoveRecords(report.Moves); err != nil {
		return nil, fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")

	if err := writer.WriteResults(report.Results); err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}
	if err := writer.WriteResultsChart(cfg.Experiment.Name, report.Results); err != nil {
		return nil, fmt.Errorf("failed to chart results: %w", err)
	}
	log.Info().Msgf("stored results in %s", writer.Dir())
	return report, nil
}

type gameJob struct {
	id            int
	index         int // within the match-up
	first, second config.Agent
}

type gameOutcome struct {
	record metrics.GameRecord
	moves  []metrics.MoveRecord
}

// Play runs the games of every match-up, up to cfg.Experiment.Parallel at a
// time. Starting sides alternate within a match-up.
func Play(ctx context.Context, cfg *config.Config) (*Report, error) {
	family, err := NewFamily(cfg)
	if err != nil {
		return nil, err
	}
	exp := cfg.Experiment
	matchUps := MatchUps(exp)

	log.Info().Msgf("starting %s experiment with %d match-ups of %d games...", exp.Name, len(matchUps), exp.Games)

	var jobs []gameJob
	for _, mu := range matchUps {
		for i := 0; i < exp.Games; i++ {
			job := gameJob{id: len(jobs) + 1, index: i, first: mu.Challenger, second: mu.Baseline}
			if i%2 == 1 {
				job.first, job.second = mu.Baseline, mu.Challenger
			}
			jobs = append(jobs, job)
		}
	}

	outcomes := make([]gameOutcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exp.Parallel)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			outcome, err := runGame(gctx, family, exp.MaxMoves, job)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			log.Info().Msgf("completed game %d of %d (agent %d vs agent %d) with winner: %s",
				job.id, len(jobs), job.first.ID, job.second.ID, outcome.record.Winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, o := range outcomes {
		report.Games = append(report.Games, o.record)
		report.Moves = append(report.Moves, o.moves...)
	}
	for _, mu := range matchUps {
		report.Results = append(report.Results, Summarize(mu, report.Games, report.Moves, exp.Confidence))
	}

	log.Info().Msgf("completed %s experiment", exp.Name)
	return report, nil
}

// runGame executes a single game between two agents.
func runGame(ctx context.Context, family *Family, maxMoves int, job gameJob) (gameOutcome, error) {
	first, err := agent.New(job.first.Search, family.Options(job.first.Search)...)
	if err != nil {
		return gameOutcome{}, fmt.Errorf("agent %d: %w", job.first.ID, err)
	}
	second, err := agent.New(job.second.Search, family.Options(job.second.Search)...)
	if err != nil {
		return gameOutcome{}, fmt.Errorf("agent %d: %w", job.second.ID, err)
	}
	e, err := engine.NewLocalEngine(family.NewState(job.index), first, second, engine.WithMaxMoves(maxMoves))
	if err != nil {
		return gameOutcome{}, err
	}

	_, gameMetric, moveMetrics := e.Run(ctx)
	if err := ctx.Err(); err != nil {
		return gameOutcome{}, err
	}

	outcome := gameOutcome{
		record: metrics.GameRecord{
			ID:         job.id,
			Agent1:     job.first.ID,
			Agent2:     job.second.ID,
			GameMetric: gameMetric,
		},
	}
	for _, mm := range moveMetrics {
		outcome.moves = append(outcome.moves, metrics.MoveRecord{Game: job.id, MoveMetric: mm})
	}
	return outcome, nil
}

// Summarize scores a match-up from the challenger's side, with a normal
// confidence interval at the given percent.
func Summarize(mu MatchUp, games []metrics.GameRecord, moves []metrics.MoveRecord, confidence float64) metrics.ResultRecord {
	result := metrics.ResultRecord{Baseline: mu.Baseline.ID, Challenger: mu.Challenger.ID}

	// side maps a game to the side the challenger played.
	side := map[int]game.Player{}
	var scores, lengths []float64
	for _, g := range games {
		var challenger game.Player
		switch {
		case g.Agent1 == mu.Challenger.ID && g.Agent2 == mu.Baseline.ID:
			challenger = game.First
		case g.Agent2 == mu.Challenger.ID && g.Agent1 == mu.Baseline.ID:
			challenger = game.Second
		default:
			continue
		}
		side[g.ID] = challenger
		result.Games++
		lengths = append(lengths, float64(g.TotalMoves))
		switch g.Winner {
		case challenger:
			result.Wins++
			scores = append(scores, 1)
		case game.NoPlayer:
			result.Draws++
			scores = append(scores, 0.5)
		default:
			result.Losses++
			scores = append(scores, 0)
		}
	}
	if result.Games == 0 {
		return result
	}

	mean, std := stat.MeanStdDev(scores, nil)
	result.Score = mean
	half := 0.0
	if n := float64(len(scores)); n > 1 {
		half = ZValue(confidence) * std / math.Sqrt(n)
	}
	result.Low = math.Max(0, mean-half)
	result.High = math.Min(1, mean+half)
	result.MeanMoves = stat.Mean(lengths, nil)

	var nodes, durations []float64
	for _, m := range moves {
		if p, ok := side[m.Game]; ok && m.Player == p {
			nodes = append(nodes, float64(m.Nodes))
			durations = append(durations, float64(m.Duration))
		}
	}
	if len(nodes) > 0 {
		result.MeanNodes = stat.Mean(nodes, nil)
		result.MeanSearch = time.Duration(stat.Mean(durations, nil))
	}
	return result
}

// ZValue returns the two-tailed z-value of a confidence level in percent.
func ZValue(confidence float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	return dist.Quantile((1 + confidence/100) / 2)
}

func agentConfig(a config.Agent, _ int) metrics.AgentConfig {
	return metrics.AgentConfig{
		ID:          a.ID,
		Kind:        a.Kind,
		MaxDepth:    a.MaxDepth,
		Simulations: a.Simulations,
		Workers:     a.Workers,
		Cutoff:      a.RolloutDepth,
		Budget:      a.Budget,
	}
}
