package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AgentConfig is the part of an agent's search configuration recorded with
// experiment results.
type AgentConfig struct {
	ID          int
	Kind        string
	MaxDepth    int
	Simulations int
	Workers     int
	Cutoff      int
	Budget      time.Duration
}

type GameRecord struct {
	ID     int
	Agent1 int // AgentConfig.ID of the first player
	Agent2 int // AgentConfig.ID of the second player
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

// ResultRecord summarises one match-up from the challenger's side.
type ResultRecord struct {
	Baseline   int
	Challenger int
	Games      int
	Wins       int
	Losses     int
	Draws      int
	Score      float64 // (wins + draws/2) / games
	Low, High  float64 // confidence interval of Score
	MeanMoves  float64
	MeanNodes  float64
	MeanSearch time.Duration
}

type Writer struct {
	baseDir string
}

// NewWriter creates baseDir/name/<timestamp> for the experiment's files.
func NewWriter(baseDir, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	dir := filepath.Join(baseDir, name, timestamp)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: dir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "kind", "max_depth", "simulations", "workers", "cutoff", "budget"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			config.Kind,
			strconv.Itoa(config.MaxDepth),
			strconv.Itoa(config.Simulations),
			strconv.Itoa(config.Workers),
			strconv.Itoa(config.Cutoff),
			config.Budget.String(),
		})
	}
	return w.write("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent1", "agent2", "starting_player", "winner", "moves", "truncated", "start_time", "end_time", "duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Agent1),
			strconv.Itoa(record.Agent2),
			record.StartingPlayer.String(),
			record.Winner.String(),
			strconv.Itoa(record.TotalMoves),
			strconv.FormatBool(record.Truncated),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
		})
	}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "kind", "move", "score", "duration", "nodes", "full_playouts", "completed_depth", "tt_hits", "timed_out"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		move := ""
		if record.Move != nil {
			move = record.Move.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			record.Player.String(),
			record.Kind,
			move,
			strconv.FormatFloat(record.Score, 'g', -1, 64),
			record.Duration.String(),
			strconv.FormatInt(record.Nodes, 10),
			strconv.FormatInt(record.FullPlayouts, 10),
			strconv.Itoa(record.CompletedDepth),
			strconv.FormatUint(record.Table.Hits, 10),
			strconv.FormatBool(record.TimedOut),
		})
	}
	return w.write("move_records.csv", header, rows)
}

func (w *Writer) WriteResults(records []ResultRecord) error {
	header := []string{"baseline", "challenger", "games", "wins", "losses", "draws", "score", "low", "high", "mean_moves", "mean_nodes", "mean_search"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Baseline),
			strconv.Itoa(r.Challenger),
			strconv.Itoa(r.Games),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			strconv.Itoa(r.Draws),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			strconv.FormatFloat(r.Low, 'f', 4, 64),
			strconv.FormatFloat(r.High, 'f', 4, 64),
			strconv.FormatFloat(r.MeanMoves, 'f', 2, 64),
			strconv.FormatFloat(r.MeanNodes, 'f', 2, 64),
			r.MeanSearch.String(),
		})
	}
	return w.write("results.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}
