package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"searchkit/gomoku"
	"searchkit/searcher"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "SEARCHKIT"

var ErrInvalid = errors.New("invalid config")

// Search selects and tunes one searcher. Fields that do not apply to Kind are
// ignored.
type Search struct {
	Kind string `mapstructure:"kind" yaml:"kind"`

	// alpha-beta
	MaxDepth            int     `mapstructure:"max_depth" yaml:"max_depth"`
	TableEntries        int     `mapstructure:"table_entries" yaml:"table_entries"`
	TableMemoryFraction float64 `mapstructure:"table_memory_fraction" yaml:"table_memory_fraction"`
	Replacement         string  `mapstructure:"replacement" yaml:"replacement"`
	OrderThreshold      int     `mapstructure:"order_threshold" yaml:"order_threshold"`

	// mcts
	Simulations  int     `mapstructure:"simulations" yaml:"simulations"`
	Exploration  float64 `mapstructure:"exploration" yaml:"exploration"`
	RolloutBias  float64 `mapstructure:"rollout_bias" yaml:"rollout_bias"`
	RolloutDepth int     `mapstructure:"rollout_depth" yaml:"rollout_depth"`
	RolloutScale float64 `mapstructure:"rollout_scale" yaml:"rollout_scale"`
	Workers      int     `mapstructure:"workers" yaml:"workers"`
	Seed         uint64  `mapstructure:"seed" yaml:"seed"`

	// astar
	MaxExpansions int `mapstructure:"max_expansions" yaml:"max_expansions"`

	// Budget is the wall-clock time per move; 0 leaves only the ceilings.
	Budget time.Duration `mapstructure:"budget" yaml:"budget"`
}

// Agent is a search configuration with an identifier used in experiment
// records.
type Agent struct {
	ID     int `mapstructure:"id" yaml:"id"`
	Search `mapstructure:",squash" yaml:",inline"`
}

type Experiment struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Family string `mapstructure:"family" yaml:"family"`
	// BoardSize is the gomoku side or the pursuit width and height.
	BoardSize int `mapstructure:"board_size" yaml:"board_size"`
	// Games per match-up; starting sides alternate.
	Games      int     `mapstructure:"games" yaml:"games"`
	Parallel   int     `mapstructure:"parallel" yaml:"parallel"`
	MaxMoves   int     `mapstructure:"max_moves" yaml:"max_moves"`
	Confidence float64 `mapstructure:"confidence" yaml:"confidence"` // percent
	OutputDir  string  `mapstructure:"output_dir" yaml:"output_dir"`
	// Every challenger plays a match-up against the baseline.
	Baseline    Agent   `mapstructure:"baseline" yaml:"baseline"`
	Challengers []Agent `mapstructure:"challengers" yaml:"challengers"`
}

type Config struct {
	LogLevel   string         `mapstructure:"log_level" yaml:"log_level"`
	Search     Search         `mapstructure:"search" yaml:"search"`
	Weights    gomoku.Weights `mapstructure:"weights" yaml:"weights"`
	Experiment Experiment     `mapstructure:"experiment" yaml:"experiment"`
}

func DefaultSearch() Search {
	return Search{
		Kind:                string(searcher.KindAlphaBeta),
		MaxDepth:            searcher.DefaultMaxDepth,
		TableEntries:        searcher.DefaultTableEntries,
		TableMemoryFraction: 0,
		Replacement:         string(searcher.ReplaceDepth),
		OrderThreshold:      gomoku.DefaultOrderThreshold,
		Simulations:         searcher.DefaultSimulations,
		Exploration:         searcher.DefaultExploration,
		RolloutBias:         searcher.DefaultRolloutBias,
		RolloutDepth:        searcher.DefaultRolloutDepth,
		RolloutScale:        10000,
		Workers:             1,
		Seed:                1,
		Budget:              time.Second,
	}
}

func Default() Config {
	baseline := DefaultSearch()
	baseline.MaxDepth = 2
	baseline.Budget = 100 * time.Millisecond

	deeper := baseline
	deeper.MaxDepth = 4

	mcts := DefaultSearch()
	mcts.Kind = string(searcher.KindMCTS)
	mcts.Simulations = 2000
	mcts.RolloutDepth = 30
	mcts.Budget = 100 * time.Millisecond

	return Config{
		LogLevel: zerolog.InfoLevel.String(),
		Search:   DefaultSearch(),
		Weights:  gomoku.DefaultWeights(),
		Experiment: Experiment{
			Name:        "strength",
			Family:      "gomoku",
			BoardSize:   gomoku.DefaultSize,
			Games:       10,
			Parallel:    1,
			MaxMoves:    400,
			Confidence:  95,
			OutputDir:   "experiments",
			Baseline:    Agent{ID: 0, Search: baseline},
			Challengers: []Agent{{ID: 1, Search: deeper}, {ID: 2, Search: mcts}},
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// SEARCHKIT_* environment overrides (SEARCHKIT_SEARCH_MAX_DEPTH sets
// search.max_depth). An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every field of def so that environment overrides
// reach keys absent from the file.
func setDefaults(v *viper.Viper, def Config) error {
	out, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var settings map[string]any
	if err := yaml.Unmarshal(out, &settings); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	for key, value := range settings {
		v.SetDefault(key, value)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Experiment.Validate(); err != nil {
		return fmt.Errorf("experiment: %w", err)
	}
	return nil
}

func (s Search) Validate() error {
	switch searcher.Kind(s.Kind) {
	case searcher.KindAlphaBeta, searcher.KindMCTS, searcher.KindAStar:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, s.Kind)
	}
	switch {
	case s.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth must be positive", ErrInvalid)
	case s.Simulations < 1:
		return fmt.Errorf("%w: simulations must be positive", ErrInvalid)
	case s.Exploration < 0:
		return fmt.Errorf("%w: exploration must not be negative", ErrInvalid)
	case s.RolloutBias < 0 || s.RolloutBias > 1:
		return fmt.Errorf("%w: rollout_bias %g outside [0, 1]", ErrInvalid, s.RolloutBias)
	case s.RolloutDepth < 1:
		return fmt.Errorf("%w: rollout_depth must be positive", ErrInvalid)
	case s.RolloutScale <= 0:
		return fmt.Errorf("%w: rollout_scale must be positive", ErrInvalid)
	case s.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalid)
	case s.TableEntries < 0:
		return fmt.Errorf("%w: table_entries must not be negative", ErrInvalid)
	case s.TableMemoryFraction < 0 || s.TableMemoryFraction >= 1:
		return fmt.Errorf("%w: table_memory_fraction %g outside [0, 1)", ErrInvalid, s.TableMemoryFraction)
	case s.MaxExpansions < 0:
		return fmt.Errorf("%w: max_expansions must not be negative", ErrInvalid)
	case s.Budget < 0:
		return fmt.Errorf("%w: budget must not be negative", ErrInvalid)
	}
	switch searcher.Replacement(s.Replacement) {
	case searcher.ReplaceAlways, searcher.ReplaceDepth:
	default:
		return fmt.Errorf("%w: unknown replacement %q", ErrInvalid, s.Replacement)
	}
	return nil
}

func (e Experiment) Validate() error {
	switch e.Family {
	case "gomoku", "pursuit":
	default:
		return fmt.Errorf("%w: unknown family %q", ErrInvalid, e.Family)
	}
	switch {
	case e.BoardSize < 5:
		return fmt.Errorf("%w: board_size must be at least 5", ErrInvalid)
	case e.Games < 1:
		return fmt.Errorf("%w: games must be positive", ErrInvalid)
	case e.Parallel < 1:
		return fmt.Errorf("%w: parallel must be positive", ErrInvalid)
	case e.MaxMoves < 1:
		return fmt.Errorf("%w: max_moves must be positive", ErrInvalid)
	case e.Confidence <= 0 || e.Confidence >= 100:
		return fmt.Errorf("%w: confidence %g outside (0, 100)", ErrInvalid, e.Confidence)
	}
	ids := map[int]bool{e.Baseline.ID: true}
	if err := e.Baseline.Validate(); err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	for _, c := range e.Challengers {
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate agent id %d", ErrInvalid, c.ID)
		}
		ids[c.ID] = true
		if err := c.Validate(); err != nil {
			return fmt.Errorf("challenger %d: %w", c.ID, err)
		}
	}
	return nil
}

// Snapshot is the resolved configuration as YAML.
func (c *Config) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSnapshot stores the snapshot as config.yaml in dir.
func (c *Config) WriteSnapshot(dir string) error {
	out, err := c.Snapshot()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config snapshot: %w", err)
	}
	return nil
}
