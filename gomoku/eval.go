package gomoku

import (
	"errors"
	"fmt"

	"searchkit/game"
)

var ErrWeights = errors.New("invalid pattern weights")

// Tier is the urgency of a position for the side to move.
type Tier int8

const (
	Quiet Tier = iota
	Elevated
	MustDefend
	Decisive
)

func (t Tier) String() string {
	switch t {
	case Elevated:
		return "elevated"
	case MustDefend:
		return "must-defend"
	case Decisive:
		return "decisive"
	}
	return "quiet"
}

// Defense scales the opponent's threat total by tier.
type Defense struct {
	Quiet float64 `mapstructure:"quiet" yaml:"quiet"`
	// Elevated applies when the opponent holds the double threat.
	Elevated float64 `mapstructure:"elevated" yaml:"elevated"`
	// ElevatedOwn applies when only the side to move does.
	ElevatedOwn float64 `mapstructure:"elevated_own" yaml:"elevated_own"`
	MustDefend  float64 `mapstructure:"must_defend" yaml:"must_defend"`
	Decisive    float64 `mapstructure:"decisive" yaml:"decisive"`
}

type Weights struct {
	OpenFour     float64 `mapstructure:"open_four" yaml:"open_four"`
	SimpleFour   float64 `mapstructure:"simple_four" yaml:"simple_four"`
	OpenThree    float64 `mapstructure:"open_three" yaml:"open_three"`
	BlockedThree float64 `mapstructure:"blocked_three" yaml:"blocked_three"`
	OpenTwo      float64 `mapstructure:"open_two" yaml:"open_two"`
	BlockedTwo   float64 `mapstructure:"blocked_two" yaml:"blocked_two"`
	// DoubleThree is added once for two or more open threes.
	DoubleThree float64 `mapstructure:"double_three" yaml:"double_three"`
	// DoubleFour is added once for two or more fours, or a four with an open
	// three.
	DoubleFour float64 `mapstructure:"double_four" yaml:"double_four"`
	Defense    Defense `mapstructure:"defense" yaml:"defense"`
}

func DefaultWeights() Weights {
	return Weights{
		OpenFour:     100000,
		SimpleFour:   15000,
		OpenThree:    2500,
		BlockedThree: 400,
		OpenTwo:      200,
		BlockedTwo:   50,
		DoubleThree:  12000,
		DoubleFour:   50000,
		Defense: Defense{
			Quiet:       1.0,
			Elevated:    1.5,
			ElevatedOwn: 0.9,
			MustDefend:  2.0,
			Decisive:    0.5,
		},
	}
}

// Validate checks the strength order of the classes: an open four outweighs
// any pair of open threes with its bonus, which outweighs a simple four, and
// so on down to the blocked two.
func (w Weights) Validate() error {
	doubleThree := 2*w.OpenThree + w.DoubleThree
	order := []struct {
		name  string
		value float64
	}{
		{"open_four", w.OpenFour},
		{"double open three", doubleThree},
		{"simple_four", w.SimpleFour},
		{"open_three", w.OpenThree},
		{"blocked_three", w.BlockedThree},
		{"open_two", w.OpenTwo},
		{"blocked_two", w.BlockedTwo},
	}
	for i := 1; i < len(order); i++ {
		if !(order[i-1].value > order[i].value) {
			return fmt.Errorf("%w: %s (%g) must exceed %s (%g)", ErrWeights,
				order[i-1].name, order[i-1].value, order[i].name, order[i].value)
		}
	}
	if w.BlockedTwo <= 0 || w.DoubleThree < 0 || w.DoubleFour < 0 {
		return fmt.Errorf("%w: weights and bonuses must be positive", ErrWeights)
	}
	d := w.Defense
	for _, m := range []float64{d.Quiet, d.Elevated, d.ElevatedOwn, d.MustDefend, d.Decisive} {
		if m <= 0 {
			return fmt.Errorf("%w: defense multipliers must be positive", ErrWeights)
		}
	}
	return nil
}

// Evaluation is the breakdown behind a score, from the side to move's view.
type Evaluation struct {
	Score      float64
	Tier       Tier
	Multiplier float64
	Own        Census
	Opponent   Census
	Threats    []Threat
}

type Evaluator struct {
	weights Weights
}

func NewEvaluator(weights Weights) (*Evaluator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{weights: weights}, nil
}

func (e *Evaluator) Weights() Weights {
	return e.weights
}

// Evaluate scores a gomoku board for the side to move. Other states score 0.
func (e *Evaluator) Evaluate(s game.State) float64 {
	b, ok := s.(*Board)
	if !ok {
		return 0
	}
	return e.Analyze(b).Score
}

func (e *Evaluator) Analyze(b *Board) Evaluation {
	me := b.Player()
	threats, censuses := b.Threats()
	own, opp := censuses[me], censuses[me.Opponent()]
	ev := Evaluation{Own: own, Opponent: opp, Threats: threats, Multiplier: 1}

	switch winner := b.Winner(); {
	case winner == me || own[Five] > 0:
		ev.Score, ev.Tier = game.WinScore, Decisive
		return ev
	case winner == me.Opponent() || opp[Five] > 0:
		ev.Score, ev.Tier = -game.WinScore, MustDefend
		return ev
	case b.IsTerminal():
		return ev
	}

	ev.Tier = classify(own, opp)
	d := e.weights.Defense
	switch ev.Tier {
	case Decisive:
		ev.Multiplier = d.Decisive
	case MustDefend:
		ev.Multiplier = d.MustDefend
	case Elevated:
		ev.Multiplier = d.ElevatedOwn
		if doubleThreat(opp) {
			ev.Multiplier = d.Elevated
		}
	default:
		ev.Multiplier = d.Quiet
	}
	ev.Score = e.total(own) - ev.Multiplier*e.total(opp)
	return ev
}

// classify: a four of the side to move wins next turn; an opponent four has
// to be answered; double threats on either side raise the stakes.
func classify(own, opp Census) Tier {
	switch {
	case own.Fours() > 0:
		return Decisive
	case opp.Fours() > 0:
		return MustDefend
	case doubleThreat(own) || doubleThreat(opp):
		return Elevated
	}
	return Quiet
}

func doubleThreat(c Census) bool {
	return c[OpenThree] >= 2 || (c.Fours() > 0 && c[OpenThree] > 0)
}

func (e *Evaluator) total(c Census) float64 {
	w := e.weights
	score := float64(c[OpenFour])*w.OpenFour +
		float64(c[SimpleFour])*w.SimpleFour +
		float64(c[OpenThree])*w.OpenThree +
		float64(c[BlockedThree])*w.BlockedThree +
		float64(c[OpenTwo])*w.OpenTwo +
		float64(c[BlockedTwo])*w.BlockedTwo
	if c[OpenThree] >= 2 {
		score += w.DoubleThree
	}
	if c.Fours() >= 2 || (c.Fours() > 0 && c[OpenThree] > 0) {
		score += w.DoubleFour
	}
	return score
}
