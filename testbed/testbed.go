// Package testbed provides the Gaussian k-armed testbed: hidden true
// action values drawn once from N(0, 1), rewards drawn per step from
// N(trueValue(action), 1). The learner only ever sees the rewards.
package testbed

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidConfig is returned by New for a non-positive arm count or
// a nil rng.
var ErrInvalidConfig = errors.New("invalid testbed configuration")

type Testbed struct {
	arms    []distuv.Normal
	optimal int
}

func New(k int, rng *rand.Rand) (*Testbed, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k=%d (must be positive)", ErrInvalidConfig, k)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: rng is nil", ErrInvalidConfig)
	}

	std := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: rng}
	arms := make([]distuv.Normal, k)
	optimal := 0
	for a := range arms {
		arms[a] = distuv.Normal{Mu: std.Rand(), Sigma: 1.0, Src: rng}
		if arms[a].Mu > arms[optimal].Mu {
			optimal = a
		}
	}
	return &Testbed{arms: arms, optimal: optimal}, nil
}

func (t *Testbed) K() int {
	return len(t.arms)
}

// Reward draws one unit-variance reward around action's true value.
// It satisfies sim.RewardFunc and never reads learning state.
func (t *Testbed) Reward(action int) (float64, error) {
	if action < 0 || action >= len(t.arms) {
		return 0.0, fmt.Errorf("action out of range: action=%d k=%d", action, len(t.arms))
	}
	return t.arms[action].Rand(), nil
}

// TrueValue returns action's hidden expected reward. Diagnostic only.
func (t *Testbed) TrueValue(action int) float64 {
	return t.arms[action].Mu
}

// OptimalAction is the arm with the highest true value (lowest index
// on the astronomically unlikely exact tie).
func (t *Testbed) OptimalAction() int {
	return t.optimal
}
