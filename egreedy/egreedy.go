// Package egreedy provides ε-greedy action selection over current
// value estimates. Greedy ties are broken uniformly at random over the
// tied action indices, never by looking an estimate value back up.
//
// Package egreedy は価値推定値に対する ε-greedy 行動選択を提供します。
// 同率最大の場合は、そのインデックス全体から一様に選ぶ。
package egreedy

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
)

// ErrInvalidConfig is returned by NewSelector for an epsilon outside [0, 1].
var ErrInvalidConfig = errors.New("invalid egreedy configuration")

// Selector chooses an action index given a snapshot of estimates.
// With probability 1-ε it exploits the maximum estimate; with
// probability ε it explores a uniform action index, which may again
// be the greedy one.
type Selector struct {
	epsilon float64
}

func NewSelector(epsilon float64) (*Selector, error) {
	if epsilon < 0 || epsilon > 1 || math.IsNaN(epsilon) {
		return nil, fmt.Errorf("%w: epsilon=%v (must be in [0, 1])", ErrInvalidConfig, epsilon)
	}
	return &Selector{epsilon: epsilon}, nil
}

func (s *Selector) Epsilon() float64 {
	return s.epsilon
}

// MaxIndices returns every index of estimates holding the maximum
// value, in ascending order. estimates must not be empty.
func MaxIndices(estimates []float64) []int {
	max := estimates[0]
	idxs := []int{0}
	for i, v := range estimates[1:] {
		switch {
		case v > max:
			max = v
			idxs = []int{i + 1}
		case v == max:
			idxs = append(idxs, i+1)
		}
	}
	return idxs
}

// Select draws at most one Bernoulli trial per call, so consecutive
// calls are independent given rng. With ε = 0 and a unique maximum no
// randomness is consumed at all.
func (s *Selector) Select(estimates []float64, rng *rand.Rand) (int, error) {
	k := len(estimates)
	if k == 0 {
		return 0, fmt.Errorf("estimates must not be empty")
	}

	if s.epsilon > 0 && rng.Float64() < s.epsilon {
		return rng.IntN(k), nil
	}

	idxs := MaxIndices(estimates)
	if len(idxs) == 1 {
		return idxs[0], nil
	}
	return randx.Choice(idxs, rng)
}
