// Package qtable maintains per-action sample-mean reward estimates
// for the non-associative bandit setting.
package qtable

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by New for a non-positive arm count.
var ErrInvalidConfig = errors.New("invalid qtable configuration")

// Table holds one running (mean, count) pair per action. Actions are
// 0-based indices in [0, k). Update mutates exactly one entry; the
// other entries are never touched.
type Table struct {
	means  []float64
	counts []int
}

func New(k int) (*Table, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k=%d (must be positive)", ErrInvalidConfig, k)
	}
	return &Table{
		means:  make([]float64, k),
		counts: make([]int, k),
	}, nil
}

func (t *Table) K() int {
	return len(t.means)
}

// Estimate returns the current sample mean for action. An action that
// has never been updated estimates 0.0.
func (t *Table) Estimate(action int) float64 {
	return t.means[action]
}

// Count returns how many times action has been updated.
func (t *Table) Count(action int) int {
	return t.counts[action]
}

// Estimates returns a snapshot copy of all current means.
func (t *Table) Estimates() []float64 {
	y := make([]float64, len(t.means))
	copy(y, t.means)
	return y
}

// Update folds one observed reward into action's running mean.
// The incremental form is equivalent to re-averaging every reward
// seen so far for that action; the first update sets the mean to the
// reward exactly.
func (t *Table) Update(action int, reward float64) error {
	if action < 0 || action >= len(t.means) {
		return fmt.Errorf("action out of range: action=%d k=%d", action, len(t.means))
	}
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		return fmt.Errorf("reward is not finite: reward=%v", reward)
	}
	n := t.counts[action]
	t.means[action] += (reward - t.means[action]) / float64(n+1)
	t.counts[action] = n + 1
	return nil
}
