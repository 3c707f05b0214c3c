// Package sim drives a single ε-greedy bandit run: one estimator, one
// selector, one external reward source, and the trajectory they
// produce. Steps are strictly sequential because each greedy choice
// reads the estimate the previous step mutated.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sw965/bandit/egreedy"
	"github.com/sw965/bandit/qtable"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidConfig is returned before any step runs.
	ErrInvalidConfig = errors.New("invalid sim configuration")
	// ErrRewardSource reports a failed or non-finite reward draw. The
	// run aborts and the trajectory stays truncated at the last
	// completed step.
	ErrRewardSource = errors.New("reward source failure")
)

// RewardFunc draws one reward for an action. It must not read or
// mutate any learning state.
type RewardFunc func(action int) (float64, error)

// TrueValueFunc exposes the hidden expected reward of an action. It
// feeds the approximation-error diagnostic only; selection never
// sees it.
type TrueValueFunc func(action int) float64

type Config struct {
	K       int
	Steps   int
	Epsilon float64
}

func (c *Config) Validate() error {
	if c.K <= 0 {
		return fmt.Errorf("%w: K=%d (must be positive)", ErrInvalidConfig, c.K)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: Steps=%d (must not be negative)", ErrInvalidConfig, c.Steps)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 || math.IsNaN(c.Epsilon) {
		return fmt.Errorf("%w: Epsilon=%v (must be in [0, 1])", ErrInvalidConfig, c.Epsilon)
	}
	return nil
}

// Record is one completed step. RunningMeanReward averages every
// reward obtained so far across all actions; ApproximationError is
// Σ_a |estimate(a) - trueValue(a)| after this step's update.
type Record struct {
	Action             int
	Reward             float64
	RunningMeanReward  float64
	ApproximationError float64
	Optimal            bool
}

type Trajectory []Record

// Rewards returns the per-step rewards in order.
func (t Trajectory) Rewards() []float64 {
	y := make([]float64, len(t))
	for i, r := range t {
		y[i] = r.Reward
	}
	return y
}

// MeanReward is the arithmetic mean reward over the whole trajectory,
// 0.0 when it is empty.
func (t Trajectory) MeanReward() float64 {
	if len(t) == 0 {
		return 0.0
	}
	return floats.Sum(t.Rewards()) / float64(len(t))
}

// ActionCounts returns how often each of the k actions was selected.
func (t Trajectory) ActionCounts(k int) []int {
	counts := make([]int, k)
	for _, r := range t {
		counts[r.Action] += 1
	}
	return counts
}

// Runner owns one run's estimator and selector. Runs never share
// state; for independent repetitions construct one Runner per run
// with its own rng.
type Runner struct {
	cfg        Config
	table      *qtable.Table
	selector   *egreedy.Selector
	reward     RewardFunc
	trueValues []float64
	optimal    int
	rng        *rand.Rand
	rewardSum  float64
	trajectory Trajectory
}

func NewRunner(cfg Config, reward RewardFunc, trueValue TrueValueFunc, rng *rand.Rand) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, fmt.Errorf("%w: reward source is nil", ErrInvalidConfig)
	}
	if trueValue == nil {
		return nil, fmt.Errorf("%w: true value source is nil", ErrInvalidConfig)
	}

	table, err := qtable.New(cfg.K)
	if err != nil {
		return nil, err
	}

	selector, err := egreedy.NewSelector(cfg.Epsilon)
	if err != nil {
		return nil, err
	}

	trueValues := make([]float64, cfg.K)
	for a := range trueValues {
		trueValues[a] = trueValue(a)
	}

	return &Runner{
		cfg:        cfg,
		table:      table,
		selector:   selector,
		reward:     reward,
		trueValues: trueValues,
		optimal:    egreedy.MaxIndices(trueValues)[0],
		rng:        rng,
		trajectory: make(Trajectory, 0, cfg.Steps),
	}, nil
}

func (r *Runner) Table() *qtable.Table {
	return r.table
}

func (r *Runner) Trajectory() Trajectory {
	return r.trajectory
}

func (r *Runner) Finished() bool {
	return len(r.trajectory) >= r.cfg.Steps
}

// Step executes one full step of the protocol: select, draw reward,
// update, append. Nothing is appended when the reward draw fails.
func (r *Runner) Step() (Record, error) {
	if r.Finished() {
		return Record{}, fmt.Errorf("run already finished: steps=%d", r.cfg.Steps)
	}

	action, err := r.selector.Select(r.table.Estimates(), r.rng)
	if err != nil {
		return Record{}, err
	}

	step := len(r.trajectory)
	reward, err := r.reward(action)
	if err != nil {
		return Record{}, fmt.Errorf("%w: step=%d action=%d: %s", ErrRewardSource, step, action, err)
	}
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		return Record{}, fmt.Errorf("%w: step=%d action=%d reward=%v (not finite)", ErrRewardSource, step, action, reward)
	}

	if err := r.table.Update(action, reward); err != nil {
		return Record{}, err
	}

	r.rewardSum += reward
	record := Record{
		Action:             action,
		Reward:             reward,
		RunningMeanReward:  r.rewardSum / float64(step+1),
		ApproximationError: r.approximationError(),
		Optimal:            action == r.optimal,
	}
	r.trajectory = append(r.trajectory, record)
	return record, nil
}

func (r *Runner) approximationError() float64 {
	sum := 0.0
	for a, tv := range r.trueValues {
		sum += math.Abs(r.table.Estimate(a) - tv)
	}
	return sum
}

// Run steps until the configured horizon. On failure the trajectory
// up to the last completed step is returned together with the error.
func (r *Runner) Run() (Trajectory, error) {
	for !r.Finished() {
		if _, err := r.Step(); err != nil {
			return r.trajectory, err
		}
	}
	return r.trajectory, nil
}

// Run is the one-shot form: a fresh Runner driven to the horizon.
func Run(cfg Config, reward RewardFunc, trueValue TrueValueFunc, rng *rand.Rand) (Trajectory, error) {
	runner, err := NewRunner(cfg, reward, trueValue, rng)
	if err != nil {
		return nil, err
	}
	return runner.Run()
}
