// Package aggregate combines the four pillar scores into the overall score,
// ranks it against the other applicants of the same job and summarizes the
// evaluation for HR.
package aggregate

import (
	"errors"
	"fmt"
	"math"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/textproc"
)

var ErrInvalidWeights = errors.New("INVALID_WEIGHTS")

const weightTolerance = 1e-6

// Weights are the pillar weights. They are non-negative and sum to 1.
type Weights struct {
	Resume        float64 `json:"resume"`
	Confidence    float64 `json:"confidence"`
	Communication float64 `json:"communication"`
	Knowledge     float64 `json:"knowledge"`
}

func DefaultWeights() Weights {
	return Weights{Resume: 0.25, Confidence: 0.20, Communication: 0.25, Knowledge: 0.30}
}

// WeightsFromConfig converts and validates configured weights. An all-zero
// section means "not configured" and yields the defaults.
func WeightsFromConfig(c config.WeightsConfig) (Weights, error) {
	w := Weights(c)
	if w == (Weights{}) {
		return DefaultWeights(), nil
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"resume":        w.Resume,
		"confidence":    w.Confidence,
		"communication": w.Communication,
		"knowledge":     w.Knowledge,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight is %v", ErrInvalidWeights, name, v)
		}
	}
	if sum := w.sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

func (w Weights) sum() float64 {
	return w.Resume + w.Confidence + w.Communication + w.Knowledge
}

// Scores holds one candidate's pillar scores. A failed pillar is 0.
type Scores struct {
	Resume        float64 `json:"resume"`
	Confidence    float64 `json:"confidence"`
	Communication float64 `json:"communication"`
	Knowledge     float64 `json:"knowledge"`
}

// Overall is the weighted sum of the pillar scores.
func Overall(s Scores, w Weights) float64 {
	return s.Resume*w.Resume +
		s.Confidence*w.Confidence +
		s.Communication*w.Communication +
		s.Knowledge*w.Knowledge
}

// Percentile ranks score among all scores of the same job as
// (below + 0.5*equal) / N * 100, rounded to one decimal. With fewer than two
// scores the candidate is the only applicant and ranks 100.
func Percentile(score float64, all []float64) float64 {
	if len(all) < 2 {
		return 100
	}
	var below, equal int
	for _, s := range all {
		switch {
		case s < score:
			below++
		case s == score:
			equal++
		}
	}
	p := (float64(below) + 0.5*float64(equal)) / float64(len(all)) * 100
	return textproc.Round(p, 1)
}
