package boosting

import (
	"math"
	"sort"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// Objective defines the loss function optimised by the trainer. Gradients and
// hessians are with respect to the raw (pre-shrinkage) ensemble prediction.
type Objective interface {
	Name() string

	// InitScore returns the constant base prediction for the ensemble.
	InitScore(targets []float64) float64

	// Gradient returns the first derivative of the loss at (pred, target).
	Gradient(pred, target float64) float64

	// Hessian returns the second derivative of the loss at (pred, target).
	Hessian(pred, target float64) float64

	// Loss returns the per-sample loss at (pred, target).
	Loss(pred, target float64) float64
}

// NewObjective creates the objective for the given name.
func NewObjective(name string) (Objective, error) {
	switch name {
	case "l2", "regression", "mse":
		return &l2Objective{}, nil
	case "l1", "regression_l1", "mae":
		return &l1Objective{}, nil
	default:
		return nil, errors.NewValueError("NewObjective", "unknown objective: "+name)
	}
}

// l2Objective is squared-error regression. The init score is the target mean.
type l2Objective struct{}

func (o *l2Objective) Name() string { return "l2" }

func (o *l2Objective) InitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	return sum / float64(len(targets))
}

func (o *l2Objective) Gradient(pred, target float64) float64 {
	return pred - target
}

func (o *l2Objective) Hessian(pred, target float64) float64 {
	return 1.0
}

func (o *l2Objective) Loss(pred, target float64) float64 {
	d := pred - target
	return d * d
}

// l1Objective is absolute-error regression. The init score is the target
// median; the hessian is a constant 1 since |x| has no curvature.
type l1Objective struct{}

func (o *l1Objective) Name() string { return "l1" }

func (o *l1Objective) InitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	sorted := make([]float64, len(targets))
	copy(sorted, targets)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func (o *l1Objective) Gradient(pred, target float64) float64 {
	if pred > target {
		return 1.0
	}
	if pred < target {
		return -1.0
	}
	return 0.0
}

func (o *l1Objective) Hessian(pred, target float64) float64 {
	return 1.0
}

func (o *l1Objective) Loss(pred, target float64) float64 {
	return math.Abs(pred - target)
}
