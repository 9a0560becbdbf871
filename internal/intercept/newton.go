package intercept

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	maxHalvings = 40
	minStepNorm = 1e-14
)

// stepFunc receives each accepted Newton step.
type stepFunc func(index int, x []float64, norm, damping float64)

// newtonResult is the state the iteration ended in. An empty reason means
// the residual norm dropped below the stopping threshold.
type newtonResult struct {
	x          []float64
	fx         []float64
	iterations int
	reason     string
}

func (r newtonResult) converged() bool {
	return r.reason == ""
}

// newton drives f to zero from x0 using central-difference Jacobians and a
// backtracking line search on the residual norm. It stops once the norm is
// below threshold(x), takes at most maxIter steps and always returns the
// last iterate.
func newton(f func(y, x []float64), x0 []float64, maxIter int, threshold func(x []float64) float64, onStep stepFunc) newtonResult {
	n := len(x0)
	x := append([]float64(nil), x0...)
	fx := make([]float64, n)
	f(fx, x)

	jac := mat.NewDense(n, n, nil)
	settings := &fd.JacobianSettings{Formula: fd.Central}
	rhs := mat.NewVecDense(n, nil)
	dx := make([]float64, n)
	trial := make([]float64, n)
	fTrial := make([]float64, n)

	result := func(iter int, reason string) newtonResult {
		return newtonResult{x: x, fx: fx, iterations: iter, reason: reason}
	}

	for iter := 0; ; iter++ {
		norm := floats.Norm(fx, 2)
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			return result(iter, "residual is not finite")
		}
		if norm < threshold(x) {
			return result(iter, "")
		}
		if iter == maxIter {
			return result(iter, fmt.Sprintf("iteration budget of %d exhausted", maxIter))
		}

		fd.Jacobian(jac, f, x, settings)
		for i, v := range fx {
			rhs.SetVec(i, -v)
		}
		var step mat.VecDense
		if err := step.SolveVec(jac, rhs); err != nil {
			return result(iter, fmt.Sprintf("singular jacobian: %v", err))
		}
		for i := range dx {
			dx[i] = step.AtVec(i)
		}

		damping := 1.0
		accepted := false
		for h := 0; h < maxHalvings; h++ {
			for i := range trial {
				trial[i] = x[i] + damping*dx[i]
			}
			f(fTrial, trial)
			if floats.Norm(fTrial, 2) < norm {
				accepted = true
				break
			}
			damping /= 2
		}
		if !accepted || damping*floats.Norm(dx, 2) < minStepNorm {
			return result(iter, "line search stalled")
		}

		copy(x, trial)
		copy(fx, fTrial)
		if onStep != nil {
			onStep(iter+1, x, norm, damping)
		}
	}
}
