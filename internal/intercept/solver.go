package intercept

import (
	"errors"
	"fmt"
	"math"

	"github.com/verte-zerg/intercept/internal/model"
)

const (
	// DefaultTolerance is the per-axis hit tolerance in metres.
	DefaultTolerance = 1e-6
	// DefaultMaxIterations caps the number of Newton steps per solve.
	DefaultMaxIterations = 100
	// DefaultThreshold is the residual norm at which the iteration stops.
	// Far targets stop at the rounding floor of their positions instead.
	DefaultThreshold = 1e-10

	// roundoffULPs is how many units of rounding a residual may carry and
	// still count as zero.
	roundoffULPs = 16
	epsilon      = 0x1p-52
)

// DefaultGuess converges to the forward arcing root for scenarios whose
// distances are a few tens of metres and flight times around a second.
// Scale it with the scenario.
var DefaultGuess = model.Guess{ThetaDeg: 85, T: 1}

var (
	// ErrInvalidParameters reports a scenario or option that cannot be solved.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrNonConvergence reports that the root finder stopped without a root.
	ErrNonConvergence = errors.New("root finder did not converge")
	// ErrDegenerateFallback reports a launch that never rises above the
	// launch height, so no return-to-height flight time exists.
	ErrDegenerateFallback = errors.New("projectile does not rise above launch height")
)

// NonConvergenceError carries the state the root finder stopped in.
type NonConvergenceError struct {
	Reason     string
	Iterations int
	Last       model.Guess
	ResidualX  float64
	ResidualY  float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s after %d iterations (theta=%g, t=%g)", ErrNonConvergence, e.Reason, e.Iterations, e.Last.ThetaDeg, e.Last.T)
}

func (e *NonConvergenceError) Unwrap() error {
	return ErrNonConvergence
}

// Options tunes a solve. Zero values select the defaults.
type Options struct {
	Tolerance     float64
	MaxIterations int
	Threshold     float64
	// OnIteration, when set, is called after each accepted step.
	OnIteration func(model.Iteration)
}

func (o Options) withDefaults() Options {
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// Result is a converged solve together with its diagnostics.
type Result struct {
	Solution   model.Solution
	Verdict    Verdict
	Iterations int
	ResidualX  float64
	ResidualY  float64
}

// Validate rejects scenarios for which the equations are degenerate.
func Validate(sc model.Scenario) error {
	if !finite(sc.Speed, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY, sc.Gravity) {
		return fmt.Errorf("%w: scenario values must be finite", ErrInvalidParameters)
	}
	if sc.Speed <= 0 {
		return fmt.Errorf("%w: speed must be > 0, got %g", ErrInvalidParameters, sc.Speed)
	}
	if sc.Gravity <= 0 {
		return fmt.Errorf("%w: gravity must be > 0, got %g", ErrInvalidParameters, sc.Gravity)
	}
	return nil
}

// Solve searches for (theta, t) with zero residual, starting at guess.
//
// The iteration returns whichever root it reaches from guess. A different
// guess may reach another root, a spurious one near t=0, or none at all, so
// the guess is part of the problem statement. The returned solution is
// classified with the hit tolerance; a converged but unphysical root is a
// Result with Valid=false, not an error. A failed iteration returns a
// *NonConvergenceError wrapping ErrNonConvergence.
func Solve(sc model.Scenario, guess model.Guess, opts Options) (Result, error) {
	if err := Validate(sc); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()
	if !finite(guess.ThetaDeg, guess.T) {
		return Result{}, fmt.Errorf("%w: initial guess must be finite", ErrInvalidParameters)
	}
	if opts.Tolerance < 0 || math.IsNaN(opts.Tolerance) {
		return Result{}, fmt.Errorf("%w: tolerance must not be negative, got %g", ErrInvalidParameters, opts.Tolerance)
	}
	if opts.Threshold < 0 || math.IsNaN(opts.Threshold) {
		return Result{}, fmt.Errorf("%w: threshold must not be negative, got %g", ErrInvalidParameters, opts.Threshold)
	}
	if opts.MaxIterations < 0 {
		return Result{}, fmt.Errorf("%w: max iterations must be > 0, got %d", ErrInvalidParameters, opts.MaxIterations)
	}

	f := func(y, x []float64) {
		y[0], y[1] = Residual(x[0], x[1], sc)
	}
	var onStep stepFunc
	if opts.OnIteration != nil {
		onStep = func(index int, x []float64, norm, damping float64) {
			opts.OnIteration(model.Iteration{
				Index:    index,
				ThetaDeg: x[0],
				T:        x[1],
				Norm:     norm,
				Damping:  damping,
			})
		}
	}

	stopAt := func(x []float64) float64 {
		return math.Max(opts.Threshold, roundoffULPs*epsilon*residualScale(sc, x[1]))
	}
	res := newton(f, []float64{guess.ThetaDeg, guess.T}, opts.MaxIterations, stopAt, onStep)
	if !res.converged() {
		return Result{}, &NonConvergenceError{
			Reason:     res.reason,
			Iterations: res.iterations,
			Last:       model.Guess{ThetaDeg: res.x[0], T: res.x[1]},
			ResidualX:  res.fx[0],
			ResidualY:  res.fx[1],
		}
	}

	theta, t := res.x[0], res.x[1]
	verdict := Diagnose(theta, t, sc, opts.Tolerance)
	rx, ry := Residual(theta, t, sc)
	return Result{
		Solution: model.Solution{
			ThetaDeg: theta,
			T:        t,
			Valid:    verdict == VerdictHit,
		},
		Verdict:    verdict,
		Iterations: res.iterations,
		ResidualX:  rx,
		ResidualY:  ry,
	}, nil
}

// Classify reports whether (theta, t) is a physical hit: both residual
// components below tolerance and t strictly positive.
func Classify(thetaDeg, t float64, sc model.Scenario, tolerance float64) bool {
	return Diagnose(thetaDeg, t, sc, tolerance) == VerdictHit
}

// FallbackDuration is the time for a projectile launched at thetaDeg to
// return to its launch height, ignoring the target. Launches at or below
// the horizontal return ErrDegenerateFallback.
func FallbackDuration(thetaDeg, u, g float64) (float64, error) {
	tEnd := 2 * u * math.Sin(toRadians(thetaDeg)) / g
	if !(tEnd > 0) || math.IsInf(tEnd, 0) {
		return 0, fmt.Errorf("%w: theta=%g", ErrDegenerateFallback, thetaDeg)
	}
	return tEnd, nil
}

// residualScale bounds the magnitude of the positions whose difference
// forms the residual at flight time t.
func residualScale(sc model.Scenario, t float64) float64 {
	t = math.Abs(t)
	return max(1,
		math.Abs(sc.TargetX), math.Abs(sc.TargetY),
		sc.Speed*t,
		math.Abs(sc.TargetVX)*t, math.Abs(sc.TargetVY)*t,
		sc.Gravity*t*t/2,
	)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
