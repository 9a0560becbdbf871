// Package trajectory samples projectile and target paths for rendering.
package trajectory

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/intercept/internal/intercept"
	"github.com/verte-zerg/intercept/internal/model"
)

const (
	// DefaultSamples is the number of points per path.
	DefaultSamples = 100
	// DefaultMinDuration bounds the time axis when no flight time exists.
	DefaultMinDuration = 1.0
)

// Options controls sampling resolution.
type Options struct {
	Samples     int
	MinDuration float64
}

func (o Options) withDefaults() Options {
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.MinDuration <= 0 {
		o.MinDuration = DefaultMinDuration
	}
	return o
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	out[n-1] = end
	return out
}

// Duration picks the end of the time axis: the hit time for a valid
// solution, otherwise the projectile's return-to-height time, otherwise
// minDuration when the launch never climbs.
func Duration(sol model.Solution, sc model.Scenario, minDuration float64) (tEnd float64, fallback bool, err error) {
	if sol.Valid {
		return sol.T, false, nil
	}
	tEnd, err = intercept.FallbackDuration(sol.ThetaDeg, sc.Speed, sc.Gravity)
	if err != nil {
		if errors.Is(err, intercept.ErrDegenerateFallback) {
			return minDuration, true, nil
		}
		return 0, false, err
	}
	return tEnd, true, nil
}

// Sample evaluates both bodies over [0, tEnd].
func Sample(sol model.Solution, sc model.Scenario, opts Options) (model.Trajectory, error) {
	opts = opts.withDefaults()
	tEnd, fallback, err := Duration(sol, sc, opts.MinDuration)
	if err != nil {
		return model.Trajectory{}, fmt.Errorf("trajectory duration: %w", err)
	}
	times := Linspace(0, tEnd, opts.Samples)
	traj := model.Trajectory{
		Projectile: make([]model.Sample, len(times)),
		Target:     make([]model.Sample, len(times)),
		TEnd:       tEnd,
		Fallback:   fallback,
	}
	for i, t := range times {
		px, py := intercept.ProjectilePosition(sol.ThetaDeg, t, sc.Speed, sc.Gravity)
		tx, ty := intercept.TargetPosition(t, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY)
		traj.Projectile[i] = model.Sample{T: t, X: px, Y: py}
		traj.Target[i] = model.Sample{T: t, X: tx, Y: ty}
	}
	return traj, nil
}
