package render

import (
	"fmt"
	"io"

	"github.com/verte-zerg/intercept/internal/intercept"
	"github.com/verte-zerg/intercept/internal/model"
)

// WriteReport prints the verdict for an outcome. By default every failure
// reads "not valid"; strict mode adds the verdict, residual and, for a
// failed iteration, the root finder's reason.
func WriteReport(w io.Writer, out intercept.Outcome, strict bool) error {
	sol := out.Solution
	if sol.Valid {
		if _, err := fmt.Fprintf(w, "Solution is valid: theta = %v degrees, t = %v seconds\n", sol.ThetaDeg, sol.T); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "Solution is not valid: theta = %v degrees, t = %v seconds\n", sol.ThetaDeg, sol.T); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "The missile does not hit the target."); err != nil {
			return err
		}
	}
	if !strict {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Verdict: %s (%s)\n", out.Verdict, out.Verdict.Describe()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Residual: x=%.3e y=%.3e (tolerance %g)\n", out.ResidualX, out.ResidualY, out.Tolerance); err != nil {
		return err
	}
	if out.Verdict == intercept.VerdictNoConvergence {
		_, err := fmt.Fprintf(w, "Root finder: %s after %d iterations\n", out.Reason, out.Iterations)
		return err
	}
	_, err := fmt.Fprintf(w, "Iterations: %d\n", out.Iterations)
	return err
}

// TrajectoryPaths converts sampled trajectories to plot paths.
func TrajectoryPaths(sc model.Scenario, traj model.Trajectory) []Path {
	missile := Path{Name: "Missile"}
	target := Path{Name: "Target path"}
	for _, s := range traj.Projectile {
		missile.X = append(missile.X, s.X)
		missile.Y = append(missile.Y, s.Y)
	}
	for _, s := range traj.Target {
		target.X = append(target.X, s.X)
		target.Y = append(target.Y, s.Y)
	}
	start := Path{
		Name:   fmt.Sprintf("Target start (a=%g, b=%g)", sc.TargetX, sc.TargetY),
		X:      []float64{sc.TargetX},
		Y:      []float64{sc.TargetY},
		Points: true,
	}
	return []Path{missile, target, start}
}

// TrajectoryTitle is the plot title for a scenario.
func TrajectoryTitle(sc model.Scenario) string {
	return fmt.Sprintf("Projectile and Target Trajectory with u=%g", sc.Speed)
}

// RenderTrajectory prints the braille plot of a sampled trajectory sized to
// totalWidth, or to the terminal when totalWidth is 0.
func RenderTrajectory(w io.Writer, sc model.Scenario, traj model.Trajectory, totalWidth, height int, useColor bool) error {
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	title := TrajectoryTitle(sc)
	if traj.Fallback {
		title += fmt.Sprintf(" (ballistic flight, %.2fs)", traj.TEnd)
	}
	return PlotPathsWithColor(w, title, TrajectoryPaths(sc, traj), width, height, useColor)
}
