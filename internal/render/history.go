package render

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/intercept/internal/model"
)

// RunRow formats a stored run as table cells.
func RunRow(r model.RunRecord) []string {
	return []string{
		fmt.Sprintf("%d", r.ID),
		r.SolvedAt.Local().Format(time.DateTime),
		fmt.Sprintf("%g", r.Scenario.Speed),
		fmt.Sprintf("(%g, %g)", r.Scenario.TargetX, r.Scenario.TargetY),
		fmt.Sprintf("(%g, %g)", r.Scenario.TargetVX, r.Scenario.TargetVY),
		fmt.Sprintf("(%g, %g)", r.Guess.ThetaDeg, r.Guess.T),
		fmt.Sprintf("%.4f", r.ThetaDeg),
		fmt.Sprintf("%.4f", r.T),
		r.Verdict,
	}
}

// RunHeaders are the column titles matching RunRow.
var RunHeaders = []string{"ID", "Solved", "u", "Start", "Velocity", "Guess", "Theta", "t", "Verdict"}

// RenderRunTable prints stored runs.
func RenderRunTable(w io.Writer, runs []model.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	tbl := newTextTable(RunHeaders...)
	for _, r := range runs {
		tbl.addRow(RunRow(r)...)
	}
	return tbl.writeTo(w)
}

// RenderIterationTable prints the root finder trace of a run.
func RenderIterationTable(w io.Writer, iters []model.Iteration) error {
	if len(iters) == 0 {
		_, err := fmt.Fprintln(w, "No iterations recorded.")
		return err
	}
	tbl := newTextTable("Step", "Theta", "t", "|r| before", "Damping")
	for _, it := range iters {
		tbl.addRow(
			fmt.Sprintf("%d", it.Index),
			fmt.Sprintf("%.6f", it.ThetaDeg),
			fmt.Sprintf("%.6f", it.T),
			fmt.Sprintf("%.3e", it.Norm),
			fmt.Sprintf("%g", it.Damping),
		)
	}
	return tbl.writeTo(w)
}
