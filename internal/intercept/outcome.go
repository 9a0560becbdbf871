package intercept

import (
	"errors"

	"github.com/verte-zerg/intercept/internal/model"
)

// Outcome is what a caller reports after a solve: either a converged
// solution or the iterate the root finder stopped at.
type Outcome struct {
	Scenario   model.Scenario
	Guess      model.Guess
	Tolerance  float64
	Solution   model.Solution
	Verdict    Verdict
	Iterations int
	ResidualX  float64
	ResidualY  float64
	// Reason explains a VerdictNoConvergence outcome.
	Reason string
}

// Evaluate runs Solve and folds non-convergence into the outcome. Only
// invalid parameters are returned as an error.
func Evaluate(sc model.Scenario, guess model.Guess, opts Options) (Outcome, error) {
	opts = opts.withDefaults()
	out := Outcome{Scenario: sc, Guess: guess, Tolerance: opts.Tolerance}

	res, err := Solve(sc, guess, opts)
	var nc *NonConvergenceError
	switch {
	case err == nil:
		out.Solution = res.Solution
		out.Verdict = res.Verdict
		out.Iterations = res.Iterations
		out.ResidualX = res.ResidualX
		out.ResidualY = res.ResidualY
	case errors.As(err, &nc):
		out.Solution = model.Solution{ThetaDeg: nc.Last.ThetaDeg, T: nc.Last.T}
		out.Verdict = VerdictNoConvergence
		out.Iterations = nc.Iterations
		out.ResidualX = nc.ResidualX
		out.ResidualY = nc.ResidualY
		out.Reason = nc.Reason
	default:
		return Outcome{}, err
	}
	return out, nil
}

// Record converts the outcome to a run record ready to be stored.
func (o Outcome) Record() model.RunRecord {
	return model.RunRecord{
		Scenario:   o.Scenario,
		Guess:      o.Guess,
		Tolerance:  o.Tolerance,
		ThetaDeg:   o.Solution.ThetaDeg,
		T:          o.Solution.T,
		Valid:      o.Solution.Valid,
		Verdict:    string(o.Verdict),
		Iterations: o.Iterations,
		ResidualX:  o.ResidualX,
		ResidualY:  o.ResidualY,
	}
}
