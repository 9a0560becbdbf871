package intercept

import (
	"errors"
	"testing"

	"github.com/verte-zerg/intercept/internal/model"
)

func TestEvaluateFoldsNonConvergence(t *testing.T) {
	out, err := Evaluate(referenceScenario, DefaultGuess, Options{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out.Verdict != VerdictNoConvergence {
		t.Fatalf("expected no-convergence verdict, got %s", out.Verdict)
	}
	if out.Solution.Valid {
		t.Fatalf("non-converged outcome must not be valid")
	}
	if out.Reason == "" || out.Iterations == 0 {
		t.Fatalf("expected reason and iteration count, got %+v", out)
	}
	if out.Tolerance != DefaultTolerance {
		t.Fatalf("expected default tolerance, got %v", out.Tolerance)
	}
}

func TestEvaluateConverged(t *testing.T) {
	out, err := Evaluate(approachScenario, model.Guess{ThetaDeg: 60, T: 1}, Options{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !out.Solution.Valid || out.Verdict != VerdictHit || out.Reason != "" {
		t.Fatalf("expected hit, got %+v", out)
	}
}

func TestEvaluateReturnsInvalidParameters(t *testing.T) {
	_, err := Evaluate(model.Scenario{Speed: 15}, DefaultGuess, Options{})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestOutcomeRecord(t *testing.T) {
	guess := model.Guess{ThetaDeg: 60, T: 1}
	out, err := Evaluate(approachScenario, guess, Options{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	rec := out.Record()
	if rec.Scenario != approachScenario || rec.Guess != guess {
		t.Fatalf("unexpected inputs %+v", rec)
	}
	if !rec.Valid || rec.Verdict != "hit" || rec.ThetaDeg != out.Solution.ThetaDeg {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.ID != 0 || rec.Ref != "" || !rec.SolvedAt.IsZero() {
		t.Fatalf("record should leave storage fields unset: %+v", rec)
	}
}
