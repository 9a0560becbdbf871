package intercept

import (
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/intercept/internal/model"
)

var (
	referenceScenario = model.Scenario{Speed: 15, TargetX: 10, TargetY: 8, TargetVX: 8, TargetVY: -5, Gravity: 9.81}
	approachScenario  = model.Scenario{Speed: 20, TargetX: 10, TargetY: 8, TargetVX: -2, TargetVY: 0, Gravity: 9.81}
	overheadScenario  = model.Scenario{Speed: 15, TargetX: 0, TargetY: 5, Gravity: 9.81}
)

func TestSolveApproachingTarget(t *testing.T) {
	res, err := Solve(approachScenario, model.Guess{ThetaDeg: 60, T: 1}, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !res.Solution.Valid || res.Verdict != VerdictHit {
		t.Fatalf("expected a valid hit, got %+v", res)
	}
	if math.Abs(res.Solution.ThetaDeg-49.645644079746) > 1e-6 {
		t.Fatalf("unexpected theta %v", res.Solution.ThetaDeg)
	}
	if math.Abs(res.Solution.T-0.668884666827) > 1e-6 {
		t.Fatalf("unexpected t %v", res.Solution.T)
	}
	if math.Abs(res.ResidualX) >= DefaultTolerance || math.Abs(res.ResidualY) >= DefaultTolerance {
		t.Fatalf("residual out of tolerance: (%v, %v)", res.ResidualX, res.ResidualY)
	}
	if res.Iterations <= 0 || res.Iterations > DefaultMaxIterations {
		t.Fatalf("unexpected iteration count %d", res.Iterations)
	}
}

func TestSolveOverheadTargetLaunchesVertically(t *testing.T) {
	res, err := Solve(overheadScenario, model.Guess{ThetaDeg: 80, T: 0.5}, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !res.Solution.Valid {
		t.Fatalf("expected valid solution, got %+v", res)
	}
	if math.Abs(res.Solution.ThetaDeg-90) > 1e-6 {
		t.Fatalf("expected vertical launch, got theta=%v", res.Solution.ThetaDeg)
	}
	// First upward crossing of y=5: 15t - 4.905t² = 5.
	want := (15 - math.Sqrt(15*15-2*9.81*5)) / 9.81
	if math.Abs(res.Solution.T-want) > 1e-6 {
		t.Fatalf("expected t=%v, got %v", want, res.Solution.T)
	}
}

func TestSolveConvergedRootWithNegativeTimeIsInvalid(t *testing.T) {
	res, err := Solve(approachScenario, model.Guess{ThetaDeg: 200, T: -1}, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Solution.T >= 0 {
		t.Fatalf("expected the backward root, got t=%v", res.Solution.T)
	}
	if res.Solution.Valid || res.Verdict != VerdictNonPositiveTime {
		t.Fatalf("expected non-positive-time verdict, got %+v", res)
	}
	if math.Abs(res.ResidualX) >= DefaultTolerance || math.Abs(res.ResidualY) >= DefaultTolerance {
		t.Fatalf("expected converged residual, got (%v, %v)", res.ResidualX, res.ResidualY)
	}
	// Raw solver output is kept; the angle is not wrapped into [0, 360).
	if res.Solution.ThetaDeg < 180 {
		t.Fatalf("expected raw angle beyond 180, got %v", res.Solution.ThetaDeg)
	}
}

func TestSolveReferenceScenarioHasNoIntercept(t *testing.T) {
	// (10+8t)² + (8-5t+4.905t²)² - 225t² stays above 85, so no (theta, t)
	// zeroes both residuals.
	_, err := Solve(referenceScenario, DefaultGuess, Options{})
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence, got %v", err)
	}
	var nc *NonConvergenceError
	if !errors.As(err, &nc) {
		t.Fatalf("expected *NonConvergenceError, got %T", err)
	}
	if nc.Reason == "" {
		t.Fatalf("expected a reason")
	}
	if Classify(nc.Last.ThetaDeg, nc.Last.T, referenceScenario, DefaultTolerance) {
		t.Fatalf("last iterate must not classify as a hit: %+v", nc.Last)
	}
	if math.Hypot(nc.ResidualX, nc.ResidualY) < 1 {
		t.Fatalf("expected a large residual, got (%v, %v)", nc.ResidualX, nc.ResidualY)
	}
}

func TestSolveIterationBudget(t *testing.T) {
	_, err := Solve(approachScenario, DefaultGuess, Options{MaxIterations: 1})
	var nc *NonConvergenceError
	if !errors.As(err, &nc) {
		t.Fatalf("expected non-convergence, got %v", err)
	}
	if nc.Iterations != 1 {
		t.Fatalf("expected 1 iteration, got %d", nc.Iterations)
	}
	if nc.Last == DefaultGuess {
		t.Fatalf("expected the iterate to move away from the guess")
	}
}

func TestSolveReportsIterations(t *testing.T) {
	var steps []model.Iteration
	res, err := Solve(approachScenario, model.Guess{ThetaDeg: 60, T: 1}, Options{
		OnIteration: func(it model.Iteration) { steps = append(steps, it) },
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(steps) != res.Iterations {
		t.Fatalf("expected %d traced steps, got %d", res.Iterations, len(steps))
	}
	for i, it := range steps {
		if it.Index != i+1 {
			t.Fatalf("unexpected index %d at %d", it.Index, i)
		}
		if it.Damping <= 0 || it.Damping > 1 {
			t.Fatalf("unexpected damping %v", it.Damping)
		}
		if i > 0 && it.Norm >= steps[i-1].Norm {
			t.Fatalf("residual norm did not decrease: %v then %v", steps[i-1].Norm, it.Norm)
		}
	}
}

func TestSolveRejectsInvalidParameters(t *testing.T) {
	cases := []model.Scenario{
		{Speed: 0, Gravity: 9.81},
		{Speed: -1, Gravity: 9.81},
		{Speed: 15, Gravity: 0},
		{Speed: 15, Gravity: -9.81},
		{Speed: math.NaN(), Gravity: 9.81},
		{Speed: 15, TargetX: math.Inf(1), Gravity: 9.81},
	}
	for _, sc := range cases {
		if _, err := Solve(sc, DefaultGuess, Options{}); !errors.Is(err, ErrInvalidParameters) {
			t.Fatalf("expected ErrInvalidParameters for %+v, got %v", sc, err)
		}
	}
	if _, err := Solve(approachScenario, model.Guess{ThetaDeg: math.NaN(), T: 1}, Options{}); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for NaN guess, got %v", err)
	}
	if _, err := Solve(approachScenario, DefaultGuess, Options{Tolerance: -1}); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for negative tolerance, got %v", err)
	}
	for _, threshold := range []float64{-1e-10, math.NaN()} {
		if _, err := Solve(approachScenario, DefaultGuess, Options{Threshold: threshold}); !errors.Is(err, ErrInvalidParameters) {
			t.Fatalf("expected ErrInvalidParameters for threshold %v, got %v", threshold, err)
		}
	}
}

// scaleScenario stretches distances by k and speeds by sqrt(k). Gravity is
// unchanged, so the launch angle of the root is the same at every scale.
func scaleScenario(sc model.Scenario, k float64) model.Scenario {
	r := math.Sqrt(k)
	return model.Scenario{
		Speed:    sc.Speed * r,
		TargetX:  sc.TargetX * k,
		TargetY:  sc.TargetY * k,
		TargetVX: sc.TargetVX * r,
		TargetVY: sc.TargetVY * r,
		Gravity:  sc.Gravity,
	}
}

func TestSolveFarTargetConverges(t *testing.T) {
	for _, k := range []float64{1, 1e4, 1e5, 1e6} {
		sc := scaleScenario(approachScenario, k)
		res, err := Solve(sc, model.Guess{ThetaDeg: 60, T: math.Sqrt(k)}, Options{})
		if err != nil {
			t.Fatalf("k=%g: solve: %v", k, err)
		}
		if res.Verdict != VerdictHit || !res.Solution.Valid {
			t.Fatalf("k=%g: expected hit, got %+v", k, res)
		}
		if math.Abs(res.Solution.ThetaDeg-49.645644) > 1e-5 {
			t.Fatalf("k=%g: unexpected theta %v", k, res.Solution.ThetaDeg)
		}
	}
}

func TestClassify(t *testing.T) {
	theta := 49.645644079746276
	tt := 0.6688846668267193
	if !Classify(theta, tt, approachScenario, DefaultTolerance) {
		t.Fatalf("expected hit")
	}
	first := Classify(theta, tt, approachScenario, DefaultTolerance)
	second := Classify(theta, tt, approachScenario, DefaultTolerance)
	if first != second {
		t.Fatalf("classify is not idempotent")
	}
	if Classify(theta+1, tt, approachScenario, DefaultTolerance) {
		t.Fatalf("expected miss after perturbing theta")
	}
	if got := Diagnose(theta+1, tt, approachScenario, DefaultTolerance); got != VerdictResidualExceeded {
		t.Fatalf("expected residual-exceeded, got %s", got)
	}
}

func TestClassifyRejectsNonPositiveTime(t *testing.T) {
	// At t=0 a target sitting on the launch point has zero residual.
	sc := model.Scenario{Speed: 10, Gravity: 9.81}
	for _, tt := range []float64{0, -1e-12, -2} {
		if Classify(45, tt, sc, math.Inf(1)) {
			t.Fatalf("expected invalid for t=%v", tt)
		}
		if got := Diagnose(45, tt, sc, math.Inf(1)); got != VerdictNonPositiveTime {
			t.Fatalf("expected non-positive-time for t=%v, got %s", tt, got)
		}
	}
}

func TestFallbackDuration(t *testing.T) {
	got, err := FallbackDuration(30, 15, 9.81)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	want := 2 * 15 * 0.5 / 9.81
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFallbackDurationFlagsLevelOrDownwardLaunch(t *testing.T) {
	for _, theta := range []float64{0, -10, 270} {
		d, err := FallbackDuration(theta, 15, 9.81)
		if !errors.Is(err, ErrDegenerateFallback) {
			t.Fatalf("expected ErrDegenerateFallback for theta=%v, got d=%v err=%v", theta, d, err)
		}
		if d != 0 {
			t.Fatalf("expected zero duration for theta=%v, got %v", theta, d)
		}
	}
}

func TestParseVerdict(t *testing.T) {
	if v, ok := ParseVerdict("hit"); !ok || v != VerdictHit {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}
	if _, ok := ParseVerdict("bogus"); ok {
		t.Fatalf("expected bogus to be rejected")
	}
}
