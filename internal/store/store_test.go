package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/intercept/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "intercept.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return st
}

func sampleRun(solvedAt time.Time, verdict string, valid bool) model.RunRecord {
	return model.RunRecord{
		SolvedAt: solvedAt,
		Scenario: model.Scenario{
			Speed: 15, TargetX: 10, TargetY: 8, TargetVX: 8, TargetVY: -5, Gravity: 9.81,
		},
		Guess:      model.Guess{ThetaDeg: 85, T: 1},
		Tolerance:  1e-6,
		ThetaDeg:   77.5,
		T:          1.25,
		Valid:      valid,
		Verdict:    verdict,
		Iterations: 7,
		ResidualX:  1e-12,
		ResidualY:  -2e-12,
	}
}

func TestInsertAndGetRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	solvedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	iters := []model.Iteration{
		{Index: 0, ThetaDeg: 85, T: 1, Norm: 4.2, Damping: 1},
		{Index: 1, ThetaDeg: 80, T: 1.2, Norm: 0.3, Damping: 0.5},
	}

	stored, err := st.InsertRun(ctx, sampleRun(solvedAt, "hit", true), iters)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stored.ID == 0 || stored.Ref == "" {
		t.Fatalf("expected id and ref, got %+v", stored)
	}

	got, err := st.GetRun(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Ref != stored.Ref {
		t.Fatalf("ref mismatch: %q vs %q", got.Ref, stored.Ref)
	}
	if !got.SolvedAt.Equal(solvedAt) {
		t.Fatalf("unexpected solved_at %v", got.SolvedAt)
	}
	if got.Scenario != stored.Scenario || got.Guess != stored.Guess {
		t.Fatalf("unexpected inputs %+v", got)
	}
	if !got.Valid || got.Verdict != "hit" || got.Iterations != 7 {
		t.Fatalf("unexpected outcome %+v", got)
	}
	if got.ThetaDeg != 77.5 || got.T != 1.25 || got.ResidualY != -2e-12 {
		t.Fatalf("unexpected solution %+v", got)
	}

	trace, err := st.ListIterations(ctx, stored.ID)
	if err != nil {
		t.Fatalf("iterations: %v", err)
	}
	if len(trace) != 2 || trace[1] != iters[1] {
		t.Fatalf("unexpected trace %+v", trace)
	}
}

func TestInsertRunKeepsGivenRef(t *testing.T) {
	st := openTestStore(t)
	run := sampleRun(time.Now(), "hit", true)
	run.Ref = "fixed-ref"
	stored, err := st.InsertRun(context.Background(), run, nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stored.Ref != "fixed-ref" {
		t.Fatalf("unexpected ref %q", stored.Ref)
	}
	if _, err := st.InsertRun(context.Background(), run, nil); err == nil {
		t.Fatalf("expected duplicate ref to fail")
	}
}

func TestInsertRunStoresNaNResidual(t *testing.T) {
	st := openTestStore(t)
	run := sampleRun(time.Now(), "no-convergence", false)
	run.ResidualX = math.NaN()
	run.ResidualY = math.NaN()
	stored, err := st.InsertRun(context.Background(), run, []model.Iteration{
		{Index: 0, ThetaDeg: 85, T: 1, Norm: math.NaN(), Damping: 1},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := st.GetRun(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !math.IsNaN(got.ResidualX) || !math.IsNaN(got.ResidualY) {
		t.Fatalf("expected NaN residuals, got %v %v", got.ResidualX, got.ResidualY)
	}
	trace, err := st.ListIterations(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("iterations: %v", err)
	}
	if len(trace) != 1 || !math.IsNaN(trace[0].Norm) {
		t.Fatalf("unexpected trace %+v", trace)
	}
}

func TestGetRunNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.GetRun(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRunsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	verdicts := []string{"hit", "no-convergence", "hit", "residual-exceeded"}
	for i, v := range verdicts {
		run := sampleRun(base.Add(time.Duration(i)*time.Minute), v, v == "hit")
		if _, err := st.InsertRun(ctx, run, nil); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	all, err := st.ListRuns(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].SolvedAt.Before(all[i-1].SolvedAt) {
			t.Fatalf("runs not oldest first: %v before %v", all[i].SolvedAt, all[i-1].SolvedAt)
		}
	}

	last, err := st.ListRuns(ctx, model.HistoryConfig{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].Verdict != "hit" || last[1].Verdict != "residual-exceeded" {
		t.Fatalf("unexpected last runs %+v", last)
	}

	hits, err := st.ListRuns(ctx, model.HistoryConfig{Verdict: "hit"})
	if err != nil {
		t.Fatalf("list hits: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	since := base.Add(90 * time.Second)
	recent, err := st.ListRuns(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent runs, got %d", len(recent))
	}
}
