// Package main provides the CLI entrypoint for intercept.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/intercept/internal/config"
	"github.com/verte-zerg/intercept/internal/historyui"
	"github.com/verte-zerg/intercept/internal/intercept"
	"github.com/verte-zerg/intercept/internal/model"
	"github.com/verte-zerg/intercept/internal/render"
	"github.com/verte-zerg/intercept/internal/store"
	"github.com/verte-zerg/intercept/internal/trajectory"
	"github.com/verte-zerg/intercept/internal/tui"
)

const (
	defaultSpeed    = 15.0
	defaultTargetX  = 10.0
	defaultTargetY  = 8.0
	defaultTargetVX = 8.0
	defaultTargetVY = -5.0
	defaultGravity  = 9.81
)

var (
	solveSpeed     float64
	solveTargetX   float64
	solveTargetY   float64
	solveTargetVX  float64
	solveTargetVY  float64
	solveGravity   float64
	solveTheta0    float64
	solveT0        float64
	solveTolerance float64
	solveMaxIter   int
	solveSamples   int
	solveStrict    bool
	solvePlot      bool
	solvePNG       string
	solveExport    bool
	solveNoSave    bool
	solveTUI       bool
	solveVerbose   bool

	historyVerdict string
	historySince   string
	historyLast    int
	historyPlain   bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "intercept",
		Short:         "Solve projectile interception of a moving target",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runSolveCmd,
	}

	flags := rootCmd.Flags()
	flags.Float64Var(&solveSpeed, "speed", defaultSpeed, "projectile launch speed u (m/s)")
	flags.Float64Var(&solveTargetX, "target-x", defaultTargetX, "target start x position a (m)")
	flags.Float64Var(&solveTargetY, "target-y", defaultTargetY, "target start y position b (m)")
	flags.Float64Var(&solveTargetVX, "target-vx", defaultTargetVX, "target x velocity (m/s)")
	flags.Float64Var(&solveTargetVY, "target-vy", defaultTargetVY, "target y velocity (m/s)")
	flags.Float64Var(&solveGravity, "gravity", defaultGravity, "gravitational acceleration g (m/s²)")
	flags.Float64Var(&solveTheta0, "theta0", intercept.DefaultGuess.ThetaDeg, "initial launch angle guess (degrees)")
	flags.Float64Var(&solveT0, "t0", intercept.DefaultGuess.T, "initial time guess (s)")
	flags.Float64Var(&solveTolerance, "tolerance", intercept.DefaultTolerance, "hit tolerance per coordinate (m)")
	flags.IntVar(&solveMaxIter, "max-iter", intercept.DefaultMaxIterations, "root finder iteration budget")
	flags.IntVar(&solveSamples, "samples", trajectory.DefaultSamples, "trajectory samples")
	flags.BoolVar(&solveStrict, "strict", false, "report the detailed verdict instead of valid/not valid")
	flags.BoolVar(&solvePlot, "plot", true, "print a terminal plot of the trajectories")
	flags.StringVar(&solvePNG, "png", "", "save the trajectory plot to an image file (png, svg, pdf)")
	flags.BoolVar(&solveExport, "export", false, "save the plot as PNG in the data directory, named after the run ref")
	flags.BoolVar(&solveNoSave, "no-save", false, "do not record the run in history")
	flags.BoolVar(&solveTUI, "tui", false, "open the interactive solver")
	flags.BoolVarP(&solveVerbose, "verbose", "v", false, "log every root finder step to stderr")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newShowCmd())

	return rootCmd
}

func runSolveCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFileConfig(cmd, fileCfg)

	cfg := model.Config{
		Scenario: model.Scenario{
			Speed:    solveSpeed,
			TargetX:  solveTargetX,
			TargetY:  solveTargetY,
			TargetVX: solveTargetVX,
			TargetVY: solveTargetVY,
			Gravity:  solveGravity,
		},
		Guess:         model.Guess{ThetaDeg: solveTheta0, T: solveT0},
		Tolerance:     solveTolerance,
		MaxIterations: solveMaxIter,
		Samples:       solveSamples,
		Strict:        solveStrict,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	var st *store.Store
	if !solveNoSave {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	if solveTUI {
		program := tea.NewProgram(tui.NewModel(cfg, st), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	}

	logger := newLogger(os.Stderr, solveVerbose)
	out, iters, err := evaluate(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("solve finished",
		"verdict", out.Verdict,
		"iterations", out.Iterations,
		"theta", out.Solution.ThetaDeg,
		"t", out.Solution.T,
	)

	record := out.Record()
	record.Ref = uuid.NewString()

	stdout := cmd.OutOrStdout()
	if err := render.WriteReport(stdout, out, cfg.Strict); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	imagePaths := []string{}
	if solvePNG != "" {
		imagePaths = append(imagePaths, solvePNG)
	}
	if solveExport {
		dir := config.DefaultPlotDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
		imagePaths = append(imagePaths, filepath.Join(dir, record.Ref+".png"))
	}

	if solvePlot || len(imagePaths) > 0 {
		traj, err := trajectory.Sample(out.Solution, cfg.Scenario, trajectory.Options{Samples: cfg.Samples})
		if err != nil {
			logErrf("failed to sample trajectory: %v\n", err)
		} else {
			if traj.Fallback {
				logger.Debug("plotting ballistic flight", "t_end", traj.TEnd)
			}
			if solvePlot {
				if _, err := fmt.Fprintln(stdout); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				if err := render.RenderTrajectory(stdout, cfg.Scenario, traj, 0, 0, false); err != nil {
					return fmt.Errorf("failed to render plot: %w", err)
				}
			}
			for _, path := range imagePaths {
				if err := render.SaveTrajectoryImage(path, cfg.Scenario, traj); err != nil {
					return err
				}
				logErrf("Wrote %s\n", path)
			}
		}
	}

	if st != nil {
		run, err := st.InsertRun(context.Background(), record, iters)
		if err != nil {
			logErrf("failed to save run: %v\n", err)
			return nil
		}
		logger.Debug("run saved", "id", run.ID, "ref", run.Ref)
	}
	return nil
}

// evaluate solves cfg and collects the iteration trace, logging every step
// at debug level.
func evaluate(cfg model.Config, logger *slog.Logger) (intercept.Outcome, []model.Iteration, error) {
	var iters []model.Iteration
	out, err := intercept.Evaluate(cfg.Scenario, cfg.Guess, intercept.Options{
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		OnIteration: func(it model.Iteration) {
			iters = append(iters, it)
			logger.Debug("newton step",
				"step", it.Index,
				"theta", it.ThetaDeg,
				"t", it.T,
				"norm", it.Norm,
				"damping", it.Damping,
			)
		},
	})
	if err != nil {
		return intercept.Outcome{}, nil, err
	}
	return out, iters, nil
}

// newLogger returns a text logger on w. Without verbose only warnings and
// errors are emitted.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func applyFileConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyFloatConfig(cmd, "speed", &solveSpeed, fileCfg.Scenario.Speed)
	applyFloatConfig(cmd, "target-x", &solveTargetX, fileCfg.Scenario.TargetX)
	applyFloatConfig(cmd, "target-y", &solveTargetY, fileCfg.Scenario.TargetY)
	applyFloatConfig(cmd, "target-vx", &solveTargetVX, fileCfg.Scenario.TargetVX)
	applyFloatConfig(cmd, "target-vy", &solveTargetVY, fileCfg.Scenario.TargetVY)
	applyFloatConfig(cmd, "gravity", &solveGravity, fileCfg.Scenario.Gravity)
	applyFloatConfig(cmd, "theta0", &solveTheta0, fileCfg.Solver.Theta0)
	applyFloatConfig(cmd, "t0", &solveT0, fileCfg.Solver.T0)
	applyFloatConfig(cmd, "tolerance", &solveTolerance, fileCfg.Solver.Tolerance)
	applyIntConfig(cmd, "max-iter", &solveMaxIter, fileCfg.Solver.MaxIterations)
	applyBoolConfig(cmd, "strict", &solveStrict, fileCfg.Solver.Strict)
	applyIntConfig(cmd, "samples", &solveSamples, fileCfg.Output.Samples)
	applyBoolConfig(cmd, "plot", &solvePlot, fileCfg.Output.Plot)
	if fileCfg.Output.Save != nil && !cmd.Flags().Changed("no-save") {
		solveNoSave = !*fileCfg.Output.Save
	}
}

func validateConfig(cfg model.Config) error {
	if err := intercept.Validate(cfg.Scenario); err != nil {
		return err
	}
	if !isFinite(cfg.Guess.ThetaDeg) || !isFinite(cfg.Guess.T) {
		return fmt.Errorf("%w: --theta0 and --t0 must be finite", intercept.ErrInvalidParameters)
	}
	if !(cfg.Tolerance > 0) {
		return fmt.Errorf("%w: --tolerance must be > 0", intercept.ErrInvalidParameters)
	}
	if cfg.MaxIterations <= 0 {
		return fmt.Errorf("%w: --max-iter must be > 0", intercept.ErrInvalidParameters)
	}
	if cfg.Samples < 2 {
		return fmt.Errorf("--samples must be >= 2")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyVerdict, "verdict", "", "verdict filter (hit, non-positive-time, residual-exceeded, no-convergence)")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a table instead of opening the browser")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyConfig(historyVerdict, historySince, historyLast)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if historyPlain {
		runs, err := st.ListRuns(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if err := render.RenderRunTable(cmd.OutOrStdout(), runs); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	program := tea.NewProgram(historyui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func historyConfig(verdict, since string, last int) (model.HistoryConfig, error) {
	verdict = strings.TrimSpace(verdict)
	if verdict != "" {
		if _, ok := intercept.ParseVerdict(verdict); !ok {
			return model.HistoryConfig{}, fmt.Errorf("invalid --verdict value %q", verdict)
		}
	}
	var sinceTime *time.Time
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if last < 0 {
		return model.HistoryConfig{}, fmt.Errorf("--last must be >= 0")
	}
	return model.HistoryConfig{Verdict: verdict, Since: sinceTime, Last: last}, nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded run and its iteration trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	run, err := st.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logErrf("Run %d does not exist. List runs with: intercept history --plain\n", id)
		}
		return err
	}
	iters, err := st.ListIterations(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load iterations: %w", err)
	}
	return writeRun(cmd.OutOrStdout(), run, iters)
}

func writeRun(w io.Writer, run model.RunRecord, iters []model.Iteration) error {
	sc := run.Scenario
	lines := []string{
		fmt.Sprintf("Run %d (%s)", run.ID, run.Ref),
		fmt.Sprintf("Solved:    %s", run.SolvedAt.Local().Format(time.DateTime)),
		fmt.Sprintf("Scenario:  u=%g a=%g b=%g vx=%g vy=%g g=%g", sc.Speed, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY, sc.Gravity),
		fmt.Sprintf("Guess:     theta0=%g t0=%g", run.Guess.ThetaDeg, run.Guess.T),
		fmt.Sprintf("Solution:  theta=%v t=%v valid=%t", run.ThetaDeg, run.T, run.Valid),
		fmt.Sprintf("Verdict:   %s", run.Verdict),
		fmt.Sprintf("Residual:  x=%.3e y=%.3e (tolerance %g)", run.ResidualX, run.ResidualY, run.Tolerance),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := render.RenderIterationTable(w, iters); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# intercept configuration
# Uncomment a value to enable it. CLI flags override config values.

[scenario]
# speed = %g              # Projectile launch speed u (m/s)
# target-x = %g           # Target start x position a (m)
# target-y = %g            # Target start y position b (m)
# target-vx = %g           # Target x velocity (m/s)
# target-vy = %g          # Target y velocity (m/s)
# gravity = %g          # Gravitational acceleration g (m/s²)

[solver]
# theta0 = %g             # Initial launch angle guess (degrees)
# t0 = %g                  # Initial time guess (s)
# tolerance = %g       # Hit tolerance per coordinate (m)
# max-iter = %d          # Root finder iteration budget
# strict = false          # Report the detailed verdict

[output]
# samples = %d           # Trajectory samples
# plot = true             # Print a terminal plot
# save = true             # Record runs in history
`,
		defaultSpeed,
		defaultTargetX,
		defaultTargetY,
		defaultTargetVX,
		defaultTargetVY,
		defaultGravity,
		intercept.DefaultGuess.ThetaDeg,
		intercept.DefaultGuess.T,
		intercept.DefaultTolerance,
		intercept.DefaultMaxIterations,
		trajectory.DefaultSamples,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
