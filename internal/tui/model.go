// Package tui provides the Bubble Tea interactive solver.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/intercept/internal/intercept"
	"github.com/verte-zerg/intercept/internal/model"
	"github.com/verte-zerg/intercept/internal/render"
	"github.com/verte-zerg/intercept/internal/store"
	"github.com/verte-zerg/intercept/internal/trajectory"
)

const plotHeight = 12

const (
	fieldSpeed = iota
	fieldTargetX
	fieldTargetY
	fieldTargetVX
	fieldTargetVY
	fieldGravity
	fieldTheta0
	fieldT0
	fieldCount
)

var fieldPrompts = [fieldCount]string{
	"u: ", "a: ", "b: ", "vx: ", "vy: ", "g: ", "theta0: ", "t0: ",
}

var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	formStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea solver UI.
type Model struct {
	config model.Config
	store  *store.Store

	width  int
	height int

	inputs     []textinput.Model
	focusIndex int
	body       viewport.Model

	outcome    *intercept.Outcome
	iterations []model.Iteration
	lastRunID  int64
	errMsg     string
}

// NewModel constructs a solver TUI model. A nil store disables saving.
func NewModel(cfg model.Config, st *store.Store) *Model {
	m := &Model{
		config: cfg,
		store:  st,
		body:   viewport.New(0, 0),
	}
	m.initInputs()
	m.body.SetContent("Press enter to solve.")
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.setFocus(0)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderBody()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.solve()
			return m, nil
		case tea.KeyTab, tea.KeyDown:
			return m, m.setFocus(m.focusIndex + 1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.setFocus(m.focusIndex - 1)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.body, cmd = m.body.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	form := formStyle.Render(m.renderForm())
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, form, m.body.View(), footer)
}

func (m *Model) initInputs() {
	sc := m.config.Scenario
	values := [fieldCount]float64{
		sc.Speed, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY, sc.Gravity,
		m.config.Guess.ThetaDeg, m.config.Guess.T,
	}
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		input := textinput.New()
		input.Prompt = fieldPrompts[i]
		input.Width = 10
		input.Cursor.SetMode(cursor.CursorBlink)
		input.SetValue(strconv.FormatFloat(values[i], 'g', -1, 64))
		m.inputs[i] = input
	}
}

func (m *Model) setFocus(idx int) tea.Cmd {
	count := len(m.inputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.focusIndex = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focusIndex {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) layoutHeights() (formHeight, bodyHeight, footerHeight int) {
	formHeight = lipgloss.Height(formStyle.Render(m.renderForm()))
	footerHeight = lipgloss.Height(m.renderFooter())
	bodyHeight = m.height - formHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return formHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.body.Width = m.width
	m.body.Height = bodyHeight
}

func (m *Model) renderForm() string {
	scenario := make([]string, 0, fieldTheta0)
	for i := fieldSpeed; i < fieldTheta0; i++ {
		scenario = append(scenario, m.inputs[i].View())
	}
	guess := []string{m.inputs[fieldTheta0].View(), m.inputs[fieldT0].View()}
	return strings.Join(scenario, "  ") + "\n" + strings.Join(guess, "  ")
}

func (m *Model) renderFooter() string {
	segments := []string{"tab: next field  enter: solve  pgup/pgdn: scroll  esc: quit"}
	if m.outcome != nil {
		status := fmt.Sprintf("%s after %d iterations", m.outcome.Verdict, m.outcome.Iterations)
		if m.lastRunID > 0 {
			status += fmt.Sprintf("  saved as run %d", m.lastRunID)
		}
		segments = append(segments, status)
	}
	footer := footerStyle.Render(strings.Join(segments, "  |  "))
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

// readInputs parses the form into a scenario and a guess.
func (m *Model) readInputs() (model.Scenario, model.Guess, error) {
	var values [fieldCount]float64
	for i, input := range m.inputs {
		raw := strings.TrimSpace(input.Value())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Scenario{}, model.Guess{}, fmt.Errorf("invalid %s%q", fieldPrompts[i], raw)
		}
		values[i] = v
	}
	sc := model.Scenario{
		Speed:    values[fieldSpeed],
		TargetX:  values[fieldTargetX],
		TargetY:  values[fieldTargetY],
		TargetVX: values[fieldTargetVX],
		TargetVY: values[fieldTargetVY],
		Gravity:  values[fieldGravity],
	}
	guess := model.Guess{ThetaDeg: values[fieldTheta0], T: values[fieldT0]}
	return sc, guess, nil
}

func (m *Model) solve() {
	m.errMsg = ""
	sc, guess, err := m.readInputs()
	if err != nil {
		m.fail(err)
		return
	}
	var iters []model.Iteration
	out, err := intercept.Evaluate(sc, guess, intercept.Options{
		Tolerance:     m.config.Tolerance,
		MaxIterations: m.config.MaxIterations,
		OnIteration: func(it model.Iteration) {
			iters = append(iters, it)
		},
	})
	if err != nil {
		m.fail(err)
		return
	}
	m.config.Scenario = sc
	m.config.Guess = guess
	m.outcome = &out
	m.iterations = iters
	m.lastRunID = 0
	m.saveRun()
	m.updateLayout()
	m.renderBody()
}

// fail drops the previous outcome so its report and plot are not read as
// belonging to the rejected input.
func (m *Model) fail(err error) {
	m.errMsg = err.Error()
	m.outcome = nil
	m.iterations = nil
	m.lastRunID = 0
	m.body.SetContent("No solution for the current input.")
	m.body.GotoTop()
	m.updateLayout()
}

func (m *Model) saveRun() {
	if m.store == nil || m.outcome == nil {
		return
	}
	run, err := m.store.InsertRun(context.Background(), m.outcome.Record(), m.iterations)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to save run: %v", err)
		logErrf("failed to save run: %v\n", err)
		return
	}
	m.lastRunID = run.ID
}

func (m *Model) renderBody() {
	if m.outcome == nil {
		return
	}
	m.body.SetContent(renderOutcome(*m.outcome, m.config, m.width))
	m.body.GotoTop()
}

func renderOutcome(out intercept.Outcome, cfg model.Config, width int) string {
	var report bytes.Buffer
	if err := render.WriteReport(&report, out, cfg.Strict); err != nil {
		return fmt.Sprintf("Failed to render report: %v", err)
	}
	text := wrapText(strings.TrimRight(report.String(), "\n"), width)
	lines := strings.Split(text, "\n")
	style := invalidStyle
	if out.Solution.Valid {
		style = validStyle
	}
	lines[0] = style.Render(lines[0])

	traj, err := trajectory.Sample(out.Solution, out.Scenario, trajectory.Options{Samples: cfg.Samples})
	if err != nil {
		lines = append(lines, "", errorStyle.Render(fmt.Sprintf("Failed to sample trajectory: %v", err)))
		return strings.Join(lines, "\n")
	}
	var plot bytes.Buffer
	if err := render.RenderTrajectory(&plot, out.Scenario, traj, width, plotHeight, true); err != nil {
		lines = append(lines, "", errorStyle.Render(fmt.Sprintf("Failed to render plot: %v", err)))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "", strings.TrimRight(plot.String(), "\n"))
	return strings.Join(lines, "\n")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
