// Package historyui provides the Bubble Tea browser for stored runs.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/intercept/internal/intercept"
	"github.com/verte-zerg/intercept/internal/model"
	"github.com/verte-zerg/intercept/internal/render"
	"github.com/verte-zerg/intercept/internal/store"
)

const (
	filterVerdict = iota
	filterSince
	filterLast
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// runColumnWidths matches render.RunHeaders.
var runColumnWidths = []int{5, 19, 6, 14, 14, 12, 10, 9, 18}

// Model implements the Bubble Tea history UI.
type Model struct {
	store *store.Store
	cfg   model.HistoryConfig

	runs   []model.RunRecord
	table  table.Model
	detail viewport.Model

	showDetail bool
	errMsg     string

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, cfg model.HistoryConfig) *Model {
	m := &Model{
		store:  st,
		cfg:    cfg,
		detail: viewport.New(0, 0),
	}
	m.initInputs()
	m.table = table.New(
		table.WithColumns(runColumns()),
		table.WithFocused(true),
		table.WithHeight(1),
	)
	m.table.SetStyles(tableStyles())
	m.refreshRuns()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.showDetail {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc", "backspace":
				m.showDetail = false
				return m, nil
			}
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "/":
			return m.startFilter()
		case "enter":
			m.openDetail()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Verdict: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[filterVerdict].SetValue(m.cfg.Verdict)
	if m.cfg.Since != nil {
		m.filterInputs[filterSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[filterSince].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[filterLast].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[filterLast].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = 2
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.detail.Width = m.width
	m.detail.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) refreshRuns() {
	runs, err := m.store.ListRuns(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load runs: %v", err)
		m.runs = nil
		m.table.SetRows(nil)
		return
	}
	m.errMsg = ""
	m.runs = runs
	rows := make([]table.Row, 0, len(runs))
	// Newest first so the cursor starts on the latest run.
	for i := len(runs) - 1; i >= 0; i-- {
		rows = append(rows, table.Row(render.RunRow(runs[i])))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// selectedRun returns the run under the table cursor.
func (m *Model) selectedRun() (model.RunRecord, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.runs) {
		return model.RunRecord{}, false
	}
	return m.runs[len(m.runs)-1-idx], true
}

func (m *Model) openDetail() {
	run, ok := m.selectedRun()
	if !ok {
		return
	}
	iters, err := m.store.ListIterations(context.Background(), run.ID)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load iterations: %v", err)
		return
	}
	m.detail.SetContent(renderDetail(run, iters))
	m.detail.GotoTop()
	m.showDetail = true
}

func renderDetail(run model.RunRecord, iters []model.Iteration) string {
	var buf bytes.Buffer
	sc := run.Scenario
	verdict := run.Verdict
	if v, ok := intercept.ParseVerdict(run.Verdict); ok {
		verdict = fmt.Sprintf("%s (%s)", v, v.Describe())
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Run %d  %s", run.ID, run.Ref)),
		fmt.Sprintf("Solved:   %s", run.SolvedAt.Local().Format(time.DateTime)),
		fmt.Sprintf("Scenario: u=%g a=%g b=%g vx=%g vy=%g g=%g", sc.Speed, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY, sc.Gravity),
		fmt.Sprintf("Guess:    theta0=%g t0=%g", run.Guess.ThetaDeg, run.Guess.T),
		fmt.Sprintf("Result:   theta=%v t=%v", run.ThetaDeg, run.T),
		fmt.Sprintf("Verdict:  %s", verdict),
		fmt.Sprintf("Residual: x=%.3e y=%.3e (tolerance %g)", run.ResidualX, run.ResidualY, run.Tolerance),
		"",
	}
	buf.WriteString(strings.Join(lines, "\n"))
	buf.WriteString("\n")
	if err := render.RenderIterationTable(&buf, iters); err != nil {
		return fmt.Sprintf("Failed to render iterations: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render("Intercept runs")
	if m.showDetail {
		title = titleStyle.Render("Run detail")
	}
	return title + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	verdict := m.cfg.Verdict
	if verdict == "" {
		verdict = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: verdict=%s  since=%s  last=%s  runs=%d", verdict, since, last, len(m.runs))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	switch {
	case m.filterMode:
		return m.renderFilterForm()
	case m.showDetail:
		return m.detail.View()
	case len(m.runs) == 0:
		return "No runs found."
	default:
		return mutedStyle.Render(m.table.View())
	}
}

func (m *Model) renderFooter() string {
	var help string
	switch {
	case m.filterMode:
		help = "tab/shift+tab: next field  enter: apply  esc: cancel"
	case m.showDetail:
		help = "Scroll: up/down/pgup/pgdn  Back: esc  Quit: q"
	default:
		help = "Move: up/down  Details: enter  Filters: /  Quit: q"
	}
	footer := headerStyle.Render(help)
	if !m.filterMode && m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshRuns()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	verdict := strings.TrimSpace(m.filterInputs[filterVerdict].Value())
	if verdict != "" {
		if _, ok := intercept.ParseVerdict(verdict); !ok {
			return fmt.Errorf("invalid verdict %q", verdict)
		}
	}

	sinceInput := strings.TrimSpace(m.filterInputs[filterSince].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	lastInput := strings.TrimSpace(m.filterInputs[filterLast].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	m.cfg = model.HistoryConfig{Verdict: verdict, Since: since, Last: last}
	return nil
}

func runColumns() []table.Column {
	cols := make([]table.Column, len(render.RunHeaders))
	for i, title := range render.RunHeaders {
		cols[i] = table.Column{Title: title, Width: runColumnWidths[i]}
	}
	return cols
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
