// Package dashboard provides the Bubble Tea health dashboard.
package dashboard

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
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/model"
	"github.com/verte-zerg/healthdash/internal/stats"
	"github.com/verte-zerg/healthdash/internal/store"
)

const (
	tabOverview = iota
	tabDaily
	tabTrends
	tabJournal
)

const journalLimit = 20

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A9AC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8A33D")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	store store.Store
	cfg   model.ReportConfig

	report stats.Report
	notes  []model.Note
	events []model.TimelineEvent
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	dailyTable table.Model
	dailyKeys  []string

	metrics     []string
	metricIndex int

	width  int
	height int

	settingsOpen   bool
	settingInputs []textinput.Model
	settingIndex  int
	settingsError  string
}

// NewModel constructs a dashboard over the newest stored export.
func NewModel(st store.Store, cfg model.ReportConfig) *Model {
	if cfg.Window < 1 {
		cfg.Window = 1
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Daily", "Trends", "Journal"},
	}
	m.initSettingInputs()
	m.initDailyTable()
	m.initViewports()
	m.refreshReport()
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
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.settingsOpen {
			return m.updateSettings(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "=", "+":
			m.cfg.Window = nextWindow(m.cfg.Window)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.Window = prevWindow(m.cfg.Window)
			m.renderTabContents()
			return m, nil
		case "]":
			m.cycleMetric(1)
			return m, nil
		case "[":
			m.cycleMetric(-1)
			return m, nil
		case "/":
			return m.openSettings()
		case "g":
			if m.activeTab != tabDaily {
				m.viewports[m.activeTab].GotoTop()
			} else {
				m.dailyTable.GotoTop()
			}
			return m, nil
		case "G":
			if m.activeTab != tabDaily {
				m.viewports[m.activeTab].GotoBottom()
			} else {
				m.dailyTable.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabDaily {
			m.dailyTable, cmd = m.dailyTable.Update(msg)
		} else {
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := m.renderBody(bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (int, int, int) {
	headerHeight := lipgloss.Height(m.renderHeader())
	footerHeight := lipgloss.Height(m.renderFooter())
	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initDailyTable() {
	m.dailyTable = table.New(
		table.WithHeight(1),
		table.WithFocused(false),
	)
	m.dailyTable.SetStyles(dailyTableStyles())
}

func (m *Model) initSettingInputs() {
	m.settingInputs = []textinput.Model{
		newSettingInput("Since (YYYY-MM-DD): "),
		newSettingInput("Last days (0 = all): "),
		newSettingInput("Average window: "),
		newSettingInput("Metric: "),
	}
	m.settingInputs[0].Placeholder = "2024-01-01"
	m.settingInputs[1].Placeholder = "30"
	m.settingInputs[2].Placeholder = "7"
	m.settingInputs[3].Placeholder = "stepCount"
}

func newSettingInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) loadSettingInputs() {
	if m.cfg.Since != nil {
		m.settingInputs[0].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.settingInputs[0].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.settingInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.settingInputs[1].SetValue("")
	}
	m.settingInputs[2].SetValue(strconv.Itoa(m.cfg.Window))
	m.settingInputs[3].SetValue(m.currentMetric())
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.dailyTable.SetWidth(m.width)
	m.dailyTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.settingInputs {
		promptWidth := lipgloss.Width(m.settingInputs[i].Prompt)
		m.settingInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabDaily {
		m.dailyTable.Focus()
	} else {
		m.dailyTable.Blur()
	}
}

func (m *Model) currentMetric() string {
	if len(m.metrics) == 0 {
		return ""
	}
	return m.metrics[m.metricIndex]
}

func (m *Model) cycleMetric(delta int) {
	count := len(m.metrics)
	if count == 0 {
		return
	}
	m.metricIndex = (m.metricIndex + delta + count) % count
	m.cfg.Metric = m.metrics[m.metricIndex]
	m.renderTabContents()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := padLines(m.renderSettingsSummary(), m.width)
	return tabs + "\n" + summary
}

func (m *Model) renderSettingsSummary() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	metric := m.currentMetric()
	if metric == "" {
		metric = "none"
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  window=%d  metric=%s", since, last, m.cfg.Window, metric)
	if !m.report.Empty() {
		summary += fmt.Sprintf("  export=#%d", m.report.ResultID)
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Reload: r  Quit: q"
	if m.activeTab == tabTrends {
		help = "Nav: left/right  Metric: [/]  Window: -/=  Settings: /  Reload: r  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.settingsOpen {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderSettingsForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.settingInputs {
		lines = append(lines, input.View())
	}
	if m.settingsError != "" {
		lines = append(lines, errorStyle.Render(m.settingsError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.settingsOpen {
		return fitLines(m.renderSettingsForm(), m.width, height)
	}
	if m.activeTab == tabDaily {
		if len(m.report.Days) == 0 {
			return fitLines(emptyMessage(m.report), m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.dailyTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load health data.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.metrics = stats.TopMetrics(report.Days, 0)
	m.metricIndex = 0
	for i, key := range m.metrics {
		if key == m.cfg.Metric {
			m.metricIndex = i
		}
	}
	m.loadJournal(ctx)
	m.applyDailyTable()
	m.renderTabContents()
}

func (m *Model) loadJournal(ctx context.Context) {
	notes, err := m.store.ListNotes(ctx)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	if len(notes) > journalLimit {
		notes = notes[:journalLimit]
	}
	events, err := m.store.ListTimeline(ctx)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.notes = notes
	m.events = events
}

func (m *Model) applyDailyTable() {
	m.dailyKeys = dailyKeys(m.report.Days)
	cols, rows := buildDailyTableData(m.report.Days, m.dailyKeys)
	m.dailyTable.SetRows(nil)
	m.dailyTable.SetColumns(cols)
	m.dailyTable.SetRows(rows)
	m.dailyTable.GotoTop()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabTrends].SetContent(renderTrends(m.report, m.currentMetric(), m.cfg.Window, width))
	m.viewports[tabJournal].SetContent(renderJournal(m.notes, m.events, width))
}

func emptyMessage(report stats.Report) string {
	if report.Empty() {
		return "No health data found. Run `healthdash ingest export.xml` first."
	}
	return "No days match the current settings."
}

func renderOverview(report stats.Report, width int) string {
	if report.Empty() {
		return emptyMessage(report)
	}
	result := report.Result
	var b strings.Builder
	fmt.Fprintf(&b, "Latest day: %s  (stored %s)\n\n", result.Latest.Date, report.StoredAt.Local().Format("2006-01-02 15:04"))
	b.WriteString(renderCards(result.Metrics, width))
	b.WriteString("\n\n")
	b.WriteString(renderInsights(insights.Evaluate(result.Metrics), width))
	return strings.TrimRight(b.String(), "\n")
}

var overviewCards = []string{
	string(health.StepCount),
	string(health.HeartRate),
	string(health.RestingHeartRate),
	health.SleepKey,
	string(health.ActiveEnergyBurned),
	string(health.HeartRateVariabilitySDNN),
}

func renderCards(metrics map[string]float64, width int) string {
	cards := make([]string, 0, len(overviewCards))
	for _, key := range overviewCards {
		value := "-"
		if v, ok := metrics[key]; ok {
			value = stats.FormatValue(key, v)
		}
		cards = append(cards, metricCard(stats.MetricLabel(key), value))
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Width(18).Render(content)
}

func renderInsights(report insights.Report, width int) string {
	lines := []string{cardValueStyle.Render("Insights")}
	for _, in := range report.Insights {
		style := okStyle
		if in.Tone == insights.Alert {
			style = alertStyle
		}
		lines = append(lines, style.Render(in.Title), indent(wrapText(in.Description, width-2), "  "))
	}
	lines = append(lines, "", cardValueStyle.Render("Suggestions"))
	for _, s := range report.Suggestions {
		lines = append(lines, "  - "+strings.ReplaceAll(wrapText(s, width-4), "\n", "\n    "))
	}
	return strings.Join(lines, "\n")
}

func renderTrends(report stats.Report, metric string, window, width int) string {
	if len(report.Days) == 0 {
		return emptyMessage(report)
	}
	if metric == "" {
		return "No metrics recorded in the selected days."
	}
	var buf bytes.Buffer
	opts := stats.TrendOptions{Window: window, Width: width, ForceColor: true}
	if err := stats.RenderTrend(&buf, report.Days, metric, opts); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	lowest := stats.LowestDays(report.Days, metric, 3)
	if len(lowest) > 0 {
		buf.WriteString(headerStyle.Render("Lowest days:"))
		for _, d := range lowest {
			fmt.Fprintf(&buf, "\n  %s  %s", d.Date, stats.FormatValue(metric, d.Value))
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderJournal(notes []model.Note, events []model.TimelineEvent, width int) string {
	lines := []string{cardValueStyle.Render("Timeline")}
	if len(events) == 0 {
		lines = append(lines, headerStyle.Render("  no events"))
	}
	for _, ev := range events {
		line := fmt.Sprintf("  %s  %s", ev.EventDate, ev.Title)
		if ev.Category != "" {
			line += headerStyle.Render(" [" + ev.Category + "]")
		}
		lines = append(lines, line)
		if ev.Details != "" {
			lines = append(lines, indent(wrapText(ev.Details, width-6), "      "))
		}
	}
	lines = append(lines, "", cardValueStyle.Render("Notes"))
	if len(notes) == 0 {
		lines = append(lines, headerStyle.Render("  no notes"))
	}
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("  %s  %s", n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Text))
	}
	return strings.Join(lines, "\n")
}

func dailyKeys(days []health.ProcessedDay) []string {
	present := map[string]bool{}
	for _, key := range stats.TopMetrics(days, 0) {
		present[key] = true
	}
	keys := make([]string, 0, len(stats.DefaultDailyColumns))
	for _, key := range stats.DefaultDailyColumns {
		if present[key] {
			keys = append(keys, key)
		}
	}
	return keys
}

func buildDailyTableData(days []health.ProcessedDay, keys []string) ([]table.Column, []table.Row) {
	headers := stats.DailyHeaders(keys)
	raw := stats.DailyRows(days, keys)
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		width := runewidth.StringWidth(h)
		for _, row := range raw {
			width = max(width, runewidth.StringWidth(row[i]))
		}
		columns[i] = table.Column{Title: h, Width: width + 1}
	}
	rows := make([]table.Row, len(raw))
	for i, row := range raw {
		rows[i] = table.Row(row)
	}
	return columns, rows
}

func dailyTableStyles() table.Styles {
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

func (m *Model) openSettings() (tea.Model, tea.Cmd) {
	m.settingsOpen = true
	m.settingsError = ""
	m.loadSettingInputs()
	return m, m.focusSetting(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingsOpen = false
		m.settingsError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := parseSettings(m.settingInputs[0].Value(), m.settingInputs[1].Value(), m.settingInputs[2].Value(), m.settingInputs[3].Value())
		if err != nil {
			m.settingsError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.settingsOpen = false
		m.settingsError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.focusSetting(m.settingIndex + 1)
	case tea.KeyShiftTab:
		return m, m.focusSetting(m.settingIndex - 1)
	}
	var cmd tea.Cmd
	m.settingInputs[m.settingIndex], cmd = m.settingInputs[m.settingIndex].Update(msg)
	return m, cmd
}

func (m *Model) focusSetting(idx int) tea.Cmd {
	count := len(m.settingInputs)
	if count == 0 {
		return nil
	}
	m.settingIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.settingInputs {
		if i == m.settingIndex {
			cmd = m.settingInputs[i].Focus()
		} else {
			m.settingInputs[i].Blur()
		}
	}
	return cmd
}

func parseSettings(sinceInput, lastInput, windowInput, metricInput string) (model.ReportConfig, error) {
	var cfg model.ReportConfig
	if s := strings.TrimSpace(sinceInput); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if s := strings.TrimSpace(lastInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}
	cfg.Window = 1
	if s := strings.TrimSpace(windowInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			return cfg, fmt.Errorf("invalid average window (use integer >= 1)")
		}
		cfg.Window = parsed
	}
	cfg.Metric = strings.TrimSpace(metricInput)
	return cfg, nil
}

func nextWindow(n int) int {
	switch {
	case n < 7:
		return 7
	case n < 14:
		return 14
	default:
		return n + 14
	}
}

func prevWindow(n int) int {
	switch {
	case n <= 7:
		return 1
	case n <= 14:
		return 7
	default:
		return n - 14
	}
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
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
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
