package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	// Navigation section
	navSection := m.renderSection("Navigation", []keyHelp{
		{"1", "Dashboard"},
		{"2", "BG response model"},
		{"3", "Calibrated paces"},
		{"4", "Runs list"},
		{"5 or s", "Sync screen"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	})
	sections = append(sections, navSection)

	// Dashboard keys
	dashSection := m.renderSection("Dashboard", []keyHelp{
		{"r", "Refresh data"},
		{"i", "Insulin on board right now (Nightscout)"},
	})
	sections = append(sections, dashSection)

	// Runs list keys
	actSection := m.renderSection("Runs List", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"enter", "Open run detail"},
		{"pgdn", "Next page"},
		{"pgup", "Previous page"},
		{"r", "Refresh list"},
	})
	sections = append(sections, actSection)

	// Run detail keys
	detailSection := m.renderSection("Run Detail", []keyHelp{
		{"f", "Log fuel rate (g/h) for the run"},
		{"b", "Log starting BG (mmol/L)"},
		{"j/k", "Scroll"},
	})
	sections = append(sections, detailSection)

	// Sync keys
	syncSection := m.renderSection("Sync Screen", []keyHelp{
		{"s / enter", "Start sync"},
	})
	sections = append(sections, syncSection)

	// Metrics explanation
	metricsSection := m.renderMetricsHelp()
	sections = append(sections, metricsSection)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")).Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderMetricsHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")).Render("Numbers Explained"))
	lines = append(lines, "")

	metrics := []struct {
		name string
		desc string
	}{
		{"Effort zones", "easy/steady/tempo/hard, from heart rate as % of your LTHR."},
		{"BG rate", "mmol/L change per 10 min of running in that zone. Negative = dropping."},
		{"Confidence", "low under 10 observations, medium under 30, high at 30+."},
		{"Fuel target", "carbs (g/h) the model estimates would hold BG flat in a zone."},
		{"IOB", "insulin on board - bolus insulin still active at run start."},
		{"Expected BG impact", "mmol/L drop the remaining insulin is expected to cause."},
		{"Entry slope", "BG trend in the 15 min before the run, mmol/L per 10 min."},
	}

	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	for _, metric := range metrics {
		lines = append(lines, "  "+helpKeyStyle.Render(metric.name))
		lines = append(lines, "  "+mutedStyle.Render(metric.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
