package tui

import (
	"fmt"

	"springa/internal/analysis"
	"springa/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PaceModel is the calibrated pace table screen
type PaceModel struct {
	queryService *service.QueryService
	units        Units
	table        *analysis.CalibratedPaceTable
	trends       map[analysis.Zone]float64
	loading      bool
	err          error
}

// NewPaceModel creates a new pace screen
func NewPaceModel(qs *service.QueryService, units Units) PaceModel {
	return PaceModel{
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the screen
func (m PaceModel) Init() tea.Cmd {
	return m.loadPaces
}

type paceDataMsg struct {
	table  *analysis.CalibratedPaceTable
	trends map[analysis.Zone]float64
	err    error
}

func (m PaceModel) loadPaces() tea.Msg {
	table, err := m.queryService.BuildPaceTable()
	if err != nil {
		return paceDataMsg{err: err}
	}
	trends, err := m.queryService.PaceTrends()
	if err != nil {
		return paceDataMsg{err: err}
	}
	return paceDataMsg{table: table, trends: trends}
}

// Update handles messages
func (m PaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case paceDataMsg:
		m.loading = false
		m.err = msg.err
		m.table = msg.table
		m.trends = msg.trends
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadPaces
		}
	}
	return m, nil
}

// View renders the pace screen
func (m PaceModel) View() string {
	if m.loading {
		return "\n  Calibrating paces..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.table == nil {
		return "\n  No runs with pace data yet. Sync first."
	}

	var sections []string
	sections = append(sections, m.renderPaceTable())
	sections = append(sections, m.renderTrends())

	if m.table.HardExtrapolated {
		sections = append(sections, statusStyle.Render(
			"  * hard pace extrapolated from easy/steady/tempo, not observed"))
	}
	sections = append(sections, statusStyle.Render("Press 'r' to recalibrate"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PaceModel) renderPaceTable() string {
	title := cardTitleStyle.Render("Calibrated Paces")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-8s  %10s  %-12s  %8s  %8s",
		"Zone", m.units.PaceLabel(), "Source", "Segments", "Time"))

	rows := []string{header}
	for _, zone := range analysis.ZoneOrder {
		zp, ok := m.table.Zones[zone]
		if !ok || zp.Pace == 0 {
			continue
		}

		source := "calibrated"
		if !zp.Calibrated {
			source = "default"
		}
		if zone == analysis.ZoneHard && m.table.HardExtrapolated {
			source = "extrapolated*"
		}

		segs, minutes := "-", "-"
		if summary, ok := m.table.Summaries[zone]; ok && summary.SegmentCount > 0 {
			segs = fmt.Sprintf("%d", summary.SegmentCount)
			minutes = fmt.Sprintf("%.0f min", summary.TotalMinutes)
		}

		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-8s  %10s  %-12s  %8s  %8s",
			string(zone),
			m.units.FormatPaceMinKm(zp.Pace),
			source,
			segs,
			minutes,
		)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m PaceModel) renderTrends() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Pace Trend (last %d days)", analysis.PaceTrendWindowDays))

	var lines []string
	for _, zone := range analysis.ZoneOrder {
		slope, ok := m.trends[zone]
		if !ok {
			continue
		}

		// Negative slope means pace in min/km is dropping, i.e. getting faster.
		direction := "steady"
		switch {
		case slope < -0.001:
			direction = successStyle.Render("improving")
		case slope > 0.001:
			direction = warningStyle.Render("slowing")
		}
		lines = append(lines, fmt.Sprintf("%s  %+.3f min/km per day  %s",
			RenderZone(string(zone)), slope, direction))
	}
	if len(lines) == 0 {
		lines = append(lines, tableRowStyle.Render("not enough recent segments"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}
