package tui

import (
	"fmt"

	"springa/internal/analysis"
	"springa/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ModelScreenModel is the BG response model screen
type ModelScreenModel struct {
	queryService *service.QueryService
	model        *analysis.BGResponseModel
	loading      bool
	err          error
}

// NewModelScreenModel creates a new BG model screen
func NewModelScreenModel(qs *service.QueryService) ModelScreenModel {
	return ModelScreenModel{
		queryService: qs,
		loading:      true,
	}
}

// Init initializes the screen
func (m ModelScreenModel) Init() tea.Cmd {
	return m.loadModel
}

type bgModelMsg struct {
	model *analysis.BGResponseModel
	err   error
}

func (m ModelScreenModel) loadModel() tea.Msg {
	model, err := m.queryService.BuildBGModel()
	return bgModelMsg{model: model, err: err}
}

// Update handles messages
func (m ModelScreenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bgModelMsg:
		m.loading = false
		m.err = msg.err
		m.model = msg.model
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadModel
		}
	}
	return m, nil
}

// View renders the BG model screen
func (m ModelScreenModel) View() string {
	if m.loading {
		return "\n  Building model..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.model == nil {
		return "\n  No overlaid runs yet. Sync first, then log fuel for your runs."
	}

	var sections []string

	summary := statusStyle.Render(fmt.Sprintf("  Built from %d runs (%d skipped, no usable overlap)",
		m.model.ActivityCount, m.model.SkippedActivities))
	sections = append(sections, summary)

	sections = append(sections, m.renderZoneTable())

	row := lipgloss.JoinHorizontal(lipgloss.Top, m.renderBandTable(), "  ", m.renderBucketTable())
	sections = append(sections, row)

	if len(m.model.FuelTargets) > 0 {
		sections = append(sections, m.renderFuelTargets())
	}

	sections = append(sections, statusStyle.Render("Press 'r' to rebuild"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ModelScreenModel) renderZoneTable() string {
	title := cardTitleStyle.Render("By Effort Zone")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-8s  %8s  %8s  %5s  %5s  %-8s  %8s",
		"Zone", "Avg", "Median", "Obs", "Runs", "Conf", "Fuel"))

	rows := []string{header}
	for _, zone := range analysis.ZoneOrder {
		stats, ok := m.model.ZoneStats[zone]
		if !ok {
			continue
		}

		fuel := "-"
		if stats.AvgFuelRate != nil {
			fuel = fmt.Sprintf("%.0f g/h", *stats.AvgFuelRate)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-8s  %8s  %8s  %5d  %5d  %-8s  %8s",
			string(zone),
			FormatRate(stats.AvgRate),
			FormatRate(stats.MedianRate),
			stats.SampleCount,
			stats.ActivityCount,
			stats.Confidence,
			fuel,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m ModelScreenModel) renderBandTable() string {
	title := cardTitleStyle.Render("By Starting BG")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-6s  %8s  %5s", "Band", "Avg", "Obs"))

	rows := []string{header}
	for _, band := range m.model.StartBGBands {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-6s  %8s  %5d",
			band.Band, FormatRate(band.AvgRate), band.SampleCount)))
	}
	if len(rows) == 1 {
		rows = append(rows, tableRowStyle.Render("no data"))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m ModelScreenModel) renderBucketTable() string {
	title := cardTitleStyle.Render("By Minutes Into Run")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-6s  %8s  %5s", "Window", "Avg", "Obs"))

	rows := []string{header}
	for _, bucket := range m.model.TimeBuckets {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-6s  %8s  %5d",
			bucket.Bucket, FormatRate(bucket.AvgRate), bucket.SampleCount)))
	}
	if len(rows) == 1 {
		rows = append(rows, tableRowStyle.Render("no data"))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m ModelScreenModel) renderFuelTargets() string {
	title := cardTitleStyle.Render("Fuel Targets (g/h to hold BG flat)")

	var lines []string
	for _, zone := range analysis.ZoneOrder {
		target, ok := m.model.FuelTargets[zone]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %.0f g/h  (%s)",
			RenderZone(string(zone)), target.GramsPerHour, target.Method))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}
