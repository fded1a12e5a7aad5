package tui

import (
	"context"
	"fmt"

	"springa/internal/analysis"
	"springa/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	units        Units
	data         *service.DashboardData
	live         *analysis.InsulinContext
	liveErr      error
	showLive     bool
	loading      bool
	err          error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, units Units) DashboardModel {
	return DashboardModel{
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.GetDashboardData()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

type liveInsulinMsg struct {
	insulin *analysis.InsulinContext
	err     error
}

func (m DashboardModel) loadLiveInsulin() tea.Msg {
	ins, err := m.queryService.LiveInsulinContext(context.Background())
	return liveInsulinMsg{insulin: ins, err: err}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case liveInsulinMsg:
		m.showLive = true
		m.live = msg.insulin
		m.liveErr = msg.err
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			m.showLive = false
			return m, m.loadData
		case "i":
			return m, m.loadLiveInsulin
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || len(m.data.RecentActivities) == 0 {
		return "\n  No data yet. Press 's' to sync."
	}

	var sections []string

	// Top row: zone rates and insulin side by side
	zoneCard := m.renderZoneCard()
	insulinCard := m.renderInsulinCard()
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, zoneCard, "  ", insulinCard)
	sections = append(sections, topRow)

	if len(m.data.Suggestions) > 0 {
		sections = append(sections, m.renderSuggestions())
	}

	if len(m.data.LatestRunBG) > 2 {
		sections = append(sections, m.renderBGChart())
	}

	sections = append(sections, m.renderRecentActivities())

	help := statusStyle.Render("Press 'r' to refresh, 'i' for insulin right now, 's' to sync, '2' for the full model")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderZoneCard shows the per-zone BG drop rates from the model.
func (m DashboardModel) renderZoneCard() string {
	title := cardTitleStyle.Render("BG Drop by Zone (mmol/L per 10 min)")

	if m.data.Model == nil {
		empty := "Not enough overlaid runs yet"
		return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, empty))
	}

	var lines []string
	for _, zone := range analysis.ZoneOrder {
		stats, ok := m.data.Model.ZoneStats[zone]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s  %s  (%d obs, %s)",
			RenderZone(string(zone)),
			FormatRate(stats.AvgRate),
			stats.SampleCount,
			stats.Confidence,
		)
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, "No observations yet")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

// renderInsulinCard shows the insulin picture at the most recent run start,
// or live from Nightscout after pressing 'i'.
func (m DashboardModel) renderInsulinCard() string {
	title := cardTitleStyle.Render("Insulin at Last Run Start")
	ins := m.data.Insulin
	empty := "No bolus in the 5h before the run"

	if m.showLive {
		title = cardTitleStyle.Render("Insulin Right Now")
		ins = m.live
		empty = "No bolus in the last 5h"
		if m.liveErr != nil {
			msg := errorStyle.Render(fmt.Sprintf("Nightscout error: %v", m.liveErr))
			return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, msg))
		}
		if m.live == nil && m.liveErr == nil && !m.queryService.HasNightscout() {
			empty = "Nightscout not configured"
		}
	}

	if ins == nil {
		return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, statusStyle.Render(empty)))
	}
	lines := []string{
		RenderMetric("Bolus IOB", fmt.Sprintf("%.2f U", ins.IOBAtStart), ""),
		RenderMetric("Basal IOB", fmt.Sprintf("%.2f U", ins.BasalIOBAtStart), ""),
		RenderMetric("Total IOB", fmt.Sprintf("%.2f U", ins.TotalIOBAtStart), ""),
		RenderMetric("Expected BG drop", fmt.Sprintf("%.1f mmol/L", ins.ExpectedBGImpact), ""),
		RenderMetric("Last bolus", fmt.Sprintf("%.1f U, %dm ago", ins.LastBolusUnits, ins.TimeSinceLastBolus), ""),
		RenderMetric("Last meal", fmt.Sprintf("%.0f g, %dm ago", ins.LastMealCarbs, ins.TimeSinceLastMeal), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderSuggestions() string {
	title := cardTitleStyle.Render("Fueling Suggestions")

	var lines []string
	for _, s := range m.data.Suggestions {
		line := fmt.Sprintf("%s  dropping %s per 10 min -> add ~%.0f g/h",
			RenderZone(string(s.Zone)),
			FormatRate(s.AvgRate),
			s.SuggestedIncreaseG,
		)
		lines = append(lines, warningStyle.Render(line))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderBGChart() string {
	title := cardTitleStyle.Render("BG During " + truncateName(m.data.LatestRunName, 30) + " (mmol/L)")

	graph := asciigraph.Plot(m.data.LatestRunBG,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Runs")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-24s  %9s  %6s  %6s",
		"Date", "Name", "Distance", "Pace", "Fuel"))

	var rows []string
	rows = append(rows, header)

	for i, a := range m.data.RecentActivities {
		if i >= 5 {
			break
		}

		fuel := "-"
		if a.FuelRateG != nil {
			fuel = fmt.Sprintf("%.0fg/h", *a.FuelRateG)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %-24s  %9s  %6s  %6s",
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 24),
			m.units.FormatDistance(a.Distance),
			m.units.FormatPace(a.MovingTime, a.Distance),
			fuel,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
