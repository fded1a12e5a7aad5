package tui

import (
	"fmt"
	"strconv"
	"strings"

	"springa/internal/analysis"
	"springa/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// ActivityDetailModel is the run detail screen model
type ActivityDetailModel struct {
	queryService *service.QueryService
	units        Units
	activityID   int64
	detail       *service.ActivityDetail
	viewport     viewport.Model
	input        textinput.Model
	editing      string // "", "fuel", or "bg"
	saveErr      error
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewActivityDetailModel creates a new run detail model
func NewActivityDetailModel(qs *service.QueryService, units Units, activityID int64, width, height int) ActivityDetailModel {
	m := ActivityDetailModel{
		queryService: qs,
		units:        units,
		activityID:   activityID,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the run detail screen
func (m ActivityDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type activityDetailLoadedMsg struct {
	detail *service.ActivityDetail
	err    error
}

func (m ActivityDetailModel) loadDetail() tea.Msg {
	detail, err := m.queryService.GetActivityDetail(m.activityID)
	return activityDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m ActivityDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activityDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case contextSavedMsg:
		m.editing = ""
		m.saveErr = msg.err
		if msg.err == nil {
			m.loading = true
			return m, m.loadDetail
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing != "" {
			switch msg.String() {
			case "enter":
				return m, m.saveContext()
			case "esc":
				m.editing = ""
				return m, nil
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDetail
		case "f":
			if m.detail != nil {
				m.startEditing("fuel")
				return m, nil
			}
		case "b":
			if m.detail != nil {
				m.startEditing("bg")
				return m, nil
			}
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// isEditing reports whether a context input field is open, so the app
// can keep global keybindings out of the way while typing.
func (m ActivityDetailModel) isEditing() bool {
	return m.editing != ""
}

func (m *ActivityDetailModel) startEditing(field string) {
	m.editing = field
	m.saveErr = nil
	m.input = textinput.New()
	m.input.CharLimit = 6
	m.input.Width = 8
	if field == "fuel" {
		m.input.Placeholder = "g/h"
		if fr := m.detail.Activity.FuelRateG; fr != nil {
			m.input.SetValue(strconv.FormatFloat(*fr, 'f', -1, 64))
		}
	} else {
		m.input.Placeholder = "mmol/L"
		if bg := m.detail.Activity.StartBG; bg != nil {
			m.input.SetValue(strconv.FormatFloat(*bg, 'f', -1, 64))
		}
	}
	m.input.Focus()
}

type contextSavedMsg struct {
	err error
}

// saveContext persists the edited field, keeping the other field as is.
// An empty input clears the value.
func (m ActivityDetailModel) saveContext() tea.Cmd {
	raw := strings.TrimSpace(m.input.Value())
	field := m.editing
	a := m.detail.Activity

	var value *float64
	if raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return func() tea.Msg { return contextSavedMsg{err: fmt.Errorf("invalid number %q", raw)} }
		}
		value = &v
	}

	fuel, startBG := a.FuelRateG, a.StartBG
	if field == "fuel" {
		fuel = value
	} else {
		startBG = value
	}

	return func() tea.Msg {
		return contextSavedMsg{err: m.queryService.LogRunContext(a.ID, fuel, startBG)}
	}
}

// View renders the run detail screen
func (m ActivityDetailModel) View() string {
	if m.loading {
		return "\n  Loading run details..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	if m.editing != "" {
		label := "Fuel rate (g/h, empty to clear):"
		if m.editing == "bg" {
			label = "Starting BG (mmol/L, empty to clear):"
		}
		prompt := fmt.Sprintf("  %s %s", helpKeyStyle.Render(label), m.input.View())
		hint := statusStyle.Render("  enter: save  esc: cancel")
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), prompt, hint)
	}

	var footerParts []string
	if m.saveErr != nil {
		footerParts = append(footerParts, errorStyle.Render(fmt.Sprintf("  %v", m.saveErr)))
	}
	footerParts = append(footerParts, statusStyle.Render("  f: log fuel  b: log start BG  esc: back  j/k: scroll  r: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{m.viewport.View()}, footerParts...)...)
}

func (m ActivityDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderContext())

	if len(m.detail.BGTrace) > 2 {
		sections = append(sections, m.renderBGChart())
	}

	if len(m.detail.Observations) > 0 {
		sections = append(sections, m.renderObservations())
	}

	if len(m.detail.Segments) > 0 {
		sections = append(sections, m.renderSegments())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ActivityDetailModel) renderHeader() string {
	a := m.detail.Activity
	title := cardTitleStyle.Render(a.Name)

	date := a.StartDateLocal.Format("Monday, January 2, 2006 at 3:04 PM")
	duration := formatDuration(a.MovingTime)
	pace := m.units.FormatPace(a.MovingTime, a.Distance) + " " + m.units.PaceLabel()

	subtitle := lipgloss.NewStyle().Foreground(mutedColor).Render(date)

	stats := fmt.Sprintf("%s  •  %s  •  %s", m.units.FormatDistance(a.Distance), duration, pace)
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, statsLine, "")
}

func (m ActivityDetailModel) renderContext() string {
	a := m.detail.Activity

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("Run Context"))

	fuel := "not logged"
	if a.FuelRateG != nil {
		fuel = fmt.Sprintf("%.0f g/h", *a.FuelRateG)
	}
	lines = append(lines, fmt.Sprintf("  Fuel rate:    %s", fuel))

	startBG := "not recorded"
	if a.StartBG != nil {
		startBG = FormatMmol(*a.StartBG)
	} else if len(m.detail.BGTrace) > 0 {
		startBG = FormatMmol(m.detail.BGTrace[0]) + " (from CGM)"
	}
	lines = append(lines, fmt.Sprintf("  Starting BG:  %s", startBG))

	if a.AverageHeartrate != nil {
		lines = append(lines, fmt.Sprintf("  Average HR:   %.0f bpm", *a.AverageHeartrate))
	}

	cgm := "not yet synced"
	if a.GlucoseSynced {
		cgm = "synced"
	}
	lines = append(lines, fmt.Sprintf("  CGM overlay:  %s", cgm))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderBGChart() string {
	var lines []string

	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("Blood Glucose Over Time (mmol/L)"))

	data := m.detail.BGTrace
	if len(data) > 60 {
		data = downsample(data, 60)
	}
	data = trimTrailingZeros(data)

	if len(data) > 2 {
		chart := asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(50),
			asciigraph.Precision(1),
		)
		lines = append(lines, chart)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderObservations() string {
	var lines []string

	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("BG Response By Zone"))

	// Aggregate this run's observations per zone
	type agg struct {
		sum   float64
		count int
	}
	byZone := make(map[analysis.Zone]*agg)
	for _, obs := range m.detail.Observations {
		a, ok := byZone[obs.Zone]
		if !ok {
			a = &agg{}
			byZone[obs.Zone] = a
		}
		a.sum += obs.BGRate
		a.count++
	}

	header := fmt.Sprintf("  %-8s  %14s  %8s", "Zone", "Avg Rate/10min", "Windows")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, zone := range analysis.ZoneOrder {
		a, ok := byZone[zone]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-8s  %14s  %8d",
			string(zone), FormatRate(a.sum/float64(a.count)), a.count))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderSegments() string {
	var lines []string

	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("Sustained Zone Segments"))

	header := fmt.Sprintf("  %-8s  %10s  %7s  %9s", "Zone", m.units.PaceLabel(), "Avg HR", "Duration")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, seg := range m.detail.Segments {
		lines = append(lines, fmt.Sprintf("  %-8s  %10s  %7.0f  %7.0f m",
			string(seg.Zone),
			m.units.FormatPaceMinKm(seg.AvgPace),
			seg.AvgHR,
			seg.DurationMin,
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func trimTrailingZeros(data []float64) []float64 {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}

func downsample(data []float64, targetLen int) []float64 {
	if len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(data) {
			end = len(data)
		}

		sum := 0.0
		count := 0
		for j := start; j < end; j++ {
			if data[j] > 0 {
				sum += data[j]
				count++
			}
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}
