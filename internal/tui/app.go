package tui

import (
	"springa/internal/config"
	"springa/internal/service"
	"springa/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenModel
	ScreenPace
	ScreenActivities
	ScreenActivityDetail
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard  DashboardModel
	model      ModelScreenModel
	pace       PaceModel
	activities ActivitiesModel
	detail     ActivityDetailModel
	syncScreen SyncModel
	help       HelpModel

	// Services
	db           *store.DB
	queryService *service.QueryService
	syncService  *service.SyncService
	units        Units

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(db *store.DB, syncService *service.SyncService, queryService *service.QueryService, display config.DisplayConfig) *App {
	units := NewUnits(display)
	return &App{
		screen:       ScreenDashboard,
		db:           db,
		queryService: queryService,
		syncService:  syncService,
		units:        units,
		dashboard:    NewDashboardModel(queryService, units),
		model:        NewModelScreenModel(queryService),
		pace:         NewPaceModel(queryService, units),
		activities:   NewActivitiesModel(queryService, units),
		syncScreen:   NewSyncModel(syncService),
		help:         NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless syncing or typing into an input)
		syncing := a.screen == ScreenSync && a.syncScreen.syncing
		typing := a.screen == ScreenActivityDetail && a.detail.isEditing()
		if !syncing && !typing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.queryService, a.units)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenModel
				a.model = NewModelScreenModel(a.queryService)
				return a, a.model.Init()
			case "3":
				a.screen = ScreenPace
				a.pace = NewPaceModel(a.queryService, a.units)
				return a, a.pace.Init()
			case "4":
				a.screen = ScreenActivities
				return a, a.activities.Init()
			case "5", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to sync screen when already there
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenActivityDetail:
					a.screen = ScreenActivities
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenActivityDetailMsg:
		a.screen = ScreenActivityDetail
		a.detail = NewActivityDetailModel(a.queryService, a.units, msg.ActivityID, a.width, a.height)
		return a, a.detail.Init()

	case SyncCompleteMsg:
		// Refresh dashboard after sync
		a.screen = ScreenDashboard
		a.dashboard = NewDashboardModel(a.queryService, a.units)
		return a, a.dashboard.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenModel:
		var m tea.Model
		m, cmd = a.model.Update(msg)
		a.model = m.(ModelScreenModel)
	case ScreenPace:
		var m tea.Model
		m, cmd = a.pace.Update(msg)
		a.pace = m.(PaceModel)
	case ScreenActivities:
		var m tea.Model
		m, cmd = a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
	case ScreenActivityDetail:
		var m tea.Model
		m, cmd = a.detail.Update(msg)
		a.detail = m.(ActivityDetailModel)
	case ScreenSync:
		var m tea.Model
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenModel:
		content = a.model.View()
	case ScreenPace:
		content = a.pace.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenActivityDetail:
		content = a.detail.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("springa - running with diabetes")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "BG Model", ScreenModel},
		{"3", "Paces", ScreenPace},
		{"4", "Runs", ScreenActivities},
		{"5", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}

// OpenActivityDetailMsg asks the app to open the detail screen for a run
type OpenActivityDetailMsg struct {
	ActivityID int64
}
