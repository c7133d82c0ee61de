package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/labtrack/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/config"
	"github.com/MrJamesThe3rd/labtrack/internal/database"
	"github.com/MrJamesThe3rd/labtrack/internal/export"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
	orderStore "github.com/MrJamesThe3rd/labtrack/internal/order/store"
	"github.com/MrJamesThe3rd/labtrack/internal/payment"
)

type model struct {
	cfg           *config.Config
	orderService  *order.Service
	exportService *export.Service
	actor         identity.Actor

	currentView View

	stationView view.StationModel
	listView    view.ListModel
	exportView  view.ExportModel
}

type View int

const (
	ViewMenu    View = 0
	ViewStation View = 1
	ViewList    View = 2
	ViewExport  View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), cfg.DB.MaxConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// The station never prices new orders, so the catalog is only the seed file, if any.
	var entries []*catalog.Entry
	if cfg.Workshop.CatalogFile != "" {
		if entries, err = catalog.LoadFile(cfg.Workshop.CatalogFile); err != nil {
			slog.Error("failed to load catalog file", "path", cfg.Workshop.CatalogFile, "error", err)
			os.Exit(1)
		}
	}

	orderSvc := order.NewService(
		orderStore.New(db),
		catalog.NewService(catalog.NewMemory(entries...)),
		payment.NewClient(cfg.Payments.URL, cfg.Payments.Token),
		order.WithDispatchSector(cfg.Workshop.DispatchSector),
		order.WithOrganization(cfg.Payments.OrganizationID),
	)
	expSvc := export.NewService(orderSvc, cfg.Attachments.Token)

	actor := identity.Actor{
		ID:     cfg.Scan.StationActor,
		Name:   cfg.Scan.StationActor,
		Sector: cfg.Scan.StationSector,
	}

	return model{
		cfg:           cfg,
		orderService:  orderSvc,
		exportService: expSvc,
		actor:         actor,
		currentView:   ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewStation
				m.stationView = view.NewStationModel(m.orderService, m.actor, m.cfg.Scan.GapThreshold, m.cfg.Scan.MinLength)

				return m, m.stationView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.orderService, m.actor)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.orderService, m.exportService)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewStation:
		var newModel tea.Model
		newModel, cmd = m.stationView.Update(msg)
		m.stationView = newModel.(view.StationModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		station := "tracking only"
		if m.actor.Bound() {
			station = "sector " + m.actor.Sector
		}

		return lipgloss.NewStyle().Padding(2).Render(
			m.cfg.App.Name + " (" + station + ")\n\n" +
				"1. Scan Station\n" +
				"2. Orders\n" +
				"3. Export Order\n\n" +
				"q. Quit",
		)
	}

	v := m.active()
	if v == nil {
		return "Unknown View"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.View(),
		lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(v.ShortHelp()),
	)
}

func (m model) active() view.View {
	switch m.currentView {
	case ViewStation:
		return m.stationView
	case ViewList:
		return m.listView
	case ViewExport:
		return m.exportView
	}

	return nil
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
