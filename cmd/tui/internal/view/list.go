package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
)

var listViews = []string{"All", "Pending", "Overdue", "In Progress", "Completed"}

// ListModel is the order board: browse, filter and run manual transitions.
type ListModel struct {
	CommonModel
	orders *order.Service
	actor  identity.Actor

	state  listState
	table  table.Model
	list   []*order.Order
	form   *huh.Form
	fields *logisticsFields

	viewIdx int
	loading bool
	err     error
	status  string
}

type logisticsFields struct {
	dueDate   string
	urgency   order.Urgency
	container string
	color     string
	notes     string
}

func NewListModel(svc *order.Service, actor identity.Actor) ListModel {
	columns := []table.Column{
		{Title: "Ref", Width: 10},
		{Title: "Customer", Width: 24},
		{Title: "Status", Width: 18},
		{Title: "Urgency", Width: 8},
		{Title: "Due", Width: 12},
		{Title: "Sector", Width: 16},
		{Title: "Total", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		orders:  svc,
		actor:   actor,
		table:   t,
		loading: true,
	}
}

func (m ListModel) Title() string { return "Orders" }
func (m ListModel) ShortHelp() string {
	if m.state == listStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | v: view | e: logistics | s: start | f: finalize | d: deliver | o: reopen | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadOrdersCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.list = msg.orders
		m.refreshTable()

		return m, nil

	case listSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.status
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadOrdersCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m ListModel) selected() (*order.Order, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil, false
	}

	return m.list[idx], true
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadOrdersCmd()
		case "v":
			m.viewIdx = (m.viewIdx + 1) % len(listViews)
			m.loading = true

			return m, m.loadOrdersCmd()
		case "e":
			return m.enterEditMode()
		case "s":
			return m, m.transitionCmd("started", func(o *order.Order) (*order.Order, error) {
				ctx, cancel := DbCtx()
				defer cancel()

				return m.orders.Start(ctx, m.actor, o.ID, "")
			})
		case "f":
			return m, m.transitionCmd("finalized", func(o *order.Order) (*order.Order, error) {
				ctx, cancel := DbCtx()
				defer cancel()

				return m.orders.Finalize(ctx, m.actor, o.ID)
			})
		case "d":
			return m, m.transitionCmd("delivered", func(o *order.Order) (*order.Order, error) {
				ctx, cancel := DbCtx()
				defer cancel()

				return m.orders.Deliver(ctx, m.actor, o.ID)
			})
		case "o":
			return m, m.transitionCmd("reopened", func(o *order.Order) (*order.Order, error) {
				ctx, cancel := DbCtx()
				defer cancel()

				return m.orders.Reopen(ctx, m.actor, o.ID)
			})
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	o, ok := m.selected()
	if !ok {
		return m, nil
	}

	m.fields = &logisticsFields{
		dueDate:   FormatDate(o.DueDate),
		urgency:   o.Urgency,
		container: o.ContainerRef,
		color:     o.ContainerColor,
		notes:     o.Notes,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("due_date").
				Title("Due date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fields.dueDate).
				Validate(func(s string) error {
					if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}

					return nil
				}),
			huh.NewSelect[order.Urgency]().
				Key("urgency").
				Title("Urgency").
				Options(
					huh.NewOption("Normal", order.UrgencyNormal),
					huh.NewOption("Urgent", order.UrgencyUrgent),
				).
				Value(&m.fields.urgency),
			huh.NewInput().
				Key("container").
				Title("Container").
				Value(&m.fields.container),
			huh.NewInput().
				Key("color").
				Title("Container color").
				Value(&m.fields.color),
			huh.NewText().
				Key("notes").
				Title("Notes").
				Value(&m.fields.notes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading orders...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Filter: [v] View: %s | %d orders", activeStyle(listViews[m.viewIdx]), len(m.list))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == listStateEdit && m.form != nil {
		ref := ""
		if o, ok := m.selected(); ok {
			ref = o.ExternalRef
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(
				fmt.Sprintf("Logistics %s\n\n%s", ref, m.form.View()),
			)

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ListModel) filter() order.Filter {
	switch m.viewIdx {
	case 3:
		return order.Filter{Statuses: []order.Status{order.StatusInProgress}}
	case 4:
		return order.Filter{Statuses: []order.Status{order.StatusCompleted}}
	default:
		return order.Filter{}
	}
}

func (m ListModel) narrow(orders []*order.Order) []*order.Order {
	switch m.viewIdx {
	case 1:
		return order.Pending(orders)
	case 2:
		return order.Overdue(orders, time.Now())
	default:
		return orders
	}
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, o := range m.list {
		rows = append(rows, table.Row{
			o.ExternalRef,
			o.CustomerName,
			string(o.Status),
			string(o.Urgency),
			FormatDate(o.DueDate),
			orDash(o.CurrentSector),
			FormatAmount(o.TotalValue),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	orders []*order.Order
	err    error
}

func (m ListModel) loadOrdersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		orders, err := m.orders.List(ctx, m.filter())
		if err != nil {
			return loadListMsg{err: err}
		}

		return loadListMsg{orders: m.narrow(orders)}
	}
}

type listSaveMsg struct {
	status string
	err    error
}

func (m ListModel) transitionCmd(verb string, fn func(*order.Order) (*order.Order, error)) tea.Cmd {
	o, ok := m.selected()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		next, err := fn(o)
		if err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: fmt.Sprintf("%s %s", next.ExternalRef, verb)}
	}
}

func (m ListModel) saveCmd() tea.Cmd {
	o, ok := m.selected()
	if !ok {
		return nil
	}

	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		due, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(f.dueDate), time.Local)
		if err != nil {
			return listSaveMsg{err: err}
		}

		var patch order.LogisticsPatch

		if !sameDay(due, o.DueDate) {
			patch.DueDate = &due
		}

		if f.urgency != o.Urgency {
			patch.Urgency = &f.urgency
		}

		if f.container != o.ContainerRef {
			patch.ContainerRef = &f.container
		}

		if f.color != o.ContainerColor {
			patch.ContainerColor = &f.color
		}

		if f.notes != o.Notes {
			patch.Notes = &f.notes
		}

		if _, err := m.orders.UpdateLogistics(ctx, m.actor, o.ID, patch); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: o.ExternalRef + " logistics updated"}
	}
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}
