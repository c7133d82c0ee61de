package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
	"github.com/MrJamesThe3rd/labtrack/internal/scan"
)

type stationState int

const (
	stationIdle stationState = iota
	stationLookup
	stationConfirm
	stationRecording
)

// StationModel is a scan station. Every key press is fed to the classifier first, no
// matter what has focus, so a scanner read is recognized even while a form is open.
type StationModel struct {
	CommonModel
	orders *order.Service
	actor  identity.Actor

	classifier *scan.Classifier
	now        func() time.Time

	state   stationState
	seq     int
	code    string
	plan    order.ScanPlan
	form    *huh.Form
	confirm *bool
	spinner spinner.Model

	table  table.Model
	list   []*order.Order
	err    error
	notice string
}

func NewStationModel(svc *order.Service, actor identity.Actor, gap time.Duration, minLen int) StationModel {
	columns := []table.Column{
		{Title: "Ref", Width: 10},
		{Title: "Customer", Width: 24},
		{Title: "Status", Width: 18},
		{Title: "Urgency", Width: 8},
		{Title: "Due", Width: 12},
		{Title: "Sector", Width: 16},
		{Title: "Last exit", Width: 16},
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

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return StationModel{
		orders:     svc,
		actor:      actor,
		classifier: scan.New(gap, minLen),
		now:        time.Now,
		table:      t,
		spinner:    sp,
	}
}

func (m StationModel) Title() string {
	if m.actor.Bound() {
		return "Scan Station: " + m.actor.Sector
	}

	return "Tracking Station"
}

func (m StationModel) ShortHelp() string {
	if m.state == stationConfirm {
		return "Enter: choose | Esc: dismiss"
	}

	return "Scan a code | r: refresh | Esc: back"
}

func (m StationModel) Init() tea.Cmd {
	return m.loadOrdersCmd()
}

// keyEvents converts a key message into classifier events. A burst of runes delivered
// in one message yields one char event per rune.
func keyEvents(msg tea.KeyMsg, at time.Time) []scan.Event {
	switch {
	case msg.Alt:
		return []scan.Event{{Kind: scan.KindControl, At: at}}
	case msg.Type == tea.KeyRunes, msg.Type == tea.KeySpace:
		events := make([]scan.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			events = append(events, scan.Event{Kind: scan.KindChar, Char: r, At: at})
		}

		return events
	case msg.Type == tea.KeyEnter:
		return []scan.Event{{Kind: scan.KindTerminator, At: at}}
	default:
		return []scan.Event{{Kind: scan.KindControl, At: at}}
	}
}

func (m StationModel) feed(msg tea.KeyMsg) (scan.Token, bool) {
	var (
		tok   scan.Token
		found bool
	)

	for _, ev := range keyEvents(msg, m.now()) {
		if t, ok := m.classifier.Feed(ev); ok {
			tok, found = t, true
		}
	}

	return tok, found
}

func (m StationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if tok, ok := m.feed(msg); ok {
			// The Enter that completed the read is consumed here and never reaches the
			// form or the table.
			m.seq++
			m.code = tok.Code
			m.state = stationLookup
			m.form = nil
			m.notice = ""
			m.table.Blur()

			return m, tea.Batch(m.spinner.Tick, m.prepareCmd(m.seq, tok.Code))
		}

	case stationOrdersMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.list = msg.orders
		m.refreshTable()

		return m, nil

	case planMsg:
		if msg.seq != m.seq || m.state != stationLookup {
			return m, nil
		}

		if msg.err != nil {
			m.idle()

			if errors.Is(msg.err, order.ErrNotFound) {
				m.notice = errorStyle.Render(fmt.Sprintf("No order matches %q", msg.code))
			} else {
				m.notice = errorStyle.Render(fmt.Sprintf("Error: %v", msg.err))
			}

			return m, nil
		}

		m.plan = msg.plan
		m.form = m.buildConfirmForm()
		m.state = stationConfirm

		return m, m.form.Init()

	case recordedMsg:
		if msg.seq != m.seq {
			return m, nil
		}

		m.idle()

		if msg.err != nil {
			m.notice = errorStyle.Render(fmt.Sprintf("Not recorded: %v", msg.err))
			return m, nil
		}

		last, _ := msg.order.History.Last()
		m.notice = okStyle.Render(fmt.Sprintf("%s | %s", msg.order.ExternalRef, last.Action))

		return m, m.loadOrdersCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-14, 5))

		return m, nil

	case spinner.TickMsg:
		if m.state != stationLookup && m.state != stationRecording {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	switch m.state {
	case stationIdle:
		return m.updateIdle(msg)
	case stationConfirm:
		return m.updateConfirm(msg)
	}

	return m, nil
}

func (m *StationModel) idle() {
	m.state = stationIdle
	m.form = nil
	m.confirm = nil
	m.plan = order.ScanPlan{}
	m.table.Focus()
}

func (m StationModel) updateIdle(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.loadOrdersCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m StationModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.idle()
		m.notice = faintStyle.Render("Scan dismissed")

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.idle()
		m.notice = faintStyle.Render("Scan dismissed")

		return m, nil
	case huh.StateCompleted:
		if m.confirm == nil || !*m.confirm {
			m.idle()
			m.notice = faintStyle.Render("Scan dismissed")

			return m, nil
		}

		m.state = stationRecording
		m.form = nil

		return m, tea.Batch(m.spinner.Tick, m.recordCmd(m.seq, m.plan))
	}

	return m, cmd
}

// describePlan names the event a confirmed plan would append.
func describePlan(plan order.ScanPlan) string {
	switch plan.Kind {
	case order.ScanEntry:
		return order.EntryAction(plan.Sector)
	case order.ScanExit:
		return order.ExitAction(plan.Sector)
	default:
		return order.ActionTracked
	}
}

func (m *StationModel) buildConfirmForm() *huh.Form {
	m.confirm = new(true)
	o := m.plan.Order

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s: %s", o.ExternalRef, describePlan(m.plan))).
				Description(fmt.Sprintf("%s\n%s | due %s | sector %s",
					o.CustomerName, o.Status, FormatDate(o.DueDate), orDash(o.CurrentSector))).
				Affirmative("Record").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithWidth(50).WithShowHelp(false)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func (m StationModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(m.Title())
	if m.actor.Name != "" {
		header += faintStyle.Render(" | " + m.actor.Name)
	}

	var body string

	switch {
	case m.err != nil:
		body = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	default:
		body = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View())
	}

	switch m.state {
	case stationLookup:
		body = lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s Looking up %s...", m.spinner.View(), activeStyle(m.code)), "", body)
	case stationRecording:
		body = lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s Recording...", m.spinner.View()), "", body)
	case stationConfirm:
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}

	content := []string{header, ""}
	if m.notice != "" {
		content = append(content, m.notice, "")
	}

	content = append(content, body)

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func (m *StationModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, o := range m.list {
		lastExit := "-"
		if e, ok := order.LastExit(o); ok {
			lastExit = e.At.Format("02/01 15:04")
		}

		rows = append(rows, table.Row{
			o.ExternalRef,
			o.CustomerName,
			string(o.Status),
			string(o.Urgency),
			FormatDate(o.DueDate),
			orDash(o.CurrentSector),
			lastExit,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type stationOrdersMsg struct {
	orders []*order.Order
	err    error
}

// loadOrdersCmd lists what the station works on: orders at its sector, or the pending
// queue for a tracking station.
func (m StationModel) loadOrdersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if m.actor.Bound() {
			orders, err := m.orders.List(ctx, order.Filter{
				Statuses: []order.Status{order.StatusInProgress},
				Sector:   m.actor.Sector,
			})

			return stationOrdersMsg{orders: order.InSector(orders, m.actor.Sector), err: err}
		}

		orders, err := m.orders.List(ctx, order.Filter{})

		return stationOrdersMsg{orders: order.Pending(orders), err: err}
	}
}

type planMsg struct {
	seq  int
	code string
	plan order.ScanPlan
	err  error
}

func (m StationModel) prepareCmd(seq int, code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		plan, err := m.orders.PrepareScan(ctx, m.actor, code)

		return planMsg{seq: seq, code: code, plan: plan, err: err}
	}
}

type recordedMsg struct {
	seq   int
	order *order.Order
	err   error
}

func (m StationModel) recordCmd(seq int, plan order.ScanPlan) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		o, err := m.orders.ConfirmScan(ctx, m.actor, plan)

		return recordedMsg{seq: seq, order: o, err: err}
	}
}
