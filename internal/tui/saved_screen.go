package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/andy/wattsun/internal/app"
	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/export"
	"github.com/andy/wattsun/internal/render"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SavedModel lists saved invoices newest first
type SavedModel struct {
	app      *app.App
	ctx      context.Context
	prefix   string
	invoices []*domain.Invoice
	cursor   int
	loading  bool

	confirmDelete bool

	err       error
	statusMsg string
	notice    string
}

type savedDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type savedDeletedMsg struct {
	name string
	err  error
}

type savedOpenedMsg struct {
	err error
}

// exportedMsg reports a finished export from either screen
type exportedMsg struct {
	path  string
	title string
	err   error
}

// titleSharer keeps the share title for the status line. The TUI owns the
// terminal, so nothing is printed.
type titleSharer struct {
	title string
}

func (s *titleSharer) Share(ctx context.Context, path, mimeType, title string) error {
	s.title = title
	return nil
}

func exportInvoice(ctx context.Context, svc *export.Service, inv *domain.Invoice) tea.Cmd {
	return func() tea.Msg {
		sharer := &titleSharer{}
		path, err := svc.WithSharer(sharer).Export(ctx, inv)
		return exportedMsg{path: path, title: sharer.title, err: err}
	}
}

// describeExport splits an export result into status line, notice and error
func describeExport(msg exportedMsg) (string, string, error) {
	switch {
	case errors.Is(msg.err, export.ErrExportUnavailable):
		return "", export.UnavailableNotice, nil
	case msg.err != nil:
		return "", "", msg.err
	}
	return fmt.Sprintf("%s: %s", msg.title, msg.path), "", nil
}

// NewSavedModel creates the saved invoices screen
func NewSavedModel(ctx context.Context, a *app.App) *SavedModel {
	prefix := a.Config.Invoice.CurrencyPrefix
	if prefix == "" {
		prefix = render.DefaultCurrencyPrefix
	}
	return &SavedModel{
		app:     a,
		ctx:     ctx,
		prefix:  prefix,
		loading: true,
	}
}

// IsCapturingInput returns true while a delete confirmation is pending
func (m *SavedModel) IsCapturingInput() bool {
	return m.confirmDelete
}

func (m *SavedModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *SavedModel) loadInvoices() tea.Cmd {
	saved, ctx := m.app.Saved, m.ctx
	return func() tea.Msg {
		invoices, err := saved.List(ctx)
		return savedDataMsg{invoices: invoices, err: err}
	}
}

func (m *SavedModel) open(id string) tea.Cmd {
	saved, ctx := m.app.Saved, m.ctx
	return func() tea.Msg {
		_, err := saved.Open(ctx, id)
		return savedOpenedMsg{err: err}
	}
}

func (m *SavedModel) delete(inv *domain.Invoice) tea.Cmd {
	saved, ctx := m.app.Saved, m.ctx
	id, name := inv.ID, inv.Name
	return func() tea.Msg {
		return savedDeletedMsg{name: name, err: saved.Delete(ctx, id)}
	}
}

func (m *SavedModel) selected() *domain.Invoice {
	if m.cursor < 0 || m.cursor >= len(m.invoices) {
		return nil
	}
	return m.invoices[m.cursor]
}

func (m *SavedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case savedDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.invoices = msg.invoices
			if m.cursor >= len(m.invoices) {
				m.cursor = max(0, len(m.invoices)-1)
			}
		}
		return m, nil

	case savedDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Deleted: %s", msg.name)
		m.loading = true
		return m, m.loadInvoices()

	case savedOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, func() tea.Msg { return SwitchScreenMsg{Screen: ScreenForm} }

	case exportedMsg:
		m.statusMsg, m.notice, m.err = describeExport(msg)
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.confirmDelete {
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m *SavedModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.statusMsg = ""
	m.notice = ""

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if inv := m.selected(); inv != nil {
			m.loading = true
			return m, m.open(inv.ID)
		}
	case key.Matches(msg, DefaultKeyMap.Delete):
		if m.selected() != nil {
			m.confirmDelete = true
		}
	case key.Matches(msg, DefaultKeyMap.Share):
		if inv := m.selected(); inv != nil {
			return m, exportInvoice(m.ctx, m.app.Export, inv)
		}
	case key.Matches(msg, DefaultKeyMap.Back), key.Matches(msg, DefaultKeyMap.Form):
		return m, func() tea.Msg { return SwitchScreenMsg{Screen: ScreenForm} }
	case msg.String() == "r":
		m.loading = true
		return m, m.loadInvoices()
	}

	return m, nil
}

func (m *SavedModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirmDelete = false
	if msg.String() != "y" {
		m.statusMsg = "Delete cancelled"
		return m, nil
	}
	inv := m.selected()
	if inv == nil {
		return m, nil
	}
	return m, m.delete(inv)
}

func (m *SavedModel) View() string {
	if m.loading {
		return "Loading invoices..."
	}

	var s string
	s += titleStyle.Render("Saved Invoices") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.notice != "" {
		s += readOnlyStyle.Render("  "+m.notice) + "\n\n"
	}
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.invoices) == 0 {
		s += subtitleStyle.Render("  No saved invoices yet. Save one from the form.") + "\n"
		s += "\n" + helpStyle.Render("  esc: back to form")
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-6s  %-24s  %-20s  %-10s  %14s",
		"#", "Name", "Billed To", "Date", "Total",
	)) + "\n"

	for i, inv := range m.invoices {
		line := fmt.Sprintf("  %-6d  %-24s  %-20s  %-10s  %14s",
			inv.InvoiceNumber,
			truncateStr(inv.Name, 24),
			truncateStr(inv.BilledTo, 20),
			inv.Date,
			formatMoney(m.prefix, inv.Total),
		)
		if i == m.cursor {
			s += selectedStyle.Render(line) + "\n"
		} else {
			s += line + "\n"
		}
	}

	if m.confirmDelete {
		if inv := m.selected(); inv != nil {
			s += "\n" + readOnlyStyle.Render(fmt.Sprintf("  Delete %q? (y/n)", inv.Name)) + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: open  d: delete  p: export pdf  r: refresh  esc: back to form")
	return s
}
