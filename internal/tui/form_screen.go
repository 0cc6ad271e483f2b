package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/wattsun/internal/app"
	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/render"
	"github.com/andy/wattsun/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// header field indices
const (
	metaType = iota
	metaBilledTo
	metaTelephone
	metaDate
	metaCount
)

// line item column indices
const (
	colQty = iota
	colDescription
	colPrice
	colCount
)

// name prompt field indices
const (
	promptName = iota
	promptType
	promptBilledTo
	promptTelephone
	promptDate
	promptNumber
	promptCount
)

var columnFields = [colCount]domain.ItemField{
	domain.FieldQuantity,
	domain.FieldDescription,
	domain.FieldUnitPrice,
}

var columnWidths = [colCount]int{8, 28, 12}

// FormModel is the invoice entry form. It owns one controller session;
// every edit goes through the controller and the inputs are re-synced from
// its draft after store operations.
type FormModel struct {
	app    *app.App
	ctx    context.Context
	ctrl   *service.Controller
	prefix string

	meta  []textinput.Model
	rows  [][]textinput.Model
	focus int // index over meta fields, then row-major over item cells

	prompting   bool
	prompt      []textinput.Model
	promptFocus int

	loading   bool
	saving    bool
	err       error
	statusMsg string
	notice    string
}

type formStartedMsg struct {
	err error
}

type formSavedMsg struct {
	outcome service.SaveOutcome
	err     error
}

type formClearedMsg struct {
	closed bool
	err    error
}

// NewFormModel creates the form screen with a fresh controller session
func NewFormModel(ctx context.Context, a *app.App) *FormModel {
	prefix := a.Config.Invoice.CurrencyPrefix
	if prefix == "" {
		prefix = render.DefaultCurrencyPrefix
	}
	m := &FormModel{
		app:     a,
		ctx:     ctx,
		ctrl:    a.NewController(),
		prefix:  prefix,
		loading: true,
	}
	m.syncFromDraft()
	return m
}

// IsCapturingInput is false only while a saved invoice is shown read-only
func (m *FormModel) IsCapturingInput() bool {
	return m.prompting || !m.ctrl.ReadOnly()
}

// Busy reports whether a save is in flight
func (m *FormModel) Busy() bool {
	return m.saving || m.ctrl.Saving()
}

func (m *FormModel) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return formStartedMsg{err: ctrl.Start(ctx)}
	}
}

// loadPending picks up an invoice opened from the saved list. An empty slot
// keeps whatever is on the form.
func (m *FormModel) loadPending() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.LoadPending(ctx)
		return formStartedMsg{err: err}
	}
}

func (m *FormModel) save() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		outcome, err := ctrl.Save(ctx)
		return formSavedMsg{outcome: outcome, err: err}
	}
}

func (m *FormModel) confirm(p service.NamePrompt) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		outcome, err := ctrl.ConfirmPrompt(ctx, p)
		return formSavedMsg{outcome: outcome, err: err}
	}
}

func (m *FormModel) clear(closing bool) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		var err error
		if closing {
			err = ctrl.Close(ctx)
		} else {
			err = ctrl.ClearAll(ctx)
		}
		return formClearedMsg{closed: closing, err: err}
	}
}

func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		if m.Busy() {
			return m, nil
		}
		return m, m.loadPending()

	case formStartedMsg:
		m.loading = false
		m.err = msg.err
		m.syncFromDraft()
		return m, m.focusCmd()

	case formSavedMsg:
		m.saving = false
		return m.handleSaved(msg)

	case formClearedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.statusMsg = "Form cleared"
		if msg.closed {
			m.statusMsg = "Invoice closed"
		}
		m.focus = 0
		m.syncFromDraft()
		return m, m.focusCmd()

	case exportedMsg:
		m.statusMsg, m.notice, m.err = describeExport(msg)
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateForm(msg)
	}

	// Forward all non-key messages to the focused input (cursor blink, etc.)
	return m, m.updateFocused(msg)
}

func (m *FormModel) handleSaved(msg formSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		if m.prompting {
			m.prompting = false
			m.syncFromDraft()
		}
		return m, m.focusCmd()
	}

	switch msg.outcome {
	case service.SaveNeedsName:
		p := m.ctrl.Prompt()
		if p == nil {
			return m, nil
		}
		if m.prompting {
			m.err = domain.ErrNameRequired
		}
		return m, m.openPrompt(p)

	case service.SaveBusy:
		m.statusMsg = "A save is already in progress"
		return m, nil
	}

	m.prompting = false
	m.err = nil
	m.statusMsg = "Invoice saved"
	if m.ctrl.State() == service.StateBlankDraft {
		m.focus = 0
	}
	m.syncFromDraft()
	return m, m.focusCmd()
}

func (m *FormModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.statusMsg = ""
	m.notice = ""

	// Only focus moves while a save is outstanding
	if m.Busy() && !isNavigation(msg) {
		m.statusMsg = "Saving..."
		return m, nil
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Save):
		m.saving = true
		return m, m.save()

	case key.Matches(msg, DefaultKeyMap.AddRow):
		if err := m.ctrl.AddLine(); err != nil {
			m.err = err
			return m, nil
		}
		m.syncFromDraft()
		return m, m.setFocus(metaCount + (len(m.rows)-1)*colCount)

	case key.Matches(msg, DefaultKeyMap.ClearAll):
		m.loading = true
		return m, m.clear(false)

	case key.Matches(msg, DefaultKeyMap.Close):
		if !m.showingSaved() {
			m.err = service.ErrNotViewing
			return m, nil
		}
		m.loading = true
		return m, m.clear(true)

	case key.Matches(msg, DefaultKeyMap.Edit):
		if err := m.ctrl.Edit(); err != nil {
			m.err = err
			return m, nil
		}
		m.statusMsg = "Editing saved invoice"
		return m, m.focusCmd()

	case key.Matches(msg, DefaultKeyMap.Export):
		if m.ctrl.State() != service.StateViewingSaved {
			m.err = fmt.Errorf("save the invoice before exporting")
			return m, nil
		}
		return m, exportInvoice(m.ctx, m.app.Export, m.ctrl.Draft())

	case key.Matches(msg, DefaultKeyMap.NextField):
		return m, m.setFocus((m.focus + 1) % m.fieldCount())

	case key.Matches(msg, DefaultKeyMap.PrevField):
		return m, m.setFocus((m.focus - 1 + m.fieldCount()) % m.fieldCount())

	case msg.Type == tea.KeyUp:
		return m, m.setFocus(m.rowAbove())

	case msg.Type == tea.KeyDown:
		return m, m.setFocus(m.rowBelow())
	}

	if m.ctrl.ReadOnly() {
		m.err = service.ErrReadOnly
		return m, nil
	}

	cmd := m.updateFocused(msg)
	m.apply()
	return m, cmd
}

func (m *FormModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctrl.CancelPrompt()
		m.prompting = false
		m.err = nil
		m.statusMsg = "Save cancelled"
		return m, m.focusCmd()

	case "tab", "down":
		m.prompt[m.promptFocus].Blur()
		m.promptFocus = (m.promptFocus + 1) % promptCount
		return m, m.prompt[m.promptFocus].Focus()

	case "shift+tab", "up":
		m.prompt[m.promptFocus].Blur()
		m.promptFocus = (m.promptFocus - 1 + promptCount) % promptCount
		return m, m.prompt[m.promptFocus].Focus()

	case "enter":
		if m.promptFocus == promptCount-1 {
			return m, m.submitPrompt()
		}
		m.prompt[m.promptFocus].Blur()
		m.promptFocus++
		return m, m.prompt[m.promptFocus].Focus()

	case "ctrl+s":
		return m, m.submitPrompt()
	}

	var cmd tea.Cmd
	m.prompt[m.promptFocus], cmd = m.prompt[m.promptFocus].Update(msg)
	return m, cmd
}

func (m *FormModel) submitPrompt() tea.Cmd {
	if m.Busy() {
		m.statusMsg = "Saving..."
		return nil
	}

	number := 0
	if raw := strings.TrimSpace(m.prompt[promptNumber].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			m.err = fmt.Errorf("invalid invoice number: %s", raw)
			return nil
		}
		number = n
	}

	m.err = nil
	m.saving = true
	return m.confirm(service.NamePrompt{
		Name:          m.prompt[promptName].Value(),
		Type:          m.prompt[promptType].Value(),
		BilledTo:      m.prompt[promptBilledTo].Value(),
		Telephone:     m.prompt[promptTelephone].Value(),
		Date:          m.prompt[promptDate].Value(),
		InvoiceNumber: number,
	})
}

func (m *FormModel) openPrompt(p *service.NamePrompt) tea.Cmd {
	values := [promptCount]string{
		promptName:      p.Name,
		promptType:      p.Type,
		promptBilledTo:  p.BilledTo,
		promptTelephone: p.Telephone,
		promptDate:      p.Date,
		promptNumber:    strconv.Itoa(p.InvoiceNumber),
	}
	placeholders := [promptCount]string{
		promptName:      "Invoice name",
		promptType:      "Solar installation",
		promptBilledTo:  "Customer",
		promptTelephone: "0712 345 678",
		promptDate:      domain.DateLayout,
		promptNumber:    "1",
	}

	m.prompt = make([]textinput.Model, promptCount)
	for i := range m.prompt {
		m.prompt[i] = newInput(placeholders[i], 40)
		m.prompt[i].SetValue(values[i])
	}
	m.prompt[promptNumber].CharLimit = 9

	m.prompting = true
	m.promptFocus = promptName
	m.focused().Blur()
	return m.prompt[promptName].Focus()
}

// apply pushes the focused input value into the controller
func (m *FormModel) apply() {
	if m.focus < metaCount {
		err := m.ctrl.SetMetadata(domain.Metadata{
			Type:      m.meta[metaType].Value(),
			BilledTo:  m.meta[metaBilledTo].Value(),
			Telephone: m.meta[metaTelephone].Value(),
			Date:      m.meta[metaDate].Value(),
		})
		if err != nil {
			m.err = err
		}
		return
	}

	row, col := m.cell()
	if err := m.ctrl.UpdateField(row, columnFields[col], m.rows[row][col].Value()); err != nil {
		m.err = err
	}
}

// syncFromDraft rebuilds the inputs from the controller draft
func (m *FormModel) syncFromDraft() {
	d := m.ctrl.Draft()

	if m.meta == nil {
		placeholders := [metaCount]string{"Type", "Billed to", "Telephone", domain.DateLayout}
		m.meta = make([]textinput.Model, metaCount)
		for i := range m.meta {
			m.meta[i] = newInput(placeholders[i], 30)
		}
	}
	meta := d.Metadata()
	m.meta[metaType].SetValue(meta.Type)
	m.meta[metaBilledTo].SetValue(meta.BilledTo)
	m.meta[metaTelephone].SetValue(meta.Telephone)
	m.meta[metaDate].SetValue(meta.Date)

	rows := make([][]textinput.Model, len(d.Items))
	for i, item := range d.Items {
		if i < len(m.rows) {
			rows[i] = m.rows[i]
		} else {
			rows[i] = []textinput.Model{
				newInput("0", columnWidths[colQty]-2),
				newInput("Description", columnWidths[colDescription]-2),
				newInput("0.00", columnWidths[colPrice]-2),
			}
			for c := range rows[i] {
				rows[i][c].Prompt = ""
			}
		}
		rows[i][colQty].SetValue(item.Quantity)
		rows[i][colDescription].SetValue(item.Description)
		rows[i][colPrice].SetValue(item.UnitPrice)
	}
	m.rows = rows

	if m.focus >= m.fieldCount() {
		m.focus = m.fieldCount() - 1
	}
	for i := range m.meta {
		m.meta[i].Blur()
	}
	for r := range m.rows {
		for c := range m.rows[r] {
			m.rows[r][c].Blur()
		}
	}
}

func (m *FormModel) fieldCount() int {
	return metaCount + len(m.rows)*colCount
}

func (m *FormModel) cell() (row, col int) {
	i := m.focus - metaCount
	return i / colCount, i % colCount
}

func (m *FormModel) focused() *textinput.Model {
	if m.focus < metaCount {
		return &m.meta[m.focus]
	}
	row, col := m.cell()
	return &m.rows[row][col]
}

func (m *FormModel) focusCmd() tea.Cmd {
	if m.prompting {
		return m.prompt[m.promptFocus].Focus()
	}
	return m.focused().Focus()
}

func (m *FormModel) setFocus(i int) tea.Cmd {
	m.focused().Blur()
	m.focus = i
	return m.focused().Focus()
}

func (m *FormModel) rowAbove() int {
	if m.focus < metaCount {
		return max(m.focus-1, 0)
	}
	row, col := m.cell()
	if row == 0 {
		return metaCount - 1
	}
	return metaCount + (row-1)*colCount + col
}

func (m *FormModel) rowBelow() int {
	if m.focus < metaCount {
		if m.focus < metaCount-1 || len(m.rows) == 0 {
			return min(m.focus+1, metaCount-1)
		}
		return metaCount
	}
	row, col := m.cell()
	if row >= len(m.rows)-1 {
		return m.focus
	}
	return metaCount + (row+1)*colCount + col
}

func (m *FormModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.prompting {
		m.prompt[m.promptFocus], cmd = m.prompt[m.promptFocus].Update(msg)
		return cmd
	}
	in := m.focused()
	*in, cmd = in.Update(msg)
	return cmd
}

func isNavigation(msg tea.KeyMsg) bool {
	return key.Matches(msg, DefaultKeyMap.NextField, DefaultKeyMap.PrevField) ||
		msg.Type == tea.KeyUp || msg.Type == tea.KeyDown
}

func (m *FormModel) showingSaved() bool {
	s := m.ctrl.State()
	return s == service.StateViewingSaved || s == service.StateEditingSaved
}

func newInput(placeholder string, width int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 200
	in.Width = width
	return in
}

func (m *FormModel) View() string {
	if m.loading {
		return "Loading..."
	}
	if m.prompting {
		return m.viewPrompt()
	}

	d := m.ctrl.Draft()
	var s string

	title := titleStyle.Render(fmt.Sprintf("Invoice #%d", d.InvoiceNumber))
	if d.Name != "" {
		title += subtitleStyle.Render("  " + d.Name)
	}
	s += title + "  " + m.stateBadge() + "\n\n"

	labels := [metaCount]string{"Type:", "To:", "Telephone:", "Date:"}
	for i, label := range labels {
		labelStyle := subtitleStyle
		if i == m.focus {
			labelStyle = focusedStyle
		}
		s += fmt.Sprintf("  %s %s\n", labelStyle.Width(11).Render(label), m.meta[i].View())
	}
	s += "\n"

	header := "  " + lipgloss.JoinHorizontal(lipgloss.Top,
		cellStyle(colQty).Render(render.TableHeader[0]),
		cellStyle(colDescription).Render(render.TableHeader[1]),
		cellStyle(colPrice).Render(render.TableHeader[2]),
		render.TableHeader[3],
	)
	s += subtitleStyle.Render(header) + "\n"

	for r, row := range m.rows {
		indicator := "  "
		if m.focus >= metaCount {
			if focusRow, _ := m.cell(); focusRow == r {
				indicator = "> "
			}
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			cellStyle(colQty).Render(row[colQty].View()),
			cellStyle(colDescription).Render(row[colDescription].View()),
			cellStyle(colPrice).Render(row[colPrice].View()),
			formatMoney(m.prefix, d.Items[r].Total),
		)
		s += indicator + line + "\n"
	}

	s += "\n" + totalStyle.Render(fmt.Sprintf("  Grand Total: %s", formatMoney(m.prefix, d.GrandTotal()))) + "\n"

	if m.saving {
		s += "\n" + readOnlyStyle.Render("  Saving...") + "\n"
	}
	if m.statusMsg != "" {
		s += "\n" + statusStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.notice != "" {
		s += "\n" + readOnlyStyle.Render("  "+m.notice) + "\n"
	}
	if m.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render(m.helpLine())
	return s
}

func (m *FormModel) viewPrompt() string {
	var s string
	s += titleStyle.Render("Save Invoice") + "\n"
	s += subtitleStyle.Render("  Give the invoice a name before it is saved.") + "\n\n"

	labels := [promptCount]string{"Name:", "Type:", "To:", "Telephone:", "Date:", "Invoice #:"}
	for i, label := range labels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.promptFocus {
			indicator = "> "
			labelStyle = focusedStyle
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.prompt[i].View())
	}

	if m.saving {
		s += readOnlyStyle.Render("  Saving...") + "\n\n"
	}
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")
	return promptBoxStyle.Render(s)
}

func (m *FormModel) stateBadge() string {
	switch m.ctrl.State() {
	case service.StateViewingSaved:
		return readOnlyStyle.Render("[SAVED - READ ONLY]")
	case service.StateEditingSaved:
		return editingStyle.Render("[EDITING SAVED]")
	case service.StateEditingNew:
		return editingStyle.Render("[DRAFT]")
	default:
		return subtitleStyle.Render("[NEW]")
	}
}

func (m *FormModel) helpLine() string {
	switch m.ctrl.State() {
	case service.StateViewingSaved:
		return "  ctrl+e: edit  ctrl+p: export pdf  ctrl+w: close  ctrl+l: saved invoices  q: quit"
	case service.StateEditingSaved:
		return "  tab/shift+tab: navigate  ↑/↓: rows  ctrl+n: add row  ctrl+s: save  ctrl+w: close  ctrl+l: saved invoices"
	}
	return "  tab/shift+tab: navigate  ↑/↓: rows  ctrl+n: add row  ctrl+s: save  ctrl+r: clear all  ctrl+l: saved invoices"
}

func cellStyle(col int) lipgloss.Style {
	return lipgloss.NewStyle().Width(columnWidths[col])
}
