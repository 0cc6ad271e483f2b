package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/wattsun/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenForm Screen = iota
	ScreenSaved
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenForm:
		return "Invoice"
	case ScreenSaved:
		return "Saved Invoices"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	app           *app.App
	ctx           context.Context
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	form  tea.Model
	saved tea.Model

	// Error state
	err     error
	quitMsg string // shown when quit is blocked
}

// New creates a new root model
func New(ctx context.Context, a *app.App) Model {
	return Model{
		app:           a,
		ctx:           ctx,
		currentScreen: ScreenForm,
		form:          NewFormModel(ctx, a),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	switch screen {
	case ScreenForm:
		if m.form == nil {
			m.form = NewFormModel(m.ctx, m.app)
			return m.form.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	case ScreenSaved:
		if m.saved == nil {
			m.saved = NewSavedModel(m.ctx, m.app)
			return m.saved.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, single-letter global keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

// busyReporter is implemented by screens with work that must finish before quitting
type busyReporter interface {
	Busy() bool
}

func (m *Model) active() tea.Model {
	switch m.currentScreen {
	case ScreenForm:
		return m.form
	case ScreenSaved:
		return m.saved
	}
	return nil
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.active().(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// quitBlocked reports whether a save is still in flight
func (m *Model) quitBlocked() bool {
	b, ok := m.form.(busyReporter)
	return ok && b.Busy()
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Clear quit warning on any keypress
		m.quitMsg = ""

		// Skip single-letter keys when a screen is capturing text input
		quitKey := key.Matches(msg, DefaultKeyMap.ForceQuit) ||
			(!m.activeScreenCapturingInput() && key.Matches(msg, DefaultKeyMap.Quit))
		if quitKey {
			if m.quitBlocked() {
				m.quitMsg = "A save is in progress. Wait for it to finish before quitting."
				return m, nil
			}
			return m, tea.Quit
		}

		if key.Matches(msg, DefaultKeyMap.Saved) && m.currentScreen != ScreenSaved {
			m.currentScreen = ScreenSaved
			cmd := m.initScreen(ScreenSaved)
			return m, cmd
		}

	case SwitchScreenMsg:
		m.currentScreen = msg.Screen
		cmd := m.initScreen(msg.Screen)
		return m, cmd

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case formStartedMsg, formSavedMsg, formClearedMsg:
		// Form results land on the form even after switching away
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	// Route message to current screen
	var cmd tea.Cmd
	switch m.currentScreen {
	case ScreenForm:
		if m.form != nil {
			m.form, cmd = m.form.Update(msg)
		}
	case ScreenSaved:
		if m.saved != nil {
			m.saved, cmd = m.saved.Update(msg)
		}
	}

	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Header
	header := headerStyle.Render(fmt.Sprintf("wattsun - %s", m.currentScreen.String()))

	// Footer with navigation keys
	footer := footerStyle.Render("[ctrl+l] Saved Invoices  [ctrl+c] Quit")
	if m.currentScreen == ScreenSaved {
		footer = footerStyle.Render("[esc] Form  [Q]uit")
	}

	// Current screen content
	content := "Loading..."
	if screen := m.active(); screen != nil {
		content = screen.View()
	}

	// Error/warning display
	errorDisplay := ""
	if m.quitMsg != "" {
		errorDisplay = lipgloss.NewStyle().
			Foreground(warningColor).
			Render(fmt.Sprintf("\n%s", m.quitMsg))
	} else if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(New(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
