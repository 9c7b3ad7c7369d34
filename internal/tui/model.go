// Package tui implements the terminal UI for the address book menu.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/addrbook/internal/shell"
)

// Mode is the screen the model is showing.
type Mode int

const (
	ModeMenu Mode = iota
	ModeForm
	ModeResult
)

// menuItem is a selectable entry, numbered by its shell command.
type menuItem struct {
	cmd   shell.Command
	title string
}

var menuItems = []menuItem{
	{shell.CmdAdd, "Contact add"},
	{shell.CmdChange, "Change a Contact"},
	{shell.CmdDelete, "Delete a Contact"},
	{shell.CmdSearch, "Search Contact"},
	{shell.CmdBirthdays, "Birthdays in the coming days"},
	{shell.CmdExit, "Close AddressBook"},
	{shell.CmdSave, "Save Contacts"},
	{shell.CmdLoad, "Load Contacts"},
}

// BookChangedMsg reports that the book file was changed by another process.
type BookChangedMsg struct{}

// Model is the Bubble Tea model for the address book menu.
type Model struct {
	h       *shell.Handler
	days    int
	changes <-chan struct{}

	mode     Mode
	cursor   int
	form     form
	result   []string
	status   string
	quitting bool

	width int
	help  help.Model
	menuK menuKeys
	formK formKeys
	resK  resultKeys
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithDays sets the default birthday window.
func WithDays(days int) ModelOption {
	return func(m *Model) {
		m.days = days
	}
}

// WithChanges makes the model reload the book whenever ch delivers a value.
func WithChanges(ch <-chan struct{}) ModelOption {
	return func(m *Model) {
		m.changes = ch
	}
}

// NewModel creates a Model showing the menu.
func NewModel(h *shell.Handler, opts ...ModelOption) Model {
	m := Model{
		h:     h,
		days:  7,
		help:  help.New(),
		menuK: MenuKeyMap(),
		formK: FormKeyMap(),
		resK:  ResultKeyMap(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts listening for book file changes.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// waitForChange blocks on ch and converts the next value to a BookChangedMsg.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return BookChangedMsg{}
	}
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case BookChangedMsg:
		// Notifications for the handler's own saves leave the file as it was last seen.
		if loaded, ok := m.h.Reload(); ok {
			m.status = "Book file changed on disk. " + loaded
		}
		return m, waitForChange(m.changes)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case ModeForm:
			return m.updateForm(msg)
		case ModeResult:
			m.mode = ModeMenu
			m.result = nil
			return m, nil
		default:
			return m.updateMenu(msg)
		}
	}

	if m.mode == ModeForm {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.menuK.Quit):
		return m.choose(shell.CmdExit)
	case key.Matches(msg, m.menuK.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.menuK.Down):
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.menuK.Select):
		return m.choose(menuItems[m.cursor].cmd)
	case key.Matches(msg, m.menuK.Number):
		cmd := shell.ParseCommand(msg.String())
		m.cursor = int(cmd) - 1
		return m.choose(cmd)
	}
	return m, nil
}

// choose runs cmd directly or opens the form that collects its input.
func (m Model) choose(cmd shell.Command) (tea.Model, tea.Cmd) {
	m.status = ""
	switch cmd {
	case shell.CmdExit:
		m.status = m.h.Save() + " Good bye!"
		m.quitting = true
		return m, tea.Quit
	case shell.CmdSave:
		return m.show([]string{m.h.Save()}), nil
	case shell.CmdLoad:
		return m.show([]string{m.h.Load()}), nil
	default:
		m.form = formFor(cmd, m.days)
		m.mode = ModeForm
		return m, m.form.start()
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formK.Cancel):
		m.mode = ModeMenu
		return m, nil
	case key.Matches(msg, m.formK.Submit):
		if m.form.onLast() {
			return m.submit(), nil
		}
		return m, m.form.move(1)
	case key.Matches(msg, m.formK.Next):
		return m, m.form.move(1)
	case key.Matches(msg, m.formK.Prev):
		return m, m.form.move(-1)
	}
	return m, m.form.update(msg)
}

// submit runs the form's command and shows its outcome.
func (m Model) submit() Model {
	v := m.form.values()
	switch m.form.cmd {
	case shell.CmdAdd:
		return m.show([]string{m.h.Add(v[0], v[1], v[2], v[3], v[4])})
	case shell.CmdChange:
		return m.show([]string{m.h.Change(v[0], v[1], v[2], v[3], v[4])})
	case shell.CmdDelete:
		return m.show([]string{m.h.Delete(v[0])})
	case shell.CmdSearch:
		return m.show(m.h.Search(v[0]).Lines())
	case shell.CmdBirthdays:
		days, ok := shell.ParseDays(v[0], m.days)
		if !ok {
			return m.show([]string{"Invalid number of days."})
		}
		return m.show(m.h.Birthdays(days).Lines())
	default:
		m.mode = ModeMenu
		return m
	}
}

func (m Model) show(lines []string) Model {
	m.mode = ModeResult
	m.result = lines
	return m
}

// View renders the current screen with a help bar.
func (m Model) View() string {
	if m.quitting {
		if m.status == "" {
			return ""
		}
		return m.status + "\n"
	}

	var body string
	var bindings help.KeyMap
	switch m.mode {
	case ModeForm:
		body = m.form.view()
		bindings = m.formK
	case ModeResult:
		body = resultStyle.Render(strings.Join(m.result, "\n"))
		bindings = m.resK
	default:
		body = m.viewMenu()
		bindings = m.menuK
	}

	parts := []string{body}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(bindings))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("AddressBook (%d contacts)", m.h.Book().Len())))
	b.WriteString("\n\n")
	for i, item := range menuItems {
		line := fmt.Sprintf("%d. %s", item.cmd, item.title)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("› "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}
