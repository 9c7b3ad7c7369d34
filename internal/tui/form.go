package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/addrbook/internal/shell"
)

// field is one labelled text input of a form.
type field struct {
	label string
	input textinput.Model
}

// form collects the values for a single menu command.
type form struct {
	cmd    shell.Command
	title  string
	fields []field
	focus  int
}

// formFor returns the form that gathers input for cmd.
func formFor(cmd shell.Command, days int) form {
	switch cmd {
	case shell.CmdAdd:
		return newForm(cmd, "Add contact", "Name", "Address", "Phone", "Email", "Birthday")
	case shell.CmdChange:
		return newForm(cmd, "Change contact", "Name", "New address", "New phone", "New email", "New birthday")
	case shell.CmdDelete:
		return newForm(cmd, "Delete contact", "Name")
	case shell.CmdSearch:
		return newForm(cmd, "Search contacts", "Search term")
	case shell.CmdBirthdays:
		f := newForm(cmd, "Upcoming birthdays", "Days")
		f.fields[0].input.Placeholder = fmt.Sprintf("%d", days)
		return f
	default:
		return form{cmd: cmd}
	}
}

func newForm(cmd shell.Command, title string, labels ...string) form {
	fields := make([]field, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		if strings.Contains(label, "irthday") {
			ti.Placeholder = "YYYY-MM-DD"
		}
		fields[i] = field{label: label, input: ti}
	}
	return form{cmd: cmd, title: title, fields: fields}
}

// start focuses the first field.
func (f *form) start() tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.focus = 0
	return f.fields[0].input.Focus()
}

// move shifts focus by delta, wrapping around the field list.
func (f *form) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

// onLast reports whether the last field has focus.
func (f form) onLast() bool {
	return f.focus == len(f.fields)-1
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f form) values() []string {
	vals := make([]string, len(f.fields))
	for i, fl := range f.fields {
		vals[i] = fl.input.Value()
	}
	return vals
}

func (f form) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, fl := range f.fields {
		marker := "  "
		if i == f.focus {
			marker = selectedStyle.Render("› ")
		}
		b.WriteString(marker + labelStyle.Render(fl.label) + fl.input.View() + "\n")
	}
	return b.String()
}
