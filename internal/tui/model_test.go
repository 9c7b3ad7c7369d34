package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/smileynet/addrbook/internal/book"
	"github.com/smileynet/addrbook/internal/shell"
)

func newTestHandler(t *testing.T) (*shell.Handler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usersbook.json")
	mock := clock.NewMock()
	mock.Set(time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC))
	return shell.NewHandler(book.New(book.WithClock(mock)), path), path
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends each key to the model and returns the resulting model and last command.
func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// typeText sends s one rune at a time, as a user typing would.
func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

// fillForm types each value and presses enter after it.
func fillForm(m Model, values ...string) Model {
	for _, v := range values {
		m = typeText(m, v)
		m, _ = press(m, "enter")
	}
	return m
}

func TestNewModel_StartsInMenu(t *testing.T) {
	h, _ := newTestHandler(t)
	m := NewModel(h)

	if m.mode != ModeMenu {
		t.Errorf("mode = %d, want ModeMenu", m.mode)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if m.Init() != nil {
		t.Error("Init() should return nil without a change channel")
	}
}

func TestModel_MenuCursorBounds(t *testing.T) {
	h, _ := newTestHandler(t)
	m := NewModel(h)

	m, _ = press(m, "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", m.cursor)
	}
	for i := 0; i < len(menuItems)+2; i++ {
		m, _ = press(m, "j")
	}
	if m.cursor != len(menuItems)-1 {
		t.Errorf("cursor = %d after many downs, want %d", m.cursor, len(menuItems)-1)
	}
}

func TestModel_AddContact(t *testing.T) {
	// Given the menu
	h, _ := newTestHandler(t)
	m := NewModel(h)

	// When the add command is chosen and the form filled in
	m, _ = press(m, "1")
	if m.mode != ModeForm || m.form.cmd != shell.CmdAdd {
		t.Fatalf("mode = %d cmd = %d, want add form", m.mode, m.form.cmd)
	}
	if len(m.form.fields) != 5 {
		t.Fatalf("add form has %d fields, want 5", len(m.form.fields))
	}
	m = fillForm(m, "John", "1 Main St", "0501234567", "john@example.com", "1990-06-05")

	// Then the result is shown and the contact stored
	if m.mode != ModeResult {
		t.Fatalf("mode = %d, want ModeResult", m.mode)
	}
	if len(m.result) != 1 || m.result[0] != shell.MsgAdded {
		t.Errorf("result = %v, want [%q]", m.result, shell.MsgAdded)
	}
	c, ok := h.Book().Find("John")
	if !ok {
		t.Fatal("John not in book")
	}
	if c.Phone() != "0501234567" || c.Birthday != "1990-06-05" {
		t.Errorf("stored contact = %v", c)
	}

	// And any key returns to the menu
	m, _ = press(m, "x")
	if m.mode != ModeMenu {
		t.Errorf("mode = %d after key in result, want ModeMenu", m.mode)
	}
}

func TestModel_AddValidationMessage(t *testing.T) {
	h, _ := newTestHandler(t)
	m := NewModel(h)

	m, _ = press(m, "1")
	m = fillForm(m, "Bad", "", "0501234567", "a@@b.com", "2000-01-01")

	if len(m.result) != 1 || m.result[0] != "The @ symbol must be only one" {
		t.Errorf("result = %v, want email validation message", m.result)
	}
	if h.Book().Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Book().Len())
	}
}

func TestModel_FormNavigation(t *testing.T) {
	h, _ := newTestHandler(t)
	m := NewModel(h)
	m, _ = press(m, "1")

	m, _ = press(m, "tab", "tab")
	if m.form.focus != 2 {
		t.Errorf("focus = %d after two tabs, want 2", m.form.focus)
	}
	m, _ = press(m, "shift+tab", "shift+tab", "shift+tab")
	if m.form.focus != 4 {
		t.Errorf("focus = %d after wrapping back, want 4", m.form.focus)
	}

	m, _ = press(m, "esc")
	if m.mode != ModeMenu {
		t.Errorf("mode = %d after esc, want ModeMenu", m.mode)
	}
}

func TestModel_TypingQInFormDoesNotQuit(t *testing.T) {
	h, _ := newTestHandler(t)
	m := NewModel(h)
	m, _ = press(m, "3")

	m, _ = press(m, "q")

	if m.quitting {
		t.Error("quitting = true after typing q in a form")
	}
	if got := m.form.values()[0]; got != "q" {
		t.Errorf("field value = %q, want %q", got, "q")
	}
}

func TestModel_SearchAndDelete(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Add("John", "", "0501234567", "john@x.com", "1990-06-05")
	h.Add("Jon", "", "0509876543", "jon@x.com", "1990-01-01")
	m := NewModel(h)

	m, _ = press(m, "4")
	m = fillForm(m, "jo")
	if len(m.result) != 2 {
		t.Fatalf("search result = %v, want 2 lines", m.result)
	}

	m, _ = press(m, "x", "3")
	m = fillForm(m, "Nonexistent")
	if m.result[0] != shell.MsgNotFound {
		t.Errorf("delete result = %v, want %q", m.result, shell.MsgNotFound)
	}
	if h.Book().Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Book().Len())
	}
}

func TestModel_BirthdaysDefaultWindow(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Add("Soon", "", "0501234567", "s@x.com", "1990-06-05")
	h.Add("Later", "", "0501234567", "l@x.com", "1990-06-20")
	m := NewModel(h, WithDays(7))

	m, _ = press(m, "5")
	m = fillForm(m, "")

	if len(m.result) != 1 || !strings.HasPrefix(m.result[0], "Soon") {
		t.Errorf("result = %v, want only Soon", m.result)
	}

	m, _ = press(m, "x", "5")
	m = fillForm(m, "30")
	if len(m.result) != 2 {
		t.Errorf("result = %v, want both with 30 days", m.result)
	}

	m, _ = press(m, "x", "5")
	m = fillForm(m, "-3")
	if m.result[0] != "Invalid number of days." {
		t.Errorf("result = %v, want invalid days message", m.result)
	}
}

func TestModel_SaveAndLoad(t *testing.T) {
	h, path := newTestHandler(t)
	h.Add("Ann", "", "0123456789", "ann@x.io", "2000-01-01")
	m := NewModel(h)

	m, _ = press(m, "7")
	if m.result[0] != shell.MsgSaved {
		t.Errorf("save result = %v", m.result)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("book file not written: %v", err)
	}

	h.Book().Delete("Ann")
	m, _ = press(m, "x", "8")
	if m.result[0] != shell.MsgLoaded {
		t.Errorf("load result = %v", m.result)
	}
	if h.Book().Len() != 1 {
		t.Errorf("Len() = %d after load, want 1", h.Book().Len())
	}
}

func TestModel_ExitSavesAndQuits(t *testing.T) {
	h, path := newTestHandler(t)
	h.Add("Ann", "", "0123456789", "ann@x.io", "2000-01-01")
	m := NewModel(h)

	m, cmd := press(m, "6")

	if !m.quitting {
		t.Error("quitting = false after exit")
	}
	if cmd == nil {
		t.Fatal("exit returned nil cmd, want tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("exit cmd did not produce tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "Good bye!") {
		t.Errorf("View() = %q, want goodbye", m.View())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("book not saved on exit: %v", err)
	}
}

func TestModel_BookChangedReloads(t *testing.T) {
	// Given a model and a book file edited by someone else
	h, path := newTestHandler(t)
	other := book.New()
	if err := other.Add("Remote", "", "0123456789", "r@x.io", "2000-01-01"); err != nil {
		t.Fatal(err)
	}
	if err := other.Save(path); err != nil {
		t.Fatal(err)
	}
	ch := make(chan struct{}, 1)
	m := NewModel(h, WithChanges(ch))

	// When a change notification arrives
	next, cmd := m.Update(BookChangedMsg{})
	m = next.(Model)

	// Then the book is reloaded and the model keeps listening
	if _, ok := h.Book().Find("Remote"); !ok {
		t.Error("Remote not loaded after change")
	}
	if !strings.Contains(m.status, shell.MsgLoaded) {
		t.Errorf("status = %q, want load message", m.status)
	}
	if cmd == nil {
		t.Fatal("cmd = nil, want wait for next change")
	}
	ch <- struct{}{}
	if _, ok := cmd().(BookChangedMsg); !ok {
		t.Error("wait cmd did not produce BookChangedMsg")
	}
}

func TestModel_BookChangedIgnoresOwnSave(t *testing.T) {
	// Given a model whose handler just saved the book
	h, _ := newTestHandler(t)
	h.Add("Ann", "", "0123456789", "ann@x.io", "2000-01-01")
	if got := h.Save(); got != shell.MsgSaved {
		t.Fatalf("Save() = %q", got)
	}
	m := NewModel(h)

	// When the watcher reports that write
	next, cmd := m.Update(BookChangedMsg{})
	m = next.(Model)

	// Then nothing is reloaded and the status stays quiet
	if m.status != "" {
		t.Errorf("status = %q, want empty after own save", m.status)
	}
	if h.Book().Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Book().Len())
	}
	if cmd != nil {
		t.Error("cmd != nil without a change channel")
	}
}

func TestModel_QuitKeySaves(t *testing.T) {
	// Given unsaved edits in a book without autosave
	h, path := newTestHandler(t)
	h.Add("Ann", "", "0123456789", "ann@x.io", "2000-01-01")
	m := NewModel(h)

	// When q is pressed in the menu
	m, cmd := press(m, "q")

	// Then the book is saved before quitting
	if !m.quitting || cmd == nil {
		t.Fatal("q did not quit")
	}
	loaded := book.New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := loaded.Find("Ann"); !ok {
		t.Error("Ann not saved on q")
	}
}

func TestModel_ViewMenu(t *testing.T) {
	h, _ := newTestHandler(t)
	m := NewModel(h)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"AddressBook (0 contacts)", "1. Contact add", "8. Load Contacts", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q\n%s", want, view)
		}
	}
}

// TestModel_Teatest_AddThenExit drives a full session through teatest.
func TestModel_Teatest_AddThenExit(t *testing.T) {
	h, path := newTestHandler(t)
	tm := teatest.NewTestModel(t, NewModel(h), teatest.WithInitialTermSize(80, 24))

	tm.Type("1")
	for _, v := range []string{"Jon", "Elm 2", "1112223334", "jon@mail.net", "2001-12-31"} {
		tm.Type(v)
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	}
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte(shell.MsgAdded))
	}, teatest.WithDuration(2*time.Second))

	tm.Type("x")
	tm.Type("6")
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if !final.quitting {
		t.Error("final model should be quitting")
	}
	loaded := book.New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := loaded.Find("Jon"); !ok {
		t.Error("Jon not persisted on exit")
	}
}
