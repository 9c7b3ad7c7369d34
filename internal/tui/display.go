package tui

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/addrbook/internal/shell"
)

// Session is an interactive address book session.
type Session interface {
	Run(ctx context.Context) error
}

// SessionOptions configures session creation.
type SessionOptions struct {
	Handler    *shell.Handler
	Reader     io.Reader           // Input source (default: os.Stdin).
	Writer     io.Writer           // Output destination (default: os.Stdout).
	ForcePlain bool                // Force the line menu even if TTY.
	Days       int                 // Default birthday window.
	Changes    <-chan struct{}     // Book file change notifications (TUI only).
	ProgramOps []tea.ProgramOption // Extra Bubble Tea options (TUI only).
}

// NewSession returns a TUI session when the writer is a TTY, or the plain
// line menu otherwise. ForcePlain overrides TTY detection.
func NewSession(opts SessionOptions) Session {
	if opts.Reader == nil {
		opts.Reader = os.Stdin
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	if opts.ForcePlain || !isTTY(opts.Writer) {
		return &PlainSession{shell: shell.New(opts.Handler, opts.Reader, opts.Writer, opts.Days)}
	}
	return &TUISession{opts: opts}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PlainSession runs the line-oriented menu.
type PlainSession struct {
	shell *shell.Shell
}

// Run runs the menu loop until exit or end of input.
func (s *PlainSession) Run(ctx context.Context) error {
	return s.shell.Run(ctx)
}

// TUISession runs the Bubble Tea menu.
type TUISession struct {
	opts SessionOptions
}

// Run loads the book, then runs the program until the user quits.
// The book is saved by the exit command, q, or autosave, not on ctrl+c.
// A book that failed to load is never saved; the status line says so.
func (s *TUISession) Run(ctx context.Context) error {
	h := s.opts.Handler
	m := NewModel(h, WithDays(s.opts.Days), WithChanges(s.opts.Changes))
	m.status = h.Load()

	popts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(s.opts.Reader),
		tea.WithOutput(s.opts.Writer),
	}, s.opts.ProgramOps...)

	_, err := tea.NewProgram(m, popts...).Run()
	return err
}
