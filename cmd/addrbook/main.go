package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/smileynet/addrbook/internal/book"
	"github.com/smileynet/addrbook/internal/config"
	"github.com/smileynet/addrbook/internal/logging"
	"github.com/smileynet/addrbook/internal/shell"
	"github.com/smileynet/addrbook/internal/tui"
	"github.com/smileynet/addrbook/internal/watch"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals holds flags shared by every command.
type Globals struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Config  string           `help:"Config file to use instead of the user and project files." placeholder:"PATH"`
	Book    string           `help:"Contacts file (overrides book.path)." placeholder:"PATH"`
	Verbose bool             `help:"Enable debug logging." short:"v"`
	Plain   bool             `help:"Use the line menu even on a terminal."`

	out io.Writer `kong:"-"`
	in  io.Reader `kong:"-"`
}

// CLI is the top-level command structure for addrbook.
type CLI struct {
	Globals

	Shell     ShellCmd     `cmd:"" default:"1" help:"Open the interactive menu (default)."`
	Add       AddCmd       `cmd:"" help:"Add a contact."`
	Change    ChangeCmd    `cmd:"" help:"Replace a contact's address, phone, email and birthday."`
	Rename    RenameCmd    `cmd:"" help:"Rename a contact."`
	Delete    DeleteCmd    `cmd:"" help:"Delete a contact."`
	Search    SearchCmd    `cmd:"" help:"Search contacts by name or phone."`
	List      ListCmd      `cmd:"" help:"List all contacts."`
	Birthdays BirthdaysCmd `cmd:"" help:"List contacts with a birthday in the coming days."`
}

// app is the wiring shared by command implementations.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	h      *shell.Handler
	out    io.Writer
}

// failedError reports an operation the user asked for that did not succeed,
// such as a validation failure or a missing contact.
type failedError struct {
	msg string
}

func (e *failedError) Error() string {
	return e.msg
}

const (
	exitSuccess = 0
	exitFailed  = 1
	exitSetup   = 2
)

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var fe *failedError
	if errors.As(err, &fe) {
		return exitFailed
	}
	return exitSetup
}

// loadConfig loads the file at path, or layered config from user and project
// paths when path is empty, then applies env overrides.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadLayered(
			os.ExpandEnv("$HOME/.config/addrbook/config.yaml"),
			".addrbook.yaml",
		)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open builds the app from config and flags. One-shot commands always
// save after a mutation, since nothing else would persist it.
func (g *Globals) open(oneShot bool) (*app, error) {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides.
	if g.Book != "" {
		cfg.Book.Path = g.Book
	}
	if g.Verbose {
		cfg.Log.Level = "debug"
	}
	if g.Plain {
		cfg.UI.Plain = true
	}
	if oneShot {
		cfg.Book.Autosave = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	b := book.New(
		book.WithClock(clock.New()),
		book.WithLogger(logger.Named("book")),
		book.WithYearWrap(cfg.Birthdays.WrapYear),
	)
	h := shell.NewHandler(b, cfg.Book.Path,
		shell.WithAutosave(cfg.Book.Autosave),
		shell.WithLogger(logger.Named("shell")),
	)

	out := g.out
	if out == nil {
		out = os.Stdout
	}
	return &app{cfg: cfg, logger: logger, h: h, out: out}, nil
}

// openLoaded opens the app for a one-shot command and loads the book.
func (g *Globals) openLoaded() (*app, error) {
	a, err := g.open(true)
	if err != nil {
		return nil, err
	}
	if err := a.h.Book().Load(a.cfg.Book.Path); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// report prints msg on success and turns anything else into a failedError.
func (a *app) report(msg, success string) error {
	if msg != success {
		return &failedError{msg: msg}
	}
	_, _ = fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) printLines(lines []string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(a.out, line)
	}
}

// --- Interactive shell ---

// ShellCmd opens the interactive menu.
type ShellCmd struct{}

// Run starts the TUI on a terminal or the line menu otherwise.
func (s *ShellCmd) Run(g *Globals) error {
	a, err := g.open(false)
	if err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := tui.SessionOptions{
		Handler:    a.h,
		Reader:     g.in,
		Writer:     g.out,
		ForcePlain: a.cfg.UI.Plain,
		Days:       a.cfg.Birthdays.Days,
	}

	session := tui.NewSession(opts)
	if _, ok := session.(*tui.TUISession); ok {
		w, err := watch.New(a.h.Path(), watch.WithLogger(a.logger.Named("watch")))
		if err != nil {
			// Live reload is optional; the menu still works without it.
			a.logger.Warn("book file watch disabled", zap.Error(err))
		} else {
			defer func() { _ = w.Close() }()
			w.Start(ctx)
			opts.Changes = w.Changes()
			session = tui.NewSession(opts)
		}
	}

	// An interrupt ends the session like an exit command.
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shell: %w", err)
	}
	if err := a.h.LoadErr(); err != nil {
		return &failedError{msg: fmt.Sprintf("%s was left unchanged because it failed to load", a.h.Path())}
	}
	return nil
}

// --- One-shot commands ---

// AddCmd adds a contact.
type AddCmd struct {
	Name     string `arg:"" help:"Contact name."`
	Address  string `arg:"" help:"Postal address."`
	Phone    string `arg:"" help:"Phone number, exactly 10 digits."`
	Email    string `arg:"" help:"Email address."`
	Birthday string `arg:"" help:"Birthday as YYYY-MM-DD."`
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer a.close()
	return a.report(a.h.Add(c.Name, c.Address, c.Phone, c.Email, c.Birthday), shell.MsgAdded)
}

// ChangeCmd replaces the details of a contact found by name.
type ChangeCmd struct {
	Name     string `arg:"" help:"Name of the contact to change."`
	Address  string `arg:"" help:"New postal address."`
	Phone    string `arg:"" help:"New phone number, exactly 10 digits."`
	Email    string `arg:"" help:"New email address."`
	Birthday string `arg:"" help:"New birthday as YYYY-MM-DD."`
}

// Run executes the change command.
func (c *ChangeCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("change: %w", err)
	}
	defer a.close()
	return a.report(a.h.Change(c.Name, c.Address, c.Phone, c.Email, c.Birthday), shell.MsgUpdated)
}

// RenameCmd renames a contact.
type RenameCmd struct {
	Old string `arg:"" help:"Current name."`
	New string `arg:"" help:"New name."`
}

// Run executes the rename command.
func (c *RenameCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	defer a.close()
	return a.report(a.h.Rename(c.Old, c.New), shell.MsgRenamed)
}

// DeleteCmd deletes a contact.
type DeleteCmd struct {
	Name string `arg:"" help:"Name of the contact to delete."`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer a.close()
	return a.report(a.h.Delete(c.Name), shell.MsgDeleted)
}

// SearchCmd searches contacts.
type SearchCmd struct {
	Term string `arg:"" help:"Case-insensitive substring of a name or phone number."`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	defer a.close()
	a.printLines(a.h.Search(c.Term).Lines())
	return nil
}

// ListCmd lists all contacts.
type ListCmd struct{}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer a.close()
	a.printLines(a.h.All().Lines())
	return nil
}

// BirthdaysCmd lists upcoming birthdays.
type BirthdaysCmd struct {
	Days int `help:"Window length in days (default: birthdays.days from config)." default:"-1"`
}

// Run executes the birthdays command.
func (c *BirthdaysCmd) Run(g *Globals) error {
	a, err := g.openLoaded()
	if err != nil {
		return fmt.Errorf("birthdays: %w", err)
	}
	defer a.close()

	days := c.Days
	if days < 0 {
		days = a.cfg.Birthdays.Days
	}
	a.printLines(a.h.Birthdays(days).Lines())
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("addrbook"),
		kong.Description("A single-user address book with birthday reminders."),
		kong.Vars{"version": version + " " + commit + " " + date},
		kong.Bind(&cli.Globals),
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
