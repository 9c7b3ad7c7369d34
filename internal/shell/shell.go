package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Menu is the command menu printed before each prompt.
var Menu = []string{
	"Menu AddressBook:",
	"1. Contact add",
	"2. Change a Contact",
	"3. Delete a Contact",
	"4. Search Contact",
	"5. Birthdays in the coming days",
	`6. Or "good bye", "close", "exit" to close AddressBook`,
	"7. Save Contacts",
	"8. Load Contacts",
}

// Command identifies a menu entry.
type Command int

// Menu commands, numbered as shown in Menu.
const (
	CmdInvalid Command = iota
	CmdAdd
	CmdChange
	CmdDelete
	CmdSearch
	CmdBirthdays
	CmdExit
	CmdSave
	CmdLoad
	CmdHello
)

// ParseCommand maps a line of user input to a Command, ignoring case and
// surrounding whitespace.
func ParseCommand(input string) Command {
	switch s := strings.ToLower(strings.TrimSpace(input)); s {
	case "good bye", "close", "exit":
		return CmdExit
	case "hello", "hi":
		return CmdHello
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < int(CmdAdd) || n > int(CmdLoad) {
			return CmdInvalid
		}
		return Command(n)
	}
}

// Shell is the line-oriented menu loop.
type Shell struct {
	h    *Handler
	r    io.Reader
	w    io.Writer
	days int

	lines chan inputLine
	done  chan struct{}
}

// inputLine is one line of input, or the error that ended input.
type inputLine struct {
	text string
	err  error
}

// New creates a Shell reading commands from r and writing to w.
// days is the birthday window used when the user enters no number.
func New(h *Handler, r io.Reader, w io.Writer, days int) *Shell {
	return &Shell{
		h:    h,
		r:    r,
		w:    w,
		days: days,
	}
}

// Run loads the book and loops until an exit command, end of input, or
// ctx cancellation. Exiting saves the book. Cancellation is seen even while
// a prompt waits for input. A Shell runs once.
func (s *Shell) Run(ctx context.Context) error {
	s.lines = make(chan inputLine)
	s.done = make(chan struct{})
	defer close(s.done)
	go s.read()

	s.println(s.h.Load())

	for {
		if err := ctx.Err(); err != nil {
			return s.exit(err)
		}

		for _, line := range Menu {
			s.println(line)
		}
		input, err := s.prompt(ctx, "Enter a command: ")
		if err != nil {
			return s.exit(err)
		}

		if err := s.dispatch(ctx, ParseCommand(input)); err != nil {
			if errors.Is(err, errExit) {
				return s.exit(nil)
			}
			return s.exit(err)
		}
	}
}

// read feeds input lines to prompt until input ends or Run returns.
// A read blocked on r outlives Run until r delivers or closes.
func (s *Shell) read() {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		if !s.send(inputLine{text: scanner.Text()}) {
			return
		}
	}
	err := io.EOF
	if serr := scanner.Err(); serr != nil {
		err = fmt.Errorf("shell: reading input: %w", serr)
	}
	s.send(inputLine{err: err})
}

func (s *Shell) send(l inputLine) bool {
	select {
	case s.lines <- l:
		return true
	case <-s.done:
		return false
	}
}

// errExit signals a user-requested exit from dispatch.
var errExit = errors.New("exit")

func (s *Shell) dispatch(ctx context.Context, cmd Command) error {
	switch cmd {
	case CmdAdd:
		f, err := s.prompts(ctx, "Enter the name: ", "Enter the address: ", "Enter the phone number: ",
			"Enter the email: ", "Enter the birthday (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		s.println(s.h.Add(f[0], f[1], f[2], f[3], f[4]))

	case CmdChange:
		f, err := s.prompts(ctx, "Enter the name of the contact to change: ", "Enter the new address: ",
			"Enter the new phone number: ", "Enter the new email: ", "Enter the new birthday (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		s.println(s.h.Change(f[0], f[1], f[2], f[3], f[4]))

	case CmdDelete:
		name, err := s.prompt(ctx, "Enter the name of the contact to delete: ")
		if err != nil {
			return err
		}
		s.println(s.h.Delete(name))

	case CmdSearch:
		term, err := s.prompt(ctx, "Enter the search term: ")
		if err != nil {
			return err
		}
		s.printLines(s.h.Search(term).Lines())

	case CmdBirthdays:
		raw, err := s.prompt(ctx, fmt.Sprintf("Enter the number of days to check [%d]: ", s.days))
		if err != nil {
			return err
		}
		days, ok := ParseDays(raw, s.days)
		if !ok {
			s.println("Invalid number of days.")
			return nil
		}
		s.printLines(s.h.Birthdays(days).Lines())

	case CmdExit:
		return errExit

	case CmdSave:
		s.println(s.h.Save())

	case CmdLoad:
		s.println(s.h.Load())

	case CmdHello:
		s.println(s.h.Hello())

	default:
		s.println("Invalid command.")
	}
	return nil
}

// ParseDays parses a day count, returning def for blank input.
// Negative and non-numeric input is rejected.
func ParseDays(raw string, def int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// exit saves the book and says goodbye. End of input counts as a normal exit.
func (s *Shell) exit(cause error) error {
	s.println(s.h.Save())
	s.println("Good bye!")
	if cause == nil || errors.Is(cause, io.EOF) {
		return nil
	}
	return cause
}

func (s *Shell) prompt(ctx context.Context, label string) (string, error) {
	_, _ = fmt.Fprint(s.w, label)
	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(s.w)
		return "", ctx.Err()
	case l := <-s.lines:
		if l.err != nil {
			if errors.Is(l.err, io.EOF) {
				_, _ = fmt.Fprintln(s.w)
			}
			return "", l.err
		}
		return strings.TrimRight(l.text, "\r"), nil
	}
}

func (s *Shell) prompts(ctx context.Context, labels ...string) ([]string, error) {
	values := make([]string, len(labels))
	for i, label := range labels {
		v, err := s.prompt(ctx, label)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (s *Shell) println(line string) {
	_, _ = fmt.Fprintln(s.w, line)
}

func (s *Shell) printLines(lines []string) {
	for _, line := range lines {
		s.println(line)
	}
}
