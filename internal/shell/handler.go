// Package shell turns address book operations into user-facing messages
// and runs the line-oriented menu loop.
package shell

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/smileynet/addrbook/internal/book"
)

// Messages reported to the user.
const (
	MsgHello       = "How can I help you?"
	MsgAdded       = "Contact added successfully."
	MsgUpdated     = "Contact updated successfully."
	MsgRenamed     = "Contact renamed successfully."
	MsgDeleted     = "Contact deleted successfully."
	MsgNotFound    = "Contact not found."
	MsgNoResults   = "No contacts found."
	MsgNoBirthdays = "No upcoming birthdays."
	MsgSaved       = "Contacts saved successfully."
	MsgLoaded      = "Contacts loaded successfully."
)

// Listing is the outcome of a query.
type Listing struct {
	Contacts []book.Contact
	Note     string // Shown after the contacts, or alone when there are none.
}

// Lines renders the listing one line per contact, followed by the note.
func (l Listing) Lines() []string {
	lines := make([]string, 0, len(l.Contacts)+1)
	for _, c := range l.Contacts {
		lines = append(lines, c.String())
	}
	if l.Note != "" {
		lines = append(lines, l.Note)
	}
	return lines
}

// errUnloaded refuses a save that would replace a file the book failed to load.
var errUnloaded = errors.New("the contacts file failed to load, so it is left untouched until it loads")

// Handler runs book operations and reports their outcome as messages.
// Errors never escape a Handler; they become the returned text.
//
// After a failed Load the handler refuses to save until a later Load
// succeeds, so a file it cannot read is never overwritten.
type Handler struct {
	book     *book.Book
	path     string
	autosave bool
	logger   *zap.Logger

	loadErr error
	stamp   fileStamp // File state after the last load or save.
}

// fileStamp identifies a version of the book file.
type fileStamp struct {
	mod  time.Time
	size int64
}

// statFile stamps the file at path; a missing file has the zero stamp.
func statFile(path string) fileStamp {
	fi, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{mod: fi.ModTime(), size: fi.Size()}
}

func (s fileStamp) same(o fileStamp) bool {
	return s.size == o.size && s.mod.Equal(o.mod)
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAutosave saves the book after every successful mutation.
func WithAutosave(on bool) HandlerOption {
	return func(h *Handler) {
		h.autosave = on
	}
}

// WithLogger sets the handler logger.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler creates a Handler over b persisted at path.
func NewHandler(b *book.Book, path string, opts ...HandlerOption) *Handler {
	h := &Handler{
		book:   b,
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Book returns the underlying book.
func (h *Handler) Book() *book.Book {
	return h.book
}

// Path returns the file the book is persisted to.
func (h *Handler) Path() string {
	return h.path
}

// Hello returns the greeting.
func (h *Handler) Hello() string {
	return MsgHello
}

// Add adds a contact.
func (h *Handler) Add(name, address, phone, email, birthday string) string {
	if err := h.book.Add(name, address, phone, email, birthday); err != nil {
		return h.failure("add", err)
	}
	return h.persisted(MsgAdded)
}

// Change replaces address, phone, email and birthday of the named contact.
func (h *Handler) Change(name, address, phone, email, birthday string) string {
	if err := h.book.Change(name, address, phone, email, birthday); err != nil {
		return h.failure("change", err)
	}
	return h.persisted(MsgUpdated)
}

// Rename gives the named contact a new name.
func (h *Handler) Rename(oldName, newName string) string {
	if err := h.book.Rename(oldName, newName); err != nil {
		return h.failure("rename", err)
	}
	return h.persisted(MsgRenamed)
}

// Delete removes the named contact.
func (h *Handler) Delete(name string) string {
	if !h.book.Delete(name) {
		return MsgNotFound
	}
	return h.persisted(MsgDeleted)
}

// Search finds contacts by name or phone substring.
func (h *Handler) Search(term string) Listing {
	results := h.book.Search(term)
	if len(results) == 0 {
		return Listing{Note: MsgNoResults}
	}
	return Listing{Contacts: results}
}

// All lists every contact in order.
func (h *Handler) All() Listing {
	contacts := h.book.Contacts()
	if len(contacts) == 0 {
		return Listing{Note: MsgNoResults}
	}
	return Listing{Contacts: contacts}
}

// Birthdays lists contacts with a birthday in the next days days.
func (h *Handler) Birthdays(days int) Listing {
	results, err := h.book.UpcomingBirthdays(days)
	var l Listing
	l.Contacts = results
	switch {
	case err != nil:
		l.Note = fmt.Sprintf("Some birthdays could not be read: %v", err)
	case len(results) == 0:
		l.Note = MsgNoBirthdays
	}
	return l
}

// Save writes the book to its file.
func (h *Handler) Save() string {
	if err := h.save(); err != nil {
		return fmt.Sprintf("Contacts could not be saved: %v", err)
	}
	return MsgSaved
}

// Load replaces the book with the contents of its file.
func (h *Handler) Load() string {
	err := h.book.Load(h.path)
	h.loadErr = err
	h.stamp = statFile(h.path)
	if err != nil {
		h.logger.Error("load failed", zap.String("path", h.path), zap.Error(err))
		return fmt.Sprintf("Contacts could not be loaded: %v. Saving is disabled until the file loads.", err)
	}
	return MsgLoaded
}

// LoadErr returns the error of the last Load, or nil if it succeeded.
func (h *Handler) LoadErr() error {
	return h.loadErr
}

// Reload loads the book again if its file differs from what the handler
// last read or wrote. It reports false when the file is unchanged.
func (h *Handler) Reload() (string, bool) {
	if statFile(h.path).same(h.stamp) {
		return "", false
	}
	return h.Load(), true
}

func (h *Handler) save() error {
	if h.loadErr != nil {
		h.logger.Warn("save refused", zap.String("path", h.path), zap.NamedError("load_error", h.loadErr))
		return errUnloaded
	}
	if err := h.book.Save(h.path); err != nil {
		h.logger.Error("save failed", zap.String("path", h.path), zap.Error(err))
		return err
	}
	h.stamp = statFile(h.path)
	return nil
}

// persisted autosaves when enabled and returns msg, noting a failed save.
func (h *Handler) persisted(msg string) string {
	if !h.autosave {
		return msg
	}
	if err := h.save(); err != nil {
		return fmt.Sprintf("%s But saving failed: %v", msg, err)
	}
	return msg
}

// failure converts an operation error into its message.
func (h *Handler) failure(op string, err error) string {
	var ve *book.ValidationError
	switch {
	case errors.Is(err, book.ErrNotFound):
		return MsgNotFound
	case errors.As(err, &ve):
		h.logger.Info("validation failed", zap.String("op", op), zap.String("field", ve.Field), zap.String("reason", ve.Reason))
		return ve.Error()
	default:
		h.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
		return err.Error()
	}
}
