package book

import (
	"fmt"
	"slices"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Book is an ordered collection of contacts. Name is the effective lookup
// key; when names repeat, the first match in insertion order wins.
// A Book is not safe for concurrent use.
type Book struct {
	contacts []Contact
	clock    clock.Clock
	logger   *zap.Logger
	wrapYear bool
}

// Option configures a Book.
type Option func(*Book)

// WithClock sets the clock used to determine "today" for birthday windows.
func WithClock(c clock.Clock) Option {
	return func(b *Book) {
		b.clock = c
	}
}

// WithLogger sets the logger for load/save and mutation events.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) {
		b.logger = l
	}
}

// WithYearWrap makes UpcomingBirthdays roll a birthday that already passed
// this year over to next year before checking the window.
func WithYearWrap(wrap bool) Option {
	return func(b *Book) {
		b.wrapYear = wrap
	}
}

// New creates an empty Book.
func New(opts ...Option) *Book {
	b := &Book{
		clock:  clock.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	return len(b.contacts)
}

// Contacts returns a copy of all contacts in insertion order.
func (b *Book) Contacts() []Contact {
	return slices.Clone(b.contacts)
}

// Add validates the fields and appends a new contact.
func (b *Book) Add(name, address, phone, email, birthday string) error {
	c, err := NewContact(name, address, phone, email, birthday)
	if err != nil {
		return err
	}
	b.contacts = append(b.contacts, c)
	b.logger.Debug("contact added", zap.String("name", name), zap.Int("total", len(b.contacts)))
	return nil
}

// Change overwrites address, phone, email and birthday of the first contact
// named name. Phone and email are validated before anything is assigned, so
// a failed change leaves the contact untouched.
func (b *Book) Change(name, address, phone, email, birthday string) error {
	i := b.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}

	c := &b.contacts[i]
	c.Address = address
	c.phone = phone
	c.email = email
	c.Birthday = birthday
	b.logger.Debug("contact changed", zap.String("name", name))
	return nil
}

// Rename changes the name of the first contact named oldName.
func (b *Book) Rename(oldName, newName string) error {
	i := b.index(oldName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	b.contacts[i].Name = newName
	b.logger.Debug("contact renamed", zap.String("from", oldName), zap.String("to", newName))
	return nil
}

// Delete removes the first contact named name and reports whether one was removed.
func (b *Book) Delete(name string) bool {
	i := b.index(name)
	if i < 0 {
		return false
	}
	b.contacts = slices.Delete(b.contacts, i, i+1)
	b.logger.Debug("contact deleted", zap.String("name", name), zap.Int("total", len(b.contacts)))
	return true
}

// Find returns the first contact named name.
func (b *Book) Find(name string) (Contact, bool) {
	i := b.index(name)
	if i < 0 {
		return Contact{}, false
	}
	return b.contacts[i], true
}

// Search returns contacts whose name or phone contains term, ignoring case.
func (b *Book) Search(term string) []Contact {
	term = strings.ToLower(term)
	var results []Contact
	for _, c := range b.contacts {
		if strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(strings.ToLower(c.phone), term) {
			results = append(results, c)
		}
	}
	return results
}

func (b *Book) index(name string) int {
	return slices.IndexFunc(b.contacts, func(c Contact) bool { return c.Name == name })
}
