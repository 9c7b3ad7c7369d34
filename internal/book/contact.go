// Package book implements the address book data layer: validated contacts,
// lookup, birthday windows, and JSON file persistence.
package book

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BirthdayLayout is the time layout of the birthday field (YYYY-MM-DD).
const BirthdayLayout = "2006-01-02"

// prohibitedEmailChars may not appear anywhere in an email address.
const prohibitedEmailChars = ";,[]*()><:"

// Contact is a single address book entry. Phone and email are only
// reachable through validating setters, so a Contact value always holds
// well-formed values for both.
type Contact struct {
	Name     string
	Address  string
	Birthday string

	phone string
	email string
}

// record is the persisted shape of a Contact.
type record struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"`
}

// NewContact validates phone and email and returns the assembled Contact.
func NewContact(name, address, phone, email, birthday string) (Contact, error) {
	c := Contact{Name: name, Address: address, Birthday: birthday}
	if err := c.SetPhone(phone); err != nil {
		return Contact{}, err
	}
	if err := c.SetEmail(email); err != nil {
		return Contact{}, err
	}
	return c, nil
}

// Phone returns the contact's phone number.
func (c Contact) Phone() string { return c.phone }

// Email returns the contact's email address.
func (c Contact) Email() string { return c.email }

// SetPhone validates and assigns the phone number. The old value is kept on failure.
func (c *Contact) SetPhone(phone string) error {
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	c.phone = phone
	return nil
}

// SetEmail validates and assigns the email address. The old value is kept on failure.
func (c *Contact) SetEmail(email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	c.email = email
	return nil
}

// Birthdate parses the birthday field.
func (c Contact) Birthdate() (time.Time, error) {
	t, err := time.Parse(BirthdayLayout, c.Birthday)
	if err != nil {
		return time.Time{}, fmt.Errorf("birthday %q is not YYYY-MM-DD: %w", c.Birthday, err)
	}
	return t, nil
}

// Fields returns the five fields as a plain mapping.
func (c Contact) Fields() map[string]string {
	return map[string]string{
		"name":     c.Name,
		"address":  c.Address,
		"phone":    c.phone,
		"email":    c.email,
		"birthday": c.Birthday,
	}
}

// String renders the contact on one line for listings.
func (c Contact) String() string {
	return fmt.Sprintf("%s | %s | %s | %s | %s", c.Name, c.Address, c.phone, c.email, c.Birthday)
}

// MarshalJSON encodes the contact as an object with its five fields.
func (c Contact) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.record())
}

// UnmarshalJSON decodes and validates a contact object.
func (c *Contact) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	decoded, err := r.contact()
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

func (c Contact) record() record {
	return record{
		Name:     c.Name,
		Address:  c.Address,
		Phone:    c.phone,
		Email:    c.email,
		Birthday: c.Birthday,
	}
}

func (r record) contact() (Contact, error) {
	return NewContact(r.Name, r.Address, r.Phone, r.Email, r.Birthday)
}

// ValidatePhone checks that phone is exactly 10 ASCII digits.
func ValidatePhone(phone string) error {
	if phone == "" || strings.IndexFunc(phone, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return &ValidationError{Field: "phone", Reason: "Phone number must contain only digits"}
	}
	if len(phone) != 10 {
		return &ValidationError{Field: "phone", Reason: "Phone number must be 10 digits long"}
	}
	return nil
}

// ValidateEmail checks the email format rules in order: prohibited
// characters, presence of '@' or '.', '@' placement, '@' count, and
// finally that an '@' is present at all.
func ValidateEmail(email string) error {
	if strings.ContainsAny(email, prohibitedEmailChars) {
		return &ValidationError{Field: "email", Reason: "Mail contains prohibited characters"}
	}
	if !strings.ContainsAny(email, "@.") {
		return &ValidationError{Field: "email", Reason: "Email must contain the @ symbol"}
	}
	if strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return &ValidationError{Field: "email", Reason: "The @ symbol cannot be the first or last character"}
	}
	switch strings.Count(email, "@") {
	case 1:
		return nil
	case 0:
		return &ValidationError{Field: "email", Reason: "Email must contain the @ symbol"}
	default:
		return &ValidationError{Field: "email", Reason: "The @ symbol must be only one"}
	}
}
