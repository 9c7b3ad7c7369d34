package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Save writes every contact to path as a JSON array, replacing the file.
func (b *Book) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("book: creating directory: %w", err)
		}
	}

	records := make([]record, len(b.contacts))
	for i, c := range b.contacts {
		records[i] = c.record()
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("book: marshaling: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("book: writing %s: %w", path, err)
	}
	b.logger.Debug("book saved", zap.String("path", path), zap.Int("contacts", len(records)))
	return nil
}

// Load replaces the contacts with those stored at path.
// A missing or empty file yields an empty book without error.
// If any stored record fails validation, Load returns all such errors
// combined and leaves the book unchanged.
func (b *Book) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			b.contacts = nil
			b.logger.Debug("book file missing, starting empty", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("book: reading %s: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		b.contacts = nil
		return nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("book: parsing %s: %w", path, err)
	}

	contacts := make([]Contact, 0, len(records))
	var errs error
	for i, r := range records {
		c, err := r.contact()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %d (%q): %w", i, r.Name, err))
			continue
		}
		contacts = append(contacts, c)
	}
	if errs != nil {
		return fmt.Errorf("book: loading %s: %w", path, errs)
	}

	b.contacts = contacts
	b.logger.Debug("book loaded", zap.String("path", path), zap.Int("contacts", len(contacts)))
	return nil
}
