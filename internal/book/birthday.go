package book

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// UpcomingBirthdays returns contacts whose birthday, moved to the current
// year, falls within [today, today+days] inclusive. Without year wrap a
// birthday that already passed this year is not considered, even when its
// next occurrence would land in the window.
//
// Contacts with an unparseable birthday are skipped. Their errors are
// combined into the returned error while the matches found are still returned.
func (b *Book) UpcomingBirthdays(days int) ([]Contact, error) {
	now := b.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, days)

	var (
		results []Contact
		errs    error
	)
	for _, c := range b.contacts {
		born, err := c.Birthdate()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("book: contact %q: %w", c.Name, err))
			continue
		}

		next := anniversary(born, today.Year(), today.Location())
		if b.wrapYear && next.Before(today) {
			next = anniversary(born, today.Year()+1, today.Location())
		}
		if !next.Before(today) && !next.After(end) {
			results = append(results, c)
		}
	}

	if errs != nil {
		b.logger.Warn("skipped contacts with invalid birthdays", zap.Error(errs))
	}
	return results, errs
}

// anniversary returns born moved to year. February 29 maps to
// February 28 in non-leap years.
func anniversary(born time.Time, year int, loc *time.Location) time.Time {
	month, day := born.Month(), born.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
