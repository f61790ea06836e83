// Package dedupe collapses a contact stream to one contact per email address.
package dedupe

import (
	"strings"

	"github.com/dhcgn/contact-cleaner/model"
)

// Key is the identity of a contact: its email trimmed and lower-cased.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Contacts keeps the first contact seen for every key, in first-seen order.
// Kept contacts carry the normalized key as their Email; names are left as
// built. Contacts with an empty key are dropped.
func Contacts(in []model.Contact) []model.Contact {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Contact, 0, len(in))

	for _, c := range in {
		key := Key(c.Email)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		c.Email = key
		out = append(out, c)
	}
	return out
}

// Result is a deduplicated contact list plus the counts reported next to it.
type Result struct {
	Contacts          []model.Contact
	Total             int
	Unique            int
	DuplicatesRemoved int
}

// Summarize deduplicates in and reports the counts.
func Summarize(in []model.Contact) Result {
	out := Contacts(in)
	return Result{
		Contacts:          out,
		Total:             len(in),
		Unique:            len(out),
		DuplicatesRemoved: len(in) - len(out),
	}
}
