// Package contact builds model.Contact values from an address that already
// passed address.Valid, optionally paired with a display name.
package contact

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhcgn/contact-cleaner/model"
)

// MinNameLength is the shortest sanitized display name that is accepted.
const MinNameLength = 2

// FromEmail derives a contact from the local part of email. For
// "jane.doe@example.com" it yields FullName "Jane.doe", FirstName "Jane",
// LastName "Doe". Only the first two dot-separated segments of the local
// part are used; "a.b.c@x.com" drops "c".
func FromEmail(email string) (model.Contact, bool) {
	if email == "" {
		return model.Contact{}, false
	}

	local, _, _ := strings.Cut(email, "@")

	first, last := Capitalize(local), ""
	if strings.Contains(local, ".") {
		segments := strings.Split(local, ".")
		first = Capitalize(segments[0])
		last = Capitalize(segments[1])
	}

	return model.Contact{
		FullName:  Capitalize(local),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Domain:    Domain(email),
	}, true
}

// FromNameAndEmail builds a contact from a display name and an address. The
// name is sanitized with SanitizeName; a result shorter than MinNameLength
// fails the build.
func FromNameAndEmail(name, email string) (model.Contact, bool) {
	if email == "" {
		return model.Contact{}, false
	}

	clean := SanitizeName(name)
	if utf8.RuneCountInString(clean) < MinNameLength {
		return model.Contact{}, false
	}

	tokens := strings.Fields(clean)
	first, last := clean, ""
	if len(tokens) >= 2 {
		first = tokens[0]
		last = strings.Join(tokens[1:], " ")
	}

	return model.Contact{
		FullName:  clean,
		FirstName: first,
		LastName:  last,
		Email:     email,
		Domain:    Domain(email),
	}, true
}

// SanitizeName replaces every rune that is neither a letter, a digit nor
// whitespace with a space, collapses whitespace runs to one space and trims.
// The underscore is a separator too, unlike in a [^\w\s] pattern:
// "Agent_007" becomes "Agent 007".
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSpace := false
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Domain returns the trimmed text after the first "@", or "" when email has
// none.
func Domain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return strings.TrimSpace(domain)
}

// Capitalize upper-cases the first rune (title case) and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}
