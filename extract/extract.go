// Package extract scans a single free-text field, such as a spreadsheet cell
// or a From/To header value, for the contacts embedded in it.
package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dhcgn/contact-cleaner/address"
	"github.com/dhcgn/contact-cleaner/contact"
	"github.com/dhcgn/contact-cleaner/model"
)

// SkipReason says why one comma-separated part of a field produced no
// contact. The empty reason means the part produced one.
type SkipReason string

const (
	ReasonMalformed      SkipReason = "malformed"
	ReasonInvalidAddress SkipReason = "invalid_address"
	ReasonBuildFailure   SkipReason = "build_failure"
	ReasonNoAddress      SkipReason = "no_address"
)

// Reasons lists every SkipReason, for callers that pre-register counters.
var Reasons = []SkipReason{ReasonMalformed, ReasonInvalidAddress, ReasonBuildFailure, ReasonNoAddress}

// Outcome is the result of one part of a field.
type Outcome struct {
	Part    string
	Contact model.Contact
	Reason  SkipReason
}

// OK reports whether the part produced a contact.
func (o Outcome) OK() bool {
	return o.Reason == ""
}

// Field returns the contacts found in text, left to right.
func Field(text string) []model.Contact {
	return Contacts(Parse(text))
}

// Contacts keeps the successful outcomes.
func Contacts(outcomes []Outcome) []model.Contact {
	var contacts []model.Contact
	for _, o := range outcomes {
		if o.OK() {
			contacts = append(contacts, o.Contact)
		}
	}
	return contacts
}

// Parse splits text on commas and reports one Outcome per non-empty part.
// Parts are either "Display Name <addr>" or a bare address. Empty text and
// the placeholders "nan" and "None" yield no outcomes.
//
// A panic while handling the field discards everything found in it and is
// reported as a single malformed outcome.
func Parse(text string) (outcomes []Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcomes = []Outcome{{Part: text, Reason: ReasonMalformed}}
		}
	}()

	text = strings.TrimSpace(norm.NFC.String(text))
	if isEmpty(text) {
		return nil
	}

	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		outcomes = append(outcomes, parsePart(part))
	}

	// Builders copy their input address verbatim; recheck it.
	for i, o := range outcomes {
		if o.OK() && !address.Valid(o.Contact.Email) {
			outcomes[i] = Outcome{Part: o.Part, Reason: ReasonInvalidAddress}
		}
	}
	return outcomes
}

func parsePart(part string) Outcome {
	switch {
	case strings.Contains(part, "<") && strings.Contains(part, ">"):
		return parseNamed(part)
	case strings.Contains(part, "@") && strings.Contains(part, "."):
		if !address.Valid(part) {
			return Outcome{Part: part, Reason: ReasonInvalidAddress}
		}
		c, ok := contact.FromEmail(part)
		if !ok {
			return Outcome{Part: part, Reason: ReasonBuildFailure}
		}
		return Outcome{Part: part, Contact: c}
	default:
		return Outcome{Part: part, Reason: ReasonNoAddress}
	}
}

func parseNamed(part string) Outcome {
	start := strings.Index(part, "<")
	end := strings.Index(part[start+1:], ">")
	if end < 0 {
		return Outcome{Part: part, Reason: ReasonMalformed}
	}
	end += start + 1

	name := strings.TrimSpace(part[:start])
	email := strings.TrimSpace(part[start+1 : end])
	if name == "" || email == "" {
		return Outcome{Part: part, Reason: ReasonMalformed}
	}
	if !address.Valid(email) {
		return Outcome{Part: part, Reason: ReasonInvalidAddress}
	}

	c, ok := contact.FromNameAndEmail(name, email)
	if !ok {
		return Outcome{Part: part, Reason: ReasonBuildFailure}
	}
	return Outcome{Part: part, Contact: c}
}

func isEmpty(text string) bool {
	return text == "" || text == "nan" || text == "None"
}
