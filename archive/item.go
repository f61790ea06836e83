package archive

import (
	"strings"
	"time"

	"github.com/dhcgn/contact-cleaner/address"
	"github.com/dhcgn/contact-cleaner/model"
)

// The accessors below are optional: a message item implements whichever of
// them its reader can answer, and Record treats the rest as empty.

type SenderNamer interface {
	SenderName() string
}

type SenderEmailer interface {
	SenderEmail() string
}

type RecipientLister interface {
	Recipients() []Recipient
}

type Subjecter interface {
	Subject() string
}

type DeliveryTimer interface {
	DeliveryTime() time.Time
}

// Recipient is one addressee of a message item. Either field may be empty.
type Recipient struct {
	Name  string
	Email string
}

// String renders the recipient as "Name <email>", "email" or "Name".
func (r Recipient) String() string {
	name, email := strings.TrimSpace(r.Name), strings.TrimSpace(r.Email)
	switch {
	case name != "" && email != "":
		return name + " <" + email + ">"
	case email != "":
		return email
	default:
		return name
	}
}

// Record builds a MessageRecord from an item that exposes some of the
// optional accessors. The sender is "Name <email>" when the address passes
// address.Valid, the bare address when only that is usable, and the display
// name otherwise.
func Record(item any, folder string) model.MessageRecord {
	var name, email string
	if v, ok := item.(SenderNamer); ok {
		name = strings.TrimSpace(v.SenderName())
	}
	if v, ok := item.(SenderEmailer); ok {
		email = strings.TrimSpace(v.SenderEmail())
	}

	sender := name
	if address.Valid(email) {
		sender = Recipient{Name: name, Email: email}.String()
	}

	var recipients []string
	if v, ok := item.(RecipientLister); ok {
		for _, r := range v.Recipients() {
			if s := r.String(); s != "" {
				recipients = append(recipients, s)
			}
		}
	}

	rec := model.MessageRecord{
		Sender:     sender,
		Recipients: strings.Join(recipients, ", "),
		Folder:     folder,
	}
	if v, ok := item.(Subjecter); ok {
		rec.Subject = v.Subject()
	}
	if v, ok := item.(DeliveryTimer); ok {
		if t := v.DeliveryTime(); !t.IsZero() {
			rec.Date = t.Format(time.DateTime)
		}
	}
	return rec
}
