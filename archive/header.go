package archive

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	message "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/dhcgn/contact-cleaner/model"
)

// ParseHeader reads an RFC 5322 header block from r and maps it to a
// MessageRecord. Recipients joins the non-empty To, Cc and Bcc values.
// Encoded words are decoded; undecodable values are kept raw.
func ParseHeader(r io.Reader, folder string) (model.MessageRecord, error) {
	raw, err := textproto.ReadHeader(bufio.NewReader(r))
	if err != nil {
		return model.MessageRecord{}, fmt.Errorf("read header: %w", err)
	}
	h := mail.Header{Header: message.Header{Header: raw}}

	var recipients []string
	for _, key := range []string{"To", "Cc", "Bcc"} {
		if v := headerText(h, key); v != "" {
			recipients = append(recipients, v)
		}
	}

	return model.MessageRecord{
		Sender:     headerText(h, "From"),
		Recipients: strings.Join(recipients, ", "),
		Subject:    headerText(h, "Subject"),
		Date:       strings.TrimSpace(h.Get("Date")),
		Folder:     folder,
	}, nil
}

func headerText(h mail.Header, key string) string {
	v, err := h.Text(key)
	if err != nil {
		v = h.Get(key)
	}
	return strings.TrimSpace(v)
}
