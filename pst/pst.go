// Package pst is the native reader for Outlook PST/OST archives. It walks
// every folder with go-pst and reports the sender and display recipients of
// each mail message.
package pst

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	gopst "github.com/mooijtech/go-pst/v6/pkg"
	"github.com/mooijtech/go-pst/v6/pkg/properties"
	"golang.org/x/text/encoding"

	"github.com/dhcgn/contact-cleaner/address"
	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/model"
)

func init() {
	gopst.ExtendCharsets(func(name string, enc encoding.Encoding) {
		charset.RegisterEncoding(name, enc)
	})
}

// Supported reports whether the native reader understands the file at path.
// Only the file header is read: signature, content type, format and
// encryption.
func Supported(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return checkHeader(file)
}

func checkHeader(r io.ReaderAt) error {
	f := &gopst.File{Reader: gopst.NewDefaultReader(r)}

	ok, err := f.IsValidSignature()
	if err != nil {
		return err
	}
	if !ok {
		return gopst.ErrFileSignatureInvalid
	}
	if f.FormatType, err = f.GetFormatType(); err != nil {
		return err
	}
	if _, err := f.GetContentType(); err != nil {
		return err
	}
	_, err = f.GetEncryptionType()
	return err
}

type Options struct {
	Path string
}

type Source struct {
	path   string
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Source {
	return &Source{path: opts.Path, logger: logger}
}

func (s *Source) Name() string { return "pst" }

func (s *Source) Stream(ctx context.Context, out chan<- model.Envelope) (err error) {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: open pst: %w", archive.ErrSourceUnavailable, err)
	}
	defer file.Close()

	// go-pst panics on some corrupt node and block trees.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: read pst: %v", archive.ErrSourceUnavailable, rec)
		}
	}()

	pstFile, err := gopst.New(file)
	if err != nil {
		return fmt.Errorf("%w: open pst: %w", archive.ErrSourceUnavailable, err)
	}
	defer pstFile.Cleanup()

	var messages, other int
	err = pstFile.WalkFolders(func(folder *gopst.Folder) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		it, err := folder.GetMessageIterator()
		if errors.Is(err, gopst.ErrMessagesNotFound) {
			return nil
		} else if err != nil {
			return s.emitError(ctx, out, fmt.Errorf("folder %s: %w", folder.Name, err))
		}

		for it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			props, ok := it.Value().Properties.(*properties.Message)
			if !ok {
				other++
				continue
			}
			messages++
			rec := archive.Record(message{props}, folder.Name)
			if err := archive.Emit(ctx, out, model.Envelope{Record: &rec}); err != nil {
				return err
			}
		}
		if err := it.Err(); err != nil {
			return s.emitError(ctx, out, fmt.Errorf("folder %s: %w", folder.Name, err))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("walk folders: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("pst read", "path", s.path, "messages", messages, "other_items", other)
	}
	return nil
}

func (s *Source) emitError(ctx context.Context, out chan<- model.Envelope, err error) error {
	if s.logger != nil {
		s.logger.Warn("pst folder skipped", "path", s.path, "err", err)
	}
	return archive.Emit(ctx, out, model.Envelope{Err: err})
}

// message exposes a mail item to archive.Record.
type message struct {
	m *properties.Message
}

func (m message) SenderName() string { return m.m.GetSenderName() }

func (m message) SenderEmail() string { return m.m.GetSenderEmailAddress() }

// Recipients splits the "; "-separated display lists. An entry that is an
// address becomes the recipient's email, anything else its name.
func (m message) Recipients() []archive.Recipient {
	var out []archive.Recipient
	for _, list := range []string{m.m.GetDisplayTo(), m.m.GetDisplayCc(), m.m.GetDisplayBcc()} {
		for _, entry := range strings.Split(list, ";") {
			entry = strings.TrimSpace(entry)
			switch {
			case entry == "":
			case address.Valid(entry):
				out = append(out, archive.Recipient{Email: entry})
			default:
				out = append(out, archive.Recipient{Name: entry})
			}
		}
	}
	return out
}

func (m message) Subject() string { return m.m.GetSubject() }

func (m message) DeliveryTime() time.Time {
	n := m.m.GetMessageDeliveryTime()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
