// Package imap reads message envelopes from an IMAP account and emits them as
// message records.
package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/model"
)

var ErrMissingHost = errors.New("imap host is empty")

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	// Mailboxes to read; empty reads every selectable mailbox.
	Mailboxes []string
	// DialTimeout bounds the retries of the initial connect and login.
	DialTimeout time.Duration
}

// ParseURL reads imap://[user@]host[:port][/mailbox] and the imaps variant.
// Explicit fields already set on base win over the URL.
func ParseURL(raw string, base Options) (Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Options{}, fmt.Errorf("parse imap url: %w", err)
	}

	opts := base
	switch strings.ToLower(u.Scheme) {
	case "imaps":
		opts.UseTLS = true
		if opts.Port == 0 {
			opts.Port = 993
		}
	case "imap":
		opts.UseTLS = false
		if opts.Port == 0 {
			opts.Port = 143
		}
	default:
		return Options{}, fmt.Errorf("unsupported imap scheme %q", u.Scheme)
	}

	opts.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Options{}, fmt.Errorf("imap port %q: %w", p, err)
		}
		opts.Port = port
	}
	if u.User != nil && opts.Username == "" {
		opts.Username = u.User.Username()
	}
	if u.User != nil && opts.Password == "" {
		if pass, ok := u.User.Password(); ok {
			opts.Password = pass
		}
	}
	if mailbox := strings.Trim(u.Path, "/"); mailbox != "" && len(opts.Mailboxes) == 0 {
		opts.Mailboxes = []string{mailbox}
	}

	if opts.Host == "" {
		return Options{}, ErrMissingHost
	}
	return opts, nil
}

// IsURL reports whether input names an IMAP account rather than a file.
func IsURL(input string) bool {
	lower := strings.ToLower(input)
	return strings.HasPrefix(lower, "imap://") || strings.HasPrefix(lower, "imaps://")
}

type Source struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) (*Source, error) {
	if opts.Host == "" {
		return nil, ErrMissingHost
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("imap port must be between 1 and 65535")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 30 * time.Second
	}
	return &Source{opts: opts, logger: logger}, nil
}

func (s *Source) Name() string { return "imap" }

func (s *Source) Stream(ctx context.Context, out chan<- model.Envelope) error {
	client, cleanup, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", archive.ErrSourceUnavailable, err)
	}
	defer cleanup()

	mailboxes := s.opts.Mailboxes
	if len(mailboxes) == 0 {
		mailboxes, err = listMailboxes(client)
		if err != nil {
			return err
		}
	}

	for _, mailbox := range mailboxes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.streamMailbox(ctx, client, mailbox, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) streamMailbox(ctx context.Context, client *imapclient.Client, mailbox string, out chan<- model.Envelope) error {
	data, err := client.Select(mailbox, &imapv2.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		// A mailbox that vanished or is not selectable is skipped, not fatal.
		return archive.Emit(ctx, out, model.Envelope{Err: fmt.Errorf("select %s: %w", mailbox, err)})
	}
	if s.logger != nil {
		s.logger.Debug("imap mailbox selected", "mailbox", mailbox, "messages", data.NumMessages)
	}
	if data.NumMessages == 0 {
		return nil
	}

	var seqSet imapv2.SeqSet
	seqSet.AddRange(1, data.NumMessages)

	cmd := client.Fetch(seqSet, &imapv2.FetchOptions{Envelope: true})
	for {
		msg := cmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			if err := archive.Emit(ctx, out, model.Envelope{Err: fmt.Errorf("fetch %s: %w", mailbox, err)}); err != nil {
				_ = cmd.Close()
				return err
			}
			continue
		}
		if buf.Envelope == nil {
			continue
		}

		rec := archive.Record(envelope{buf.Envelope}, mailbox)
		if err := archive.Emit(ctx, out, model.Envelope{Record: &rec}); err != nil {
			_ = cmd.Close()
			return err
		}
	}

	if err := cmd.Close(); err != nil {
		return fmt.Errorf("fetch %s: %w", mailbox, err)
	}
	return nil
}

func listMailboxes(client *imapclient.Client) ([]string, error) {
	list, err := client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}

	names := make([]string, 0, len(list))
	for _, item := range list {
		if hasAttr(item.Attrs, imapv2.MailboxAttrNoSelect) || hasAttr(item.Attrs, imapv2.MailboxAttrNonExistent) {
			continue
		}
		names = append(names, item.Mailbox)
	}
	return names, nil
}

func hasAttr(attrs []imapv2.MailboxAttr, want imapv2.MailboxAttr) bool {
	for _, a := range attrs {
		if strings.EqualFold(string(a), string(want)) {
			return true
		}
	}
	return false
}

func (s *Source) dial(ctx context.Context) (*imapclient.Client, func(), error) {
	address := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	options := &imapclient.Options{}
	if s.opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         s.opts.Host,
			InsecureSkipVerify: s.opts.InsecureSkipVerify,
		}
	}

	connect := func() (*imapclient.Client, error) {
		var (
			client *imapclient.Client
			err    error
		)
		if s.opts.UseTLS {
			client, err = imapclient.DialTLS(address, options)
		} else {
			client, err = imapclient.DialInsecure(address, options)
		}
		if err != nil {
			return nil, fmt.Errorf("dial imap %s: %w", address, err)
		}

		if err := client.Login(s.opts.Username, s.opts.Password).Wait(); err != nil {
			_ = client.Close()
			// Wrong credentials do not get better by retrying.
			return nil, backoff.Permanent(fmt.Errorf("imap login failed: %w", err))
		}
		return client, nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 5 * time.Second

	client, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(s.opts.DialTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			if s.logger != nil {
				s.logger.Warn("imap connect failed, retrying", "address", address, "in", next, "err", err)
			}
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	if s.logger != nil {
		s.logger.Debug("imap connection established", "address", address, "user", s.opts.Username, "tls", s.opts.UseTLS)
	}

	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	cleanup := func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil && s.logger != nil {
				s.logger.Warn("imap logout failed", "err", err)
			}
		}
		if err := client.Close(); err != nil && s.logger != nil {
			s.logger.Debug("imap connection closed", "err", err)
		}
	}

	return client, cleanup, nil
}

// envelope exposes an IMAP envelope through the archive item accessors.
type envelope struct {
	env *imapv2.Envelope
}

func (e envelope) SenderName() string {
	if len(e.env.From) == 0 {
		return ""
	}
	return e.env.From[0].Name
}

func (e envelope) SenderEmail() string {
	if len(e.env.From) == 0 {
		return ""
	}
	return addr(e.env.From[0])
}

func (e envelope) Recipients() []archive.Recipient {
	var out []archive.Recipient
	for _, list := range [][]imapv2.Address{e.env.To, e.env.Cc, e.env.Bcc} {
		for _, a := range list {
			out = append(out, archive.Recipient{Name: a.Name, Email: addr(a)})
		}
	}
	return out
}

func (e envelope) Subject() string { return e.env.Subject }

func (e envelope) DeliveryTime() time.Time { return e.env.Date }

func addr(a imapv2.Address) string {
	if a.Mailbox == "" || a.Host == "" {
		return ""
	}
	return a.Mailbox + "@" + a.Host
}
