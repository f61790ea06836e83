// Package mbox is the native archive reader for mbox files.
package mbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/model"
)

// Options configures a Source.
type Options struct {
	Path string
	// Folder overrides the folder reported for every record. It defaults to
	// the file name without extension.
	Folder string
}

// Source streams the header of every message of an mbox file as a
// MessageRecord.
type Source struct {
	path   string
	folder string
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) (*Source, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}

	folder := opts.Folder
	if folder == "" {
		base := filepath.Base(path)
		folder = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &Source{path: path, folder: folder, logger: logger}, nil
}

func (s *Source) Name() string { return "mbox" }

func (s *Source) Stream(ctx context.Context, out chan<- model.Envelope) error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: open mbox: %w", archive.ErrSourceUnavailable, err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)

	idx := 0
	for ; ; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("message %d: %w", idx, err)
		}

		rec, err := archive.ParseHeader(msgReader, s.folder)
		if err != nil {
			if err := s.emitError(ctx, out, fmt.Errorf("message %d parse: %w", idx, err)); err != nil {
				return err
			}
			continue
		}

		if err := archive.Emit(ctx, out, model.Envelope{Record: &rec}); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Debug("mbox read", "path", s.path, "messages", idx)
	}
	return nil
}

func (s *Source) emitError(ctx context.Context, out chan<- model.Envelope, err error) error {
	if s.logger != nil {
		s.logger.Warn("mbox message skipped", "path", s.path, "err", err)
	}
	return archive.Emit(ctx, out, model.Envelope{Err: err})
}

// Sniff reports whether the file at path starts like an mbox archive.
func Sniff(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	head := make([]byte, 5)
	n, _ := io.ReadFull(file, head)
	return bytes.Equal(head[:n], []byte("From "))
}
