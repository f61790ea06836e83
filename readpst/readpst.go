// Package readpst reads Outlook PST/OST archives by converting them with the
// external readpst tool (libpst) into .eml files and parsing their headers.
package readpst

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/model"
)

// DefaultTool is looked up on PATH when Options.Tool is empty.
const DefaultTool = "readpst"

// ErrNotInstalled is returned when the converter cannot be found.
var ErrNotInstalled = errors.New("readpst not found (install libpst on macOS or pst-utils on Debian/Ubuntu)")

type Options struct {
	Path string
	Tool string
	// TempDir is the parent of the conversion directory; "" uses os.TempDir.
	TempDir string
}

// Source converts one archive per Stream call. The conversion directory is
// removed when Stream returns.
type Source struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Source {
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	return &Source{opts: opts, logger: logger}
}

func (s *Source) Name() string { return "readpst" }

// Available reports whether the converter can be executed.
func (s *Source) Available() bool {
	_, err := exec.LookPath(s.opts.Tool)
	return err == nil
}

func (s *Source) Stream(ctx context.Context, out chan<- model.Envelope) error {
	tool, err := exec.LookPath(s.opts.Tool)
	if err != nil {
		return fmt.Errorf("%w: %w", archive.ErrSourceUnavailable, ErrNotInstalled)
	}
	if _, err := os.Stat(s.opts.Path); err != nil {
		return fmt.Errorf("%w: %w", archive.ErrSourceUnavailable, err)
	}

	dir, err := os.MkdirTemp(s.opts.TempDir, "pst_eml_")
	if err != nil {
		return fmt.Errorf("create conversion dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, "-e", "-o", dir, "-q", s.opts.Path)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: readpst failed: %s", archive.ErrSourceUnavailable, msg)
	}

	if s.logger != nil {
		s.logger.Debug("readpst conversion finished", "path", s.opts.Path, "dir", dir)
	}

	return archive.EMLDir{Root: dir, Logger: s.logger}.Stream(ctx, out)
}
