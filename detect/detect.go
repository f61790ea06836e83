// Package detect picks the reader for an input path or URL.
package detect

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/config"
	"github.com/dhcgn/contact-cleaner/imap"
	"github.com/dhcgn/contact-cleaner/mbox"
	"github.com/dhcgn/contact-cleaner/pst"
	"github.com/dhcgn/contact-cleaner/readpst"
	"github.com/dhcgn/contact-cleaner/tabular"
)

// Open returns the Source for input. It never returns nil: inputs that
// cannot be read come back as archive.Failed so they fail in order with
// the rest of the run.
func Open(input string, cfg config.Config, logger *slog.Logger) archive.Source {
	src, err := open(input, cfg, logger)
	if err != nil {
		return archive.Failed{Input: input, Err: err}
	}
	return src
}

func open(input string, cfg config.Config, logger *slog.Logger) (archive.Source, error) {
	if imap.IsURL(input) {
		opts, err := imap.ParseURL(input, imap.Options{
			Username:           cfg.IMAPUser,
			Password:           cfg.IMAPPass,
			Mailboxes:          cfg.IMAPMailboxes,
			InsecureSkipVerify: cfg.IMAPInsecureSkipVerify,
		})
		if err != nil {
			return nil, err
		}
		src, err := imap.New(opts, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", archive.ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return archive.EMLDir{Root: input, Logger: logger}, nil
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".csv":
		comma, _ := utf8.DecodeRuneInString(cfg.Delimiter)
		if comma == utf8.RuneError {
			comma = 0
		}
		return tabular.CSV{Path: input, Comma: comma}, nil
	case ".xlsx":
		return tabular.XLSX{Path: input}, nil
	case ".xls":
		return tabular.XLS{Path: input}, nil
	case ".pst", ".ost":
		return openPST(input, cfg, logger)
	case ".eml":
		return archive.EMLFile{Path: input}, nil
	case ".mbox", ".mbx":
		return openMbox(input, logger)
	}

	if mbox.Sniff(input) {
		return openMbox(input, logger)
	}
	return nil, fmt.Errorf("%w: %s", archive.ErrUnsupported, filepath.Base(input))
}

func openMbox(path string, logger *slog.Logger) (archive.Source, error) {
	src, err := mbox.New(mbox.Options{Path: path}, logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// openPST prefers the native reader and falls back to the readpst converter
// when the native reader does not understand the file.
func openPST(path string, cfg config.Config, logger *slog.Logger) (archive.Source, error) {
	nativeErr := pst.Supported(path)
	if nativeErr == nil {
		return pst.New(pst.Options{Path: path}, logger), nil
	}

	fallback := readpst.New(readpst.Options{Path: path, Tool: cfg.ReadpstTool, TempDir: cfg.TempDir}, logger)
	if !fallback.Available() {
		return nil, fmt.Errorf("%w: native reader: %w; %w", archive.ErrSourceUnavailable, nativeErr, readpst.ErrNotInstalled)
	}
	if logger != nil {
		logger.Info("native pst reader cannot open file, using readpst", "path", path, "err", nativeErr)
	}
	return fallback, nil
}
