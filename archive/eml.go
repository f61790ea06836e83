package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhcgn/contact-cleaner/model"
)

// EMLDir reads every *.eml file below Root. The folder of a record is the
// name of the directory holding the file.
type EMLDir struct {
	Root   string
	Logger *slog.Logger
}

func (d EMLDir) Name() string { return "eml" }

func (d EMLDir) Stream(ctx context.Context, out chan<- model.Envelope) error {
	info, err := os.Stat(d.Root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, d.Root)
	}

	count := 0
	err = filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".eml") {
			return nil
		}

		count++
		rec, err := readEML(path)
		if err != nil {
			return Emit(ctx, out, model.Envelope{Err: err})
		}
		return Emit(ctx, out, model.Envelope{Record: &rec})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("walk %s: %w", d.Root, err)
	}

	if d.Logger != nil {
		d.Logger.Debug("eml directory read", "root", d.Root, "files", count)
	}
	return nil
}

// EMLFile reads a single message file.
type EMLFile struct {
	Path string
}

func (f EMLFile) Name() string { return "eml" }

func (f EMLFile) Stream(ctx context.Context, out chan<- model.Envelope) error {
	rec, err := readEML(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return Emit(ctx, out, model.Envelope{Record: &rec})
}

func readEML(path string) (model.MessageRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.MessageRecord{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rec, err := ParseHeader(file, filepath.Base(filepath.Dir(path)))
	if err != nil {
		return model.MessageRecord{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return rec, nil
}
