// Package archive defines the MessageSource abstraction shared by every mail
// archive reader, plus the header-based readers for .eml files.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/dhcgn/contact-cleaner/model"
)

var (
	// ErrSourceUnavailable marks a file-level failure: the archive cannot be
	// opened or the external converter is missing or failed.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnsupported is returned for inputs no reader understands.
	ErrUnsupported = errors.New("unsupported input")
)

// Source streams the items of one input into out. Per-item decode problems
// are sent as Envelope.Err and streaming continues; a returned error means
// the whole input failed.
type Source interface {
	Name() string
	Stream(ctx context.Context, out chan<- model.Envelope) error
}

// Failed is a Source that fails with Err as soon as it is streamed. It lets
// callers report inputs that could not be opened at the same point, and in
// the same order, as inputs that fail while reading.
type Failed struct {
	Input string
	Err   error
}

func (f Failed) Name() string { return "failed" }

func (f Failed) Stream(context.Context, chan<- model.Envelope) error {
	return fmt.Errorf("%s: %w", f.Input, f.Err)
}

// Emit sends env unless ctx is done first.
func Emit(ctx context.Context, out chan<- model.Envelope, env model.Envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- env:
		return nil
	}
}
