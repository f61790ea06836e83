package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/config"
	"github.com/dhcgn/contact-cleaner/extract"
	"github.com/dhcgn/contact-cleaner/filter"
	"github.com/dhcgn/contact-cleaner/model"
	"github.com/dhcgn/contact-cleaner/source"
	"github.com/dhcgn/contact-cleaner/stats"
)

// Input is one file, directory or mailbox URL together with the source that
// reads it.
type Input struct {
	Name   string
	Source archive.Source
}

// FileResult holds the contacts extracted from one input, in occurrence
// order. When Err is set the input failed as a whole and Contacts is empty.
type FileResult struct {
	Name     string
	Source   string
	Records  int
	Contacts []model.Contact
	Err      error
}

// Runner extracts contacts from its inputs. Inputs run concurrently up to
// the configured worker count, each into its own accumulator, and results
// come back in the order the inputs were added.
type Runner struct {
	cfg    config.Config
	logger *slog.Logger
	runID  string

	ctx    context.Context
	cancel context.CancelFunc

	filter *filter.Filter
	inputs []Input

	subscribers []chan stats.Event
	statsWG     sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeEventsOnce sync.Once
	since           time.Time
}

func New(cfg config.Config, logger *slog.Logger) (*Runner, error) {
	f, err := filter.New(filter.Options{
		IncludeFolder:  cfg.IncludeFolder,
		IncludeSubject: cfg.IncludeSubject,
		ExcludeFolder:  cfg.ExcludeFolder,
		ExcludeSubject: cfg.ExcludeSubject,
	})
	if err != nil {
		return nil, fmt.Errorf("record filter: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runID := uuid.NewString()
	logger = logger.With("run", runID)

	if f.Active() {
		logger.Info("record filter active",
			"include_folder", cfg.IncludeFolder, "include_subject", cfg.IncludeSubject,
			"exclude_folder", cfg.ExcludeFolder, "exclude_subject", cfg.ExcludeSubject)
	} else {
		// A nil filter allows every record without matching.
		f = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cfg:    cfg,
		logger: logger,
		runID:  runID,
		ctx:    ctx,
		cancel: cancel,
		filter: f,
	}, nil
}

func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

func (r *Runner) RunID() string {
	return r.runID
}

// Stop cancels a running Start.
func (r *Runner) Stop() {
	r.cancel()
}

// Add queues an input. It must be called before Start.
func (r *Runner) Add(name string, src archive.Source) {
	r.inputs = append(r.inputs, Input{Name: name, Source: src})
}

// EmitEvent delivers evt to every stats subscriber.
func (r *Runner) EmitEvent(evt stats.Event) {
	for _, ch := range r.subscribers {
		select {
		case <-r.ctx.Done():
			return
		case ch <- evt:
		}
	}
}

// SubscribeStats registers fn to receive every event. It must be called
// before Start; the channel is closed once all inputs are done.
func (r *Runner) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	ch := make(chan stats.Event, 128)
	r.subscribers = append(r.subscribers, ch)

	r.statsWG.Add(1)
	go func() {
		defer r.statsWG.Done()
		if err := fn(r.ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stats: %w", name, err))
		}
	}()
}

// Start processes every input and returns one result per input. The error
// is only set when the run itself broke (cancellation, a failing stats
// subscriber); per-input failures are reported in the results.
func (r *Runner) Start() ([]FileResult, error) {
	r.since = time.Now()

	results := make([]FileResult, len(r.inputs))

	var g errgroup.Group
	g.SetLimit(max(r.cfg.Workers, 1))
	for i, in := range r.inputs {
		g.Go(func() error {
			results[i] = r.process(r.ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	r.closeEvents()
	r.statsWG.Wait()

	if err := r.ctx.Err(); err != nil {
		r.fail(err)
	}
	r.cancel()

	duration := time.Since(r.since)
	if r.err != nil {
		r.logger.Error("pipeline failed", "duration", duration, "err", r.err)
		return results, r.err
	}

	r.logger.Info("pipeline completed", "duration", duration, "inputs", len(results))
	return results, nil
}

func (r *Runner) process(ctx context.Context, in Input) FileResult {
	res := FileResult{Name: in.Name, Source: in.Source.Name()}
	logger := r.logger.With("input", in.Name, "source", res.Source)
	logger.Debug("input started")

	out := make(chan model.Envelope, 32)
	streamErr := make(chan error, 1)
	go func() {
		defer close(out)
		streamErr <- in.Source.Stream(ctx, out)
	}()

	var tab source.Tabular
	var contacts []model.Contact
	for env := range out {
		var outcomes []extract.Outcome
		switch {
		case env.Err != nil:
			logger.Warn("item skipped", "err", env.Err)
			r.EmitEvent(stats.Event{Stage: stats.StageSource, Type: stats.EventTypeError, File: in.Name, Err: env.Err})
			continue
		case env.Record != nil:
			res.Records++
			r.EmitEvent(stats.Event{Stage: stats.StageSource, Type: stats.EventTypeRecord, File: in.Name})
			if !r.filter.Allows(*env.Record) {
				r.EmitEvent(stats.Event{Stage: stats.StageSource, Type: stats.EventTypeFiltered, File: in.Name})
				continue
			}
			outcomes = source.Message(*env.Record)
		case env.Row != nil:
			res.Records++
			r.EmitEvent(stats.Event{Stage: stats.StageSource, Type: stats.EventTypeRecord, File: in.Name})
			outcomes = tab.Row(*env.Row)
		default:
			continue
		}

		for _, o := range outcomes {
			if !o.OK() {
				logger.Debug("part skipped", "part", o.Part, "reason", o.Reason)
				r.EmitEvent(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeSkipped, File: in.Name, Detail: string(o.Reason)})
				continue
			}
			contacts = append(contacts, o.Contact)
			r.EmitEvent(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeContact, File: in.Name})
		}
	}

	if err := <-streamErr; err != nil {
		res.Err = err
		logger.Error("input failed", "records", res.Records, "err", err)
		r.EmitEvent(stats.Event{Stage: stats.StageSource, Type: stats.EventTypeFileFailed, File: in.Name, Err: err})
		return res
	}

	res.Contacts = contacts
	logger.Info("input done", "records", res.Records, "contacts", len(contacts))
	r.EmitEvent(stats.Event{Stage: stats.StageSource, Type: stats.EventTypeFileDone, File: in.Name})
	return res
}

// Merge concatenates the contacts of all results in result order.
func Merge(results []FileResult) []model.Contact {
	var all []model.Contact
	for _, res := range results {
		all = append(all, res.Contacts...)
	}
	return all
}

// Failed returns the results that carry an error.
func Failed(results []FileResult) []FileResult {
	var failed []FileResult
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *Runner) closeEvents() {
	r.closeEventsOnce.Do(func() {
		for _, ch := range r.subscribers {
			close(ch)
		}
	})
}

func (r *Runner) fail(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
		r.cancel()
	}
	r.errMu.Unlock()
}
