package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"
)

type Stage string

const (
	StageSource  Stage = "source"
	StageExtract Stage = "extract"
)

type EventType string

const (
	EventTypeRecord     EventType = "record"
	EventTypeFiltered   EventType = "filtered"
	EventTypeContact    EventType = "contact"
	EventTypeSkipped    EventType = "skipped"
	EventTypeError      EventType = "error"
	EventTypeFileDone   EventType = "file_done"
	EventTypeFileFailed EventType = "file_failed"
)

// Event is one observation of the pipeline. For EventTypeSkipped, Detail
// holds the skip reason.
type Event struct {
	Stage  Stage
	Type   EventType
	File   string
	Err    error
	Detail string
}

type Summary struct {
	Files       int
	FilesFailed int
	Records     int
	Filtered    int
	Contacts    int
	Skipped     map[string]int
	Errors      int
	LastError   error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"files", s.Files,
		"filesFailed", s.FilesFailed,
		"records", s.Records,
		"filtered", s.Filtered,
		"contacts", s.Contacts,
		"errors", s.Errors,
	}
	reasons := make([]string, 0, len(s.Skipped))
	for reason := range s.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		attrs = append(attrs, "skipped."+reason, s.Skipped[reason])
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{summary: Summary{Skipped: make(map[string]int)}}
}

func (c *Collector) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.Apply(evt)
		}
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	summary := c.summary
	summary.Skipped = maps.Clone(c.summary.Skipped)
	c.mu.Unlock()
	return summary
}

func (c *Collector) Apply(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeRecord:
		c.summary.Records++
	case EventTypeFiltered:
		c.summary.Filtered++
	case EventTypeContact:
		c.summary.Contacts++
	case EventTypeSkipped:
		c.summary.Skipped[evt.Detail]++
	case EventTypeError:
		c.summary.Errors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	case EventTypeFileDone:
		c.summary.Files++
	case EventTypeFileFailed:
		c.summary.Files++
		c.summary.FilesFailed++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

type EventStream interface {
	SubscribeStats(name string, fn func(context.Context, <-chan Event) error)
}

type Reporter struct {
	collector *Collector
	logger    *slog.Logger
	started   time.Time
}

func NewReporter(stream EventStream, logger *slog.Logger) *Reporter {
	reporter := &Reporter{
		collector: NewCollector(),
		logger:    logger,
		started:   time.Now(),
	}
	stream.SubscribeStats("stats-reporter", reporter.consume)
	return reporter
}

func (r *Reporter) consume(ctx context.Context, events <-chan Event) error {
	r.collector.Run(ctx, events)
	summary := r.collector.Snapshot()
	attrs := append(summary.LogAttrs(), "duration", time.Since(r.started))
	if ctx.Err() != nil {
		if r.logger != nil {
			r.logger.Debug("stats collection stopped", append(attrs, "err", ctx.Err())...)
		}
		return ctx.Err()
	}
	if r.logger != nil {
		r.logger.Info("stats summary", attrs...)
	}
	return nil
}

func (r *Reporter) Summary() Summary {
	return r.collector.Snapshot()
}

// Count is one key of a frequency table.
type Count struct {
	Key   string
	Value int
}

// Top returns the limit most frequent keys of m, ties broken by key. A
// limit <= 0 returns all of them.
func Top(m map[string]int, limit int) []Count {
	pairs := make([]Count, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Count{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(w io.Writer, m map[string]int, limit int) {
	for i, p := range Top(m, limit) {
		fmt.Fprintf(w, "%d. %s (%d)\n", i+1, p.Key, p.Value)
	}
}
