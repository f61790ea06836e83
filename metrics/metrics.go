// Package metrics exposes pipeline counters in the Prometheus text format.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dhcgn/contact-cleaner/extract"
	"github.com/dhcgn/contact-cleaner/stats"
)

const namespace = "contact_cleaner"

// Recorder turns stats events into Prometheus counters on a private
// registry.
type Recorder struct {
	registry *prometheus.Registry

	records    *prometheus.CounterVec
	filtered   prometheus.Counter
	contacts   prometheus.Counter
	skipped    *prometheus.CounterVec
	itemErrors prometheus.Counter
	files      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Message records and spreadsheet rows read, by input.",
		}, []string{"input"}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_filtered_total",
			Help:      "Message records dropped by folder or subject filters.",
		}),
		contacts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_extracted_total",
			Help:      "Contacts extracted before deduplication.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parts_skipped_total",
			Help:      "Field parts that produced no contact, by reason.",
		}, []string{"reason"}),
		itemErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_errors_total",
			Help:      "Messages or rows that could not be decoded.",
		}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_total",
			Help:      "Inputs processed, by result.",
		}, []string{"result"}),
	}

	r.registry.MustRegister(r.records, r.filtered, r.contacts, r.skipped, r.itemErrors, r.files)

	for _, reason := range extract.Reasons {
		r.skipped.WithLabelValues(string(reason))
	}
	r.files.WithLabelValues("ok")
	r.files.WithLabelValues("failed")

	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Observe(evt stats.Event) {
	switch evt.Type {
	case stats.EventTypeRecord:
		r.records.WithLabelValues(evt.File).Inc()
	case stats.EventTypeFiltered:
		r.filtered.Inc()
	case stats.EventTypeContact:
		r.contacts.Inc()
	case stats.EventTypeSkipped:
		r.skipped.WithLabelValues(evt.Detail).Inc()
	case stats.EventTypeError:
		r.itemErrors.Inc()
	case stats.EventTypeFileDone:
		r.files.WithLabelValues("ok").Inc()
	case stats.EventTypeFileFailed:
		r.files.WithLabelValues("failed").Inc()
	}
}

// Subscriber consumes a runner event stream until it is closed.
func (r *Recorder) Subscriber(ctx context.Context, events <-chan stats.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			r.Observe(evt)
		}
	}
}

// WriteTextfile writes the current counters to path, atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
