package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/contact-cleaner/extract"
	"github.com/dhcgn/contact-cleaner/stats"
)

func TestObserve(t *testing.T) {
	r := NewRecorder()

	events := []stats.Event{
		{Type: stats.EventTypeRecord, File: "a.mbox"},
		{Type: stats.EventTypeRecord, File: "a.mbox"},
		{Type: stats.EventTypeRecord, File: "b.csv"},
		{Type: stats.EventTypeFiltered},
		{Type: stats.EventTypeContact},
		{Type: stats.EventTypeSkipped, Detail: string(extract.ReasonNoAddress)},
		{Type: stats.EventTypeSkipped, Detail: string(extract.ReasonNoAddress)},
		{Type: stats.EventTypeError, Err: errors.New("bad header")},
		{Type: stats.EventTypeFileDone},
		{Type: stats.EventTypeFileFailed},
	}
	for _, evt := range events {
		r.Observe(evt)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(r.records.WithLabelValues("a.mbox")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.records.WithLabelValues("b.csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filtered))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.contacts))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.skipped.WithLabelValues("no_address")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.skipped.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.itemErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.files.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.files.WithLabelValues("failed")))
}

func TestSkipReasonsPreRegistered(t *testing.T) {
	r := NewRecorder()
	assert.Equal(t, len(extract.Reasons), testutil.CollectAndCount(r.skipped))
}

func TestSubscriber(t *testing.T) {
	r := NewRecorder()
	events := make(chan stats.Event, 2)
	events <- stats.Event{Type: stats.EventTypeContact}
	events <- stats.Event{Type: stats.EventTypeContact}
	close(events)

	require.NoError(t, r.Subscriber(context.Background(), events))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.contacts))
}

func TestSubscriberCancelled(t *testing.T) {
	r := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Subscriber(ctx, make(chan stats.Event))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(stats.Event{Type: stats.EventTypeContact})

	path := filepath.Join(t.TempDir(), "contacts.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "contact_cleaner_contacts_extracted_total 1")
	assert.Contains(t, string(data), `contact_cleaner_parts_skipped_total{reason="malformed"} 0`)
}

func TestWriteTextfileBadDir(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "m.prom"))
	assert.Error(t, err)
}
