package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/contact-cleaner/dedupe"
	"github.com/dhcgn/contact-cleaner/model"
	"github.com/dhcgn/contact-cleaner/stats"
)

func TestSpinnerCounts(t *testing.T) {
	s := New(2, false, "info")

	events := make(chan stats.Event, 8)
	events <- stats.Event{Type: stats.EventTypeRecord}
	events <- stats.Event{Type: stats.EventTypeRecord}
	events <- stats.Event{Type: stats.EventTypeContact}
	events <- stats.Event{Type: stats.EventTypeSkipped, Detail: "no_address"}
	events <- stats.Event{Type: stats.EventTypeFileDone}
	events <- stats.Event{Type: stats.EventTypeFileFailed, Err: errors.New("boom")}
	close(events)

	require.NoError(t, s.Subscriber(context.Background(), events))
	assert.Equal(t, "Reading inputs 2/2: 2 records, 1 contacts", s.Text())

	// Stopping a spinner that never rendered is a no-op.
	s.Stop()
}

func TestSpinnerDisabledOutsideInfo(t *testing.T) {
	s := New(1, true, "debug")
	assert.Nil(t, s.sp)
	s.Stop()
}

func TestSubscriberCancelled(t *testing.T) {
	s := New(1, false, "info")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Subscriber(ctx, make(chan stats.Event)), context.Canceled)
}

func TestPrinters(t *testing.T) {
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)

	res := dedupe.Summarize([]model.Contact{
		{FullName: "Jane Doe", FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Domain: "x.com"},
		{FullName: "Jane", FirstName: "Jane", Email: "JANE@x.com", Domain: "x.com"},
	})
	summary := stats.Summary{Files: 1, Records: 1, Contacts: 2, Skipped: map[string]int{"malformed": 1}}

	assert.NotPanics(t, func() {
		PrintSummary(summary, res, "out.xlsx", time.Second)
	})
	assert.NoError(t, PrintPreview(res, 10))
	assert.NoError(t, PrintPreview(res, 0))
}
