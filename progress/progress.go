package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/dhcgn/contact-cleaner/dedupe"
	"github.com/dhcgn/contact-cleaner/stats"
)

// redrawEvery is how many records pass between spinner text updates.
const redrawEvery = 100

// Spinner shows a live count of records and contacts while inputs are read.
type Spinner struct {
	sp      *pterm.SpinnerPrinter
	enabled bool
	total   int

	mu       sync.Mutex
	records  int
	contacts int
	done     int
	failed   int
}

// New creates a spinner for total inputs. It only renders when enabled is
// true and the log level is "info", so debug output is not interleaved.
func New(total int, enabled bool, logLevel string) *Spinner {
	s := &Spinner{
		total:   total,
		enabled: enabled && logLevel == "info",
	}

	if s.enabled {
		sp, err := pterm.DefaultSpinner.Start(s.text())
		if err != nil {
			s.enabled = false
		} else {
			s.sp = sp
		}
	}

	return s
}

// Update applies one event to the counters.
func (s *Spinner) Update(evt stats.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	redraw := false
	switch evt.Type {
	case stats.EventTypeRecord:
		s.records++
		redraw = s.records%redrawEvery == 0
	case stats.EventTypeContact:
		s.contacts++
	case stats.EventTypeFileDone:
		s.done++
		redraw = true
	case stats.EventTypeFileFailed:
		s.done++
		s.failed++
		redraw = true
		if s.sp != nil && evt.Err != nil {
			pterm.Error.Printf("%s: %v\n", evt.File, evt.Err)
		}
	}

	if redraw && s.sp != nil {
		s.sp.UpdateText(s.text())
	}
}

// Text is the current status line.
func (s *Spinner) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text()
}

func (s *Spinner) text() string {
	return fmt.Sprintf("Reading inputs %d/%d: %d records, %d contacts", s.done, s.total, s.records, s.contacts)
}

// Stop finalizes the spinner.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sp == nil {
		return
	}
	if s.failed > 0 {
		s.sp.Warning(fmt.Sprintf("%s (%d failed)", s.text(), s.failed))
	} else {
		s.sp.Success(s.text())
	}
	s.sp = nil
}

// Subscriber creates a stats subscriber function that updates the spinner.
func (s *Spinner) Subscriber(ctx context.Context, events <-chan stats.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			s.Update(evt)
		}
	}
}

// PrintSummary prints the run summary the way the pipeline reports it.
func PrintSummary(summary stats.Summary, res dedupe.Result, output string, duration time.Duration) {
	pterm.Println()
	pterm.DefaultSection.Println("Summary Statistics")
	pterm.Info.Printf("Duration: %v\n", duration.Round(time.Millisecond))
	pterm.Info.Printf("Inputs: %d (%d failed)\n", summary.Files, summary.FilesFailed)
	pterm.Info.Printf("Records read: %d (filtered %d)\n", summary.Records, summary.Filtered)
	pterm.Info.Printf("Total Contacts: %d\n", res.Total)
	pterm.Info.Printf("Unique Contacts: %d\n", res.Unique)
	pterm.Info.Printf("Duplicates Removed: %d\n", res.DuplicatesRemoved)
	for _, c := range stats.Top(summary.Skipped, 0) {
		pterm.Info.Printf("Skipped (%s): %d\n", c.Key, c.Value)
	}
	if summary.Errors > 0 {
		pterm.Warning.Printf("Unreadable items: %d\n", summary.Errors)
	}
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	}
	if output != "" {
		pterm.Success.Printf("Saved to %s\n", output)
	}
}

// PrintPreview prints the first n contacts as a table.
func PrintPreview(res dedupe.Result, n int) error {
	if n <= 0 || len(res.Contacts) == 0 {
		return nil
	}
	if n > len(res.Contacts) {
		n = len(res.Contacts)
	}

	data := pterm.TableData{{"Full Name", "First Name", "Last Name", "Email", "Domain"}}
	for _, c := range res.Contacts[:n] {
		data = append(data, c.Values())
	}

	pterm.Println()
	pterm.DefaultSection.Printf("First %d contacts\n", n)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
