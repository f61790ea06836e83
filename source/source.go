// Package source adapts structured inputs (spreadsheet rows and archive
// message records) to the field extractor.
package source

import (
	"strings"

	"github.com/dhcgn/contact-cleaner/extract"
	"github.com/dhcgn/contact-cleaner/model"
)

// columnKeywords mark a column as a likely contact source when its name
// contains one of them, case-insensitively.
var columnKeywords = []string{"sender", "recipient", "from", "to", "email", "name", "contact", "cc", "bcc"}

// CandidateColumns returns the indexes of the columns worth scanning. A blank
// column name always matches, as if it were named "Unnamed: N". When no
// column name matches a keyword every column is a candidate.
func CandidateColumns(columns []string) []int {
	var picked []int
	for i, col := range columns {
		lower := strings.ToLower(col)
		if strings.TrimSpace(lower) == "" {
			picked = append(picked, i)
			continue
		}
		for _, kw := range columnKeywords {
			if strings.Contains(lower, kw) {
				picked = append(picked, i)
				break
			}
		}
	}

	if len(picked) == 0 {
		picked = make([]int, len(columns))
		for i := range columns {
			picked[i] = i
		}
	}
	return picked
}

// Tabular extracts contacts from rows. Candidate columns are computed once per
// sheet.
type Tabular struct {
	sheet      string
	columns    []string
	candidates []int
}

// Row returns the outcomes of every candidate cell of row, cell by cell.
// Cells past the end of the header are unnamed columns and are always
// scanned; they do not turn off the all-columns fallback of a header with no
// keyword match.
func (t *Tabular) Row(row model.Row) []extract.Outcome {
	if t.candidates == nil || t.sheet != row.Sheet || len(t.columns) != len(row.Columns) {
		t.sheet = row.Sheet
		t.columns = row.Columns
		t.candidates = CandidateColumns(row.Columns)
	}

	var outcomes []extract.Outcome
	for _, idx := range t.candidates {
		outcomes = append(outcomes, extract.Parse(row.Cell(idx))...)
	}
	for idx := len(row.Columns); idx < len(row.Cells); idx++ {
		outcomes = append(outcomes, extract.Parse(row.Cells[idx])...)
	}
	return outcomes
}

// Rows extracts the contacts of all rows in order.
func Rows(rows []model.Row) []model.Contact {
	var t Tabular
	var contacts []model.Contact
	for _, row := range rows {
		contacts = append(contacts, extract.Contacts(t.Row(row))...)
	}
	return contacts
}

// Message returns the outcomes of the sender field followed by those of the
// recipients field. Subject, date and folder are not contact sources.
func Message(rec model.MessageRecord) []extract.Outcome {
	outcomes := extract.Parse(rec.Sender)
	return append(outcomes, extract.Parse(rec.Recipients)...)
}

// Messages extracts the contacts of all records in order.
func Messages(recs []model.MessageRecord) []model.Contact {
	var contacts []model.Contact
	for _, rec := range recs {
		contacts = append(contacts, extract.Contacts(Message(rec))...)
	}
	return contacts
}
