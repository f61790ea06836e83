package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dhcgn/contact-cleaner/dedupe"
	"github.com/dhcgn/contact-cleaner/model"
)

func sample() dedupe.Result {
	return dedupe.Summarize([]model.Contact{
		{FullName: "Jane Doe", FirstName: "Jane", LastName: "Doe", Email: "Jane@X.com", Domain: "X.com"},
		{FullName: "Bob", FirstName: "Bob", Email: "bob@y.org", Domain: "y.org"},
		{FullName: "Jane", FirstName: "Jane", Email: "jane@x.com", Domain: "x.com"},
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	want := "Full Name,First Name,Last Name,Email,Domain\n" +
		"Jane Doe,Jane,Doe,jane@x.com,X.com\n" +
		"Bob,Bob,,bob@y.org,y.org\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVQuotesCommas(t *testing.T) {
	res := dedupe.Summarize([]model.Contact{{FullName: "Doe, Jane", Email: "j@x.com"}})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))
	assert.Contains(t, buf.String(), `"Doe, Jane"`)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Write(path, sample()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ContactsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(ContactsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.Columns(), rows[0])
	assert.Equal(t, []string{"Jane Doe", "Jane", "Doe", "jane@x.com", "X.com"}, rows[1])
	assert.Equal(t, []string{"Bob", "Bob", "", "bob@y.org", "y.org"}, rows[2])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Metric", "Value"},
		{"Total Contacts", "3"},
		{"Unique Contacts", "2"},
		{"Duplicates Removed", "1"},
	}, summary)
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.CSV")
	require.NoError(t, Write(path, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bob@y.org")
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "out.json"), sample())
	assert.ErrorIs(t, err, ErrFormat)
}
