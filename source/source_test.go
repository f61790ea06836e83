package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/contact-cleaner/model"
	"github.com/dhcgn/contact-cleaner/source"
)

func TestCandidateColumns(t *testing.T) {
	cases := []struct {
		name    string
		columns []string
		want    []int
	}{
		{name: "keyword match", columns: []string{"ID", "Sender", "Subject", "E-Mail Address", "CC"}, want: []int{1, 4}},
		{name: "case insensitive", columns: []string{"FULL NAME", "notes"}, want: []int{0}},
		{name: "substring match", columns: []string{"Total", "Amount"}, want: []int{0}},
		{name: "fallback to all", columns: []string{"A", "B", "C"}, want: []int{0, 1, 2}},
		{name: "blank name matches", columns: []string{"ID", "", "Amount", "  "}, want: []int{1, 3}},
		{name: "blank beside keyword", columns: []string{"Email", "Notes", ""}, want: []int{0, 2}},
		{name: "no columns", columns: nil, want: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := source.CandidateColumns(tc.columns)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRows(t *testing.T) {
	columns := []string{"Sender", "Subject", "Recipients"}
	rows := []model.Row{
		{Sheet: "Sheet1", Index: 1, Columns: columns, Cells: []string{"Jane Doe <jane@x.com>", "bob@y.com", "carl@z.com, Dee Dee <dee@z.com>"}},
		{Sheet: "Sheet1", Index: 2, Columns: columns, Cells: []string{"nan", "hello"}},
	}

	got := source.Rows(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "jane@x.com", got[0].Email)
	assert.Equal(t, "carl@z.com", got[1].Email)
	assert.Equal(t, "dee@z.com", got[2].Email)
}

func TestRowsFallbackColumns(t *testing.T) {
	columns := []string{"A", "B"}
	rows := []model.Row{{Columns: columns, Cells: []string{"x", "ann.lee@x.com"}}}

	got := source.Rows(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "Ann", got[0].FirstName)
	assert.Equal(t, "Lee", got[0].LastName)
}

func TestRowsScanCellsPastHeader(t *testing.T) {
	rows := []model.Row{
		{Sheet: "One", Columns: []string{"Email", "Notes"}, Cells: []string{"a@x.com", "b@x.com", "Carl <carl@z.com>"}},
		{Sheet: "Two", Columns: []string{"ID", ""}, Cells: []string{"d@x.com", "e@x.com"}},
	}

	got := source.Rows(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "a@x.com", got[0].Email)
	assert.Equal(t, "carl@z.com", got[1].Email)
	assert.Equal(t, "Carl", got[1].FullName)
	assert.Equal(t, "e@x.com", got[2].Email)
}

func TestTabularSwitchesSheets(t *testing.T) {
	var tab source.Tabular

	first := tab.Row(model.Row{Sheet: "One", Columns: []string{"Email", "Notes"}, Cells: []string{"a@x.com", "b@x.com"}})
	second := tab.Row(model.Row{Sheet: "Two", Columns: []string{"Notes", "Email"}, Cells: []string{"c@x.com", "d@x.com"}})

	require.Len(t, first, 1)
	assert.Equal(t, "a@x.com", first[0].Contact.Email)
	require.Len(t, second, 1)
	assert.Equal(t, "d@x.com", second[0].Contact.Email)
}

func TestMessages(t *testing.T) {
	recs := []model.MessageRecord{
		{Sender: "Jane Doe <jane@x.com>", Recipients: "bob@y.com, Carl <carl@z.com>", Subject: "hi@there.com", Folder: "Inbox"},
		{Sender: "", Recipients: "user@/O=ORG/OU=X/CN=RECIPIENTS/CN=JDOE"},
	}

	got := source.Messages(recs)
	require.Len(t, got, 3)
	assert.Equal(t, "jane@x.com", got[0].Email)
	assert.Equal(t, "bob@y.com", got[1].Email)
	assert.Equal(t, "Carl", got[2].FullName)
}
