package model

// MessageRecord is the shape every archive reader emits, whichever library or
// external tool produced it. Sender and Recipients are raw contact fields;
// Recipients is already joined with ", ".
type MessageRecord struct {
	Sender     string
	Recipients string
	Subject    string
	Date       string
	Folder     string
}

// Row is one tabular record. Columns is shared by every row of the same
// sheet; Cells may be shorter than Columns when trailing cells are empty.
type Row struct {
	Sheet   string
	Index   int
	Columns []string
	Cells   []string
}

// Cell returns the value of column i, or "" when the row is short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Envelope wraps one streamed item alongside an optional error encountered
// while decoding it. Exactly one of Record and Row is set when Err is nil.
type Envelope struct {
	Record *MessageRecord
	Row    *Row
	Err    error
}
