// Package tabular streams spreadsheet rows (CSV, XLSX and XLS) as model.Row
// envelopes. The first row of every sheet holds the column names.
package tabular

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/model"
)

var ErrNoHeader = errors.New("no header row")

const utf8BOM = "\ufeff"

// CSV reads a comma-separated file. Rows may have any number of fields.
type CSV struct {
	Path string
	// Comma overrides the field delimiter; zero means ','.
	Comma rune
}

func (c CSV) Name() string { return "csv" }

func (c CSV) Stream(ctx context.Context, out chan<- model.Envelope) error {
	file, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("%w: open csv: %w", archive.ErrSourceUnavailable, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if c.Comma != 0 {
		reader.Comma = c.Comma
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: %w", c.Path, ErrNoHeader)
		}
		return fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	for idx := 1; ; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if err := archive.Emit(ctx, out, model.Envelope{Err: fmt.Errorf("csv row %d: %w", idx, err)}); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("read csv row %d: %w", idx, err)
		}

		row := model.Row{Sheet: "csv", Index: idx, Columns: header, Cells: record}
		if err := archive.Emit(ctx, out, model.Envelope{Row: &row}); err != nil {
			return err
		}
	}
}

// XLSX reads every sheet of an Office Open XML workbook.
type XLSX struct {
	Path string
}

func (x XLSX) Name() string { return "xlsx" }

func (x XLSX) Stream(ctx context.Context, out chan<- model.Envelope) error {
	book, err := excelize.OpenFile(x.Path)
	if err != nil {
		return fmt.Errorf("%w: open xlsx: %w", archive.ErrSourceUnavailable, err)
	}
	defer book.Close()

	var sheets []sheet
	for _, name := range book.GetSheetList() {
		rows, err := book.GetRows(name)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		s := sheet{name: name, header: rows[0]}
		for idx, cells := range rows[1:] {
			s.rows = append(s.rows, numbered{index: idx + 1, cells: cells})
		}
		sheets = append(sheets, s)
	}
	return emitSheets(ctx, out, x.Path, sheets)
}

// XLS reads every sheet of a legacy BIFF (Excel 97-2003) workbook.
type XLS struct {
	Path string
}

func (x XLS) Name() string { return "xls" }

func (x XLS) Stream(ctx context.Context, out chan<- model.Envelope) error {
	file, err := os.Open(x.Path)
	if err != nil {
		return fmt.Errorf("%w: open xls: %w", archive.ErrSourceUnavailable, err)
	}
	defer file.Close()

	sheets, err := readXLS(file)
	if err != nil {
		return fmt.Errorf("%w: open xls: %w", archive.ErrSourceUnavailable, err)
	}
	return emitSheets(ctx, out, x.Path, sheets)
}

// maxXLSColumns is the BIFF8 column limit.
const maxXLSColumns = 256

func readXLS(r io.ReadSeeker) (sheets []sheet, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			sheets, err = nil, fmt.Errorf("malformed workbook: %v", rec)
		}
	}()

	book, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errors.New("no Workbook stream")
	}

	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		var s *sheet
		for idx := 0; idx <= int(ws.MaxRow); idx++ {
			row := xlsRow(ws, idx)
			if row == nil {
				continue
			}
			cells := make([]string, 0, maxXLSColumns)
			for col := 0; col < maxXLSColumns; col++ {
				cells = append(cells, row.Col(col))
			}
			cells = trimTrailing(cells)
			if s == nil {
				s = &sheet{name: ws.Name, header: cells}
				continue
			}
			s.rows = append(s.rows, numbered{index: idx, cells: cells})
		}
		if s != nil {
			sheets = append(sheets, *s)
		}
	}
	return sheets, nil
}

// xlsRow returns nil for rows the sheet does not store; WorkSheet.Row
// panics on those.
func xlsRow(ws *xls.WorkSheet, idx int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(idx)
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

// sheet is one worksheet after reading: the header row and the data rows
// below it.
type sheet struct {
	name   string
	header []string
	rows   []numbered
}

// numbered is a data row with its 0-based row number in the sheet.
type numbered struct {
	index int
	cells []string
}

func emitSheets(ctx context.Context, out chan<- model.Envelope, path string, sheets []sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("%s: %w", path, ErrNoHeader)
	}
	for _, s := range sheets {
		for _, r := range s.rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := model.Row{Sheet: s.name, Index: r.index, Columns: s.header, Cells: r.cells}
			if err := archive.Emit(ctx, out, model.Envelope{Row: &row}); err != nil {
				return err
			}
		}
	}
	return nil
}
