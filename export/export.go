// Package export writes a deduplicated contact list as CSV or XLSX.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dhcgn/contact-cleaner/dedupe"
	"github.com/dhcgn/contact-cleaner/model"
)

const (
	ContactsSheet = "Contacts"
	SummarySheet  = "Summary"
)

var ErrFormat = errors.New("output must end in .csv or .xlsx")

// Write stores res at path in the format named by the extension.
func Write(path string, res dedupe.Result) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSVFile(path, res)
	case ".xlsx":
		return WriteXLSX(path, res)
	default:
		return fmt.Errorf("%s: %w", path, ErrFormat)
	}
}

func writeCSVFile(path string, res dedupe.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(file, res); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// WriteCSV writes the header row followed by one row per contact.
func WriteCSV(w io.Writer, res dedupe.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(model.Columns()); err != nil {
		return err
	}
	for _, c := range res.Contacts {
		if err := writer.Write(c.Values()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the contacts to the Contacts sheet and the counts to the
// Summary sheet.
func WriteXLSX(path string, res dedupe.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ContactsSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := setRow(f, ContactsSheet, 1, model.Columns()); err != nil {
		return err
	}
	for i, c := range res.Contacts {
		if err := setRow(f, ContactsSheet, i+2, c.Values()); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	summary := [][]any{
		{"Metric", "Value"},
		{"Total Contacts", res.Total},
		{"Unique Contacts", res.Unique},
		{"Duplicates Removed", res.DuplicatesRemoved},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx summary: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d: %w", rowNum, err)
	}
	return nil
}
