// Package ingest turns an uploaded spreadsheet into normalized wager rows:
// file reading, column detection, and field normalization.
package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	serrors "wager-reconciliation-service/pkg/errors"
)

// Sheet is the raw tabular content of one uploaded file.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

// ReadFile loads a spreadsheet by extension: .csv via encoding/csv,
// .xlsx/.xlsm via excelize (first sheet only). The first non-empty line is
// treated as the header row.
func ReadFile(path string) (*Sheet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, serrors.FileError(serrors.CodeFileNotFound, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		return nil, serrors.FileError(serrors.CodeUnsupportedType, path, nil)
	}
}

func readCSV(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.FileError(serrors.CodeFileUnreadable, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, serrors.ParseError(serrors.CodeInvalidData, path, "malformed CSV", err)
	}

	return buildSheet(path, records)
}

func readXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, serrors.FileError(serrors.CodeFileUnreadable, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, serrors.ParseError(serrors.CodeEmptySheet, path, "workbook has no sheets", nil)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, serrors.ParseError(serrors.CodeInvalidData, path, "cannot read first sheet", err)
	}

	return buildSheet(path, records)
}

func buildSheet(path string, records [][]string) (*Sheet, error) {
	// Skip leading blank lines before the header.
	start := 0
	for start < len(records) && isBlankRecord(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil, serrors.ParseError(serrors.CodeEmptySheet, path, "no header row found", nil)
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for _, record := range records[start+1:] {
		if isBlankRecord(record) {
			continue
		}
		// Pad short records so every row indexes safely by column.
		row := make([]string, len(headers))
		for i := range headers {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return &Sheet{Headers: headers, Rows: rows}, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ColumnSamples returns up to limit non-empty sample values for the column
// at index col, feeding the detector's value-shape heuristics.
func (s *Sheet) ColumnSamples(col, limit int) []string {
	var samples []string
	for _, row := range s.Rows {
		if len(samples) >= limit {
			break
		}
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			samples = append(samples, strings.TrimSpace(row[col]))
		}
	}
	return samples
}
