package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data row of a spreadsheet, addressable by header name.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the trimmed cell under column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.values[column])
}

// NewRow builds a row from column values. Used by callers that already hold decoded records.
func NewRow(line int, values map[string]string) Row {
	return Row{Line: line, values: values}
}

// Sheet is a parsed tabular upload. The first non-empty row is the header.
type Sheet struct {
	Header []string
	Rows   []Row
}

// MissingColumns returns the required columns that are missing from the header.
func (s *Sheet) MissingColumns(required []string) []string {
	present := make(map[string]struct{}, len(s.Header))
	for _, h := range s.Header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// ReadSheet parses an uploaded file. CSV files are detected by extension;
// everything else is opened as an Office Open XML workbook and its first
// sheet is read.
func ReadSheet(fileName string, r io.Reader) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		records, err = readCSV(r)
	default:
		records, err = readWorkbook(r)
	}
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}
	return buildSheet(records), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	// Raw values keep dates as serial numbers and amounts without display formatting.
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func buildSheet(records [][]string) *Sheet {
	sheet := &Sheet{}
	headerFound := false
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		if !headerFound {
			sheet.Header = make([]string, len(record))
			for j, h := range record {
				sheet.Header[j] = strings.TrimSpace(h)
			}
			headerFound = true
			continue
		}
		values := make(map[string]string, len(sheet.Header))
		for j, col := range sheet.Header {
			if col == "" || j >= len(record) {
				continue
			}
			values[col] = record[j]
		}
		sheet.Rows = append(sheet.Rows, Row{Line: i + 1, values: values})
	}
	return sheet
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
