package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// ExportRow is a decoded export spreadsheet row.
type ExportRow struct {
	Line        int
	Description string
	HSCode      string
	Period      time.Time // First day of Year/Month
	Destination string
	Quantity    decimal.Decimal
	Unit        string
	FOBValue    decimal.Decimal
}

// ImportRow is a decoded import spreadsheet row.
type ImportRow struct {
	Line            int
	EntryNumber     string
	EntryStatus     string
	RegDate         time.Time
	Quantity        decimal.Decimal
	DischargePort   string
	OriginCode      string
	DestinationCode string
	HSCode          string
	Description     string
	Taxes           model.ImportTaxes
}

// Layouts accepted for REG_DATE text cells, most specific first.
var regDateLayouts = []string{
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// DecodeExport parses every export column into its semantic type.
func DecodeExport(row Row) (ExportRow, error) {
	out := ExportRow{
		Line:        row.Line,
		Description: row.Get(ColExportDescription),
		HSCode:      row.Get(ColExportHSCode),
		Destination: row.Get(ColExportDestination),
		Unit:        row.Get(ColExportUnit),
	}

	period, err := decodePeriod(row, ColExportYear, ColExportMonth)
	if err != nil {
		return out, err
	}
	out.Period = period

	if out.Quantity, err = decodeDecimal(row, ColExportQuantity); err != nil {
		return out, err
	}
	if out.FOBValue, err = decodeDecimal(row, ColExportFOBValue); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeImport parses every import column into its semantic type.
// An empty REG_DATE falls back to the first day of YEAR/MONTH.
func DecodeImport(row Row) (ImportRow, error) {
	out := ImportRow{
		Line:            row.Line,
		EntryNumber:     row.Get(ColImportEntryNumber),
		EntryStatus:     row.Get(ColImportEntryStatus),
		DischargePort:   row.Get(ColImportDischargePort),
		OriginCode:      row.Get(ColImportOrigin),
		DestinationCode: row.Get(ColImportDestination),
		HSCode:          row.Get(ColImportHSCode),
		Description:     row.Get(ColImportDescription),
	}

	var err error
	if raw := row.Get(ColImportRegDate); raw != "" {
		if out.RegDate, err = parseRegDate(raw); err != nil {
			return out, &DecodeError{Column: ColImportRegDate, Value: raw, Err: err}
		}
	} else if out.RegDate, err = decodePeriod(row, ColImportYear, ColImportMonth); err != nil {
		return out, err
	}

	if out.Quantity, err = decodeDecimal(row, ColImportQuantity); err != nil {
		return out, err
	}

	taxes := []struct {
		column string
		dst    *decimal.Decimal
	}{
		{ColImportVAT, &out.Taxes.ImportVAT},
		{ColImportDuty, &out.Taxes.ImportDuty},
		{ColImportExcise, &out.Taxes.ExciseDuty},
		{ColImportExportDuty, &out.Taxes.ExportDuty},
		{ColImportIDF, &out.Taxes.ImportDeclarationFee},
		{ColImportRDL, &out.Taxes.RailwayDevelopmentLevy},
	}
	for _, t := range taxes {
		if *t.dst, err = decodeDecimal(row, t.column); err != nil {
			return out, err
		}
	}
	return out, nil
}

// PeriodDate returns the first day of the given month in UTC.
func PeriodDate(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func decodePeriod(row Row, yearCol, monthCol string) (time.Time, error) {
	rawYear := row.Get(yearCol)
	year, err := parseWhole(rawYear)
	if err != nil || year < 1 || year > 9999 {
		if err == nil {
			err = errors.New("year out of range")
		}
		return time.Time{}, &DecodeError{Column: yearCol, Value: rawYear, Err: err}
	}

	rawMonth := row.Get(monthCol)
	month, err := parseMonth(rawMonth)
	if err != nil {
		return time.Time{}, &DecodeError{Column: monthCol, Value: rawMonth, Err: err}
	}
	return PeriodDate(year, month), nil
}

// decodeDecimal parses an amount. Empty cells are zero; thousands separators are ignored.
func decodeDecimal(row Row, column string) (decimal.Decimal, error) {
	raw := row.Get(column)
	cleaned := strings.ReplaceAll(strings.ReplaceAll(raw, ",", ""), " ", "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &DecodeError{Column: column, Value: raw, Err: errors.New("not a number")}
	}
	return d, nil
}

// parseWhole accepts "2023" as well as spreadsheet renderings like "2023.0".
func parseWhole(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("empty value")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, errors.New("not a whole number")
	}
	return int(d.IntPart()), nil
}

// parseMonth accepts 1-12 or an English month name or abbreviation.
func parseMonth(raw string) (int, error) {
	if n, err := parseWhole(raw); err == nil {
		if n < 1 || n > 12 {
			return 0, errors.New("month out of range")
		}
		return n, nil
	}
	for _, layout := range []string{"January", "Jan"} {
		if t, err := time.Parse(layout, titleCase(raw)); err == nil {
			return int(t.Month()), nil
		}
	}
	return 0, fmt.Errorf("unrecognized month")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Spreadsheet serial numbers accepted for REG_DATE: 1950-01-01 up to, not
// including, 2100-01-01. Bare numbers outside the range are not dates.
const (
	minRegDateSerial = 18264
	maxRegDateSerial = 73051
)

// parseRegDate accepts text dates and spreadsheet serial numbers, truncated to the day.
func parseRegDate(raw string) (time.Time, error) {
	for _, layout := range regDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return truncateDay(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial < minRegDateSerial || serial >= maxRegDateSerial {
			return time.Time{}, errors.New("serial date out of range")
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return truncateDay(t), nil
	}
	return time.Time{}, errors.New("unrecognized date")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
