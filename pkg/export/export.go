// Package export writes log entries back out as CSV or XLSX in the
// canonical column order.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "traces"

// ParseFormat validates an export format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use csv or xlsx)", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName returns a download name stamped with t.
func (f Format) FileName(t time.Time) string {
	return fmt.Sprintf("agent_logs_%s.%s", t.UTC().Format("20060102_150405"), f)
}

// Write writes entries in the given format.
func Write(w io.Writer, format Format, entries []parser.LogEntry) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, entries)
	default:
		return WriteCSV(w, entries)
	}
}

// Row renders an entry as strings in parser.Headers order. Missing
// numeric values are empty.
func Row(e parser.LogEntry) []string {
	return []string{
		e.ActionID,
		e.SessionID,
		e.Timestamp,
		e.ActionType,
		e.InputData,
		e.OutputData,
		e.ModelName,
		intText(e.PromptTokens),
		intText(e.CompletionTokens),
		intText(e.TotalTokens),
		floatText(e.CostUSD),
		floatText(e.DurationMS),
		e.Metadata,
	}
}

// WriteCSV writes a header row and one row per entry.
func WriteCSV(w io.Writer, entries []parser.LogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(parser.Headers); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range entries {
		if err := cw.Write(Row(entries[i])); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single worksheet with a bold header row. Numeric
// columns are stored as numbers.
func WriteXLSX(w io.Writer, entries []parser.LogEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("opening sheet: %w", err)
	}

	header := make([]any, len(parser.Headers))
	for i, h := range parser.Headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(entries[i])); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func cells(e parser.LogEntry) []any {
	return []any{
		e.ActionID,
		e.SessionID,
		e.Timestamp,
		e.ActionType,
		e.InputData,
		e.OutputData,
		e.ModelName,
		intCell(e.PromptTokens),
		intCell(e.CompletionTokens),
		intCell(e.TotalTokens),
		floatCell(e.CostUSD),
		floatCell(e.DurationMS),
		e.Metadata,
	}
}

func intText(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func floatText(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intCell(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
