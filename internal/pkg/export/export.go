// Package export writes tabular data to spreadsheet files.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of the files XLSXSink produces.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrHeaderWritten is returned when WriteHeader is called twice or after rows.
var ErrHeaderWritten = errors.New("export: header already written")

// TabularSink receives a header and then rows with the same number of columns.
type TabularSink interface {
	WriteHeader(columns []string) error
	WriteRow(values []string) error
	// Close finishes the output. The sink is unusable afterwards.
	Close() error
	// Abort drops everything written so far without producing output.
	Abort() error
}

// XLSXSink streams rows into one worksheet with excelize's StreamWriter, so
// rows are flushed to temporary storage instead of building the sheet in
// memory. The workbook is written to w on Close.
type XLSXSink struct {
	w         io.Writer
	file      *excelize.File
	stream    *excelize.StreamWriter
	columns   int
	nextRow   int
	headerSet bool
	closed    bool
}

// NewXLSXSink creates a workbook with a single sheet named sheet.
func NewXLSXSink(w io.Writer, sheet string) (*XLSXSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	stream, err := f.NewStreamWriter(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: stream writer: %w", err)
	}

	return &XLSXSink{w: w, file: f, stream: stream, nextRow: 1}, nil
}

func (s *XLSXSink) WriteHeader(columns []string) error {
	if s.headerSet || s.nextRow > 1 {
		return ErrHeaderWritten
	}

	bold, err := s.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if len(columns) > 0 {
		if err := s.stream.SetColWidth(1, len(columns), 18); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
	}

	s.columns = len(columns)
	s.headerSet = true
	return s.setRow(toCells(columns), excelize.RowOpts{StyleID: bold})
}

// WriteRow appends one row. Short rows are padded with empty cells and long
// rows are rejected once a header fixed the column count.
func (s *XLSXSink) WriteRow(values []string) error {
	if s.headerSet && len(values) > s.columns {
		return fmt.Errorf("export: row %d has %d values, header has %d", s.nextRow, len(values), s.columns)
	}
	cells := toCells(values)
	for len(cells) < s.columns {
		cells = append(cells, "")
	}
	return s.setRow(cells)
}

func (s *XLSXSink) setRow(cells []interface{}, opts ...excelize.RowOpts) error {
	if s.closed {
		return errors.New("export: sink closed")
	}
	cell, err := excelize.CoordinatesToCellName(1, s.nextRow)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := s.stream.SetRow(cell, cells, opts...); err != nil {
		return fmt.Errorf("export: write row %d: %w", s.nextRow, err)
	}
	s.nextRow++
	return nil
}

// Rows reports how many data rows were written, excluding the header.
func (s *XLSXSink) Rows() int {
	n := s.nextRow - 1
	if s.headerSet {
		n--
	}
	return n
}

func (s *XLSXSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.file.Close()

	if err := s.stream.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	if err := s.file.Write(s.w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// Abort releases the workbook without writing it. Close after Abort is a no-op.
func (s *XLSXSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
