package sheetql

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
	"github.com/xuri/excelize/v2"
)

// exportSheet is the sheet name used for XLSX exports.
const exportSheet = "Sheet1"

// Export writes rs to w in the requested format and compression.
// Reading the output back with ReadExport yields the same columns and rows.
//
// LTSV keeps column names inside each line, so a result without rows, a
// duplicate or unusable label, or a value holding a tab or line break is
// refused with ErrLossyExport rather than written incompletely.
func Export(w io.Writer, rs *ResultSet, opts model.DumpOptions) (err error) {
	ec := newErrorContext("export").withDetails(opts.FileName(""))

	if rs == nil {
		return ec.wrap(ErrQuery, ErrNoResult)
	}
	if len(rs.Columns) == 0 {
		return ec.wrap(ErrQuery, fmt.Errorf("%w: result has no columns", ErrEmptyData))
	}

	cw, closeWriter, err := compress(w, opts.Compression)
	if err != nil {
		return ec.wrap(ErrQuery, err)
	}
	defer func() {
		if closeErr := closeWriter(); closeErr != nil && err == nil {
			err = ec.wrap(ErrQuery, closeErr)
		}
	}()

	switch opts.Format {
	case model.OutputFormatTSV:
		err = writeDelimited(cw, rs, tsvDelimiter)
	case model.OutputFormatLTSV:
		if err = checkLTSV(rs); err == nil {
			err = writeLTSV(cw, rs)
		}
	case model.OutputFormatXLSX:
		err = writeXLSX(cw, rs)
	default:
		err = writeDelimited(cw, rs, csvDelimiter)
	}
	if err != nil {
		return ec.wrap(ErrQuery, err)
	}
	return nil
}

// ReadExport parses data written by Export.
func ReadExport(r io.Reader, opts model.DumpOptions) (*ResultSet, error) {
	ec := newErrorContext("read export").withDetails(opts.FileName(""))

	dr, closeReader, err := decompress(r, opts.Compression)
	if err != nil {
		return nil, ec.wrap(ErrIngestion, err)
	}
	defer func() { _ = closeReader() }()

	var (
		header  model.Header
		records []model.Record
	)
	switch opts.Format {
	case model.OutputFormatTSV:
		header, records, err = parseDelimited(dr, tsvDelimiter)
	case model.OutputFormatLTSV:
		header, records, err = parseLTSV(dr)
	case model.OutputFormatXLSX:
		header, records, err = readFirstSheet(dr, true)
	default:
		header, records, err = parseDelimited(dr, csvDelimiter)
	}
	if err != nil {
		return nil, ec.wrap(ErrIngestion, err)
	}

	rs := &ResultSet{Columns: []string(header), Rows: make([]model.Record, 0, len(records))}
	if rs.Columns == nil {
		rs.Columns = []string{}
	}
	for _, rec := range records {
		rs.Rows = append(rs.Rows, rec.Fit(len(header)))
	}
	return rs, nil
}

// writeDelimited writes CSV or TSV. A record made of a single empty field is
// written as "" since encoding/csv skips blank lines when reading.
func writeDelimited(w io.Writer, rs *ResultSet, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	write := func(record []string) error {
		if len(record) != 1 || record[0] != "" {
			return writer.Write(record)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\"\"\n")
		return err
	}

	if err := write(rs.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rs.Rows {
		if err := write(row.Fit(len(rs.Columns))); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// checkLTSV reports why rs cannot be written as LTSV without loss.
func checkLTSV(rs *ResultSet) error {
	if len(rs.Rows) == 0 {
		return fmt.Errorf("%w: LTSV cannot carry columns without rows", ErrLossyExport)
	}

	seen := make(map[string]struct{}, len(rs.Columns))
	for _, col := range rs.Columns {
		if strings.ContainsAny(col, ":\t\r\n") {
			return fmt.Errorf("%w: column %q is not a valid LTSV label", ErrLossyExport, col)
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("%w: column %q appears more than once", ErrLossyExport, col)
		}
		seen[col] = struct{}{}
	}

	for i, row := range rs.Rows {
		for j, v := range row {
			if j < len(rs.Columns) && strings.ContainsAny(v, "\t\r\n") {
				return fmt.Errorf("%w: row %d column %q holds a tab or line break", ErrLossyExport, i+1, rs.Columns[j])
			}
		}
	}
	return nil
}

func writeLTSV(w io.Writer, rs *ResultSet) error {
	var sb strings.Builder
	for _, row := range rs.Rows {
		sb.Reset()
		for i, col := range rs.Columns {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(col)
			sb.WriteByte(':')
			if i < len(row) {
				sb.WriteString(row[i])
			}
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

func writeXLSX(w io.Writer, rs *ResultSet) error {
	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()

	sw, err := book.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	writeRow := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return sw.SetRow(cell, cells)
	}

	if err := writeRow(1, rs.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rs.Rows {
		if err := writeRow(i+2, row.Fit(len(rs.Columns))); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := book.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
