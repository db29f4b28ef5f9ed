package sheetql

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/sheetql/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

// ParseReader reads an uploaded file into a table. The format and compression
// are taken from name, e.g. "sales.xlsx" or "sales.csv.gz". For XLSX only the
// first sheet is read. The first non-empty row is the header.
//
// All errors wrap ErrIngestion.
func ParseReader(r io.Reader, name string) (*model.Table, error) {
	ec := newErrorContext("ingest").withFile(name)

	fileType, compression := detectFileType(name)
	if fileType == FileTypeUnsupported {
		return nil, ec.wrap(ErrIngestion, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedFormat, name, strings.Join(SupportedExtensions(), ", ")))
	}

	p := &parser{
		fileType:    fileType,
		compression: compression,
		tableName:   model.TableFromFilePath(name),
	}
	table, err := p.parse(r)
	if err != nil {
		return nil, ec.wrap(ErrIngestion, err)
	}
	return table, nil
}

// ReadFile reads a spreadsheet from the local file system.
func ReadFile(path string) (*model.Table, error) {
	f, err := os.Open(path) //nolint:gosec // reading a user supplied path is the point
	if err != nil {
		return nil, newErrorContext("ingest").withFile(path).wrap(ErrIngestion, err)
	}
	defer f.Close()

	return ParseReader(bufio.NewReader(f), path)
}

// parser turns one uploaded stream into a table.
type parser struct {
	fileType    FileType
	compression model.CompressionType
	tableName   string
}

func (p *parser) parse(r io.Reader) (*model.Table, error) {
	decompressed, closeReader, err := decompress(r, p.compression)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeReader() }()

	var (
		header  model.Header
		records []model.Record
	)
	switch p.fileType {
	case FileTypeCSV:
		header, records, err = parseDelimited(decompressed, csvDelimiter)
	case FileTypeTSV:
		header, records, err = parseDelimited(decompressed, tsvDelimiter)
	case FileTypeLTSV:
		header, records, err = parseLTSV(decompressed)
	case FileTypeParquet:
		header, records, err = parseParquet(decompressed)
	case FileTypeXLSX:
		header, records, err = parseXLSX(decompressed)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if len(header) == 0 {
		return nil, fmt.Errorf("%w: no header row found in %s data", ErrEmptyData, p.fileType)
	}
	if err := validateColumnCount(len(header)); err != nil {
		return nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}

	for i := range header {
		header[i] = sanitizeValue(header[i])
	}
	for _, rec := range records {
		for j := range rec {
			rec[j] = sanitizeValue(rec[j])
		}
	}
	return model.NewTable(p.tableName, header, records), nil
}

// parseDelimited parses CSV or TSV. Rows may have any number of fields;
// the table pads or truncates them to the header width.
func parseDelimited(r io.Reader, delimiter rune) (model.Header, []model.Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read delimited data: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	records := make([]model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, model.NewRecord(row))
	}
	return model.NewHeader(rows[0]), records, nil
}

// parseLTSV parses label:value lines. Columns keep the order in which
// labels are first seen.
func parseLTSV(r io.Reader) (model.Header, []model.Record, error) {
	var (
		header  model.Header
		index   = make(map[string]int)
		entries []map[string]string
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxValueLength*4)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry := make(map[string]string)
		for _, field := range strings.Split(line, "\t") {
			label, value, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}
			if _, seen := index[label]; !seen {
				index[label] = len(header)
				header = append(header, label)
			}
			entry[label] = value
		}
		if len(entry) > 0 {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read LTSV: %w", err)
	}

	records := make([]model.Record, 0, len(entries))
	for _, entry := range entries {
		rec := make(model.Record, len(header))
		for label, value := range entry {
			rec[index[label]] = value
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// parseParquet reads the whole file into memory because Parquet needs random access.
func parseParquet(r io.Reader) (model.Header, []model.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, nil
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	header := make(model.Header, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	var records []model.Record
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := 0; i < int(batch.NumRows()); i++ {
			rec := make(model.Record, batch.NumCols())
			for j, col := range batch.Columns() {
				if col.IsNull(i) {
					continue
				}
				rec[j] = col.ValueStr(i)
			}
			records = append(records, rec)
		}
	}
	if err := tableReader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to read parquet records: %w", err)
	}
	return header, records, nil
}

// parseXLSX reads the first sheet. Rows without any cell value are skipped.
func parseXLSX(r io.Reader) (model.Header, []model.Record, error) {
	return readFirstSheet(r, false)
}

// readFirstSheet reads the first sheet of a workbook; its first row read is
// the header. With keepBlank, rows without values become empty records, gaps
// in the row numbering included. Otherwise they are skipped.
func readFirstSheet(r io.Reader, keepBlank bool) (model.Header, []model.Record, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer func() {
		_ = book.Close()
	}()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("no sheets found in XLSX file")
	}

	iter, err := book.Rows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	defer func() {
		_ = iter.Close()
	}()

	var (
		header     model.Header
		records    []model.Record
		headerRead bool
	)
	for iter.Next() {
		row, err := iter.Columns()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row in sheet %s: %w", sheets[0], err)
		}
		if len(row) == 0 && !keepBlank {
			continue
		}
		if !headerRead {
			header = model.NewHeader(row)
			headerRead = true
			continue
		}
		records = append(records, model.NewRecord(row))
	}
	if err := iter.Error(); err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return header, records, nil
}
