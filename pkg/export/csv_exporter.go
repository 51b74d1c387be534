package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions tunes the CSV dialect.
type CSVOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// UseCRLF terminates records with \r\n.
	UseCRLF bool
	// ByteOrderMark prefixes the output with a UTF-8 BOM so spreadsheet
	// tools detect the encoding.
	ByteOrderMark bool
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct {
	opts CSVOptions
}

// NewCSVExporter builds a CSV exporter using the standard dialect.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// NewCSVExporterWithOptions builds a CSV exporter with a custom dialect.
func NewCSVExporterWithOptions(opts CSVOptions) (*CSVExporter, error) {
	if opts.Comma != 0 && (opts.Comma == '"' || opts.Comma == '\r' || opts.Comma == '\n' || !utf8.ValidRune(opts.Comma) || opts.Comma == utf8.RuneError) {
		return nil, fmt.Errorf("invalid csv delimiter %q", opts.Comma)
	}
	return &CSVExporter{opts: opts}, nil
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if e.opts.ByteOrderMark {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if e.opts.Comma != 0 {
		writer.Comma = e.opts.Comma
	}
	writer.UseCRLF = e.opts.UseCRLF

	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i := range data.Rows {
		if err := writer.Write(data.Record(i)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
