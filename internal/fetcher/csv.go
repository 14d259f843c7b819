// Package fetcher reads tabular source files (CSV in any supported charset, XLSX)
// into string rows.
package fetcher

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/transform"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune   // default ','
	Encoding   string // charset label; empty = UTF-8
	SkipRows   int    // physical records to drop before the first returned row
	Comment    rune   // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads every record of r, decoding from opts.Encoding to UTF-8.
// Records may have differing field counts.
func ReadCSV(r io.Reader, opts CSVOptions) ([][]string, error) {
	src, err := decodingReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(src)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows [][]string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read row %d", i+1)
		}

		if i < opts.SkipRows {
			continue
		}

		if opts.TrimSpace {
			for j, field := range record {
				record[j] = strings.TrimSpace(field)
			}
		}
		rows = append(rows, record)
	}

	return rows, nil
}

// decodingReader wraps r with a charset decoder and drops a UTF-8 byte order mark.
func decodingReader(r io.Reader, charset string) (io.Reader, error) {
	if IsUTF8(charset) {
		return skipBOM(r)
	}
	enc, err := LookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func skipBOM(r io.Reader) (io.Reader, error) {
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, eris.Wrap(err, "csv: read")
	}
	head = head[:n]
	if bytes.Equal(head, utf8BOM) {
		return r, nil
	}
	return io.MultiReader(bytes.NewReader(head), r), nil
}
