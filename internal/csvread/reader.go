// Package csvread recovers a surgical-case CSV export from raw bytes of
// unknown encoding and exposes it as a header plus ordered data rows.
package csvread

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Table is a decoded CSV file. Header holds the normalized, mapped column
// names after MapHeaders; Records holds the data rows in source order.
type Table struct {
	Header  []string
	Records [][]string
}

// codec pairs an encoding name with a factory. Decoders are stateful, so a
// fresh one is built per attempt.
type codec struct {
	name string
	enc  encoding.Encoding
}

// Tried in order; the chart system exports CP932, but files re-saved from
// Excel or edited by hand arrive as UTF-8 with or without a BOM.
var codecs = []codec{
	{"cp932", japanese.ShiftJIS},
	{"utf-8-sig", unicode.UTF8BOM},
	{"utf-8", unicode.UTF8},
}

// Read decodes raw bytes into a Table. The first encoding in the ladder
// that decodes without loss wins. Empty input and input no codec accepts
// are DecodeErrors; a header-only file is an EmptyInputError.
func Read(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errors.New("input is empty")}
	}

	text, err := decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // ragged trailing cells are tolerated, not fatal

	all, err := r.ReadAll()
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("parse csv: %w", err)}
	}
	if len(all) == 0 {
		return nil, &DecodeError{Err: errors.New("no header row")}
	}
	if len(all) == 1 {
		return nil, &EmptyInputError{}
	}

	return &Table{Header: all[0], Records: all[1:]}, nil
}

// decode runs the encoding ladder. x/text decoders substitute U+FFFD for
// invalid sequences rather than failing, so a replacement rune in the
// output marks the attempt as lossy and moves on to the next codec.
func decode(data []byte) (string, error) {
	var lastErr error
	for _, c := range codecs {
		out, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", c.name, err)
			continue
		}
		s := string(out)
		if strings.ContainsRune(s, '�') {
			lastErr = fmt.Errorf("%s: invalid byte sequence", c.name)
			continue
		}
		return s, nil
	}
	return "", fmt.Errorf("no supported encoding matched: %w", lastErr)
}

// Rows materializes the data rows as maps from mapped column name to raw
// cell. Cells beyond the header width are dropped; short rows leave their
// missing cells empty. Call after MapHeaders.
func (t *Table) Rows() []map[string]string {
	rows := make([]map[string]string, len(t.Records))
	for i, rec := range t.Records {
		row := make(map[string]string, len(t.Header))
		for j, name := range t.Header {
			if j < len(rec) {
				row[name] = rec[j]
			} else {
				row[name] = ""
			}
		}
		rows[i] = row
	}
	return rows
}
