// Package csv loads comma-separated files, one document per record.
package csv

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Encoding is one attempt at turning file bytes into text.
type Encoding struct {
	Name   string
	Decode func([]byte) (string, error)
}

var errInvalidText = errors.New("invalid byte sequence")

// UTF8 accepts only valid UTF-8, with an optional byte order mark.
var UTF8 = Encoding{
	Name: "utf-8",
	Decode: func(b []byte) (string, error) {
		b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(b) {
			return "", errInvalidText
		}
		return string(b), nil
	},
}

// Windows1252 decodes the Windows Latin-1 code page.
var Windows1252 = Encoding{
	Name: "windows-1252",
	Decode: func(b []byte) (string, error) {
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", errInvalidText
		}
		return string(out), nil
	},
}

// DefaultEncodings is the ordered fallback list.
func DefaultEncodings() []Encoding {
	return []Encoding{UTF8, Windows1252}
}

// Loader reads CSV files.
type Loader struct {
	header    bool
	encodings []Encoding
}

// Option configures the loader.
type Option func(*Loader)

// WithHeader treats the first record as column names and renders each
// following row as "column: value" lines.
func WithHeader(header bool) Option {
	return func(l *Loader) {
		l.header = header
	}
}

// WithEncodings replaces the ordered list of encodings to try.
func WithEncodings(encodings ...Encoding) Option {
	return func(l *Loader) {
		if len(encodings) > 0 {
			l.encodings = encodings
		}
	}
}

// New creates a CSV loader.
func New(opts ...Option) *Loader {
	l := &Loader{encodings: DefaultEncodings()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Format returns domain.FormatCSV.
func (l *Loader) Format() domain.Format {
	return domain.FormatCSV
}

// Load reads every record of the file at path.
func (l *Loader) Load(ctx context.Context, path, name string) ([]domain.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	records, encoding, err := l.decode(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("csv %s decoded as %s: %d records", name, encoding, len(records))

	return l.documents(ctx, records, name)
}

// decode tries each encoding in order and returns the parsed records of
// the first one that yields parseable text.
func (l *Loader) decode(data []byte) ([][]string, string, error) {
	attempts := make([]string, 0, len(l.encodings))
	for _, enc := range l.encodings {
		text, err := enc.Decode(data)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", enc.Name, err))
			continue
		}

		records, err := parse(text)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", enc.Name, err))
			continue
		}
		return records, enc.Name, nil
	}
	return nil, "", fmt.Errorf("%w: csv (%s)", domain.ErrDecode, strings.Join(attempts, "; "))
}

func parse(text string) ([][]string, error) {
	r := stdcsv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

func (l *Loader) documents(ctx context.Context, records [][]string, name string) ([]domain.RawDocument, error) {
	var columns []string
	if l.header && len(records) > 0 {
		columns, records = records[0], records[1:]
	}

	base := domain.NewRawDocument("", name, domain.FormatCSV)
	docs := make([]domain.RawDocument, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}

		var content string
		if columns != nil {
			content = withColumns(columns, rec)
		} else {
			row, err := encodeRow(rec)
			if err != nil {
				return nil, fmt.Errorf("%w: csv row %d: %v", domain.ErrDecode, i, err)
			}
			content = row
		}

		doc := base.With(domain.MetaRow, strconv.Itoa(i))
		doc.Content = content
		docs = append(docs, doc)
	}
	return docs, nil
}

// encodeRow renders a record back into its CSV line, quoting as needed.
func encodeRow(rec []string) (string, error) {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)
	if err := w.Write(rec); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\r\n"), nil
}

func withColumns(columns, rec []string) string {
	lines := make([]string, 0, len(rec))
	for i, v := range rec {
		col := strconv.Itoa(i)
		if i < len(columns) && strings.TrimSpace(columns[i]) != "" {
			col = strings.TrimSpace(columns[i])
		}
		lines = append(lines, col+": "+strings.TrimSpace(v))
	}
	return strings.Join(lines, "\n")
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
