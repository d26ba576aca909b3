// Package docx loads Word documents from word/document.xml, either as one
// body document or as one document per paragraph.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader extracts paragraph and table text from DOCX files.
type Loader struct {
	mode domain.DocxMode
}

// Option configures the loader.
type Option func(*Loader)

// WithMode selects body or paragraph granularity. Unknown modes are ignored.
func WithMode(mode domain.DocxMode) Option {
	return func(l *Loader) {
		if mode.IsValid() {
			l.mode = mode
		}
	}
}

// New creates a DOCX loader. The default mode is body.
func New(opts ...Option) *Loader {
	l := &Loader{mode: domain.DocxModeBody}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Format returns domain.FormatDOCX.
func (l *Loader) Format() domain.Format {
	return domain.FormatDOCX
}

// Load reads the document at path.
func (l *Loader) Load(_ context.Context, path, name string) ([]domain.RawDocument, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", domain.ErrDecode, err)
	}
	defer reader.Close()

	paragraphs, err := extractParagraphs(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", domain.ErrDecode, err)
	}

	base := domain.NewRawDocument("", name, domain.FormatDOCX).
		With(domain.MetaTitle, extractTitle(&reader.Reader, name))

	if l.mode == domain.DocxModeParagraph {
		var docs []domain.RawDocument
		for i, p := range paragraphs {
			if strings.TrimSpace(p) == "" {
				continue
			}
			doc := base.With(domain.MetaParagraph, strconv.Itoa(i))
			doc.Content = p
			docs = append(docs, doc)
		}
		return docs, nil
	}

	body := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if body == "" {
		return nil, nil
	}
	base.Content = body
	return []domain.RawDocument{base}, nil
}

// extractParagraphs returns the text of every paragraph in document order,
// including paragraphs nested in table cells. A table cell's paragraphs
// follow each other row by row, as they appear in the XML.
func extractParagraphs(reader *zip.Reader) ([]string, error) {
	content, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("missing word/document.xml")
	}

	var (
		paragraphs []string
		current    strings.Builder
		depth      int // open w:p elements; text boxes nest them
		inText     bool
	)
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
			case "t":
				inText = depth > 0
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// readPart returns the bytes of the named archive entry, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle extracts the title from docProps/core.xml or falls back to filename.
func extractTitle(reader *zip.Reader, name string) string {
	if content, err := readPart(reader, "docProps/core.xml"); err == nil && content != nil {
		var core coreXML
		if err := xml.Unmarshal(content, &core); err == nil && strings.TrimSpace(core.Title) != "" {
			return strings.TrimSpace(core.Title)
		}
	}

	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
