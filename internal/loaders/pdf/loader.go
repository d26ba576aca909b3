// Package pdf loads PDF files, one document per page with text.
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader extracts plain text page by page.
type Loader struct{}

// New creates a PDF loader.
func New() *Loader {
	return &Loader{}
}

// Format returns domain.FormatPDF.
func (l *Loader) Format() domain.Format {
	return domain.FormatPDF
}

// Load reads the PDF at path. Pages are numbered from 1; pages without
// extractable text are skipped.
func (l *Loader) Load(ctx context.Context, path, name string) ([]domain.RawDocument, error) {
	pages, err := readPages(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: pdf: %v", domain.ErrDecode, err)
	}

	base := domain.NewRawDocument("", name, domain.FormatPDF)
	var docs []domain.RawDocument
	for i, text := range pages {
		if text == "" {
			continue
		}
		doc := base.With(domain.MetaPage, strconv.Itoa(i+1))
		doc.Content = text
		docs = append(docs, doc)
	}
	return docs, nil
}

// readPages returns the text of every page. The parser panics on some
// malformed files, so panics are converted into errors.
func readPages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed document: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
