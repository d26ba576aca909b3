package loaders

import (
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/loaders/csv"
	"github.com/custodia-labs/sheetrag/internal/loaders/docx"
	"github.com/custodia-labs/sheetrag/internal/loaders/excel"
	"github.com/custodia-labs/sheetrag/internal/loaders/pdf"
)

// NewDefaultRegistry creates a registry with a loader for every supported format.
func NewDefaultRegistry(settings domain.LoaderSettings, opts ...Option) *Registry {
	r := NewRegistry(opts...)
	r.Register(csv.New(csv.WithHeader(settings.CSVHeader)))
	r.Register(excel.NewXLSX())
	r.Register(excel.NewXLS())
	r.Register(pdf.New())
	r.Register(docx.New(docx.WithMode(settings.DocxMode)))
	return r
}
