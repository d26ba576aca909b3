// Package excel loads spreadsheets, one document per non-empty row of
// every sheet. XLSX files are read with excelize and legacy XLS (BIFF8)
// files with extrame/xls.
package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// sheet is the rows of one worksheet, in order.
type sheet struct {
	name string
	rows [][]string
}

// Loader reads one spreadsheet format.
type Loader struct {
	format domain.Format
	read   func(path string) ([]sheet, error)
}

// NewXLSX creates a loader for Office Open XML workbooks.
func NewXLSX() *Loader {
	return &Loader{format: domain.FormatXLSX, read: readXLSX}
}

// NewXLS creates a loader for legacy BIFF8 workbooks.
func NewXLS() *Loader {
	return &Loader{format: domain.FormatXLS, read: readXLS}
}

// Format returns the spreadsheet format handled.
func (l *Loader) Format() domain.Format {
	return l.format
}

// Load reads every sheet of the workbook at path.
func (l *Loader) Load(ctx context.Context, path, name string) ([]domain.RawDocument, error) {
	sheets, err := l.read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, l.format, err)
	}

	base := domain.NewRawDocument("", name, l.format)
	var docs []domain.RawDocument
	for _, s := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, row := range s.rows {
			content := joinRow(row)
			if content == "" {
				continue
			}
			doc := base.With(domain.MetaSheet, s.name).With(domain.MetaRow, strconv.Itoa(i))
			doc.Content = content
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// joinRow joins cells with commas, dropping trailing empty cells.
// A row with no non-empty cell yields "".
func joinRow(cells []string) string {
	last := -1
	for i, c := range cells {
		if strings.TrimSpace(c) != "" {
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	trimmed := make([]string, last+1)
	for i := 0; i <= last; i++ {
		trimmed[i] = strings.TrimSpace(cells[i])
	}
	return strings.Join(trimmed, ",")
}

func readXLSX(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	return sheets, nil
}

// readXLS reads a BIFF8 workbook. The parser panics on some malformed
// files, so panics are converted into errors.
func readXLS(path string) (sheets []sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("malformed workbook: %v", r)
		}
	}()

	wb, closer, err := xls.OpenWithCloser(path, "utf-8")
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, sheet{name: ws.Name, rows: rows})
	}
	return sheets, nil
}
