package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a loadable file format, derived from a file extension.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// AllFormats returns every supported format in a stable order.
func AllFormats() []Format {
	return []Format{FormatCSV, FormatXLS, FormatXLSX, FormatPDF, FormatDOCX}
}

// ParseFormat validates the extension of filename.
// The comparison is case-insensitive.
func ParseFormat(filename string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	f := Format(ext)
	if !f.IsValid() {
		if ext == "" {
			return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filename)
		}
		return "", fmt.Errorf("%w: .%s (allowed: %s)", ErrUnsupportedFormat, ext, AllowedExtensions())
	}
	return f, nil
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatXLS, FormatXLSX, FormatPDF, FormatDOCX:
		return true
	default:
		return false
	}
}

// IsSpreadsheet returns true for the Excel formats.
func (f Format) IsSpreadsheet() bool {
	return f == FormatXLS || f == FormatXLSX
}

// Extension returns the dotted extension, e.g. ".csv".
func (f Format) Extension() string {
	return "." + string(f)
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// AllowedExtensions renders the supported extensions for error messages.
func AllowedExtensions() string {
	exts := make([]string, 0, len(AllFormats()))
	for _, f := range AllFormats() {
		exts = append(exts, f.Extension())
	}
	return strings.Join(exts, ", ")
}
