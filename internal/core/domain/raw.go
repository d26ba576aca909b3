package domain

// Metadata keys set by the format loaders.
const (
	MetaSource    = "source"
	MetaFormat    = "format"
	MetaRow       = "row"
	MetaSheet     = "sheet"
	MetaPage      = "page"
	MetaParagraph = "paragraph"
	MetaTitle     = "title"
)

// RawDocument is one unit of text extracted by a format loader:
// a CSV row, a spreadsheet row, a PDF page, or a Word body or paragraph.
// It is consumed by the chunker and never persisted on its own.
type RawDocument struct {
	// Content is the extracted text.
	Content string

	// Metadata records where the text came from (file name, row, sheet, page).
	Metadata map[string]string
}

// NewRawDocument creates a RawDocument with source and format metadata set.
func NewRawDocument(content, source string, format Format) RawDocument {
	return RawDocument{
		Content: content,
		Metadata: map[string]string{
			MetaSource: source,
			MetaFormat: format.String(),
		},
	}
}

// With returns a copy of d with key set in its metadata.
func (d RawDocument) With(key, value string) RawDocument {
	md := CloneMetadata(d.Metadata)
	md[key] = value
	d.Metadata = md
	return d
}

// CloneMetadata returns a shallow copy of md. A nil map yields an empty map.
func CloneMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md)+2)
	for k, v := range md {
		out[k] = v
	}
	return out
}
