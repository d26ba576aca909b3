// Package domain defines the core business entities for sheetrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Format: A validated, loadable file format
//   - RawDocument: One unit of extracted text (a row, a page, a body)
//   - Chunk: A bounded slice of a RawDocument, tagged with its upload
//   - IndexedVector: A chunk plus its embedding, as held by a vector store
//   - Turn: One message of a conversation session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
