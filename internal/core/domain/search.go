package domain

// DefaultTopK is the number of results returned when k is not positive.
const DefaultTopK = 5

// SearchResult represents a single retrieval hit.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity between the query and the chunk.
	Score float64
}

// NormaliseK returns DefaultTopK when k is not positive.
func NormaliseK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return k
}

// Texts extracts chunk texts in rank order.
func Texts(results []SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Chunk.Text)
	}
	return out
}
