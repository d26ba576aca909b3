package domain

import (
	"fmt"
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector dimensions differ (%d vs %d)", ErrStore, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// RankBySimilarity scores candidates against query and returns the k best,
// highest score first. Equal scores keep ascending Seq order.
func RankBySimilarity(candidates []IndexedVector, query []float32, k int) ([]SearchResult, error) {
	k = NormaliseK(k)

	type scored struct {
		result SearchResult
		seq    int64
	}
	all := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, err
		}
		all = append(all, scored{result: SearchResult{Chunk: c.Chunk, Score: score}, seq: c.Seq})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].result.Score != all[j].result.Score {
			return all[i].result.Score > all[j].result.Score
		}
		return all[i].seq < all[j].seq
	})

	if len(all) > k {
		all = all[:k]
	}
	out := make([]SearchResult, len(all))
	for i, s := range all {
		out[i] = s.result
	}
	return out, nil
}
