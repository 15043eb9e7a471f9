package vector

import "math"

// CosineSimilarity computes the cosine of the angle between two vectors.
// A zero-norm vector is defined to have similarity 0, which guards the
// divide-by-zero without special-casing callers. Mismatched lengths also
// score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
