// Package retrieval ranks stored chunk vectors against a query vector with
// a linear cosine-similarity scan.
package retrieval

import (
	"math"
	"slices"
)

// Candidate is a stored vector and the identifier it is returned under.
type Candidate struct {
	ID     string
	Vector []float32
}

// Result is one ranked candidate. Index is the candidate's position in the
// input slice.
type Result struct {
	Index int
	ID    string
	Score float64
}

// Similarity returns the cosine similarity of a and b in [-1, 1]. Vectors
// with a zero norm, or of different lengths, score 0.
func Similarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return cosine(a, b, norm(a))
}

// TopK scores every candidate against query and returns the k best in
// descending score order. Equal scores keep their input order. A k larger
// than the candidate count returns every candidate; k <= 0 returns none.
func TopK(query []float32, candidates []Candidate, k int) []Result {
	if k <= 0 || len(candidates) == 0 {
		return []Result{}
	}

	queryNorm := norm(query)
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		score := 0.0
		if len(c.Vector) == len(query) {
			score = cosine(query, c.Vector, queryNorm)
		}
		results[i] = Result{Index: i, ID: c.ID, Score: score}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// FindSimilar ranks vectors by position; each Result's ID is empty and
// Index points into vectors.
func FindSimilar(query []float32, vectors [][]float32, k int) []Result {
	candidates := make([]Candidate, len(vectors))
	for i, v := range vectors {
		candidates[i] = Candidate{Vector: v}
	}
	return TopK(query, candidates, k)
}

func cosine(a, b []float32, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := norm(b)
	if normB == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	score := dot / (normA * normB)
	// Rounding can push identical vectors just past 1.
	return math.Max(-1, math.Min(1, score))
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
