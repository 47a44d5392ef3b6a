package interfaces

import "context"

// CrossEncoder scores (query, candidate) pairs together rather than
// independently, trading one extra model call per query for better
// precision on the top candidates.
type CrossEncoder interface {
	// Score returns one relevance score per candidate, in candidate
	// order. Higher is more relevant.
	Score(ctx context.Context, query string, candidates []string) ([]float64, error)
}
