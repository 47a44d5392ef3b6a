package model

import "sort"

// ScoredChunk is one retrieval candidate with its cosine distance from the
// query. Lower distance means higher relevance.
type ScoredChunk struct {
	Chunk    *Chunk
	Distance float64
}

// RetrievalResult is the ordered candidate list for one question, possibly
// merged from several expanded queries. It exists only for the duration of
// one question-answering call.
type RetrievalResult struct {
	Chunks []*ScoredChunk
}

// ChunkIDs returns the candidate IDs in result order
func (r *RetrievalResult) ChunkIDs() []ChunkID {
	ids := make([]ChunkID, len(r.Chunks))
	for i, sc := range r.Chunks {
		ids[i] = sc.Chunk.ID
	}
	return ids
}

// Texts returns the candidate texts in result order
func (r *RetrievalResult) Texts() []string {
	texts := make([]string, len(r.Chunks))
	for i, sc := range r.Chunks {
		texts[i] = sc.Chunk.Text
	}
	return texts
}

// Truncate drops all but the first n candidates. n larger than the result
// is a no-op.
func (r *RetrievalResult) Truncate(n int) {
	if n < len(r.Chunks) {
		r.Chunks = r.Chunks[:n]
	}
}

// MergeRetrievalResults unions candidate lists from multiple queries,
// deduplicated by chunk ID. When a chunk appears under more than one query
// the best (lowest) distance wins. The merged list is ordered by ascending
// distance, ties broken by lower chunk ID.
func MergeRetrievalResults(results ...*RetrievalResult) *RetrievalResult {
	best := make(map[ChunkID]*ScoredChunk)
	for _, r := range results {
		for _, sc := range r.Chunks {
			prev, ok := best[sc.Chunk.ID]
			if !ok || sc.Distance < prev.Distance {
				best[sc.Chunk.ID] = sc
			}
		}
	}

	merged := make([]*ScoredChunk, 0, len(best))
	for _, sc := range best {
		merged = append(merged, sc)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Distance != merged[j].Distance {
			return merged[i].Distance < merged[j].Distance
		}
		return merged[i].Chunk.ID < merged[j].Chunk.ID
	})

	return &RetrievalResult{Chunks: merged}
}
