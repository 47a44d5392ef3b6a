package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
)

type chunkRepository struct {
	mu     sync.RWMutex
	chunks map[model.ChunkID]*model.Chunk
	meta   *model.CollectionMeta
}

func newChunkRepository() *chunkRepository {
	return &chunkRepository{
		chunks: make(map[model.ChunkID]*model.Chunk),
	}
}

// copyChunk creates a deep copy of a chunk
func copyChunk(c *model.Chunk) *model.Chunk {
	copied := &model.Chunk{
		ID:      c.ID,
		Text:    c.Text,
		Section: c.Section,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return copied
}

func (r *chunkRepository) Upsert(ctx context.Context, chunk *model.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return goerr.Wrap(err, "invalid chunk")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.chunks[chunk.ID] = copyChunk(chunk)
	return nil
}

func (r *chunkRepository) Get(ctx context.Context, id model.ChunkID) (*model.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chunk, exists := r.chunks[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("id", id))
	}

	return copyChunk(chunk), nil
}

// cosineDistance is 1 - cosine similarity, matching the distance measure of
// the Firestore backend. Zero vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func (r *chunkRepository) Search(ctx context.Context, embedding []float32, limit int) ([]*model.ScoredChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*model.ScoredChunk, 0, len(r.chunks))
	for _, c := range r.chunks {
		results = append(results, &model.ScoredChunk{
			Chunk:    copyChunk(c),
			Distance: cosineDistance(embedding, c.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (r *chunkRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks), nil
}

func (r *chunkRepository) Meta(ctx context.Context) (*model.CollectionMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.meta == nil {
		return nil, nil
	}
	copied := *r.meta
	return &copied, nil
}

func (r *chunkRepository) SetMeta(ctx context.Context, meta *model.CollectionMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *meta
	r.meta = &copied
	return nil
}

func (r *chunkRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chunks = make(map[model.ChunkID]*model.Chunk)
	r.meta = nil
	return nil
}
