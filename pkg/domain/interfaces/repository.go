package interfaces

import (
	"context"

	"github.com/papyrus-lab/alexandria/pkg/domain/model"
)

// ChunkRepository defines the vector store capability the pipeline consumes:
// upsert by ID and nearest-neighbour query. Any store offering these two
// operations is interchangeable.
type ChunkRepository interface {
	// Upsert inserts a chunk, overwriting any prior entry with the same ID
	Upsert(ctx context.Context, chunk *model.Chunk) error

	// Get retrieves a chunk by ID
	Get(ctx context.Context, id model.ChunkID) (*model.Chunk, error)

	// Search returns up to limit chunks ordered by ascending cosine
	// distance from the embedding, ties broken by lower chunk ID. Fewer
	// than limit results is not an error.
	Search(ctx context.Context, embedding []float32, limit int) ([]*model.ScoredChunk, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)

	// Meta returns the collection build metadata, or nil when the
	// collection has never been built
	Meta(ctx context.Context) (*model.CollectionMeta, error)

	// SetMeta records the collection build metadata
	SetMeta(ctx context.Context, meta *model.CollectionMeta) error

	// Clear removes all chunks and metadata for a full re-ingestion
	Clear(ctx context.Context) error
}

// Repository is the persistence root
type Repository interface {
	Chunk() ChunkRepository
	Close() error
}
