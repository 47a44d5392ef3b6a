package model

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Both Gemini text-embedding-004 and OpenAI text-embedding-3-small
// support 768 dimensions.
const EmbeddingDimension = 768

// ChunkID is a sequential, zero-based identifier assigned in document order.
// Lower IDs break retrieval-score ties so result order is deterministic.
type ChunkID int

// String returns the decimal representation used as the store document ID
func (id ChunkID) String() string {
	return strconv.Itoa(int(id))
}

// ParseChunkID parses a store document ID back into a ChunkID
func ParseChunkID(s string) (ChunkID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid chunk ID", goerr.V("raw", s))
	}
	return ChunkID(n), nil
}

// Chunk is a contiguous span of the source document, stored and retrieved
// as one addressable item. Chunks are created once during ingestion and
// immutable afterwards.
type Chunk struct {
	ID        ChunkID
	Text      string
	Section   string // coarse segment index the chunk was cut from
	Embedding []float32
}

// Validate checks the chunk invariants
func (c *Chunk) Validate() error {
	if c.ID < 0 {
		return goerr.New("chunk ID must not be negative", goerr.V("id", c.ID))
	}
	if c.Text == "" {
		return goerr.New("chunk text is empty", goerr.V("id", c.ID))
	}
	return nil
}

// CollectionMeta records how a collection was built. The retriever compares
// its own embedding model against this record before querying; a silent
// model mismatch would corrupt results without failing.
type CollectionMeta struct {
	EmbeddingModel string
	Dimension      int
	ChunkCount     int
}
