package indexer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/repository/memory"
	"github.com/papyrus-lab/alexandria/pkg/service/indexer"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	mu                  sync.Mutex
	batches             [][]string
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.mu.Lock()
	c.batches = append(c.batches, input)
	c.mu.Unlock()

	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	out := make([][]float64, len(input))
	for i, text := range input {
		out[i] = []float64{float64(len(text)), 1}
	}
	return out, nil
}

func testChunks(n int) []*model.Chunk {
	texts := []string{
		"Profit rose 5% compared to the previous year.",
		"Revenue reached 2.1 billion dollars in fiscal 2025.",
		"The company employs 4,200 people worldwide.",
		"Operating costs remained flat year over year.",
		"The board proposed a dividend of 1.20 per share.",
	}
	chunks := make([]*model.Chunk, n)
	for i := 0; i < n; i++ {
		chunks[i] = &model.Chunk{
			ID:   model.ChunkID(i),
			Text: texts[i%len(texts)],
		}
	}
	return chunks
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()
	client := &mockLLMClient{}

	x, err := indexer.New(client, repo.Chunk(), "embed-test")
	gt.NoError(t, err).Required()

	chunks := testChunks(3)
	gt.NoError(t, x.Build(ctx, chunks))

	count, err := repo.Chunk().Count(ctx)
	gt.NoError(t, err)
	gt.Value(t, count).Equal(3)

	// Every stored chunk carries the embedding of its own text
	for _, c := range chunks {
		stored, err := repo.Chunk().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.A(t, stored.Embedding).Length(2)
		gt.Value(t, stored.Embedding[0]).Equal(float32(len(c.Text)))
	}

	meta, err := repo.Chunk().Meta(ctx)
	gt.NoError(t, err)
	gt.Value(t, meta).NotNil()
	gt.Value(t, meta.EmbeddingModel).Equal("embed-test")
	gt.Value(t, meta.Dimension).Equal(model.EmbeddingDimension)
	gt.Value(t, meta.ChunkCount).Equal(3)
}

func TestBuildBatches(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()
	client := &mockLLMClient{}

	x, err := indexer.New(client, repo.Chunk(), "embed-test",
		indexer.WithBatchSize(2), indexer.WithConcurrency(1))
	gt.NoError(t, err).Required()

	gt.NoError(t, x.Build(ctx, testChunks(5)))

	// 5 texts in batches of 2 make 3 requests
	gt.A(t, client.batches).Length(3)
	for _, batch := range client.batches {
		gt.Number(t, len(batch)).LessOrEqual(2)
	}
}

func TestBuildIdempotentRerun(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()
	client := &mockLLMClient{}

	x, err := indexer.New(client, repo.Chunk(), "embed-test")
	gt.NoError(t, err).Required()

	gt.NoError(t, x.Build(ctx, testChunks(3)))
	gt.NoError(t, x.Build(ctx, testChunks(3)))

	count, err := repo.Chunk().Count(ctx)
	gt.NoError(t, err)
	gt.Value(t, count).Equal(3)
}

func TestBuildEmptyInput(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	x, err := indexer.New(&mockLLMClient{}, repo.Chunk(), "embed-test")
	gt.NoError(t, err).Required()

	err = x.Build(ctx, nil)
	gt.Bool(t, errors.Is(err, types.ErrEmptySource)).True()
}

func TestBuildEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()
	client := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return nil, goerr.New("embedding backend unavailable")
		},
	}

	x, err := indexer.New(client, repo.Chunk(), "embed-test")
	gt.NoError(t, err).Required()

	err = x.Build(ctx, testChunks(3))
	gt.Bool(t, errors.Is(err, types.ErrIndexBuild)).True()

	count, err := repo.Chunk().Count(ctx)
	gt.NoError(t, err)
	gt.Value(t, count).Equal(0)
}

// failingChunkRepository fails Upsert for one chunk ID
type failingChunkRepository struct {
	interfaces.ChunkRepository
	failID model.ChunkID
}

func (r *failingChunkRepository) Upsert(ctx context.Context, chunk *model.Chunk) error {
	if chunk.ID == r.failID {
		return goerr.New("store write failed", goerr.V("id", chunk.ID))
	}
	return r.ChunkRepository.Upsert(ctx, chunk)
}

func TestBuildPartialFailureKeepsInserted(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()
	failing := &failingChunkRepository{ChunkRepository: repo.Chunk(), failID: 2}

	x, err := indexer.New(&mockLLMClient{}, failing, "embed-test")
	gt.NoError(t, err).Required()

	err = x.Build(ctx, testChunks(4))
	gt.Bool(t, errors.Is(err, types.ErrIndexBuild)).True()

	// Chunks before the failing one are already in the store, so the caller
	// can resume from the failure point
	count, err := repo.Chunk().Count(ctx)
	gt.NoError(t, err)
	gt.Value(t, count).Equal(2)
}
