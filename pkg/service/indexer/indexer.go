package indexer

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 32
	defaultConcurrency = 4
)

// Indexer embeds chunks and upserts them into the chunk repository
type Indexer struct {
	llmClient      gollem.LLMClient
	repo           interfaces.ChunkRepository
	embeddingModel string
	batchSize      int
	concurrency    int
}

// Option is a functional option for Indexer configuration
type Option func(*Indexer)

// WithBatchSize sets the number of texts per embedding request
func WithBatchSize(n int) Option {
	return func(x *Indexer) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of in-flight embedding requests.
// Parallelism only affects latency; output order follows input order.
func WithConcurrency(n int) Option {
	return func(x *Indexer) {
		if n > 0 {
			x.concurrency = n
		}
	}
}

// New creates an Indexer. embeddingModel is recorded in the collection
// metadata so the retriever can detect a query-time model mismatch.
func New(llmClient gollem.LLMClient, repo interfaces.ChunkRepository, embeddingModel string, opts ...Option) (*Indexer, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if repo == nil {
		return nil, goerr.New("chunk repository is required")
	}
	if embeddingModel == "" {
		return nil, goerr.New("embedding model name is required")
	}

	x := &Indexer{
		llmClient:      llmClient,
		repo:           repo,
		embeddingModel: embeddingModel,
		batchSize:      defaultBatchSize,
		concurrency:    defaultConcurrency,
	}

	for _, opt := range opts {
		opt(x)
	}

	return x, nil
}

// Build embeds every chunk and upserts it into the repository, then records
// the collection metadata. Upserts keyed by chunk ID make re-runs
// idempotent. On partial failure the wrapped error carries the number of
// chunks already inserted; the caller resumes by re-running Build with
// chunks[inserted:].
func (x *Indexer) Build(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return goerr.Wrap(types.ErrEmptySource, "no chunks to index")
	}

	embeddings, err := x.embedAll(ctx, chunks)
	if err != nil {
		return goerr.Wrap(types.ErrIndexBuild, "embedding failed",
			goerr.V(types.InsertedKey, 0), goerr.V("cause", err.Error()))
	}

	inserted := 0
	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
		if err := x.repo.Upsert(ctx, chunk); err != nil {
			return goerr.Wrap(types.ErrIndexBuild, "upsert failed",
				goerr.V(types.InsertedKey, inserted),
				goerr.V(types.ChunkIDKey, chunk.ID),
				goerr.V("cause", err.Error()))
		}
		inserted++
	}

	count, err := x.repo.Count(ctx)
	if err != nil {
		return goerr.Wrap(types.ErrIndexBuild, "failed to count chunks",
			goerr.V(types.InsertedKey, inserted), goerr.V("cause", err.Error()))
	}

	meta := &model.CollectionMeta{
		EmbeddingModel: x.embeddingModel,
		Dimension:      model.EmbeddingDimension,
		ChunkCount:     count,
	}
	if err := x.repo.SetMeta(ctx, meta); err != nil {
		return goerr.Wrap(types.ErrIndexBuild, "failed to record collection meta",
			goerr.V(types.InsertedKey, inserted), goerr.V("cause", err.Error()))
	}

	logging.From(ctx).Info("index built",
		"chunks", count,
		"embedding_model", x.embeddingModel,
	)

	return nil
}

// embedAll embeds chunk texts in batches. Batches run concurrently but each
// writes into its own slot, so the returned slice follows chunk order.
func (x *Indexer) embedAll(ctx context.Context, chunks []*model.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	out := make([][]float32, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.concurrency)

	for start := 0; start < len(texts); start += x.batchSize {
		end := min(start+x.batchSize, len(texts))
		eg.Go(func() error {
			vectors, err := x.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, texts[start:end])
			if err != nil {
				return goerr.Wrap(err, "failed to generate embeddings",
					goerr.V("batch_start", start))
			}
			if len(vectors) != end-start {
				return goerr.New("embedding count mismatch",
					goerr.V("want", end-start), goerr.V("got", len(vectors)))
			}
			for i, v := range vectors {
				out[start+i] = toFloat32(v)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func toFloat32(v []float64) []float32 {
	result := make([]float32, len(v))
	for i, f := range v {
		result[i] = float32(f)
	}
	return result
}
