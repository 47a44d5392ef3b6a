package retriever

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

// Retriever embeds query texts and looks up the nearest chunks
type Retriever struct {
	llmClient      gollem.LLMClient
	repo           interfaces.ChunkRepository
	embeddingModel string
}

// New creates a Retriever. embeddingModel must identify the same model that
// built the collection; the mismatch check happens per retrieval because
// the collection can be rebuilt between calls.
func New(llmClient gollem.LLMClient, repo interfaces.ChunkRepository, embeddingModel string) (*Retriever, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if repo == nil {
		return nil, goerr.New("chunk repository is required")
	}
	if embeddingModel == "" {
		return nil, goerr.New("embedding model name is required")
	}

	return &Retriever{
		llmClient:      llmClient,
		repo:           repo,
		embeddingModel: embeddingModel,
	}, nil
}

// Retrieve returns the k nearest chunks for each query text, merged into
// one result: union deduplicated by chunk ID, best distance kept, ordered
// by ascending distance with ties broken by lower chunk ID. Fewer than k
// results is not an error.
func (r *Retriever) Retrieve(ctx context.Context, texts []string, k int) (*model.RetrievalResult, error) {
	if len(texts) == 0 {
		return nil, goerr.Wrap(types.ErrRetrieval, "no query texts")
	}
	if k <= 0 {
		return nil, goerr.Wrap(types.ErrRetrieval, "k must be positive", goerr.V("k", k))
	}

	if err := r.checkModel(ctx); err != nil {
		return nil, err
	}

	vectors, err := r.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, texts)
	if err != nil {
		return nil, goerr.Wrap(types.ErrRetrieval, "failed to embed query",
			goerr.V("cause", err.Error()))
	}
	if len(vectors) != len(texts) {
		return nil, goerr.Wrap(types.ErrRetrieval, "query embedding count mismatch",
			goerr.V("want", len(texts)), goerr.V("got", len(vectors)))
	}

	results := make([]*model.RetrievalResult, 0, len(vectors))
	for _, v := range vectors {
		scored, err := r.repo.Search(ctx, toFloat32(v), k)
		if err != nil {
			return nil, goerr.Wrap(types.ErrRetrieval, "store query failed",
				goerr.V("cause", err.Error()))
		}
		results = append(results, &model.RetrievalResult{Chunks: scored})
	}

	return model.MergeRetrievalResults(results...), nil
}

// checkModel fails when the collection was built with a different embedding
// model. Querying across models would silently return garbage similarity
// scores.
func (r *Retriever) checkModel(ctx context.Context) error {
	meta, err := r.repo.Meta(ctx)
	if err != nil {
		return goerr.Wrap(types.ErrRetrieval, "failed to read collection meta",
			goerr.V("cause", err.Error()))
	}
	if meta == nil {
		return goerr.Wrap(types.ErrRetrieval, "collection has not been built")
	}
	if meta.EmbeddingModel != r.embeddingModel {
		return goerr.Wrap(types.ErrModelMismatch, "collection was built with a different embedding model",
			goerr.V(types.IndexModelKey, meta.EmbeddingModel),
			goerr.V(types.QueryModelKey, r.embeddingModel))
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	result := make([]float32, len(v))
	for i, f := range v {
		result[i] = float32(f)
	}
	return result
}
