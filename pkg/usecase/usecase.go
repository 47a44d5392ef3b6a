package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
	"github.com/papyrus-lab/alexandria/pkg/service/answerer"
	"github.com/papyrus-lab/alexandria/pkg/service/chunker"
	"github.com/papyrus-lab/alexandria/pkg/service/expander"
	"github.com/papyrus-lab/alexandria/pkg/service/indexer"
	"github.com/papyrus-lab/alexandria/pkg/service/reranker"
	"github.com/papyrus-lab/alexandria/pkg/service/retriever"
)

// Retrieval parameters of the three pipeline modes. Held constant so that
// evaluation runs compare strategies, not parameter drift.
const (
	basicTopK      = 5
	expansionTopK  = 5
	multiQueryTopK = 10
	relatedCount   = 5
	rerankTopN     = 5
)

// UseCases wires the pipeline services around one repository and one LLM
// client. All configuration is explicit; nothing is process-global.
type UseCases struct {
	repo         interfaces.Repository
	llmClient    gollem.LLMClient
	chunkOpts    chunker.Options
	crossEncoder interfaces.CrossEncoder

	indexer   *indexer.Indexer
	retriever *retriever.Retriever
	expander  *expander.Expander
	answerer  *answerer.Answerer
}

// Option is a functional option for UseCases configuration
type Option func(*UseCases)

// WithChunkOptions overrides the default split parameters
func WithChunkOptions(opts chunker.Options) Option {
	return func(uc *UseCases) {
		uc.chunkOpts = opts
	}
}

// WithCrossEncoder replaces the LLM cross-encoder, mainly for tests
func WithCrossEncoder(ce interfaces.CrossEncoder) Option {
	return func(uc *UseCases) {
		uc.crossEncoder = ce
	}
}

// New creates the use case layer. embeddingModel identifies the embedding
// model for both indexing and querying; the retriever refuses to query a
// collection built with a different one.
func New(repo interfaces.Repository, llmClient gollem.LLMClient, embeddingModel string, opts ...Option) (*UseCases, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	uc := &UseCases{
		repo:      repo,
		llmClient: llmClient,
		chunkOpts: chunker.DefaultOptions(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	var err error
	if uc.indexer, err = indexer.New(llmClient, repo.Chunk(), embeddingModel); err != nil {
		return nil, err
	}
	if uc.retriever, err = retriever.New(llmClient, repo.Chunk(), embeddingModel); err != nil {
		return nil, err
	}
	if uc.expander, err = expander.New(llmClient); err != nil {
		return nil, err
	}
	if uc.answerer, err = answerer.New(llmClient); err != nil {
		return nil, err
	}
	if uc.crossEncoder == nil {
		if uc.crossEncoder, err = reranker.NewCrossEncoder(llmClient); err != nil {
			return nil, err
		}
	}

	return uc, nil
}
