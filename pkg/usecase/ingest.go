package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/service/chunker"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
)

// IngestResult reports what one ingestion run produced
type IngestResult struct {
	Chunks int
}

// Ingest chunks the source text and builds the vector collection. Re-running
// with the same text overwrites prior entries because chunk IDs are derived
// from document order. On partial failure the returned error carries the
// inserted count; re-running Ingest resumes safely since completed upserts
// are idempotent.
func (uc *UseCases) Ingest(ctx context.Context, sourceText string) (*IngestResult, error) {
	chunks, err := chunker.Split(sourceText, uc.chunkOpts)
	if err != nil {
		return nil, goerr.Wrap(err, "chunking failed")
	}

	logging.From(ctx).Info("source chunked",
		"chunks", len(chunks),
		"coarse_size", uc.chunkOpts.CoarseSize,
		"fine_size", uc.chunkOpts.FineSize,
		"overlap", uc.chunkOpts.Overlap,
	)

	if err := uc.indexer.Build(ctx, chunks); err != nil {
		return nil, err
	}

	return &IngestResult{Chunks: len(chunks)}, nil
}
