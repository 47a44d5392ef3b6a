package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/repository/memory"
)

func TestChunkUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	chunk := &model.Chunk{
		ID:        0,
		Text:      "first chunk",
		Section:   "segment-0",
		Embedding: []float32{1, 0, 0},
	}
	gt.NoError(t, repo.Chunk().Upsert(ctx, chunk))

	got, err := repo.Chunk().Get(ctx, 0)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Text).Equal("first chunk")
	gt.Value(t, got.Section).Equal("segment-0")

	// Get returns a copy, not the stored chunk
	got.Text = "mutated"
	again, err := repo.Chunk().Get(ctx, 0)
	gt.NoError(t, err).Required()
	gt.Value(t, again.Text).Equal("first chunk")
}

func TestChunkUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	gt.NoError(t, repo.Chunk().Upsert(ctx, &model.Chunk{ID: 1, Text: "v1"}))
	gt.NoError(t, repo.Chunk().Upsert(ctx, &model.Chunk{ID: 1, Text: "v2"}))

	got, err := repo.Chunk().Get(ctx, 1)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Text).Equal("v2")

	count, err := repo.Chunk().Count(ctx)
	gt.NoError(t, err)
	gt.Value(t, count).Equal(1)
}

func TestChunkUpsertInvalid(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	gt.Error(t, repo.Chunk().Upsert(ctx, &model.Chunk{ID: -1, Text: "negative"}))
	gt.Error(t, repo.Chunk().Upsert(ctx, &model.Chunk{ID: 0, Text: ""}))
}

func TestChunkGetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	_, err := repo.Chunk().Get(ctx, 42)
	gt.Bool(t, errors.Is(err, memory.ErrNotFound)).True()
}

func TestChunkSearchOrdering(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	chunks := []*model.Chunk{
		{ID: 0, Text: "orthogonal", Embedding: []float32{0, 1, 0}},
		{ID: 1, Text: "close", Embedding: []float32{0.9, 0.1, 0}},
		{ID: 2, Text: "exact", Embedding: []float32{1, 0, 0}},
	}
	for _, c := range chunks {
		gt.NoError(t, repo.Chunk().Upsert(ctx, c))
	}

	results, err := repo.Chunk().Search(ctx, []float32{1, 0, 0}, 3)
	gt.NoError(t, err).Required()
	gt.A(t, results).Length(3)
	gt.Value(t, results[0].Chunk.ID).Equal(model.ChunkID(2))
	gt.Value(t, results[1].Chunk.ID).Equal(model.ChunkID(1))
	gt.Value(t, results[2].Chunk.ID).Equal(model.ChunkID(0))

	// Distances ascend
	gt.Number(t, results[1].Distance).Greater(results[0].Distance)
	gt.Number(t, results[2].Distance).Greater(results[1].Distance)
}

func TestChunkSearchTieBreaksByID(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	// Identical embeddings give identical distances
	for _, id := range []model.ChunkID{5, 3, 7} {
		gt.NoError(t, repo.Chunk().Upsert(ctx, &model.Chunk{
			ID:        id,
			Text:      "same",
			Embedding: []float32{1, 0},
		}))
	}

	results, err := repo.Chunk().Search(ctx, []float32{1, 0}, 3)
	gt.NoError(t, err).Required()
	gt.A(t, results).Length(3)
	gt.Value(t, results[0].Chunk.ID).Equal(model.ChunkID(3))
	gt.Value(t, results[1].Chunk.ID).Equal(model.ChunkID(5))
	gt.Value(t, results[2].Chunk.ID).Equal(model.ChunkID(7))
}

func TestChunkSearchLimitClamp(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	for i := 0; i < 3; i++ {
		gt.NoError(t, repo.Chunk().Upsert(ctx, &model.Chunk{
			ID:        model.ChunkID(i),
			Text:      "chunk",
			Embedding: []float32{float32(i + 1), 1},
		}))
	}

	results, err := repo.Chunk().Search(ctx, []float32{1, 1}, 10)
	gt.NoError(t, err)
	gt.A(t, results).Length(3)

	results, err = repo.Chunk().Search(ctx, []float32{1, 1}, 2)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
}

func TestChunkMeta(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	meta, err := repo.Chunk().Meta(ctx)
	gt.NoError(t, err)
	gt.Value(t, meta).Nil()

	gt.NoError(t, repo.Chunk().SetMeta(ctx, &model.CollectionMeta{
		EmbeddingModel: "text-embedding-004",
		Dimension:      model.EmbeddingDimension,
		ChunkCount:     12,
	}))

	meta, err = repo.Chunk().Meta(ctx)
	gt.NoError(t, err)
	gt.Value(t, meta).NotNil()
	gt.Value(t, meta.EmbeddingModel).Equal("text-embedding-004")
	gt.Value(t, meta.ChunkCount).Equal(12)
}

func TestChunkClear(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	defer repo.Close()

	gt.NoError(t, repo.Chunk().Upsert(ctx, &model.Chunk{ID: 0, Text: "chunk"}))
	gt.NoError(t, repo.Chunk().SetMeta(ctx, &model.CollectionMeta{ChunkCount: 1}))
	gt.NoError(t, repo.Chunk().Clear(ctx))

	count, err := repo.Chunk().Count(ctx)
	gt.NoError(t, err)
	gt.Value(t, count).Equal(0)

	meta, err := repo.Chunk().Meta(ctx)
	gt.NoError(t, err)
	gt.Value(t, meta).Nil()
}
