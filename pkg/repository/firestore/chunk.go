package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "default"

// distanceField is where FindNearest writes the computed cosine distance
const distanceField = "Distance"

// chunkDoc is the Firestore document representation of model.Chunk.
// Embedding is stored as firestore.Vector32 so that FindNearest vector
// search works.
type chunkDoc struct {
	ID        int                `firestore:"ID"`
	Text      string             `firestore:"Text"`
	Section   string             `firestore:"Section"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toChunkDoc(c *model.Chunk) *chunkDoc {
	doc := &chunkDoc{
		ID:        int(c.ID),
		Text:      c.Text,
		Section:   c.Section,
		CreatedAt: time.Now().UTC(),
	}
	if len(c.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(c.Embedding)
	}
	return doc
}

func fromChunkDoc(d *chunkDoc) *model.Chunk {
	c := &model.Chunk{
		ID:      model.ChunkID(d.ID),
		Text:    d.Text,
		Section: d.Section,
	}
	if len(d.Embedding) > 0 {
		c.Embedding = []float32(d.Embedding)
	}
	return c
}

// metaDoc is the collection-level build record
type metaDoc struct {
	EmbeddingModel string    `firestore:"EmbeddingModel"`
	Dimension      int       `firestore:"Dimension"`
	ChunkCount     int       `firestore:"ChunkCount"`
	UpdatedAt      time.Time `firestore:"UpdatedAt"`
}

type chunkRepository struct {
	client     *firestore.Client
	collection string
}

func newChunkRepository(client *firestore.Client) *chunkRepository {
	return &chunkRepository{
		client:     client,
		collection: defaultCollection,
	}
}

func (r *chunkRepository) collectionDoc() *firestore.DocumentRef {
	return r.client.Collection("collections").Doc(r.collection)
}

func (r *chunkRepository) chunksCollection() *firestore.CollectionRef {
	return r.collectionDoc().Collection("chunks")
}

func (r *chunkRepository) Upsert(ctx context.Context, chunk *model.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return goerr.Wrap(err, "invalid chunk")
	}

	docRef := r.chunksCollection().Doc(chunk.ID.String())
	if _, err := docRef.Set(ctx, toChunkDoc(chunk)); err != nil {
		return goerr.Wrap(err, "failed to upsert chunk", goerr.V("id", chunk.ID))
	}

	return nil
}

func (r *chunkRepository) Get(ctx context.Context, id model.ChunkID) (*model.Chunk, error) {
	doc, err := r.chunksCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get chunk", goerr.V("id", id))
	}

	var d chunkDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal chunk", goerr.V("id", id))
	}

	return fromChunkDoc(&d), nil
}

func (r *chunkRepository) Search(ctx context.Context, embedding []float32, limit int) ([]*model.ScoredChunk, error) {
	if limit <= 0 {
		return []*model.ScoredChunk{}, nil
	}

	vq := r.chunksCollection().
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.ScoredChunk, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk from vector search")
		}

		distance := 0.0
		if v, ok := doc.Data()[distanceField].(float64); ok {
			distance = v
		}

		results = append(results, &model.ScoredChunk{
			Chunk:    fromChunkDoc(&d),
			Distance: distance,
		})
	}

	// FindNearest orders by distance but leaves equal-distance order
	// unspecified; re-sort so ties always resolve to the lower chunk ID.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	return results, nil
}

func (r *chunkRepository) Count(ctx context.Context) (int, error) {
	refs, err := r.chunksCollection().DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks")
	}
	return len(refs), nil
}

func (r *chunkRepository) Meta(ctx context.Context) (*model.CollectionMeta, error) {
	doc, err := r.collectionDoc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get collection meta")
	}

	var d metaDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal collection meta")
	}

	return &model.CollectionMeta{
		EmbeddingModel: d.EmbeddingModel,
		Dimension:      d.Dimension,
		ChunkCount:     d.ChunkCount,
	}, nil
}

func (r *chunkRepository) SetMeta(ctx context.Context, meta *model.CollectionMeta) error {
	d := &metaDoc{
		EmbeddingModel: meta.EmbeddingModel,
		Dimension:      meta.Dimension,
		ChunkCount:     meta.ChunkCount,
		UpdatedAt:      time.Now().UTC(),
	}
	if _, err := r.collectionDoc().Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to set collection meta")
	}
	return nil
}

func (r *chunkRepository) Clear(ctx context.Context) error {
	refs, err := r.chunksCollection().DocumentRefs(ctx).GetAll()
	if err != nil {
		return goerr.Wrap(err, "failed to list chunks for clear")
	}

	bw := r.client.BulkWriter(ctx)
	for _, ref := range refs {
		if _, err := bw.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to delete chunk", goerr.V("ref", ref.ID))
		}
	}
	bw.End()

	if _, err := r.collectionDoc().Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete collection meta")
	}

	return nil
}
