package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
)

type Firestore struct {
	client *firestore.Client
	chunk  *chunkRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollection overrides the top-level collection name, so multiple
// knowledge sources can share one database
func WithCollection(name string) Option {
	return func(f *Firestore) {
		f.chunk.collection = name
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client: client,
		chunk:  newChunkRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Chunk() interfaces.ChunkRepository {
	return f.chunk
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
