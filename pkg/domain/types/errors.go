package types

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the pipeline. Callers match with errors.Is; wrapped
// instances carry context via goerr values.
var (
	// ErrEmptySource is returned when ingestion is given no content
	ErrEmptySource = goerr.New("source document is empty")

	// ErrIndexBuild is returned when ingestion fails partway. The wrapped
	// error carries InsertedKey so the caller can resume from that count.
	ErrIndexBuild = goerr.New("index build failed")

	// ErrModelMismatch is returned when the query-time embedding model
	// differs from the model recorded at index time
	ErrModelMismatch = goerr.New("embedding model mismatch")

	// ErrGeneration is returned when an LLM call (expansion, answer or
	// judging) fails or returns unusable output
	ErrGeneration = goerr.New("LLM generation failed")

	// ErrRetrieval is returned when the chunk store query fails
	ErrRetrieval = goerr.New("retrieval failed")
)

// Context keys for error values
const (
	InsertedKey   = "inserted"
	QuestionKey   = "question"
	ChunkIDKey    = "chunk_id"
	IndexModelKey = "index_model"
	QueryModelKey = "query_model"
)
