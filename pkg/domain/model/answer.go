package model

import (
	"time"

	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

// Answer is the outcome of one question-answering call: the generated text
// plus the chunks that were actually fed to the model.
type Answer struct {
	Question         string
	Text             string
	Mode             types.PipelineMode
	SupportingChunks []*ScoredChunk
	ExpandedQueries  []string // empty for basic mode
	Elapsed          time.Duration
}
