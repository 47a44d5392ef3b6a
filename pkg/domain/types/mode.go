package types

import "fmt"

// PipelineMode selects the retrieval strategy for one question. The three
// modes are compositions of the same retriever, expander and reranker
// components, not separate code paths.
type PipelineMode string

const (
	// ModeBasic retrieves with the question text as-is
	ModeBasic PipelineMode = "basic"
	// ModeExpansion retrieves with the question plus a hypothetical answer
	ModeExpansion PipelineMode = "expansion"
	// ModeMultiQuery retrieves with generated related questions and
	// reranks the merged candidates with a cross-encoder
	ModeMultiQuery PipelineMode = "multiquery"
)

// AllPipelineModes returns all valid pipeline modes
func AllPipelineModes() []PipelineMode {
	return []PipelineMode{
		ModeBasic,
		ModeExpansion,
		ModeMultiQuery,
	}
}

// IsValid checks if the pipeline mode is valid
func (m PipelineMode) IsValid() bool {
	switch m {
	case ModeBasic, ModeExpansion, ModeMultiQuery:
		return true
	default:
		return false
	}
}

// String returns the string representation of the pipeline mode
func (m PipelineMode) String() string {
	return string(m)
}

// ParsePipelineMode parses a string into a PipelineMode
func ParsePipelineMode(s string) (PipelineMode, error) {
	mode := PipelineMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid pipeline mode: %s", s)
	}
	return mode, nil
}
