package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/service/reranker"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
)

// Ask answers one question with the selected retrieval strategy. The three
// modes compose the same retriever, expander and reranker; they differ only
// in which calls are made and in what order.
func (uc *UseCases) Ask(ctx context.Context, question string, mode types.PipelineMode) (*model.Answer, error) {
	if question == "" {
		return nil, goerr.New("question is required")
	}
	if !mode.IsValid() {
		return nil, goerr.New("invalid pipeline mode", goerr.V("mode", mode))
	}

	start := time.Now()

	var result *model.RetrievalResult
	var expanded []string
	var err error

	switch mode {
	case types.ModeBasic:
		result, err = uc.retriever.Retrieve(ctx, []string{question}, basicTopK)
	case types.ModeExpansion:
		result, expanded, err = uc.retrieveExpanded(ctx, question)
	case types.ModeMultiQuery:
		result, expanded, err = uc.retrieveMultiQuery(ctx, question)
	}
	if err != nil {
		return nil, err
	}

	text, err := uc.answerer.Generate(ctx, question, result.Texts())
	if err != nil {
		return nil, err
	}

	return &model.Answer{
		Question:         question,
		Text:             text,
		Mode:             mode,
		SupportingChunks: result.Chunks,
		ExpandedQueries:  expanded,
		Elapsed:          time.Since(start),
	}, nil
}

// retrieveExpanded enriches the query with a hypothetical document-style
// answer before retrieval. The hypothetical text steers the embedding
// toward report language; only retrieved chunks reach the final answer
// prompt. A failed hypothetical call falls back to the bare question.
func (uc *UseCases) retrieveExpanded(ctx context.Context, question string) (*model.RetrievalResult, []string, error) {
	query := question
	var expanded []string

	hypothetical, err := uc.expander.Hypothetical(ctx, question)
	if err != nil {
		logging.From(ctx).Warn("hypothetical answer failed, retrieving with the original question",
			"error", err.Error())
	} else {
		query = question + " " + hypothetical
		expanded = []string{hypothetical}
	}

	result, err := uc.retriever.Retrieve(ctx, []string{query}, expansionTopK)
	if err != nil {
		return nil, nil, err
	}
	return result, expanded, nil
}

// retrieveMultiQuery retrieves with generated related questions plus the
// original, merges the union and reranks it with the cross-encoder against
// the original question.
func (uc *UseCases) retrieveMultiQuery(ctx context.Context, question string) (*model.RetrievalResult, []string, error) {
	expanded, err := uc.expander.Expand(ctx, question, relatedCount)
	if err != nil {
		if len(expanded) == 0 || !errors.Is(err, types.ErrGeneration) {
			logging.From(ctx).Warn("query expansion failed, retrieving with the original question only",
				"error", err.Error())
			expanded = nil
		} else {
			// Partial expansion still adds coverage; proceed with it.
			logging.From(ctx).Warn("query expansion incomplete",
				"got", len(expanded), "want", relatedCount)
		}
	}

	// The original question is always among the retrieval texts, so
	// expansion can only add candidates, never drop the literal query.
	texts := append([]string{question}, expanded...)

	result, err := uc.retriever.Retrieve(ctx, texts, multiQueryTopK)
	if err != nil {
		return nil, nil, err
	}

	top, err := reranker.Rerank(ctx, uc.crossEncoder, question, result.Chunks, rerankTopN)
	if err != nil {
		return nil, nil, err
	}

	return &model.RetrievalResult{Chunks: top}, expanded, nil
}
