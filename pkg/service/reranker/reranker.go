package reranker

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/interfaces"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

//go:embed prompt/score.md
var scorePromptTmpl string

var scorePrompt = template.Must(template.New("score").Parse(scorePromptTmpl))

// LLMCrossEncoder scores (query, passage) pairs with one LLM call per
// candidate batch. Slower and costlier than vector similarity, but the
// pairs are judged together with the question rather than independently
// embedded, which sharpens the top of the ranking.
type LLMCrossEncoder struct {
	llmClient gollem.LLMClient
}

var _ interfaces.CrossEncoder = &LLMCrossEncoder{}

// NewCrossEncoder creates an LLM-backed cross-encoder
func NewCrossEncoder(llmClient gollem.LLMClient) (*LLMCrossEncoder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &LLMCrossEncoder{llmClient: llmClient}, nil
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score rates every candidate against the query in one batched request.
// The returned slice follows candidate order.
func (c *LLMCrossEncoder) Score(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	var buf bytes.Buffer
	if err := scorePrompt.Execute(&buf, map[string]any{
		"Question": query,
		"Passages": candidates,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render scoring prompt")
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(scoreSchema()),
	)
	if err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to create LLM session",
			goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "scoring request failed",
			goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(types.ErrGeneration, "scoring returned no content")
	}

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to parse scoring response",
			goerr.V("response", resp.Texts[0]))
	}
	if len(parsed.Scores) != len(candidates) {
		return nil, goerr.Wrap(types.ErrGeneration, "score count mismatch",
			goerr.V("want", len(candidates)), goerr.V("got", len(parsed.Scores)))
	}

	return parsed.Scores, nil
}

func scoreSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "PassageScores",
		Description: "Relevance scores for the passages, in passage order",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"scores": {
				Type:        gollem.TypeArray,
				Description: "One score between 0.0 and 1.0 per passage",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeNumber,
				},
			},
		},
	}
}

// Rerank reorders candidates by cross-encoder score, descending. The sort
// is stable so candidates with identical scores keep their original
// retrieval order. topN larger than the candidate list returns everything
// without error.
func Rerank(ctx context.Context, encoder interfaces.CrossEncoder, query string, candidates []*model.ScoredChunk, topN int) ([]*model.ScoredChunk, error) {
	if len(candidates) == 0 {
		return []*model.ScoredChunk{}, nil
	}

	texts := make([]string, len(candidates))
	for i, sc := range candidates {
		texts[i] = sc.Chunk.Text
	}

	scores, err := encoder.Score(ctx, query, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "cross-encoder scoring failed")
	}

	type ranked struct {
		chunk *model.ScoredChunk
		score float64
	}
	rankedList := make([]ranked, len(candidates))
	for i, sc := range candidates {
		rankedList[i] = ranked{chunk: sc, score: scores[i]}
	}

	sort.SliceStable(rankedList, func(i, j int) bool {
		return rankedList[i].score > rankedList[j].score
	})

	if topN > len(rankedList) {
		topN = len(rankedList)
	}

	out := make([]*model.ScoredChunk, topN)
	for i := 0; i < topN; i++ {
		out[i] = rankedList[i].chunk
	}
	return out, nil
}
