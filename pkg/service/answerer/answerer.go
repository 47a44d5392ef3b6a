package answerer

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

//go:embed prompt/answer.md
var answerPromptTmpl string

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptTmpl))

// NoContextAnswer is returned when retrieval produced nothing to answer
// from, so the model is never asked to answer without grounding
const NoContextAnswer = "No relevant information found in the report."

// Answerer generates the final answer from retrieved context
type Answerer struct {
	llmClient gollem.LLMClient
}

// New creates an Answerer backed by the given LLM client
func New(llmClient gollem.LLMClient) (*Answerer, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Answerer{llmClient: llmClient}, nil
}

// Generate builds the answer prompt from the question and the supporting
// chunk texts in the order given, and requests one completion. Callers
// control context ordering through the retriever and reranker output.
func (a *Answerer) Generate(ctx context.Context, question string, chunkTexts []string) (string, error) {
	if len(chunkTexts) == 0 {
		return NoContextAnswer, nil
	}

	var buf bytes.Buffer
	if err := answerPrompt.Execute(&buf, map[string]any{
		"Question": question,
		"Context":  strings.Join(chunkTexts, "\n\n"),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render answer prompt")
	}

	session, err := a.llmClient.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(types.ErrGeneration, "failed to create LLM session",
			goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		return "", goerr.Wrap(types.ErrGeneration, "answer request failed",
			goerr.V(types.QuestionKey, question), goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 || strings.TrimSpace(resp.Texts[0]) == "" {
		return "", goerr.Wrap(types.ErrGeneration, "answer was empty",
			goerr.V(types.QuestionKey, question))
	}

	return strings.TrimSpace(resp.Texts[0]), nil
}
