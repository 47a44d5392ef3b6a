package expander

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

//go:embed prompt/related.md
var relatedPromptTmpl string

//go:embed prompt/hypothetical.md
var hypotheticalPromptTmpl string

var (
	relatedPrompt      = template.Must(template.New("related").Parse(relatedPromptTmpl))
	hypotheticalPrompt = template.Must(template.New("hypothetical").Parse(hypotheticalPromptTmpl))
)

// Expander broadens retrieval coverage with extra LLM-generated query texts
type Expander struct {
	llmClient gollem.LLMClient
}

// New creates an Expander backed by the given LLM client
func New(llmClient gollem.LLMClient) (*Expander, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Expander{llmClient: llmClient}, nil
}

type relatedResponse struct {
	Questions []string `json:"questions"`
}

// Expand generates up to n related questions for the original one. When the
// model returns fewer than n usable questions the partial list is returned
// together with an ErrGeneration; callers proceed with whatever came back
// as long as at least one question exists. The original question is not
// included in the output — downstream always unions it in, so expansion
// only ever adds coverage.
func (e *Expander) Expand(ctx context.Context, question string, n int) ([]string, error) {
	if n <= 0 {
		return nil, goerr.Wrap(types.ErrGeneration, "expansion count must be positive", goerr.V("n", n))
	}

	var buf bytes.Buffer
	if err := relatedPrompt.Execute(&buf, map[string]any{
		"Count":    n,
		"Question": question,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render expansion prompt")
	}

	session, err := e.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(relatedSchema(n)),
	)
	if err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to create LLM session",
			goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "expansion request failed",
			goerr.V(types.QuestionKey, question), goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(types.ErrGeneration, "expansion returned no content",
			goerr.V(types.QuestionKey, question))
	}

	var parsed relatedResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to parse expansion response",
			goerr.V("response", resp.Texts[0]))
	}

	queries := usableLines(parsed.Questions)
	if len(queries) > n {
		queries = queries[:n]
	}
	if len(queries) < n {
		return queries, goerr.Wrap(types.ErrGeneration, "fewer expansions than requested",
			goerr.V("want", n), goerr.V("got", len(queries)))
	}

	return queries, nil
}

// Hypothetical generates a document-style answer the question might have in
// the source, used to enrich the retrieval query
func (e *Expander) Hypothetical(ctx context.Context, question string) (string, error) {
	var buf bytes.Buffer
	if err := hypotheticalPrompt.Execute(&buf, map[string]any{
		"Question": question,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render hypothetical prompt")
	}

	session, err := e.llmClient.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(types.ErrGeneration, "failed to create LLM session",
			goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		return "", goerr.Wrap(types.ErrGeneration, "hypothetical answer request failed",
			goerr.V(types.QuestionKey, question), goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 || strings.TrimSpace(resp.Texts[0]) == "" {
		return "", goerr.Wrap(types.ErrGeneration, "hypothetical answer was empty",
			goerr.V(types.QuestionKey, question))
	}

	return strings.TrimSpace(resp.Texts[0]), nil
}

func relatedSchema(n int) *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "RelatedQuestions",
		Description: "Related questions covering different facets of the original question",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"questions": {
				Type:        gollem.TypeArray,
				Description: "The related questions, one string each",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}

func usableLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
