package expander_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/service/expander"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"{}"}}, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func respondWith(text string) *mockLLMClient {
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{text}}, nil
				},
			}, nil
		},
	}
}

func TestExpandFullCount(t *testing.T) {
	ctx := context.Background()
	var prompt string
	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					prompt = string(input[0].(gollem.Text))
					return &gollem.Response{
						Texts: []string{`{"questions": ["What drove revenue growth?", "How did margins develop?", "What are the main cost drivers?"]}`},
					}, nil
				},
			}, nil
		},
	}

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	queries, err := e.Expand(ctx, "How did the business perform?", 3)
	gt.NoError(t, err).Required()
	gt.A(t, queries).Length(3)
	gt.Value(t, queries[0]).Equal("What drove revenue growth?")

	gt.Bool(t, strings.Contains(prompt, "How did the business perform?")).True()
	gt.Bool(t, strings.Contains(prompt, "3")).True()
}

func TestExpandPartialCount(t *testing.T) {
	ctx := context.Background()
	client := respondWith(`{"questions": ["What drove revenue growth?", "How did margins develop?"]}`)

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	// Fewer than requested: the partial list comes back with the error
	queries, err := e.Expand(ctx, "How did the business perform?", 5)
	gt.Bool(t, errors.Is(err, types.ErrGeneration)).True()
	gt.A(t, queries).Length(2)
}

func TestExpandDropsBlankQuestions(t *testing.T) {
	ctx := context.Background()
	client := respondWith(`{"questions": ["What drove revenue growth?", "", "  ", "How did margins develop?"]}`)

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	queries, err := e.Expand(ctx, "How did the business perform?", 2)
	gt.NoError(t, err)
	gt.A(t, queries).Length(2)
	gt.Value(t, queries[1]).Equal("How did margins develop?")
}

func TestExpandTruncatesExcess(t *testing.T) {
	ctx := context.Background()
	client := respondWith(`{"questions": ["a?", "b?", "c?", "d?", "e?"]}`)

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	queries, err := e.Expand(ctx, "question", 3)
	gt.NoError(t, err)
	gt.A(t, queries).Length(3)
}

func TestExpandUnparsableResponse(t *testing.T) {
	ctx := context.Background()
	client := respondWith(`not json at all`)

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	queries, err := e.Expand(ctx, "question", 3)
	gt.Bool(t, errors.Is(err, types.ErrGeneration)).True()
	gt.A(t, queries).Length(0)
}

func TestExpandInvalidCount(t *testing.T) {
	ctx := context.Background()
	e, err := expander.New(respondWith(`{}`))
	gt.NoError(t, err).Required()

	_, err = e.Expand(ctx, "question", 0)
	gt.Bool(t, errors.Is(err, types.ErrGeneration)).True()
}

func TestHypothetical(t *testing.T) {
	ctx := context.Background()
	client := respondWith("  Revenue increased by 8% driven by cloud services.  ")

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	answer, err := e.Hypothetical(ctx, "How did revenue develop?")
	gt.NoError(t, err).Required()
	gt.Value(t, answer).Equal("Revenue increased by 8% driven by cloud services.")
}

func TestHypotheticalEmptyResponse(t *testing.T) {
	ctx := context.Background()
	client := respondWith("   ")

	e, err := expander.New(client)
	gt.NoError(t, err).Required()

	_, err = e.Hypothetical(ctx, "How did revenue develop?")
	gt.Bool(t, errors.Is(err, types.ErrGeneration)).True()
}
