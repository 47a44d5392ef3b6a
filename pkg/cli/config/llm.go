package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// Default embedding models per backend. Both produce vectors at the
// collection dimension.
const (
	defaultGeminiEmbedding = "text-embedding-004"
	defaultOpenAIEmbedding = "text-embedding-3-small"
)

// LLM holds configuration for the hosted LLM backend used for embeddings,
// expansion, answering and judging
type LLM struct {
	backend        string
	embeddingModel string

	geminiProject  string
	geminiLocation string

	openaiAPIKey string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-backend",
			Usage:       "LLM backend (gemini or openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("ALEXANDRIA_LLM_BACKEND"),
			Destination: &l.backend,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model identifier (defaults to the backend's standard model)",
			Sources:     cli.EnvVars("ALEXANDRIA_EMBEDDING_MODEL"),
			Destination: &l.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("ALEXANDRIA_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("ALEXANDRIA_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("ALEXANDRIA_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration. The API key
// never appears here.
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", l.backend),
		slog.String("embedding_model", l.EmbeddingModel()),
		slog.String("gemini_project", l.geminiProject),
		slog.Bool("openai_key_configured", l.openaiAPIKey != ""),
	}
}

// EmbeddingModel returns the embedding model identifier recorded alongside
// the collection
func (l *LLM) EmbeddingModel() string {
	if l.embeddingModel != "" {
		return l.embeddingModel
	}
	switch l.backend {
	case "openai":
		return defaultOpenAIEmbedding
	default:
		return defaultGeminiEmbedding
	}
}

// Configure creates the LLM client for the configured backend
func (l *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch l.backend {
	case "gemini":
		if l.geminiProject == "" {
			return nil, goerr.New("gemini-project is required for the gemini backend")
		}
		client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "openai":
		if l.openaiAPIKey == "" {
			return nil, goerr.New("openai-api-key is required for the openai backend")
		}
		client, err := openai.New(ctx, l.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	default:
		return nil, goerr.New("invalid LLM backend", goerr.V("backend", l.backend))
	}
}
