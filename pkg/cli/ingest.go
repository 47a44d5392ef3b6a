package cli

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/cli/config"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/service/chunker"
	"github.com/papyrus-lab/alexandria/pkg/service/source"
	"github.com/papyrus-lab/alexandria/pkg/usecase"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var sourceLocation string
	var coarseSize, fineSize, overlap int
	var llmCfg config.LLM
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Knowledge source document (file path or gs:// URL)",
			Required:    true,
			Sources:     cli.EnvVars("ALEXANDRIA_SOURCE"),
			Destination: &sourceLocation,
		},
		&cli.IntFlag{
			Name:        "coarse-size",
			Usage:       "First-pass segment size in runes",
			Value:       chunker.DefaultOptions().CoarseSize,
			Sources:     cli.EnvVars("ALEXANDRIA_COARSE_SIZE"),
			Destination: &coarseSize,
		},
		&cli.IntFlag{
			Name:        "fine-size",
			Usage:       "Second-pass chunk size in runes",
			Value:       chunker.DefaultOptions().FineSize,
			Sources:     cli.EnvVars("ALEXANDRIA_FINE_SIZE"),
			Destination: &fineSize,
		},
		&cli.IntFlag{
			Name:        "overlap",
			Usage:       "Runes shared between adjacent chunks",
			Value:       chunker.DefaultOptions().Overlap,
			Sources:     cli.EnvVars("ALEXANDRIA_OVERLAP"),
			Destination: &overlap,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Chunk and index a knowledge source document",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, err := usecase.New(repo, llmClient, llmCfg.EmbeddingModel(),
				usecase.WithChunkOptions(chunker.Options{
					CoarseSize: coarseSize,
					FineSize:   fineSize,
					Overlap:    overlap,
				}))
			if err != nil {
				return goerr.Wrap(err, "failed to initialize pipeline")
			}

			text, err := source.Read(ctx, sourceLocation)
			if err != nil {
				return err
			}

			result, err := uc.Ingest(ctx, text)
			if err != nil {
				if errors.Is(err, types.ErrIndexBuild) {
					// The inserted count in the error values tells
					// where a resumed run should pick up.
					logger.Error("ingestion failed partway, re-run to resume", "error", err)
				}
				return err
			}

			logger.Info("ingestion completed",
				"source", sourceLocation,
				"chunks", result.Chunks,
				"embedding_model", llmCfg.EmbeddingModel(),
			)
			return nil
		},
	}
}
