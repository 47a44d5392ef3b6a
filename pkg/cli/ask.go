package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/cli/config"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/usecase"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var modeName string
	var llmCfg config.LLM
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Retrieval strategy (basic, expansion, multiquery)",
			Value:       string(types.ModeBasic),
			Sources:     cli.EnvVars("ALEXANDRIA_MODE"),
			Destination: &modeName,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Aliases:   []string{"a"},
		Usage:     "Answer one question from the ingested document",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := c.Args().First()
			if question == "" {
				return goerr.New("question argument is required")
			}

			mode, err := types.ParsePipelineMode(modeName)
			if err != nil {
				return err
			}

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
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, err := usecase.New(repo, llmClient, llmCfg.EmbeddingModel())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize pipeline")
			}

			answer, err := uc.Ask(ctx, question, mode)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			faint := color.New(color.Faint)

			_, _ = bold.Fprintln(os.Stdout, answer.Text)
			fmt.Fprintln(os.Stdout)
			_, _ = faint.Fprintf(os.Stdout, "mode=%s elapsed=%s chunks=%d\n",
				answer.Mode, answer.Elapsed.Round(10*time.Millisecond), len(answer.SupportingChunks))
			for _, sc := range answer.SupportingChunks {
				_, _ = faint.Fprintf(os.Stdout, "  [%s] distance=%.4f %s\n",
					sc.Chunk.ID, sc.Distance, sc.Chunk.Section)
			}

			return nil
		},
	}
}
