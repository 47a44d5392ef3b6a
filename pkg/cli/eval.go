package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/cli/config"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/usecase"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
	"github.com/papyrus-lab/alexandria/pkg/utils/safe"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

func cmdEval() *cli.Command {
	var questionsPath string
	var modeName string
	var outputPath string
	var llmCfg config.LLM
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "questions",
			Usage:       "TOML question set file",
			Required:    true,
			Sources:     cli.EnvVars("ALEXANDRIA_QUESTIONS"),
			Destination: &questionsPath,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Retrieval strategy to evaluate (basic, expansion, multiquery, or all)",
			Value:       "all",
			Sources:     cli.EnvVars("ALEXANDRIA_MODE"),
			Destination: &modeName,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Write the full report as TOML to this path",
			Sources:     cli.EnvVars("ALEXANDRIA_EVAL_OUTPUT"),
			Destination: &outputPath,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "eval",
		Aliases: []string{"e"},
		Usage:   "Evaluate retrieval strategies against a question set",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			modes := types.AllPipelineModes()
			if modeName != "all" {
				mode, err := types.ParsePipelineMode(modeName)
				if err != nil {
					return err
				}
				modes = []types.PipelineMode{mode}
			}

			set, err := config.LoadQuestionSet(questionsPath)
			if err != nil {
				return err
			}
			questions := set.ToModel()

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

			uc, err := usecase.New(repo, llmClient, llmCfg.EmbeddingModel())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize pipeline")
			}

			var reports []*model.Report
			for _, mode := range modes {
				logger.Info("evaluating", "mode", mode, "questions", len(questions))
				report, err := uc.Evaluate(ctx, questions, mode)
				if err != nil {
					return goerr.Wrap(err, "evaluation run failed", goerr.V("mode", mode))
				}
				reports = append(reports, report)
				printSummary(report)
			}

			if outputPath != "" {
				if err := writeReports(ctx, outputPath, reports); err != nil {
					return err
				}
				logger.Info("report written", "path", outputPath)
			}

			return nil
		},
	}
}

func printSummary(report *model.Report) {
	summary := report.Summarize()

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(os.Stdout, "\n== %s ==\n", report.Mode)
	fmt.Fprintf(os.Stdout, "questions: %d  failed: %d  mean score: %.2f\n",
		summary.Total, summary.Failed, summary.MeanScore)
	for difficulty, mean := range summary.ByDifficulty {
		name := difficulty.String()
		if name == "" {
			name = "untagged"
		}
		fmt.Fprintf(os.Stdout, "  %-8s %.2f\n", name, mean)
	}
}

// reportDoc is the TOML representation of one evaluation run
type reportDoc struct {
	ID        string      `toml:"id"`
	Mode      string      `toml:"mode"`
	StartedAt time.Time   `toml:"started_at"`
	MeanScore float64     `toml:"mean_score"`
	Failed    int         `toml:"failed"`
	Records   []recordDoc `toml:"record"`
}

type recordDoc struct {
	Question  string `toml:"question"`
	Answer    string `toml:"answer,omitempty"`
	Score     int    `toml:"score"`
	Rationale string `toml:"rationale,omitempty"`
	Chunks    []int  `toml:"chunks,omitempty"`
	ElapsedMS int64  `toml:"elapsed_ms"`
	Failed    bool   `toml:"failed,omitempty"`
	Reason    string `toml:"failure_reason,omitempty"`
}

func writeReports(ctx context.Context, path string, reports []*model.Report) error {
	docs := struct {
		Runs []reportDoc `toml:"run"`
	}{}

	for _, report := range reports {
		summary := report.Summarize()
		doc := reportDoc{
			ID:        string(report.ID),
			Mode:      report.Mode.String(),
			StartedAt: report.StartedAt,
			MeanScore: summary.MeanScore,
			Failed:    summary.Failed,
		}
		for _, rec := range report.Records {
			chunks := make([]int, len(rec.SupportingChunks))
			for i, id := range rec.SupportingChunks {
				chunks[i] = int(id)
			}
			doc.Records = append(doc.Records, recordDoc{
				Question:  rec.Question.Text,
				Answer:    rec.Answer,
				Score:     rec.Score,
				Rationale: rec.Rationale,
				Chunks:    chunks,
				ElapsedMS: rec.Elapsed.Milliseconds(),
				Failed:    rec.Failed,
				Reason:    rec.FailureReason,
			})
		}
		docs.Runs = append(docs.Runs, doc)
	}

	data, err := toml.Marshal(docs)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal report")
	}

	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create report file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	safe.Write(ctx, f, data)
	return nil
}
