package cli

import (
	"context"

	"github.com/papyrus-lab/alexandria/pkg/cli/config"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	flags := loggerCfg.Flags()
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "alexandria",
		Usage:   "Retrieval-augmented question answering over a single document",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logClose, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, logClose)

			sentryClose, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, sentryClose)

			logging.Default().Info("Starting alexandria", "logger", &loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for _, f := range closers {
				f()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdIngest(),
			cmdAsk(),
			cmdEval(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		sentryCfg.CaptureError(err)
		return err
	}

	return nil
}
