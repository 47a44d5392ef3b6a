package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds configuration for error reporting. Reporting is disabled
// when no DSN is configured.
type Sentry struct {
	dsn string
	env string
}

// Flags returns CLI flags for Sentry configuration
func (s *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Sources:     cli.EnvVars("ALEXANDRIA_SENTRY_DSN"),
			Destination: &s.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment tag",
			Value:       "production",
			Sources:     cli.EnvVars("ALEXANDRIA_SENTRY_ENV"),
			Destination: &s.env,
		},
	}
}

// Configure initializes the Sentry client. The returned closer flushes
// buffered events; it is a no-op when reporting is disabled.
func (s *Sentry) Configure(version string) (func(), error) {
	if s.dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         s.dsn,
		Environment: s.env,
		Release:     version,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}

// CaptureError reports an error when reporting is enabled
func (s *Sentry) CaptureError(err error) {
	if s.dsn == "" || err == nil {
		return
	}
	sentry.CaptureException(err)
}
