package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/y-sonoda/quill/pkg/utils/logging"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// Best-effort .env loading; a missing file is fine
	_ = godotenv.Load()

	var logLevel string

	cmd := &cli.Command{
		Name:  "quill",
		Usage: "Email assistant with grounded LLM chat",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("QUILL_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.SetDefault(logging.New(logLevel, os.Stderr))
			return logging.With(ctx, logging.Default()), nil
		},
		Commands: []*cli.Command{
			askCommand(),
			chatCommand(),
			probeCommand(),
			searchCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
