package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func probeCommand() *cli.Command {
	var (
		cfg       config
		providers []string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "provider",
			Usage:       "Provider key to probe (repeatable; default: all)",
			Destination: &providers,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "probe",
		Usage: "Verify provider credentials and connectivity",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, err := cfg.newService(ctx)
			if err != nil {
				return err
			}

			keys := providers
			if len(keys) == 0 {
				keys = svc.Providers()
			}

			failed := false
			for _, key := range keys {
				ok, message := svc.Probe(ctx, key)
				status := "OK"
				if !ok {
					status = "NG"
					failed = true
				}
				fmt.Fprintf(c.Root().Writer, "[%s] %s: %s\n", status, key, message)
			}

			if failed {
				return goerr.New("one or more providers failed the probe")
			}
			return nil
		},
	}
}
