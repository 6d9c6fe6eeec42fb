package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/usecase/chat"
)

func askCommand() *cli.Command {
	var (
		cfg       config
		providers []string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "provider",
			Usage:       "Provider key to query (repeatable; default: all)",
			Destination: &providers,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one prompt and print each provider's answer",
		ArgsUsage: "<prompt>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if prompt == "" {
				return goerr.New("prompt is required")
			}

			svc, err := cfg.newService(ctx)
			if err != nil {
				return err
			}

			session, err := chat.New(chat.NewInput{
				Service:   svc,
				Providers: providers,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create session")
			}

			for _, reply := range session.Send(ctx, prompt) {
				printReply(c, reply)
			}
			return nil
		},
	}
}

func printReply(c *cli.Command, reply chat.Reply) {
	fmt.Fprintf(c.Root().Writer, "[%s]\n%s\n", reply.Provider, reply.Text)
	if reply.Fallback {
		fmt.Fprintf(c.Root().Writer, "(deterministic fallback answer)\n")
	}
	if summary := metricsSummary(reply.Metrics); summary != "" {
		fmt.Fprintf(c.Root().Writer, "%s\n", summary)
	}
	fmt.Fprintln(c.Root().Writer)
}

func metricsSummary(metrics model.Metrics) string {
	if len(metrics) == 0 {
		return ""
	}

	var parts []string
	for _, key := range []string{"latency_ms", "total_tokens", "response_chars"} {
		if value, ok := metrics[key]; ok && value != nil {
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	if errValue, ok := metrics["error"]; ok && errValue != nil {
		parts = append(parts, fmt.Sprintf("error=%v", errValue))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, " ")
}
