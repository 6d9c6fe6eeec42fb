package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/y-sonoda/quill/pkg/usecase/chat"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		providers []string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "provider",
			Usage:       "Provider key to compare (repeatable; default: all)",
			Destination: &providers,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive side-by-side provider comparison",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
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

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started (%v). Type 'exit' to quit.\n",
				session.Providers())

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}
				if line == "exit" {
					break
				}
				if line == "" {
					continue
				}

				spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				spin.Suffix = " querying providers..."
				spin.Start()
				replies := session.Send(ctx, line)
				spin.Stop()

				for _, reply := range replies {
					printReply(c, reply)
				}
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}
