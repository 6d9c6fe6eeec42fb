package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/y-sonoda/quill/pkg/service/search"
)

func searchCommand() *cli.Command {
	var (
		cfg       config
		recipient string
		subject   string
		dateFrom  string
		dateTo    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "recipient",
			Usage:       "Keep results whose recipients contain this text",
			Destination: &recipient,
		},
		&cli.StringFlag{
			Name:        "subject",
			Usage:       "Keep results whose subject contains this text",
			Destination: &subject,
		},
		&cli.StringFlag{
			Name:        "from",
			Usage:       "Earliest sent date (YYYY-MM-DD)",
			Destination: &dateFrom,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "Latest sent date (YYYY-MM-DD)",
			Destination: &dateTo,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search sent emails by keyword with optional filters",
		ArgsUsage: "[pattern]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.loadFile(); err != nil {
				return err
			}
			store, err := cfg.newRecordStore(ctx)
			if err != nil {
				return err
			}

			filters := search.Filters{
				RecipientContains: recipient,
				SubjectContains:   subject,
			}
			if filters.DateFrom, err = parseDateFlag(dateFrom); err != nil {
				return err
			}
			if filters.DateTo, err = parseDateFlag(dateTo); err != nil {
				return err
			}

			pattern := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			results, err := search.Search(ctx, store, pattern, filters)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(c.Root().Writer, "No sent emails matched.")
				return nil
			}

			for i, result := range results {
				sentDate := "unknown"
				if !result.SentDate.IsZero() {
					sentDate = result.SentDate.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(c.Root().Writer, "%d. %s (%s)\n", i+1, result.Subject, sentDate)
				fmt.Fprintf(c.Root().Writer, "   To: %s\n", strings.Join(result.Recipients, ", "))
				if result.BodyExcerpt != "" {
					fmt.Fprintf(c.Root().Writer, "   %s\n", result.BodyExcerpt)
				}
			}
			return nil
		},
	}
}

func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid date, expected YYYY-MM-DD", goerr.V("value", value))
	}
	return parsed, nil
}
