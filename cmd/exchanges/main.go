// Command exchanges prints the relay exchange log for one UTC day.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"advisor-chat/internal/bootstrap"
	"advisor-chat/internal/config"
	"advisor-chat/internal/domain"
)

func main() {
	day := flag.String("day", time.Now().UTC().Format(time.DateOnly), "UTC day to list (YYYY-MM-DD)")
	limit := flag.Int("limit", 50, "maximum number of exchanges")
	flag.Parse()

	if err := run(context.Background(), *day, *limit, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, day string, limit int, out io.Writer) error {
	ts, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return fmt.Errorf("invalid -day %q: %w", day, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	repo, err := bootstrap.ExchangeLog(ctx, cfg)
	if err != nil {
		return err
	}

	exchanges, err := repo.ListExchanges(ctx, ts, limit)
	if err != nil {
		return err
	}
	return printExchanges(out, exchanges)
}

func printExchanges(out io.Writer, exchanges []domain.Exchange) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tCATEGORY\tOUTCOME\tMODEL\tDURATION\tCHARS\tCORRELATION")
	for _, ex := range exchanges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dms\t%d\t%s\n",
			ex.CreatedAt, ex.Category, ex.Outcome, ex.Model, ex.DurationMillis, ex.ResponseLength, ex.CorrelationID)
	}
	return tw.Flush()
}
