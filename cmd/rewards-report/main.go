// Command rewards-report prints reward views for a transactions file as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"rewards/internal/cli"
	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/services"
	"rewards/internal/source"
)

const (
	viewMonthly      = "monthly"
	viewTotals       = "totals"
	viewTransactions = "transactions"
	viewSummary      = "summary"
	viewStats        = "stats"
)

var errUsage = errors.New("usage")

type options struct {
	file  string
	view  string
	tz    string
	start string
	end   string
	sort  string
}

func main() {
	cli.LoadEnvFile()
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "rewards-report:", err)
		}
		os.Exit(2)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("rewards-report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.file, "file", envOr("TRANSACTIONS_FILE", "./data/transactions.json"), "transactions JSON file, - for stdin")
	fs.StringVar(&o.view, "view", viewSummary, "monthly, totals, transactions, stats or summary")
	fs.StringVar(&o.tz, "tz", envOr("TIMEZONE", "Local"), "IANA time zone used to bucket dates into months")
	fs.StringVar(&o.start, "start", "", "first day to include (YYYY-MM-DD)")
	fs.StringVar(&o.end, "end", "", "last day to include (YYYY-MM-DD)")
	fs.StringVar(&o.sort, "sort", "", "totals: name|points|amount, transactions: price|-price")
	if err := fs.Parse(args); err != nil {
		return options{}, errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return options{}, errUsage
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := log.New(log.Config{Level: levelFromEnv(), Component: log.ComponentReport, Output: stderr})

	loc := time.Local
	if o.tz != "" && o.tz != "Local" {
		if loc, err = time.LoadLocation(o.tz); err != nil {
			return fmt.Errorf("time zone %q: %w", o.tz, err)
		}
	}
	dr, err := core.ParseDateRange(o.start, o.end, loc)
	if err != nil {
		return err
	}

	txs, err := readTransactions(o.file, stdin)
	if err != nil {
		return err
	}

	engine := core.NewEngine(loc)
	selected := engine.FilterTransactions(txs, dr)
	stats := engine.Inspect(selected)
	logger.Debug("Transactions loaded", log.FieldSource, o.file, log.FieldDateRange, dr.Key(), log.FieldTransactions, len(selected))
	if stats.InvalidAmounts > 0 || stats.InvalidDates > 0 {
		logger.Warn("Some transactions have unreadable values",
			log.NewFields().WithInputQuality(stats.Transactions, stats.InvalidAmounts, stats.NonPositiveAmounts, stats.InvalidDates, stats.UnknownCustomers).ToSlice()...)
	}

	var out any
	switch o.view {
	case viewMonthly:
		out = engine.AggregateMonthlyRewards(selected)
	case viewTotals:
		key, err := core.ParseTotalsSortKey(o.sort)
		if err != nil {
			return err
		}
		out = core.SortTotals(engine.BuildTotalRewards(selected), key)
	case viewTransactions:
		order, err := services.ParseRowOrder(o.sort)
		if err != nil {
			return err
		}
		rows := engine.BuildTransactionRows(selected)
		switch order {
		case services.RowsPriceAscending:
			rows = core.SortRowsByPrice(rows, false)
		case services.RowsPriceDescending:
			rows = core.SortRowsByPrice(rows, true)
		}
		out = rows
	case viewStats:
		out = stats
	case viewSummary:
		summary, err := engine.Summarize(txs, dr)
		if err != nil {
			return err
		}
		out = summary
	default:
		return fmt.Errorf("unknown view %q", o.view)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readTransactions(path string, stdin io.Reader) ([]core.Transaction, error) {
	if path == "-" {
		return source.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return source.Decode(f)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func levelFromEnv() slog.Level {
	lvl, _ := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	return lvl
}
