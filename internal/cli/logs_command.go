package cli

import (
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"omdl/internal/batch"
	"omdl/internal/config"
	"omdl/internal/model"
)

func runLogs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "number of recent batches to show (0 for all)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(baseDir())
	if err != nil {
		return err
	}
	history, err := batch.History(cfg.String("log_dir", config.DefaultLogDir), *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(history)
	}
	if len(history) == 0 {
		fmt.Fprintln(stdout, "no batches recorded yet")
		return nil
	}
	for _, res := range history {
		fmt.Fprintln(stdout, historyLine(res))
	}
	return nil
}

func historyLine(res model.BatchResult) string {
	when := res.StartedAt
	if t, err := time.Parse(time.RFC3339, res.StartedAt); err == nil {
		when = humanize.Time(t)
	}
	return fmt.Sprintf("%s  %-14s  items: %d  ok: %d  fail: %d  skip: %d  %s",
		res.BatchID, when, res.Total, res.Succeeded, res.Failed, res.Skipped, res.LogDir)
}
