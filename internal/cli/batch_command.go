package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"omdl/internal/batch"
	"omdl/internal/config"
	"omdl/internal/progress"
	"omdl/internal/ytdlp"
)

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	file := fs.String("file", batch.DefaultFile, "batch file path")
	initFile := fs.Bool("init", false, "create the batch file template if missing and exit")
	mode := fs.String("mode", "", "override the file's mode: auto|audio")
	quality := fs.String("quality", "", "override the file's quality: auto|best|<expr>")
	nameStyle := fs.String("name-style", "", "filename style: simple|nerd")
	output := fs.String("output", "", "output root directory")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(*file)

	if *initFile {
		created, err := batch.EnsureFile(path)
		if err != nil {
			return err
		}
		if *jsonOut {
			return printJSON(map[string]any{"path": path, "created": created})
		}
		if created {
			fmt.Printf("created batch file: %s\n", path)
		} else {
			fmt.Printf("batch file already exists: %s\n", path)
		}
		return nil
	}

	ov := batch.Overrides{Mode: "auto", Quality: "auto"}
	urls := batch.CleanURLs(positional)
	if len(urls) == 0 {
		bf, err := batch.LoadFile(path)
		if err != nil {
			return err
		}
		ov = bf.Overrides()
		urls = bf.URLs
	}
	if strings.TrimSpace(*mode) != "" {
		ov.Mode = strings.TrimSpace(*mode)
	}
	if strings.TrimSpace(*quality) != "" {
		ov.Quality = strings.TrimSpace(*quality)
	}

	items := make([]batch.Input, 0, len(urls))
	for _, u := range urls {
		items = append(items, batch.Input{
			URL:       u,
			Overrides: ov,
			NameStyle: strings.TrimSpace(*nameStyle),
			OutputDir: strings.TrimSpace(*output),
		})
	}

	cfg, err := config.Load(baseDir())
	if err != nil {
		return err
	}
	if len(items) > 0 {
		if err := ytdlp.CheckDependencies(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res := newSequencer(cfg, *jsonOut).RunBatch(ctx, items)

	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(stdout)
		progress.RenderSummary(stdout, res)
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d item(s) failed", res.Failed, res.Total)
	}
	return nil
}
