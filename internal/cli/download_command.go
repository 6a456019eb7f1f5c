package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-colorable"

	"omdl/internal/batch"
	"omdl/internal/config"
	"omdl/internal/format"
	"omdl/internal/lifecycle"
	"omdl/internal/model"
	"omdl/internal/progress"
	"omdl/internal/provider"
	"omdl/internal/ytdlp"
)

type downloadFlags struct {
	mode             *string
	quality          *string
	preset           *string
	codec            *string
	container        *string
	audioCodec       *string
	audioQuality     *string
	nameStyle        *string
	filenameTemplate *string
	output           *string
	cookies          *string
	hevc             optionalBool
	embedThumbnail   optionalBool
	yes              *bool
	jsonOut          *bool
}

func registerDownloadFlags(fs *flag.FlagSet) *downloadFlags {
	f := &downloadFlags{}
	f.mode = fs.String("mode", "auto", "download mode: auto|audio")
	f.quality = fs.String("quality", "", "auto|best|<yt-dlp format expression> (empty uses config)")
	f.preset = fs.String("preset", "", "video: 144p..1080p height cap; audio: 320|192|128 kbps")
	f.codec = fs.String("codec", "", "video codec preference: "+strings.Join(format.CodecPreferences(), "|"))
	f.container = fs.String("container", "", "merge container: auto|mp4|webm")
	f.audioCodec = fs.String("audio-codec", "", "audio codec: best|mp3|ogg|wav|opus")
	f.audioQuality = fs.String("audio-quality", "", "audio bitrate in kbps or best")
	f.nameStyle = fs.String("name-style", "", "filename style: simple|nerd")
	f.filenameTemplate = fs.String("filename-template", "", "yt-dlp filename template (overrides --name-style)")
	f.output = fs.String("output", "", "output root directory")
	f.cookies = fs.String("cookies", "", "cookies.txt path (default: <cookies_dir>/<provider>.txt)")
	fs.Var(&f.hevc, "hevc", "allow H.265 in preset selections")
	fs.Var(&f.embedThumbnail, "embed-thumbnail", "embed the thumbnail into extracted audio")
	f.yes = fs.Bool("yes", false, "skip the confirmation prompt")
	f.jsonOut = fs.Bool("json", false, "print JSON output")
	return f
}

func (f *downloadFlags) overrides() batch.Overrides {
	return batch.Overrides{
		Mode:           *f.mode,
		Quality:        *f.quality,
		Preset:         *f.preset,
		Codec:          *f.codec,
		HEVC:           f.hevc.ptr(),
		Container:      *f.container,
		AudioCodec:     *f.audioCodec,
		AudioQuality:   *f.audioQuality,
		EmbedThumbnail: f.embedThumbnail.ptr(),
	}
}

func (f *downloadFlags) input(url string, id provider.Identity) batch.Input {
	return batch.Input{
		URL:              url,
		Provider:         string(id),
		Overrides:        f.overrides(),
		Cookies:          strings.TrimSpace(*f.cookies),
		NameStyle:        strings.TrimSpace(*f.nameStyle),
		FilenameTemplate: strings.TrimSpace(*f.filenameTemplate),
		OutputDir:        strings.TrimSpace(*f.output),
	}
}

func runDownload(args []string, fixed provider.Identity) error {
	name := "dl"
	if fixed != "" {
		name = string(fixed)
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	df := registerDownloadFlags(fs)
	fs.SetOutput(flag.CommandLine.Output())
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%s takes a single URL (use batch for several)", name)
	}
	url := ""
	if len(positional) == 1 {
		url = strings.TrimSpace(positional[0])
	} else {
		url, err = promptRequired("URL")
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(baseDir())
	if err != nil {
		return err
	}
	seq := newSequencer(cfg, *df.jsonOut)
	prepared, err := seq.Prepare(df.input(url, fixed))
	if err != nil {
		return err
	}

	if !*df.jsonOut {
		printDownloadPlan(prepared)
	}
	if !*df.yes {
		ok, err := promptConfirm("Start download? [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("download cancelled")
			return nil
		}
	}
	if err := ytdlp.CheckDependencies(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res := seq.RunBatch(ctx, []batch.Input{df.input(url, prepared.Provider)})
	out := res.Items[0]
	if *df.jsonOut {
		if err := printJSON(out); err != nil {
			return err
		}
	} else if out.LogPath != "" {
		fmt.Fprintf(stdout, "log: %s\n", out.LogPath)
	}
	if out.Status != model.StatusSucceeded {
		return fmt.Errorf("download failed: %s", out.Error)
	}
	return nil
}

func printDownloadPlan(p batch.Prepared) {
	req := p.Request
	fmt.Fprintln(stdout, "download plan")
	fmt.Fprintf(stdout, "provider: %s\n", p.Provider.Label())
	fmt.Fprintf(stdout, "url: %s\n", req.URL)
	fmt.Fprintf(stdout, "mode: %s\n", p.Plan.Mode)
	fmt.Fprintf(stdout, "format: %s\n", req.Format)
	if req.Container != "" && req.Container != format.ContainerAuto {
		fmt.Fprintf(stdout, "container: %s\n", req.Container)
	}
	if len(req.Steps) > 0 {
		steps := make([]string, 0, len(req.Steps))
		for _, s := range req.Steps {
			steps = append(steps, s.String())
		}
		fmt.Fprintf(stdout, "postprocess: %s\n", strings.Join(steps, ", "))
	}
	fmt.Fprintf(stdout, "output: %s\n", req.OutputTemplate)
	if req.CookiesPath != "" {
		fmt.Fprintf(stdout, "cookies: %s\n", req.CookiesPath)
	}
}

// newSequencer wires the live renderer into a sequencer unless output is JSON.
func newSequencer(cfg *config.Config, jsonOut bool) *batch.Sequencer {
	logger := slog.New(slog.NewTextHandler(colorable.NewColorableStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	seq := batch.New(cfg, ytdlp.New(logger), logger)
	if jsonOut {
		return seq
	}

	interactive := progress.IsInteractive(os.Stdout)
	var current *progress.Live
	seq.OnTracker = func(idx, total int, id provider.Identity, tr *lifecycle.Tracker) {
		current = progress.NewLive(stdout, interactive, progress.Item{Index: idx, Total: total, Label: id.Label(), Color: id.Color()}, tr)
		current.Start()
	}
	seq.OnLine = func(_ int, line string) {
		if current == nil || isTerminalLine(line) {
			return
		}
		current.Line(line)
	}
	seq.OnItemDone = func(_ int, total int, out model.ItemOutcome) {
		final := progress.ItemLine(out, total)
		if current != nil {
			current.Stop(final)
			current = nil
			return
		}
		fmt.Fprintln(stdout, final)
	}
	return seq
}

// isTerminalLine matches tracker lines that the per-item result line repeats.
func isTerminalLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "done"), strings.HasPrefix(line, "error:"):
		return true
	case line == string(model.StageSucceeded), line == string(model.StageFailed), line == string(model.StageFinalizing):
		return true
	}
	return false
}

// parseInterspersed lets positional arguments appear before or between flags.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
