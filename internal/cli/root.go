package cli

import (
	"fmt"

	"omdl/internal/provider"
)

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "dl", "download":
		return runDownload(args[1:], "")
	case "batch":
		return runBatch(args[1:])
	case "providers":
		return runProviders(args[1:])
	case "logs":
		return runLogs(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	}

	if id, err := provider.ParseIdentity(args[0]); err == nil {
		return runDownload(args[1:], id)
	}
	printRootUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func printRootUsage() {
	fmt.Println("omdl: download video or audio from YouTube, Instagram, TikTok, Facebook and X")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  omdl dl <url>")
	fmt.Println("  omdl dl <url> --mode audio --audio-codec mp3")
	fmt.Println("  omdl batch --init && omdl batch")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  dl         download one URL (provider detected from the URL)")
	fmt.Println("  youtube    download one URL with a fixed provider")
	fmt.Println("  instagram  (alias: ig)")
	fmt.Println("  tiktok")
	fmt.Println("  facebook   (alias: fb)")
	fmt.Println("  x          (alias: twitter)")
	fmt.Println("  batch      download every URL in batch_downloads.yaml, one after another")
	fmt.Println("  providers  list supported providers and their default formats")
	fmt.Println("  logs       list recent batches and where their logs are")
	fmt.Println("  settings   show, set or edit config/local.yaml")
	fmt.Println("  doctor     run dependency and filesystem preflight checks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Set OMDL_HOME to use a config directory other than ./config")
	fmt.Println("  - Cookies are picked up from <cookies_dir>/<provider>.txt when present")
}
