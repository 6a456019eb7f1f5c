package cli

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"omdl/internal/config"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "edit":
		return runSettingsEdit(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	base := baseDir()
	cfg, err := config.Load(base)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"default_path": config.BasePath(base),
			"local_path":   config.LocalPath(base),
			"settings":     cfg.Values(),
		})
	}

	fmt.Printf("config: %s (overrides in %s)\n", config.BasePath(base), config.LocalPath(base))
	for _, key := range cfg.Keys() {
		fmt.Printf("%s: %v\n", key, cfg.Get(key, ""))
	}
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	assignments, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return errors.New("settings set needs at least one key=value")
	}

	known := knownSettingKeys()
	patch := map[string]any{}
	keys := make([]string, 0, len(assignments))
	for _, raw := range assignments {
		p, err := config.ParseAssignment(raw)
		if err != nil {
			return err
		}
		key, _, _ := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !known[key] && !strings.HasPrefix(key, "provider_defaults.") {
			return fmt.Errorf("unknown setting %q (see: omdl settings show)", key)
		}
		patch = config.DeepMerge(patch, p)
		keys = append(keys, key)
	}

	base := baseDir()
	if err := config.SaveLocal(base, patch); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{"local_path": config.LocalPath(base), "updated": keys})
	}
	sort.Strings(keys)
	fmt.Printf("updated settings in %s\n", config.LocalPath(base))
	cfg, err := config.Load(base)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Printf("%s: %v\n", k, cfg.Get(k, ""))
	}
	return nil
}

func knownSettingKeys() map[string]bool {
	out := map[string]bool{"video.format": true}
	for _, k := range config.New("", nil).Keys() {
		out[k] = true
	}
	return out
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show [--json]")
	fmt.Println("  settings set key=value [key=value...]   e.g. video.quality=preset audio.format=opus")
	fmt.Println("  settings edit                           interactive editor (TTY)")
}
