package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"omdl/internal/config"
	"omdl/internal/format"
	"omdl/internal/provider"
)

type providerInfo struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Aliases      []string `json:"aliases,omitempty"`
	VideoFormat  string   `json:"video_format"`
	AudioFormat  string   `json:"audio_format"`
	ProviderFile string   `json:"provider_file"`
}

func runProviders(args []string) error {
	fs := flag.NewFlagSet("providers", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(baseDir())
	if err != nil {
		return err
	}
	infos := make([]providerInfo, 0, len(provider.All()))
	for _, id := range provider.All() {
		policy, err := provider.Load(cfg, id)
		if err != nil {
			return err
		}
		infos = append(infos, providerInfo{
			ID:           string(id),
			Label:        id.Label(),
			Aliases:      id.Aliases(),
			VideoFormat:  policy.ResolveFormat(format.ModeOriginal, format.Auto()),
			AudioFormat:  policy.ResolveFormat(format.ModeAudioOnly, format.Auto()),
			ProviderFile: config.ProviderPath(cfg.BaseDir, string(id)),
		})
	}
	if *jsonOut {
		return printJSON(infos)
	}

	for _, p := range infos {
		label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(provider.Identity(p.ID).Color())).Render(p.Label)
		fmt.Fprintf(stdout, "%s (%s)\n", label, p.ID)
		if len(p.Aliases) > 0 {
			fmt.Fprintf(stdout, "  aliases: %s\n", strings.Join(p.Aliases, ", "))
		}
		fmt.Fprintf(stdout, "  video: %s\n", p.VideoFormat)
		fmt.Fprintf(stdout, "  audio: %s\n", p.AudioFormat)
		fmt.Fprintf(stdout, "  file:  %s\n", p.ProviderFile)
	}
	return nil
}
