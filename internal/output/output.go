package output

import (
	"os"
	"path/filepath"
	"strings"

	"omdl/internal/config"
	"omdl/internal/format"
)

const (
	StyleSimple = "simple"
	StyleNerd   = "nerd"

	uploaderDir = "%(uploader|channel|creator|uploader_id)s"
)

// NormalizeStyle returns simple or nerd; unknown styles are simple.
func NormalizeStyle(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), StyleNerd) {
		return StyleNerd
	}
	return StyleSimple
}

// Style picks the configured filename style for mode unless override is set.
func Style(cfg *config.Config, mode format.Mode, override string) string {
	if strings.TrimSpace(override) != "" {
		return NormalizeStyle(override)
	}
	if mode == format.ModeAudioOnly {
		return NormalizeStyle(cfg.String("filename_style_audio", StyleSimple))
	}
	return NormalizeStyle(cfg.String("filename_style_video", StyleSimple))
}

// FilenameTemplate returns the yt-dlp filename template for mode and style.
func FilenameTemplate(cfg *config.Config, mode format.Mode, style string) string {
	style = NormalizeStyle(style)
	if mode == format.ModeAudioOnly {
		if style == StyleNerd {
			return cfg.String("filename_template_audio_nerd", config.TemplateAudioNerd)
		}
		return cfg.String("filename_template_audio_simple", config.TemplateAudioSimple)
	}
	if style == StyleNerd {
		return cfg.String("filename_template_video_nerd", config.TemplateVideoNerd)
	}
	return cfg.String("filename_template_video_simple", config.TemplateVideoSimple)
}

// Template builds <outputDir>/<provider>/<uploader>/<filename template>.
func Template(outputDir, provider, filenameTemplate string) string {
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = config.DefaultOutputDir
	}
	name := strings.TrimSpace(filenameTemplate)
	if name == "" {
		name = config.TemplateVideoSimple
	}
	return filepath.Join(ExpandHome(dir), provider, uploaderDir, name)
}

// Shorten trims the middle of long paths for display.
func Shorten(path string, maxLen int) string {
	text := ExpandHome(path)
	r := []rune(text)
	if maxLen <= 1 || len(r) <= maxLen {
		return text
	}
	keep := maxLen - 1
	left := keep / 2
	right := keep - left
	return string(r[:left]) + "…" + string(r[len(r)-right:])
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
