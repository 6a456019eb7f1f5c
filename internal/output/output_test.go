package output

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"omdl/internal/config"
	"omdl/internal/format"
)

func TestTemplateLayout(t *testing.T) {
	got := Template("downloads", "youtube", "%(title)s.%(ext)s")
	want := filepath.Join("downloads", "youtube", "%(uploader|channel|creator|uploader_id)s", "%(title)s.%(ext)s")
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := Template("", "x", ""); !strings.HasPrefix(got, "downloads") || !strings.HasSuffix(got, "%(title)s.%(ext)s") {
		t.Fatalf("expected defaults, got %q", got)
	}
}

func TestFilenameTemplateByModeAndStyle(t *testing.T) {
	cfg := config.New(t.TempDir(), nil)
	cases := []struct {
		mode  format.Mode
		style string
		want  string
	}{
		{format.ModeOriginal, StyleSimple, config.TemplateVideoSimple},
		{format.ModeOriginal, StyleNerd, config.TemplateVideoNerd},
		{format.ModeAudioOnly, StyleSimple, config.TemplateAudioSimple},
		{format.ModeAudioOnly, "NERD", config.TemplateAudioNerd},
		{format.ModeAudioOnly, "fancy", config.TemplateAudioSimple},
	}
	for _, tc := range cases {
		if got := FilenameTemplate(cfg, tc.mode, tc.style); got != tc.want {
			t.Fatalf("mode=%s style=%s: got %q want %q", tc.mode, tc.style, got, tc.want)
		}
	}
}

func TestStyleUsesConfigPerMode(t *testing.T) {
	cfg := config.New(t.TempDir(), map[string]any{"filename_style_audio": "nerd"})
	if got := Style(cfg, format.ModeAudioOnly, ""); got != StyleNerd {
		t.Fatalf("expected nerd for audio, got %q", got)
	}
	if got := Style(cfg, format.ModeOriginal, ""); got != StyleSimple {
		t.Fatalf("expected simple for video, got %q", got)
	}
	if got := Style(cfg, format.ModeAudioOnly, "simple"); got != StyleSimple {
		t.Fatalf("override must win, got %q", got)
	}
}

func TestShorten(t *testing.T) {
	long := "/very/long/path/" + strings.Repeat("segment/", 20) + "file.mp4"
	got := Shorten(long, 40)
	if utf8.RuneCountInString(got) != 40 {
		t.Fatalf("expected 40 runes, got %d (%q)", utf8.RuneCountInString(got), got)
	}
	if !strings.HasPrefix(got, "/very/long") || !strings.HasSuffix(got, "file.mp4") || !strings.Contains(got, "…") {
		t.Fatalf("unexpected shortened path %q", got)
	}
	if got := Shorten("/short.mp4", 40); got != "/short.mp4" {
		t.Fatalf("short paths must be unchanged, got %q", got)
	}
}
