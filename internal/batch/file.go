package batch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"omdl/internal/runstore"
)

const DefaultFile = "batch_downloads.yaml"

const fileTemplate = `# omdl batch file
#
# mode:    auto (video) or audio
# quality: auto, best, or a yt-dlp format expression
#
# One URL per entry. Providers are detected from the URL.
mode: auto
quality: auto
urls:
  # - https://www.youtube.com/watch?v=dQw4w9WgXcQ
  # - https://www.instagram.com/reel/xyz/
`

// File is the on-disk batch description.
type File struct {
	Mode    string   `yaml:"mode"`
	Quality string   `yaml:"quality"`
	URLs    []string `yaml:"urls"`
}

// LoadFile reads and normalizes a batch file.
func LoadFile(path string) (File, error) {
	var f File
	if err := runstore.ReadYAML(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, fmt.Errorf("batch file %s not found (run with --init to create it): %w", path, err)
		}
		return File{}, err
	}
	f.Mode = strings.ToLower(strings.TrimSpace(f.Mode))
	if f.Mode != "audio" {
		f.Mode = "auto"
	}
	f.Quality = strings.TrimSpace(f.Quality)
	if f.Quality == "" {
		f.Quality = "auto"
	}
	f.URLs = CleanURLs(f.URLs)
	return f, nil
}

// EnsureFile writes the commented template when path does not exist yet.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := runstore.WriteBytes(path, []byte(fileTemplate)); err != nil {
		return false, err
	}
	return true, nil
}

// Overrides maps the file's mode and quality onto request overrides.
func (f File) Overrides() Overrides {
	return Overrides{Mode: f.Mode, Quality: f.Quality}
}

// CleanURLs drops blank and commented entries. Duplicates are kept in order.
func CleanURLs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		v := strings.TrimSpace(line)
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		out = append(out, v)
	}
	return out
}
