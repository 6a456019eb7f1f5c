package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"omdl/internal/runstore"
)

// ProviderFile is the provider-scoped namespace loaded from
// config/providers/<id>.yaml. It is never merged into the global layers.
type ProviderFile struct {
	FormatVideo string         `yaml:"format_video"`
	FormatAudio string         `yaml:"format_audio"`
	Extra       map[string]any `yaml:"extra"`
}

func ProviderPath(baseDir, id string) string {
	return filepath.Join(Dir(baseDir), "providers", id+".yaml")
}

// LoadProvider reads the provider file; a missing file yields an empty ProviderFile.
func LoadProvider(baseDir, id string) (ProviderFile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ProviderFile{}, fmt.Errorf("provider id is required")
	}
	var pf ProviderFile
	if err := runstore.ReadYAML(ProviderPath(baseDir, id), &pf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProviderFile{}, nil
		}
		return ProviderFile{}, err
	}
	pf.FormatVideo = strings.TrimSpace(pf.FormatVideo)
	pf.FormatAudio = strings.TrimSpace(pf.FormatAudio)
	if pf.Extra != nil {
		pf.Extra = normalize(pf.Extra).(map[string]any)
	}
	return pf, nil
}
