package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"omdl/internal/runstore"
)

const (
	dirName       = "config"
	baseFileName  = "default.yaml"
	localFileName = "local.yaml"
)

// Config is the merged view of defaults, config/default.yaml and config/local.yaml.
type Config struct {
	BaseDir string
	values  map[string]any
}

func Dir(baseDir string) string {
	return filepath.Join(baseDir, dirName)
}

func BasePath(baseDir string) string {
	return filepath.Join(Dir(baseDir), baseFileName)
}

func LocalPath(baseDir string) string {
	return filepath.Join(Dir(baseDir), localFileName)
}

func Load(baseDir string) (*Config, error) {
	merged := Defaults()
	for _, path := range []string{BasePath(baseDir), LocalPath(baseDir)} {
		layer, err := readLayer(path)
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, layer)
	}
	return &Config{BaseDir: baseDir, values: merged}, nil
}

// New layers values over the built-in defaults without reading any files.
func New(baseDir string, values map[string]any) *Config {
	return &Config{BaseDir: baseDir, values: DeepMerge(Defaults(), values)}
}

func readLayer(path string) (map[string]any, error) {
	var raw any
	if err := runstore.ReadYAML(path, &raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config %s: top level must be a mapping", path)
	}
	return m, nil
}

// DeepMerge returns a new map: nested mappings merge key-wise, any other
// override value replaces the base value. Neither input is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range override {
		ov, overrideIsMap := v.(map[string]any)
		bv, baseIsMap := out[k].(map[string]any)
		if overrideIsMap && baseIsMap {
			out[k] = DeepMerge(bv, ov)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DeepMerge(t, nil)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// normalize converts yaml generic maps into map[string]any recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	default:
		return v
	}
}

// Get resolves a dotted key ("video.quality") and returns def when any segment is missing.
func (c *Config) Get(key string, def any) any {
	if c == nil {
		return def
	}
	var cur any = c.values
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		cur, ok = m[part]
		if !ok {
			return def
		}
	}
	if cur == nil {
		return def
	}
	return cur
}

func (c *Config) String(key, def string) string {
	switch v := c.Get(key, nil).(type) {
	case nil:
		return def
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}

func (c *Config) Int(key string, def int) int {
	switch v := c.Get(key, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

func (c *Config) Bool(key string, def bool) bool {
	switch v := c.Get(key, nil).(type) {
	case bool:
		return v
	case string:
		b, ok := ParseBool(v)
		if !ok {
			return def
		}
		return b
	default:
		return def
	}
}

// Values returns a deep copy of the merged tree.
func (c *Config) Values() map[string]any {
	if c == nil {
		return Defaults()
	}
	return DeepMerge(c.values, nil)
}

// Keys lists every leaf key in dotted form, sorted.
func (c *Config) Keys() []string {
	out := []string{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(key, child)
				continue
			}
			out = append(out, key)
		}
	}
	walk("", c.values)
	sort.Strings(out)
	return out
}

// SaveLocal merges patch into config/local.yaml and writes it back. Keys absent
// from patch are left untouched.
func SaveLocal(baseDir string, patch map[string]any) error {
	dir := Dir(baseDir)
	lock, err := runstore.AcquireLock(dir, "config")
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	path := LocalPath(baseDir)
	current, err := readLayer(path)
	if err != nil {
		return err
	}
	merged := DeepMerge(current, normalize(patch).(map[string]any))
	if err := runstore.WriteYAML(path, merged); err != nil {
		return fmt.Errorf("save local config: %w", err)
	}
	return nil
}

func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "1", "on":
		return true, true
	case "n", "no", "false", "0", "off":
		return false, true
	default:
		return false, false
	}
}

// ParseAssignment turns "video.allow_h265=true" into a nested patch map.
func ParseAssignment(raw string) (map[string]any, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return nil, fmt.Errorf("invalid assignment %q (want key=value)", raw)
	}
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("invalid key %q", key)
		}
	}

	var leaf any = scalar(strings.TrimSpace(value))
	for i := len(parts) - 1; i >= 0; i-- {
		leaf = map[string]any{parts[i]: leaf}
	}
	return leaf.(map[string]any), nil
}

func scalar(v string) any {
	switch strings.ToLower(v) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}
