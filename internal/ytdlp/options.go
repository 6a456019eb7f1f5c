package ytdlp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options are the engine settings shared by every provider, plus the
// provider's extra flags.
type Options struct {
	RestrictFilenames   bool
	ConcurrentFragments int
	SocketTimeout       int
	Extra               map[string]any
}

// Merge applies extra over o. Keys naming a base option replace it; every
// other key is kept as an extra flag.
func (o Options) Merge(extra map[string]any) Options {
	out := o
	out.Extra = make(map[string]any, len(o.Extra)+len(extra))
	for k, v := range o.Extra {
		out.Extra[k] = v
	}
	for rawKey, v := range extra {
		key := flagName(rawKey)
		switch key {
		case "restrict-filenames":
			if b, ok := v.(bool); ok {
				out.RestrictFilenames = b
				continue
			}
		case "concurrent-fragments", "concurrent-fragment-downloads":
			if n, ok := asInt(v); ok {
				out.ConcurrentFragments = n
				continue
			}
		case "socket-timeout":
			if n, ok := asInt(v); ok {
				out.SocketTimeout = n
				continue
			}
		}
		out.Extra[key] = v
	}
	return out
}

func (o Options) args() []string {
	args := []string{}
	if o.RestrictFilenames {
		args = append(args, "--restrict-filenames")
	}
	if o.ConcurrentFragments > 0 {
		args = append(args, "-N", strconv.Itoa(o.ConcurrentFragments))
	}
	if o.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(o.SocketTimeout))
	}
	return append(args, extraArgs(o.Extra)...)
}

func extraArgs(extra map[string]any) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{}
	for _, k := range keys {
		flag := "--" + flagName(k)
		switch v := extra[k].(type) {
		case nil:
		case bool:
			if v {
				args = append(args, flag)
			}
		case []any:
			for _, item := range v {
				args = append(args, flag, fmt.Sprint(item))
			}
		case []string:
			for _, item := range v {
				args = append(args, flag, item)
			}
		case map[string]any:
			// header maps: {"User-Agent": "x"} -> --add-header User-Agent:x
			if flag == "--http-headers" {
				flag = "--add-header"
			}
			hk := make([]string, 0, len(v))
			for name := range v {
				hk = append(hk, name)
			}
			sort.Strings(hk)
			for _, name := range hk {
				args = append(args, flag, name+":"+fmt.Sprint(v[name]))
			}
		default:
			args = append(args, flag, fmt.Sprint(v))
		}
	}
	return args
}

func flagName(raw string) string {
	k := strings.TrimLeft(strings.TrimSpace(raw), "-")
	return strings.ReplaceAll(k, "_", "-")
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}
