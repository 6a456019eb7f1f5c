package batch

import (
	"fmt"
	"strings"

	"omdl/internal/config"
	"omdl/internal/format"
)

// Overrides are per-request choices layered over the configured defaults.
// Empty strings and nil pointers fall through to config.
type Overrides struct {
	Mode           string
	Quality        string
	Preset         string
	Codec          string
	HEVC           *bool
	Container      string
	AudioCodec     string
	AudioQuality   string
	EmbedThumbnail *bool
}

// IntentFromConfig normalizes mode and quality the same way for single
// downloads and batch files.
func IntentFromConfig(cfg *config.Config, ov Overrides) (format.Intent, error) {
	mode := format.ParseMode(ov.Mode)
	opts := format.IntentOptions{
		Mode:            mode,
		CodecPreference: firstNonEmpty(ov.Codec, cfg.String("video.prefer_codec", config.DefaultPreferCodec)),
		AllowHEVC:       boolOr(ov.HEVC, cfg.Bool("video.allow_h265", false)),
		Container:       format.ParseContainerPolicy(firstNonEmpty(ov.Container, cfg.String("video.container", config.DefaultContainer))),
		AudioFormat:     format.ParseAudioFormat(firstNonEmpty(ov.AudioCodec, cfg.String("audio.format", config.DefaultAudioFormat))),
		AudioBitrate:    format.ParseBitrate(firstNonEmpty(ov.AudioQuality, cfg.String("audio.bitrate", config.DefaultAudioBitrate))),
		EmbedThumbnail:  boolOr(ov.EmbedThumbnail, cfg.Bool("audio.embed_thumbnail", true)),
	}
	quality := strings.TrimSpace(ov.Quality)
	preset := strings.TrimSpace(ov.Preset)

	if mode == format.ModeAudioOnly {
		if preset != "" {
			b, ok := format.ParseAudioPreset(preset)
			if !ok {
				return format.Intent{}, fmt.Errorf("%w: audio preset %q must be 320, 192 or 128", format.ErrInvalidIntent, preset)
			}
			opts.AudioBitrate = b
		}
		switch strings.ToLower(quality) {
		case "", "auto", "best", "bestaudio":
			opts.QualityMode = format.QualityModeAuto
		default:
			opts.QualityMode = format.QualityModeManual
			opts.ManualExpression = quality
		}
		return format.NewIntent(opts)
	}

	if preset != "" {
		h, ok := format.ParsePresetResolution(preset)
		if !ok {
			return format.Intent{}, fmt.Errorf("%w: unsupported preset %q", format.ErrInvalidIntent, preset)
		}
		opts.QualityMode = format.QualityModePreset
		opts.PresetResolution = h
		return format.NewIntent(opts)
	}

	switch strings.ToLower(quality) {
	case "", "auto":
		applyConfiguredQuality(cfg, &opts)
	case "best":
		opts.QualityMode = format.QualityModeBest
	default:
		opts.QualityMode = format.QualityModeManual
		opts.ManualExpression = quality
	}
	return format.NewIntent(opts)
}

func applyConfiguredQuality(cfg *config.Config, opts *format.IntentOptions) {
	opts.QualityMode = format.ParseQualityMode(cfg.String("video.quality", config.DefaultVideoQuality))
	switch opts.QualityMode {
	case format.QualityModePreset:
		if h, ok := format.ParsePresetResolution(cfg.String("video.preset_resolution", config.DefaultPresetResolution)); ok {
			opts.PresetResolution = h
		}
	case format.QualityModeManual:
		opts.ManualExpression = cfg.String("video.format", "")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
