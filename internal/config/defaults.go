package config

const (
	DefaultOutputDir           = "downloads"
	DefaultLogDir              = "logs"
	DefaultCookiesDir          = "cookies"
	DefaultFilenameStyle       = "simple"
	DefaultConcurrentFragments = 5
	DefaultSocketTimeout       = 30

	DefaultVideoQuality     = "auto"
	DefaultPresetResolution = "720p"
	DefaultPreferCodec      = "h264+aac"
	DefaultContainer        = "auto"

	DefaultAudioFormat  = "mp3"
	DefaultAudioBitrate = "best"

	TemplateVideoSimple = "%(title)s.%(ext)s"
	TemplateVideoNerd   = "%(title)s [%(id)s] [%(format_note|resolution)s].%(ext)s"
	TemplateAudioSimple = "%(title)s.%(ext)s"
	TemplateAudioNerd   = "%(title)s [%(id)s] [%(acodec)s %(abr|tbr)sKbps].%(ext)s"
)

// ProviderDefaults is the per-identity video expression used when a provider
// file does not configure one.
var ProviderDefaults = map[string]string{
	"youtube":   "bestvideo*+bestaudio/best",
	"instagram": "best",
	"tiktok":    "best",
	"facebook":  "best",
	"x":         "best",
}

// Defaults returns a fresh copy of the built-in layer.
func Defaults() map[string]any {
	providerDefaults := make(map[string]any, len(ProviderDefaults))
	for k, v := range ProviderDefaults {
		providerDefaults[k] = v
	}
	return map[string]any{
		"output_dir":                     DefaultOutputDir,
		"log_dir":                        DefaultLogDir,
		"cookies_dir":                    DefaultCookiesDir,
		"filename_style_video":           DefaultFilenameStyle,
		"filename_style_audio":           DefaultFilenameStyle,
		"filename_template_video_simple": TemplateVideoSimple,
		"filename_template_video_nerd":   TemplateVideoNerd,
		"filename_template_audio_simple": TemplateAudioSimple,
		"filename_template_audio_nerd":   TemplateAudioNerd,
		"restrict_filenames":             false,
		"concurrent_fragment_downloads":  DefaultConcurrentFragments,
		"socket_timeout":                 DefaultSocketTimeout,
		"video": map[string]any{
			"quality":           DefaultVideoQuality,
			"preset_resolution": DefaultPresetResolution,
			"prefer_codec":      DefaultPreferCodec,
			"allow_h265":        false,
			"container":         DefaultContainer,
		},
		"audio": map[string]any{
			"format":          DefaultAudioFormat,
			"bitrate":         DefaultAudioBitrate,
			"embed_thumbnail": true,
		},
		"provider_defaults": providerDefaults,
	}
}
