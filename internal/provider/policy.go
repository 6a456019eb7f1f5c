package provider

import (
	"strings"

	"omdl/internal/config"
	"omdl/internal/format"
	"omdl/internal/ytdlp"
)

// Policy is the read-only per-request view of one provider's defaults.
type Policy struct {
	Identity     Identity
	DefaultVideo string
	DefaultAudio string
	Extra        map[string]any

	globalVideo string
	base        ytdlp.Options
}

// Load builds the policy for id from the merged config and the provider's
// own file under config/providers.
func Load(cfg *config.Config, id Identity) (Policy, error) {
	pf, err := config.LoadProvider(cfg.BaseDir, string(id))
	if err != nil {
		return Policy{}, err
	}
	return NewPolicy(cfg, id, pf), nil
}

func NewPolicy(cfg *config.Config, id Identity, pf config.ProviderFile) Policy {
	return Policy{
		Identity:     id,
		DefaultVideo: pf.FormatVideo,
		DefaultAudio: pf.FormatAudio,
		Extra:        pf.Extra,
		globalVideo:  cfg.String("provider_defaults."+string(id), config.ProviderDefaults[string(id)]),
		base: ytdlp.Options{
			RestrictFilenames:   cfg.Bool("restrict_filenames", false),
			ConcurrentFragments: cfg.Int("concurrent_fragment_downloads", config.DefaultConcurrentFragments),
			SocketTimeout:       cfg.Int("socket_timeout", config.DefaultSocketTimeout),
		},
	}
}

// ResolveFormat turns a quality choice into the selection expression for this
// provider. Explicit expressions always pass through untouched.
func (p Policy) ResolveFormat(mode format.Mode, quality format.Quality) string {
	if expr, ok := quality.Expression(); ok {
		return expr
	}
	if mode == format.ModeAudioOnly {
		if p.DefaultAudio != "" {
			return p.DefaultAudio
		}
		return format.ExprBestAudio
	}
	if quality.IsBest() {
		return ExprBestVideoAudio
	}
	if p.DefaultVideo != "" {
		return p.DefaultVideo
	}
	if strings.TrimSpace(p.globalVideo) != "" {
		return p.globalVideo
	}
	return "best"
}

// BaseEngineOptions returns the shared engine options with this provider's
// extra options merged over them.
func (p Policy) BaseEngineOptions() ytdlp.Options {
	return p.base.Merge(p.Extra)
}

// Plan combines the provider defaults with the user's intent.
func (p Policy) Plan(intent format.Intent) format.SelectionPlan {
	if intent.Mode() == format.ModeAudioOnly {
		_, steps := format.BuildAudioPlan(intent)
		return format.SelectionPlan{
			Mode:       format.ModeAudioOnly,
			Expression: p.ResolveFormat(format.ModeAudioOnly, intent.Quality()),
			Steps:      steps,
		}
	}
	providerDefault := p.ResolveFormat(format.ModeOriginal, format.Auto())
	expr, container := format.BuildVideoFormat(intent, providerDefault)
	if intent.QualityMode() == format.QualityModeAuto {
		expr = providerDefault
	}
	return format.SelectionPlan{
		Mode:       format.ModeOriginal,
		Expression: expr,
		Container:  container,
	}
}
